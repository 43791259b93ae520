package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchJSONHitAndMiss(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "ledger", "summary")
	require.NoError(t, err)
	require.Equal(t, "reports:ledger:summary:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return SummaryCounts{TotalProducts: 3}, nil
	}

	var first SummaryCounts
	hit, err := cache.FetchJSON(ctx, key, &first, loader)
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, int64(3), first.TotalProducts)

	var second SummaryCounts
	hit, err = cache.FetchJSON(ctx, key, &second, loader)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
}

func TestCacheInvalidateBumpsVersion(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "ledger", "products")
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))
	after, err := cache.BuildKey(ctx, "ledger", "products")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	require.Equal(t, "reports:ledger:products:v2", after)
}

func TestServiceSummaryUsesCache(t *testing.T) {
	repo := fixture()
	svc := NewService(repo, newTestCache(t), Config{Location: ist})
	svc.now = func() time.Time { return day(10, 12) }
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.Summary.TotalSales)

	repo.sales = append(repo.sales, Entry{ID: 2, ProductID: 1, Quantity: 1, Amount: 55, At: day(9, 9)})
	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), cached.Summary.TotalSales)

	require.NoError(t, svc.cache.Invalidate(ctx))
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), fresh.Summary.TotalSales)
}

func TestNilCacheBuildsEveryTime(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "ledger", "summary")
	require.NoError(t, err)
	require.Equal(t, "reports:ledger:summary", key)

	var out SummaryCounts
	hit, err := cache.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return SummaryCounts{TotalSales: 4}, nil
	})
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, int64(4), out.TotalSales)
	require.NoError(t, cache.Invalidate(ctx))
}
