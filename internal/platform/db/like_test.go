package db

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeLike(t *testing.T) {
	require.Equal(t, "Meat & Fish", EscapeLike("Meat & Fish"))
	require.Equal(t, `50\% off\_x\\y`, EscapeLike(`50% off_x\y`))
}
