package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{Errorf(ErrValidation, "Not enough stock available"), http.StatusBadRequest, "Not enough stock available"},
		{fmt.Errorf("users: lookup: %w", Errorf(ErrNotFound, "User not found")), http.StatusNotFound, "User not found"},
		{Errorf(ErrForbidden, "Permission required: sales"), http.StatusForbidden, "Permission required: sales"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrDuplicate, http.StatusConflict, "duplicate entry"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code)

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, tc.status, body.Status)
		require.Equal(t, tc.detail, body.Detail)
	}
}

func TestBindValidates(t *testing.T) {
	type payload struct {
		Quantity float64 `json:"quantity" validate:"gt=0"`
	}
	v := validator.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	var p payload
	err := Bind(req, v, &p)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "Quantity")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":2}`))
	require.NoError(t, Bind(req, v, &p))
	require.InDelta(t, 2, p.Quantity, 1e-9)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	require.ErrorIs(t, Bind(req, v, &p), ErrValidation)
}
