package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

type sampleBody struct {
	Reason string `json:"reason" validate:"required,max=10"`
}

func TestDecodeJSONBody(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"late"}`))
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "late", body.Reason)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"late","extra":1}`))
	err := DecodeJSONBody(req, &body)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	var body sampleBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":""}`))
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, map[string]string{"reason": "is required"}, typed.Details())
}

func TestParsePagination(t *testing.T) {
	params, err := ParsePagination(httptest.NewRequest(http.MethodGet, "/?cursor=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Equal(t, "abc", params.Cursor)

	_, err = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=1000", nil))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestParseQueryBool(t *testing.T) {
	value, err := ParseQueryBool(httptest.NewRequest(http.MethodGet, "/?unread=true", nil), "unread")
	require.NoError(t, err)
	assert.True(t, value)

	_, err = ParseQueryBool(httptest.NewRequest(http.MethodGet, "/?unread=maybe", nil), "unread")
	assert.Error(t, err)
}

func TestParseURLUUID(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseURLUUID(req, "orderId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseURLUUID(req, "missing")
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeString(" abc ", 0))
}
