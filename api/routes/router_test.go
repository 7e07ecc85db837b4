package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigmarket-backend/internal/ledger"
	"github.com/angelmondragon/gigmarket-backend/internal/notifications"
	"github.com/angelmondragon/gigmarket-backend/internal/orders"
	"github.com/angelmondragon/gigmarket-backend/internal/withdrawals"
	pkgAuth "github.com/angelmondragon/gigmarket-backend/pkg/auth"
	"github.com/angelmondragon/gigmarket-backend/pkg/config"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	"github.com/angelmondragon/gigmarket-backend/pkg/logger"
	"github.com/angelmondragon/gigmarket-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

// Embedded nil interfaces panic if a test reaches an unstubbed method.
type stubOrders struct {
	orders.Service
}

func (stubOrders) ListForUser(_ context.Context, input orders.ListOrdersInput) (*orders.OrderList, error) {
	return &orders.OrderList{Orders: []models.Order{{ID: uuid.New(), BuyerID: input.Actor.UserID}}}, nil
}

type stubLedger struct {
	ledger.Service
}

func (stubLedger) GetWallet(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return &models.Wallet{ID: uuid.New(), UserID: userID, BalanceCents: 1000, Currency: "INR"}, nil
}

type stubWithdrawals struct {
	withdrawals.Service
	pendingCalls int
	requested    []uuid.UUID
}

func (s *stubWithdrawals) Request(_ context.Context, input withdrawals.RequestInput) (*models.WithdrawalRequest, error) {
	s.requested = append(s.requested, input.UserID)
	return &models.WithdrawalRequest{ID: uuid.New(), UserID: input.UserID, AmountCents: input.AmountCents, Status: enums.WithdrawalStatusPending}, nil
}

func (s *stubWithdrawals) ListPending(context.Context, withdrawals.Actor, pagination.Params) (*withdrawals.RequestList, error) {
	s.pendingCalls++
	return &withdrawals.RequestList{}, nil
}

type stubNotifications struct {
	notifications.Service
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "gigmarket", ExpirationMinutes: 10},
	}
}

func newTestRouter(t *testing.T, db stubPinger, w *stubWithdrawals) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(testConfig(), logg, db, nil, Services{
		Orders:        stubOrders{},
		Ledger:        stubLedger{},
		Withdrawals:   w,
		Notifications: stubNotifications{},
	})
}

func bearer(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(h http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t, stubPinger{}, &stubWithdrawals{})

	live := serve(h, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "dev", live.Header().Get("X-GigMarket-Env"))
	assert.NotEmpty(t, live.Header().Get("X-Request-Id"))

	ready := serve(h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"redis":"skipped"`)
}

func TestHealthReadyReportsDependencyFailure(t *testing.T) {
	h := newTestRouter(t, stubPinger{err: context.DeadlineExceeded}, &stubWithdrawals{})
	rec := serve(h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	h := newTestRouter(t, stubPinger{}, &stubWithdrawals{})
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/api/v1/orders", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/public/ping", "").Code)
}

func TestAuthenticatedRoutes(t *testing.T) {
	h := newTestRouter(t, stubPinger{}, &stubWithdrawals{})
	token := bearer(t, enums.UserRoleCustomer)

	orders := serve(h, http.MethodGet, "/api/v1/orders", token)
	assert.Equal(t, http.StatusOK, orders.Code)

	wallet := serve(h, http.MethodGet, "/api/v1/wallet", token)
	require.Equal(t, http.StatusOK, wallet.Code)
	assert.Contains(t, wallet.Body.String(), `"balance":"10.00"`)
}

func TestCreateOrderRequiresCustomer(t *testing.T) {
	h := newTestRouter(t, stubPinger{}, &stubWithdrawals{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, enums.UserRoleWorker))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	w := &stubWithdrawals{}
	h := newTestRouter(t, stubPinger{}, w)

	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "/api/admin/v1/withdrawals", bearer(t, enums.UserRoleWorker)).Code)
	assert.Equal(t, 0, w.pendingCalls)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/admin/v1/withdrawals", bearer(t, enums.UserRoleAdmin)).Code)
	assert.Equal(t, 1, w.pendingCalls)
}

func TestWithdrawalRequestRoles(t *testing.T) {
	w := &stubWithdrawals{}
	h := newTestRouter(t, stubPinger{}, w)
	post := func(role enums.UserRole) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallet/withdrawals", strings.NewReader(`{"amount":"10.00"}`))
		req.Header.Set("Authorization", bearer(t, role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, post(enums.UserRoleAdmin))
	assert.Empty(t, w.requested)

	assert.Equal(t, http.StatusCreated, post(enums.UserRoleWorker))
	assert.Equal(t, http.StatusCreated, post(enums.UserRoleCustomer))
	assert.Len(t, w.requested, 2)
}
