package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigmarket-backend/api/middleware"
	internalorders "github.com/angelmondragon/gigmarket-backend/internal/orders"
	"github.com/angelmondragon/gigmarket-backend/pkg/db/models"
	"github.com/angelmondragon/gigmarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigmarket-backend/pkg/errors"
)

type stubOrdersService struct {
	create  func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	cancel  func(ctx context.Context, input internalorders.CancelInput) (*models.Order, error)
	review  func(ctx context.Context, input internalorders.ReviewInput) (*models.Order, error)
	get     func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error)
	list    func(ctx context.Context, input internalorders.ListOrdersInput) (*internalorders.OrderList, error)
	decided []internalorders.DecisionInput
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	return s.create(ctx, input)
}

func (s *stubOrdersService) decide(input internalorders.DecisionInput) (*models.Order, error) {
	s.decided = append(s.decided, input)
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusCompleted, TotalAmountCents: 52500}, nil
}

func (s *stubOrdersService) Pay(_ context.Context, input internalorders.DecisionInput) (*models.Order, error) {
	return s.decide(input)
}

func (s *stubOrdersService) Accept(_ context.Context, input internalorders.DecisionInput) (*models.Order, error) {
	return s.decide(input)
}

func (s *stubOrdersService) Reject(_ context.Context, input internalorders.DecisionInput) (*models.Order, error) {
	return s.decide(input)
}

func (s *stubOrdersService) Submit(_ context.Context, input internalorders.DecisionInput) (*models.Order, error) {
	return s.decide(input)
}

func (s *stubOrdersService) Complete(_ context.Context, input internalorders.DecisionInput) (*models.Order, error) {
	return s.decide(input)
}

func (s *stubOrdersService) Cancel(ctx context.Context, input internalorders.CancelInput) (*models.Order, error) {
	return s.cancel(ctx, input)
}

func (s *stubOrdersService) Dispute(context.Context, internalorders.DisputeInput) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersService) SubmitReview(ctx context.Context, input internalorders.ReviewInput) (*models.Order, error) {
	return s.review(ctx, input)
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	return s.get(ctx, orderID, actor)
}

func (s *stubOrdersService) ListForUser(ctx context.Context, input internalorders.ListOrdersInput) (*internalorders.OrderList, error) {
	return s.list(ctx, input)
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.UserRole, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	if userID != uuid.Nil {
		ctx = middleware.WithCaller(ctx, userID, role)
	}
	return req.WithContext(ctx)
}

type envelope struct {
	Data  map[string]any `json:"data"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateOrder(t *testing.T) {
	buyer := uuid.New()
	listing := uuid.New()
	var captured internalorders.CreateOrderInput
	svc := &stubOrdersService{create: func(_ context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
		captured = input
		return &models.Order{
			ID:               uuid.New(),
			BuyerID:          buyer,
			ListingID:        listing,
			AmountCents:      50000,
			TaxCents:         2500,
			TotalAmountCents: 52500,
			PaymentMethod:    enums.PaymentMethodWallet,
			Status:           enums.OrderStatusPending,
		}, nil
	}}

	body := `{"listing_id":"` + listing.String() + `","payment_method":"wallet","tax":"25.00"}`
	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", body, buyer, enums.UserRoleCustomer, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, buyer, captured.Actor.UserID)
	assert.Equal(t, int64(2500), captured.TaxCents)
	assert.Zero(t, captured.AmountCents)
	assert.Equal(t, enums.PaymentMethodWallet, captured.PaymentMethod)

	env := decode(t, rec)
	assert.Equal(t, "525.00", env.Data["total_amount"])
	assert.Equal(t, "pending", env.Data["status"])
}

func TestCreateOrderValidation(t *testing.T) {
	svc := &stubOrdersService{}
	cases := map[string]string{
		"missing listing": `{"payment_method":"wallet"}`,
		"bad method":      `{"listing_id":"` + uuid.NewString() + `","payment_method":"cash"}`,
		"bad money":       `{"listing_id":"` + uuid.NewString() + `","payment_method":"wallet","amount":"1.234"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Create(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.UserRoleCustomer, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), decode(t, rec).Error.Code)
		})
	}
}

func TestOrdersRequireCaller(t *testing.T) {
	rec := httptest.NewRecorder()
	Detail(&stubOrdersService{}, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/", "", uuid.Nil, "", map[string]string{"orderId": uuid.NewString()}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDetailMapsForbidden(t *testing.T) {
	svc := &stubOrdersService{get: func(context.Context, uuid.UUID, internalorders.Actor) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a participant")
	}}
	rec := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/", "", uuid.New(), enums.UserRoleCustomer, map[string]string{"orderId": uuid.NewString()}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDecisionRoutesPassActor(t *testing.T) {
	svc := &stubOrdersService{}
	worker := uuid.New()
	orderID := uuid.New()
	handlers := []http.HandlerFunc{Pay(svc, nil), Accept(svc, nil), Reject(svc, nil), Submit(svc, nil), Complete(svc, nil)}
	for _, h := range handlers {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(http.MethodPost, "/", "", worker, enums.UserRoleWorker, map[string]string{"orderId": orderID.String()}))
		require.Equal(t, http.StatusOK, rec.Code)
	}
	require.Len(t, svc.decided, len(handlers))
	for _, input := range svc.decided {
		assert.Equal(t, orderID, input.OrderID)
		assert.Equal(t, worker, input.Actor.UserID)
		assert.Equal(t, enums.UserRoleWorker, input.Actor.Role)
	}
}

func TestDecisionRejectsBadOrderID(t *testing.T) {
	rec := httptest.NewRecorder()
	Pay(&stubOrdersService{}, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/", "", uuid.New(), enums.UserRoleCustomer, map[string]string{"orderId": "nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAcceptsOptionalReason(t *testing.T) {
	var reasons []string
	svc := &stubOrdersService{cancel: func(_ context.Context, input internalorders.CancelInput) (*models.Order, error) {
		reasons = append(reasons, input.Reason)
		return &models.Order{ID: input.OrderID, Status: enums.OrderStatusCancelled}, nil
	}}
	params := map[string]string{"orderId": uuid.NewString()}
	buyer := uuid.New()

	rec := httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/", "", buyer, enums.UserRoleCustomer, params))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	Cancel(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/", `{"reason":"  changed plans "}`, buyer, enums.UserRoleCustomer, params))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"", "changed plans"}, reasons)
}

func TestReviewValidatesRating(t *testing.T) {
	called := false
	svc := &stubOrdersService{review: func(_ context.Context, input internalorders.ReviewInput) (*models.Order, error) {
		called = true
		return &models.Order{ID: input.OrderID, Rated: true}, nil
	}}
	params := map[string]string{"orderId": uuid.NewString()}

	rec := httptest.NewRecorder()
	Review(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/", `{"rating":6}`, uuid.New(), enums.UserRoleCustomer, params))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	Review(svc, nil).ServeHTTP(rec, authedRequest(http.MethodPost, "/", `{"rating":5,"comment":"great"}`, uuid.New(), enums.UserRoleCustomer, params))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestListParsesStatus(t *testing.T) {
	var captured internalorders.ListOrdersInput
	svc := &stubOrdersService{list: func(_ context.Context, input internalorders.ListOrdersInput) (*internalorders.OrderList, error) {
		captured = input
		return &internalorders.OrderList{Orders: []models.Order{{ID: uuid.New()}}, NextCursor: "next"}, nil
	}}

	rec := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders?status=in_progress&limit=5", "", uuid.New(), enums.UserRoleWorker, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured.Status)
	assert.Equal(t, enums.OrderStatusInProgress, *captured.Status)
	assert.Equal(t, 5, captured.Params.Limit)
	assert.Equal(t, "next", decode(t, rec).Data["next_cursor"])

	rec = httptest.NewRecorder()
	List(svc, nil).ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/orders?status=shipped", "", uuid.New(), enums.UserRoleWorker, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
