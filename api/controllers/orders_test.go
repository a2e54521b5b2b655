package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/api/middleware"
	"github.com/nexylabs/nexyshop-backend/internal/orders"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/pagination"
)

type stubOrdersService struct {
	summary  *orders.OrderSummary
	revealed *orders.RevealedCode
	page     pagination.Page[orders.OrderSummary]
	err      error
}

func (s *stubOrdersService) Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	return nil
}

func (s *stubOrdersService) Get(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func (s *stubOrdersService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[orders.OrderSummary], error) {
	if s.err != nil {
		return pagination.Page[orders.OrderSummary]{}, s.err
	}
	return s.page, nil
}

func (s *stubOrdersService) RevealCode(ctx context.Context, userID, orderID uuid.UUID) (*orders.RevealedCode, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.revealed, nil
}

func (s *stubOrdersService) RetryStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	return 0, nil
}

func authedRequest(method, target string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleCustomer))
	return req.WithContext(ctx)
}

func TestOrderDetailRevealsCode(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	code := "NEXY-110-AAAA"
	svc := &stubOrdersService{
		summary:  &orders.OrderSummary{ID: orderID, Status: enums.OrderStatusFulfilled},
		revealed: &orders.RevealedCode{OrderID: orderID, Code: &code},
	}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", OrderDetail(svc, nil))

	req := authedRequest(http.MethodGet, "/orders/"+orderID.String(), userID)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var body struct {
		Data orderDetailResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Code == nil || *body.Data.Code != code {
		t.Fatalf("expected revealed code, got %v", body.Data.Code)
	}
}

func TestOrderDetailRejectsMalformedID(t *testing.T) {
	svc := &stubOrdersService{}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", OrderDetail(svc, nil))

	req := authedRequest(http.MethodGet, "/orders/not-a-uuid", uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrderDetailRequiresUserContext(t *testing.T) {
	svc := &stubOrdersService{}

	router := chi.NewRouter()
	router.Get("/orders/{orderId}", OrderDetail(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOrdersListMapsNotFound(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	router := chi.NewRouter()
	router.Get("/orders", OrdersList(svc, nil))

	req := authedRequest(http.MethodGet, "/orders", uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
