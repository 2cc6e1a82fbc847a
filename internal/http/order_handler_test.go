package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campuskart/campuskart/internal/auth"
	"github.com/campuskart/campuskart/internal/domain"
	"github.com/campuskart/campuskart/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// --- Mock ---

type OrderServiceMock struct {
	OrderService
	order  *orders.OrderView
	err    error
	calls  []domain.Event
	viewer string
}

func (m *OrderServiceMock) Get(_ context.Context, orderID, viewerID string) (*orders.OrderView, error) {
	m.viewer = viewerID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *OrderServiceMock) Transition(_ context.Context, orderID, actorID string, e domain.Event) (*orders.OrderView, error) {
	m.calls = append(m.calls, e)
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

// --- helper ---

func withUser(r *http.Request) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), "user-1"))
}

func withOrderID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestTransition_Success(t *testing.T) {
	mock := &OrderServiceMock{order: &orders.OrderView{Order: &domain.Order{ID: "o1", Status: domain.OrderAssigned}}}
	handler := NewOrderHandler(mock)
	recorder := httptest.NewRecorder()
	request := withUser(withOrderID(httptest.NewRequest(http.MethodPost, "/api/orders/o1/claim", nil), "o1"))

	handler.Transition(domain.EventClaim)(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []domain.Event{domain.EventClaim}, mock.calls)
	assert.Contains(t, recorder.Body.String(), `"status":"ASSIGNED"`)
}

func TestTransition_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", domain.Validation("bad input"), http.StatusBadRequest, "bad input"},
		{"unauthenticated", domain.Unauthenticated("Not authorized"), http.StatusUnauthorized, "Not authorized"},
		{"forbidden", domain.Forbidden("Not allowed"), http.StatusForbidden, "Not allowed"},
		{"not found", domain.NotFound("Order not found"), http.StatusNotFound, "Order not found"},
		{"conflict", domain.Conflict("Order not available"), http.StatusConflict, "Order not available"},
		{"unexpected", errors.New("mongo: connection refused"), http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewOrderHandler(&OrderServiceMock{err: tt.err})
			recorder := httptest.NewRecorder()
			request := withUser(withOrderID(httptest.NewRequest(http.MethodPost, "/api/orders/o1/claim", nil), "o1"))

			handler.Transition(domain.EventClaim)(recorder, request)

			assert.Equal(t, tt.code, recorder.Code)
			assert.Equal(t, tt.message, message(t, recorder))
			assert.NotContains(t, recorder.Body.String(), "mongo")
		})
	}
}

func TestGet_PassesCaller(t *testing.T) {
	mock := &OrderServiceMock{err: domain.Forbidden("Not allowed")}
	handler := NewOrderHandler(mock)
	recorder := httptest.NewRecorder()
	request := withUser(withOrderID(httptest.NewRequest(http.MethodGet, "/api/orders/o1", nil), "o1"))

	handler.Get(recorder, request)

	assert.Equal(t, "user-1", mock.viewer)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, "Not allowed", message(t, recorder))
}

func TestCreate_InvalidJSON(t *testing.T) {
	handler := NewOrderHandler(&OrderServiceMock{})
	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest(http.MethodPost, "/api/orders", nil))

	handler.Create(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid JSON body", message(t, recorder))
}
