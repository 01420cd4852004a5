package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/easycart/domain"
	"github.com/fjod/easycart/internal/catalog"
	"github.com/fjod/easycart/internal/history"
	"github.com/fjod/easycart/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutMock struct {
	resp     *domain.PlaceOrderResponse
	err      error
	received *domain.PlaceOrderRequest
	delay    time.Duration
}

func (m *checkoutMock) PlaceOrder(_ context.Context, request *domain.PlaceOrderRequest) (*domain.PlaceOrderResponse, error) {
	m.received = request
	time.Sleep(m.delay)
	return m.resp, m.err
}

type cartMock struct {
	cart     *domain.Cart
	err      error
	added    []string
	quantity int
}

func (m *cartMock) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return &domain.Cart{UserID: userID}, nil
	}
	return m.cart, nil
}

func (m *cartMock) AddItem(_ context.Context, _, productID string, size domain.Size, quantity int) error {
	if m.err != nil {
		return m.err
	}
	m.added = append(m.added, fmt.Sprintf("%s/%s/%d", productID, size, quantity))
	return nil
}

func (m *cartMock) SetQuantity(_ context.Context, _, _ string, _ domain.Size, quantity int) error {
	m.quantity = quantity
	return m.err
}

func (m *cartMock) RemoveItem(context.Context, string, string, domain.Size) error { return m.err }

func (m *cartMock) ClearCart(context.Context, string) error { return m.err }

type historyMock struct {
	orders []*domain.Order
	err    error
}

func (m *historyMock) ListOrders(context.Context, string) ([]*domain.Order, error) {
	return m.orders, m.err
}

func (m *historyMock) GetOrder(_ context.Context, userID, orderID string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return nil, history.ErrOrderNotFound
}

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func TestPlaceOrder_Success(t *testing.T) {
	mock := &checkoutMock{resp: &domain.PlaceOrderResponse{
		CheckoutID:  "c1",
		OrderID:     "o1",
		Status:      domain.CheckoutStatusCompleted,
		TotalAmount: decimal.RequireFromString("45.00"),
		Currency:    domain.Currency,
	}}
	handler := NewCheckoutHandler(mock)

	body := `{"lines":[{"product_id":"p1","size":"Medium","quantity":2}]}`
	request := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBufferString(body)), "u1")
	request.Header.Set(IdempotencyKeyHeader, "key-1")
	recorder := httptest.NewRecorder()

	handler.PlaceOrder(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	var response domain.PlaceOrderResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "o1", response.OrderID)
	assert.True(t, decimal.RequireFromString("45").Equal(response.TotalAmount))

	assert.Equal(t, "u1", mock.received.UserID)
	assert.Equal(t, "key-1", mock.received.IdempotencyKey)
	require.Len(t, mock.received.RequestedLines, 1)
	assert.Equal(t, domain.SizeMedium, mock.received.RequestedLines[0].Size)
}

func TestPlaceOrder_KeyFromBodyAndEmptyBody(t *testing.T) {
	mock := &checkoutMock{resp: &domain.PlaceOrderResponse{OrderID: "o1"}}
	handler := NewCheckoutHandler(mock)

	request := withUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"idempotency_key":"body-key"}`)), "u1")
	recorder := httptest.NewRecorder()
	handler.PlaceOrder(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "body-key", mock.received.IdempotencyKey)

	request = withUser(httptest.NewRequest(http.MethodPost, "/", nil), "u1")
	request.Header.Set(IdempotencyKeyHeader, "header-key")
	recorder = httptest.NewRecorder()
	handler.PlaceOrder(recorder, request)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, "header-key", mock.received.IdempotencyKey)
}

func TestPlaceOrder_RequestValidation(t *testing.T) {
	handler := NewCheckoutHandler(&checkoutMock{})

	recorder := httptest.NewRecorder()
	handler.PlaceOrder(recorder, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "unauthorized", decodeError(t, recorder).Code)

	recorder = httptest.NewRecorder()
	handler.PlaceOrder(recorder, withUser(httptest.NewRequest(http.MethodPost, "/", nil), "u1"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "missing_idempotency_key", decodeError(t, recorder).Code)

	recorder = httptest.NewRecorder()
	handler.PlaceOrder(recorder, withUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{")), "u1"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_request", decodeError(t, recorder).Code)
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
		{fmt.Errorf("%w: payment failed: no_funds", service.ErrPaymentNotCompleted), http.StatusPaymentRequired, "payment_not_completed"},
		{fmt.Errorf("%w: out of stock", service.ErrInventoryConflict), http.StatusConflict, "inventory_conflict"},
		{service.ErrCheckoutInProgress, http.StatusConflict, "checkout_in_progress"},
		{service.ErrIdempotencyKeyConflict, http.StatusConflict, "idempotency_key_conflict"},
		{fmt.Errorf("%w: tx aborted", service.ErrPersistenceFailure), http.StatusServiceUnavailable, "persistence_failure"},
		{service.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			handler := NewCheckoutHandler(&checkoutMock{err: tt.err})
			request := withUser(httptest.NewRequest(http.MethodPost, "/", nil), "u1")
			request.Header.Set(IdempotencyKeyHeader, "k")
			recorder := httptest.NewRecorder()

			handler.PlaceOrder(recorder, request)

			assert.Equal(t, tt.status, recorder.Code)
			response := decodeError(t, recorder)
			assert.Equal(t, tt.code, response.Code)
			if tt.status >= http.StatusInternalServerError {
				assert.Empty(t, response.Details)
			}
		})
	}
}

func TestCartHandler_AddItem(t *testing.T) {
	mock := &cartMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	body := `{"product_id":"p1","size":"large","quantity":3}`
	recorder := httptest.NewRecorder()
	handler.AddItem(recorder, withUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)), "u1"))

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, []string{"p1/Large/3"}, mock.added)

	var response CartResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "u1", response.UserID)
	assert.NotNil(t, response.Items)
}

func TestCartHandler_AddItemValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing product", `{"size":"small","quantity":1}`, "invalid_product_id"},
		{"bad size", `{"product_id":"p1","size":"xl","quantity":1}`, "invalid_size"},
		{"zero quantity", `{"product_id":"p1","size":"small","quantity":0}`, "invalid_quantity"},
		{"too many", `{"product_id":"p1","size":"small","quantity":100}`, "invalid_quantity"},
		{"bad json", `{`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &cartMock{}
			handler := NewCartHandler(mock, 5*time.Second)
			recorder := httptest.NewRecorder()
			handler.AddItem(recorder, withUser(httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body)), "u1"))

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.code, decodeError(t, recorder).Code)
			assert.Empty(t, mock.added)
		})
	}
}

func TestCartHandler_UpdateQuantity(t *testing.T) {
	mock := &cartMock{}
	handler := NewCartHandler(mock, 5*time.Second)

	router := chi.NewRouter()
	router.Put("/items/{product_id}/{size}", handler.UpdateQuantity)

	recorder := httptest.NewRecorder()
	request := withUser(httptest.NewRequest(http.MethodPut, "/items/p1/medium", bytes.NewBufferString(`{"quantity":4}`)), "u1")
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 4, mock.quantity)
}

func TestCartHandler_ItemNotFound(t *testing.T) {
	mock := &cartMock{err: fmt.Errorf("wrapped: %w", catalog.ErrProductNotFound)}
	handler := NewCartHandler(mock, 5*time.Second)

	router := chi.NewRouter()
	router.Delete("/items/{product_id}/{size}", handler.RemoveItem)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, withUser(httptest.NewRequest(http.MethodDelete, "/items/p1/small", nil), "u1"))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "product_not_found", decodeError(t, recorder).Code)
}

func TestCartHandler_Unauthorized(t *testing.T) {
	handler := NewCartHandler(&cartMock{}, 5*time.Second)
	recorder := httptest.NewRecorder()

	handler.GetCart(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestOrdersHandler(t *testing.T) {
	mock := &historyMock{orders: []*domain.Order{{ID: "o1", UserID: "u1", Currency: domain.Currency}}}
	handler := NewOrdersHandler(mock, 5*time.Second)

	router := chi.NewRouter()
	router.Get("/orders", handler.ListOrders)
	router.Get("/orders/{order_id}", handler.GetOrder)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, withUser(httptest.NewRequest(http.MethodGet, "/orders", nil), "u1"))
	require.Equal(t, http.StatusOK, recorder.Code)
	var list OrderListResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&list))
	require.Len(t, list.Orders, 1)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, withUser(httptest.NewRequest(http.MethodGet, "/orders/o1", nil), "u2"))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "order_not_found", decodeError(t, recorder).Code)
}

func TestUserIDMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getUserIDFromContext(r.Context())
	})

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(UserIDHeader, " u42 ")
	UserIDMiddleware(next).ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "u42", seen)

	UserIDMiddleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, seen)
}

type catalogMock struct {
	err error
}

func (m *catalogMock) ListProducts(context.Context) ([]*domain.Product, error) { return nil, m.err }

func (m *catalogMock) GetProduct(context.Context, string) (*domain.Product, error) { return nil, m.err }

func (m *catalogMock) CreateProduct(context.Context, string, catalog.NewProduct) (*domain.Product, error) {
	return nil, m.err
}

func (m *catalogMock) UpdateProduct(context.Context, string, string, domain.ProductPatch) (*domain.Product, error) {
	return nil, m.err
}

func (m *catalogMock) DeleteProduct(context.Context, string, string) error { return m.err }

func TestProductHandler_UpdateStockChanged(t *testing.T) {
	handler := NewProductHandler(&catalogMock{err: catalog.ErrStockChanged}, time.Second)
	request := withUser(httptest.NewRequest(http.MethodPatch, "/", bytes.NewBufferString(`{"stock":{"medium":5}}`)), "seller-1")
	recorder := httptest.NewRecorder()

	handler.UpdateProduct(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "stock_changed", decodeError(t, recorder).Code)
}

func TestPlaceOrder_OutlivesServerWriteTimeout(t *testing.T) {
	mock := &checkoutMock{
		resp:  &domain.PlaceOrderResponse{CheckoutID: "c1", OrderID: "o1", Status: domain.CheckoutStatusCompleted},
		delay: 200 * time.Millisecond,
	}
	server := httptest.NewUnstartedServer(UserIDMiddleware(http.HandlerFunc(NewCheckoutHandler(mock).PlaceOrder)))
	server.Config.WriteTimeout = 50 * time.Millisecond
	server.Start()
	defer server.Close()

	request, err := http.NewRequest(http.MethodPost, server.URL, nil)
	require.NoError(t, err)
	request.Header.Set(UserIDHeader, "u1")
	request.Header.Set(IdempotencyKeyHeader, "k1")

	response, err := server.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	assert.Equal(t, http.StatusCreated, response.StatusCode)
	var body domain.PlaceOrderResponse
	require.NoError(t, json.NewDecoder(response.Body).Decode(&body))
	assert.Equal(t, "o1", body.OrderID)
}
