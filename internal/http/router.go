package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Products *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Users    *UserHandler
	DB       Pinger
}

// NewRouter wires the API routes. requestTimeout bounds every route except checkout, which
// must be allowed to finish a captured payment.
func NewRouter(h Handlers, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(UserIDMiddleware)

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", h.Checkout.PlaceOrder)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.Products.ListProducts)
				r.Post("/", h.Products.CreateProduct)
				r.Get("/{product_id}", h.Products.GetProduct)
				r.Patch("/{product_id}", h.Products.UpdateProduct)
				r.Delete("/{product_id}", h.Products.DeleteProduct)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Delete("/", h.Cart.ClearCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{product_id}/{size}", h.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}/{size}", h.Cart.RemoveItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.ListOrders)
				r.Get("/{order_id}", h.Orders.GetOrder)
			})

			r.Get("/users/me", h.Users.GetProfile)
			r.Put("/users/me", h.Users.SaveProfile)
		})
	})

	return otelhttp.NewHandler(r, "easycart-http")
}

func (h Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
