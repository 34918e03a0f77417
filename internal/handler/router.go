package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/navigation"
)

// SetupRouter настраивает HTTP-маршруты и middleware витрины.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Compress())
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(h.sessions.Middleware)

	r.Get(navigation.RouteHome, h.Home)
	r.Post("/start-over", h.StartOver)

	r.Get(navigation.RouteMenu, h.Menu)
	r.Get(navigation.RouteMenu+"/*", h.Menu)

	r.Route(navigation.RouteCheckout, func(r chi.Router) {
		r.Get("/", h.Checkout)
		r.Post("/", h.SubmitCheckout)
		r.Get("/review", h.CheckoutReview)
		r.Post("/review", h.SubmitCheckoutReview)
		r.Put("/tip", h.ChangeTip)
		r.Put("/review/tip", h.ChangeReviewTip)
	})
	r.Get(navigation.RouteConfirmation, h.Confirmation)
	r.Get(navigation.RouteGroupOrderReview, h.GroupOrderReview)

	r.Put("/order", h.SetOrder)
	r.Put("/group-order", h.SetGroupOrder)

	r.Get(navigation.RouteFavorites, h.Favorites)
	r.Get(navigation.RouteAccount, h.Account)
	r.Get("/fulfillment/{orderID}", h.Fulfillment)

	r.Get("/ratings/{ratingUUID}", h.Rating)
	r.Post("/ratings/{ratingUUID}", h.SubmitRating)

	r.Route(navigation.RouteLogin, func(r chi.Router) {
		r.Get("/", h.LoginModal)
		r.Post("/", h.Login)
		r.Post("/reset-mode", h.ToggleReset)
	})
	r.Post("/password-reset", h.RequestPasswordReset)
	r.Delete("/password-reset", h.DismissPasswordReset)
	r.Post("/logout", h.Logout)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
