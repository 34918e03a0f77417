// Package handler содержит HTTP-обработчики витрины.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/navigation"
	"github.com/mmeshcher/storefront/internal/validation"
)

// Handler переводит HTTP-запросы в посещения страниц и действия контроллера навигации.
type Handler struct {
	nav      *navigation.Navigator
	logger   *zap.Logger
	sessions *middleware.SessionMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(nav *navigation.Navigator, logger *zap.Logger, sessions *middleware.SessionMiddleware) *Handler {
	return &Handler{
		nav:      nav,
		logger:   logger,
		sessions: sessions,
	}
}

func (h *Handler) session(r *http.Request) (*navigation.Session, bool) {
	id, ok := middleware.GetSessionIDFromContext(r.Context())
	if !ok {
		return nil, false
	}
	return h.nav.Session(id), true
}

// visit привязывает страницу к сессии и отвечает видом страницы или перенаправлением.
func (h *Handler) visit(w http.ResponseWriter, r *http.Request, page navigation.Page) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	res, err := s.Visit(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, res)
}

// perform выполняет действие на странице. Страница сначала привязывается к сессии:
// повторная привязка с тем же ключом ничего не запускает.
func (h *Handler) perform(w http.ResponseWriter, r *http.Request, page navigation.Page, action navigation.Action) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	res, err := s.Visit(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Redirect != "" {
		h.respond(w, r, res)
		return
	}

	res, err = s.Perform(r.Context(), page.Key(), action)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, res)
}

// dispatch применяет намерения вне страницы и отвечает новым видом активной страницы.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, intents ...navigation.Intent) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	res, err := s.Dispatch(r.Context(), intents...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, res)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, res navigation.Result) {
	if res.Redirect != "" {
		if res.Violation != "" {
			w.Header().Set("X-Guard-Violation", string(res.Violation))
		}
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}

	if res.View == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res.View); err != nil {
		h.logger.Error("encode view", zap.Error(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, navigation.ErrPageNotActive) || errors.Is(err, navigation.ErrActionRejected) {
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		return
	}
	h.logger.Error("navigation error", zap.Error(err), zap.String("path", r.URL.Path))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Home отдаёт главную страницу.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, &navigation.HomePage{})
}

// StartOver сбрасывает тип заказа и оформление и возвращает на главную.
func (h *Handler) StartOver(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	res, err := s.StartOver(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, r, res)
}

// Menu отдаёт страницу меню.
func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, navigation.NewMenuPage(r.URL.Path))
}

// Checkout отдаёт страницу оформления заказа.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, navigation.NewCheckoutPage(navigation.ClassifyDevice(r.UserAgent())))
}

// CheckoutReview отдаёт страницу проверки заказа.
func (h *Handler) CheckoutReview(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, navigation.NewCheckoutReviewPage(navigation.ClassifyDevice(r.UserAgent())))
}

// SubmitCheckout отправляет заказ со страницы оформления.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	page := navigation.NewCheckoutPage(navigation.ClassifyDevice(r.UserAgent()))
	h.perform(w, r, page, navigation.SubmitCheckout{})
}

// SubmitCheckoutReview отправляет заказ со страницы проверки, не покидая её.
func (h *Handler) SubmitCheckoutReview(w http.ResponseWriter, r *http.Request) {
	page := navigation.NewCheckoutReviewPage(navigation.ClassifyDevice(r.UserAgent()))
	h.perform(w, r, page, navigation.SubmitCheckout{})
}

type tipRequest struct {
	Tip *decimal.Decimal `json:"tip"`
}

// ChangeTip задаёт чаевые на странице оформления.
func (h *Handler) ChangeTip(w http.ResponseWriter, r *http.Request) {
	h.changeTip(w, r, navigation.NewCheckoutPage(navigation.ClassifyDevice(r.UserAgent())))
}

// ChangeReviewTip задаёт чаевые на странице проверки заказа.
func (h *Handler) ChangeReviewTip(w http.ResponseWriter, r *http.Request) {
	h.changeTip(w, r, navigation.NewCheckoutReviewPage(navigation.ClassifyDevice(r.UserAgent())))
}

func (h *Handler) changeTip(w http.ResponseWriter, r *http.Request, page navigation.Page) {
	var req tipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Tip != nil && req.Tip.IsNegative() {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	h.perform(w, r, page, navigation.ChangeTip{Tip: req.Tip})
}

// Confirmation отдаёт страницу подтверждения заказа.
func (h *Handler) Confirmation(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, &navigation.ConfirmationPage{})
}

// GroupOrderReview отдаёт страницу группового заказа.
func (h *Handler) GroupOrderReview(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, &navigation.GroupOrderReviewPage{})
}

// Favorites отдаёт избранное покупателя.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, &navigation.FavoritesPage{})
}

// Account отдаёт личный кабинет.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, &navigation.AccountPage{})
}

// Fulfillment отдаёт страницу выдачи заказа.
func (h *Handler) Fulfillment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := validation.ParseOrderID(chi.URLParam(r, "orderID"))
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.visit(w, r, navigation.NewFulfillmentPage(orderID))
}

func ratingPage(w http.ResponseWriter, r *http.Request) (*navigation.RatingPage, bool) {
	ratingUUID := chi.URLParam(r, "ratingUUID")
	if !validation.IsValidRatingUUID(ratingUUID) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return nil, false
	}
	q := r.URL.Query()
	return navigation.NewRatingPage(ratingUUID, validation.ParseQueryRating(q.Get("rating")), q.Has("unsubscribe")), true
}

// Rating отдаёт страницу оценки заказа.
func (h *Handler) Rating(w http.ResponseWriter, r *http.Request) {
	page, ok := ratingPage(w, r)
	if !ok {
		return
	}
	h.visit(w, r, page)
}

type ratingRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitRating сохраняет оценку заказа.
func (h *Handler) SubmitRating(w http.ResponseWriter, r *http.Request) {
	page, ok := ratingPage(w, r)
	if !ok {
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if !validation.IsValidRating(req.Rating) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	h.perform(w, r, page, navigation.SubmitRating{Rating: req.Rating, Comment: strings.TrimSpace(req.Comment)})
}

func loginPage(r *http.Request) *navigation.LoginPage {
	return navigation.NewLoginPage(r.URL.Query().Get("return_to"))
}

// LoginModal отдаёт окно входа.
func (h *Handler) LoginModal(w http.ResponseWriter, r *http.Request) {
	h.visit(w, r, loginPage(r))
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет вход покупателя.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidEmail(req.Email) || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.perform(w, r, loginPage(r), navigation.Login{Email: req.Email, Password: req.Password})
}

// ToggleReset переключает окно входа между входом и сбросом пароля.
func (h *Handler) ToggleReset(w http.ResponseWriter, r *http.Request) {
	h.perform(w, r, loginPage(r), navigation.ToggleReset{})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset отправляет письмо со ссылкой на сброс пароля.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidEmail(req.Email) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	h.perform(w, r, loginPage(r), navigation.RequestPasswordReset{Email: req.Email, Origin: origin(r)})
}

// DismissPasswordReset возвращает окно входа к форме входа.
func (h *Handler) DismissPasswordReset(w http.ResponseWriter, r *http.Request) {
	h.perform(w, r, loginPage(r), navigation.DismissResetSent{})
}

// Logout завершает сеанс покупателя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, navigation.LogoutCustomer{})
}

// SetOrder заменяет рабочий заказ сессии.
func (h *Handler) SetOrder(w http.ResponseWriter, r *http.Request) {
	var order model.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if order.CartTotal.IsNegative() {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	h.dispatch(w, r, navigation.SetOrder{Order: order})
}

// SetGroupOrder обновляет участие сессии в групповом заказе.
func (h *Handler) SetGroupOrder(w http.ResponseWriter, r *http.Request) {
	var g model.GroupOrder
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	h.dispatch(w, r, navigation.SetGroupOrder{GroupOrder: g})
}

// origin возвращает схему и хост витрины, к которым обратился покупатель.
func origin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
