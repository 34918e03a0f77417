// Package navigation реализует контроллер навигации жизненного цикла заказа:
// охранные правила страниц, эффекты входа и выхода, передачу оформленного заказа
// на страницу подтверждения, маршрутизацию группового заказа и жизненный цикл оценки.
package navigation

import (
	"strconv"
	"strings"

	"github.com/mmeshcher/storefront/internal/model"
)

// Логические маршруты витрины.
const (
	RouteHome             = "/"
	RouteMenu             = "/menu"
	RouteCheckout         = "/checkout"
	RouteCheckoutReview   = "/checkout/review"
	RouteConfirmation     = "/confirmation"
	RouteGroupOrderReview = "/review"
	RouteFavorites        = "/favorites"
	RouteAccount          = "/account"
	RouteLogin            = "/login"
	RouteResetPassword    = "/reset-password"
)

// FulfillmentRoute возвращает маршрут страницы выдачи заказа.
func FulfillmentRoute(orderID int64) string {
	return "/fulfillment/" + strconv.FormatInt(orderID, 10)
}

// RatingRoute возвращает маршрут страницы оценки.
func RatingRoute(ratingUUID string) string {
	return "/ratings/" + ratingUUID
}

// MenuRoute выбирает маршрут меню: сначала из заказа, затем из настроек бренда.
func MenuRoute(order model.Order, brand model.Brand) string {
	slug := order.MenuSlug
	if slug == "" {
		slug = brand.MenuSlug
	}
	if slug == "" {
		return RouteMenu
	}
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	return slug
}
