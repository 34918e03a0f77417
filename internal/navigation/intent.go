package navigation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storefront/internal/model"
)

// Intent - именованный запрос на изменение состояния внешнего хранилища.
// Контроллер никогда не меняет состояние сам, он только формирует намерения.
type Intent interface {
	Name() string
}

// Dispatcher применяет пачку намерений к хранилищам сессии в переданном порядке.
// Пачка применяется атомарно: либо все изменения видны, либо ни одно.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, intents ...Intent) error
}

// Store отдаёт согласованный срез состояния хранилищ сессии.
type Store interface {
	Snapshot(ctx context.Context, sessionID string) (model.Snapshot, error)
}

type (
	// FetchOrder запрашивает серверный чек для текущей корзины.
	FetchOrder struct{}
	// ResetOrder полностью сбрасывает рабочий заказ.
	ResetOrder struct{}
	// ResetOrderType сбрасывает тип заказа и точку исполнения.
	ResetOrderType struct{}
	// ResetCheckout сбрасывает состояние оформления.
	ResetCheckout struct{}
	// ResetErrors очищает ошибки формы оформления.
	ResetErrors struct{}
	// ResetTip отменяет незавершённую правку чаевых.
	ResetTip struct{}
	// SetTip задаёт чаевые к заказу. Nil возвращает чаевые по умолчанию.
	SetTip struct {
		Tip *decimal.Decimal
	}
	// ResetCompletedOrder очищает оформленный заказ в хранилище оформления.
	ResetCompletedOrder struct{}
	// SetConfirmationOrder переносит оформленный заказ в слот подтверждения.
	SetConfirmationOrder struct {
		Order model.CompletedOrder
	}
	// SetSubmitting выставляет признак отправки заказа.
	SetSubmitting struct {
		Submitting bool
	}
	// SetDeviceType сообщает хранилищу заказа класс устройства.
	SetDeviceType struct {
		Device model.DeviceType
	}
	// SubmitOrder отправляет заказ на оформление.
	SubmitOrder struct{}
	// SetOrder заменяет рабочий заказ: точку, тип обслуживания и корзину.
	SetOrder struct {
		Order model.Order
	}
	// SetGroupOrder обновляет участие сессии в групповом заказе.
	SetGroupOrder struct {
		GroupOrder model.GroupOrder
	}
	// LoginCustomer выполняет вход покупателя.
	LoginCustomer struct {
		Email    string
		Password string
	}
	// LogoutCustomer завершает сеанс покупателя.
	LogoutCustomer struct{}
	// SendPasswordResetEmail отправляет письмо со ссылкой на сброс пароля.
	SendPasswordResetEmail struct {
		Email   string
		LinkURL string
	}
	// ResetPasswordReset сбрасывает признак отправленного письма.
	ResetPasswordReset struct{}
	// FetchCustomerFavorites загружает избранное покупателя.
	FetchCustomerFavorites struct{}
	// FetchOrderHistory загружает заказы, подтверждённые в сессии.
	FetchOrderHistory struct{}
	// FetchOrderFulfillment загружает статус выдачи заказа.
	FetchOrderFulfillment struct {
		OrderID int64
	}
	// FetchOrderRating загружает оценку по её идентификатору.
	FetchOrderRating struct {
		UUID string
	}
	// UpdateOrderRating сохраняет оценку.
	UpdateOrderRating struct {
		UUID   string
		Rating model.OrderRating
	}
	// UnsubscribeOrderRating отписывает покупателя от писем с просьбой оценить заказ.
	UnsubscribeOrderRating struct {
		UUID string
	}
	// ResetOrderRating очищает состояние хранилища оценок.
	ResetOrderRating struct{}
)

func (FetchOrder) Name() string             { return "fetchOrder" }
func (ResetOrder) Name() string             { return "resetOrder" }
func (ResetOrderType) Name() string         { return "resetOrderType" }
func (ResetCheckout) Name() string          { return "resetCheckout" }
func (ResetErrors) Name() string            { return "resetErrors" }
func (ResetTip) Name() string               { return "resetTip" }
func (SetTip) Name() string                 { return "setTip" }
func (ResetCompletedOrder) Name() string    { return "resetCompletedOrder" }
func (SetConfirmationOrder) Name() string   { return "setConfirmationOrder" }
func (SetSubmitting) Name() string          { return "setSubmitting" }
func (SetDeviceType) Name() string          { return "setDeviceType" }
func (SubmitOrder) Name() string            { return "submitOrder" }
func (SetOrder) Name() string               { return "setOrder" }
func (SetGroupOrder) Name() string          { return "setGroupOrder" }
func (LoginCustomer) Name() string          { return "loginCustomer" }
func (LogoutCustomer) Name() string         { return "logoutCustomer" }
func (SendPasswordResetEmail) Name() string { return "sendPasswordResetEmail" }
func (ResetPasswordReset) Name() string     { return "resetPasswordReset" }
func (FetchCustomerFavorites) Name() string { return "fetchCustomerFavorites" }
func (FetchOrderHistory) Name() string      { return "fetchOrderHistory" }
func (FetchOrderFulfillment) Name() string  { return "fetchOrderFulfillment" }
func (FetchOrderRating) Name() string       { return "fetchOrderRating" }
func (UpdateOrderRating) Name() string      { return "updateOrderRating" }
func (UnsubscribeOrderRating) Name() string { return "unsubscribeOrderRating" }
func (ResetOrderRating) Name() string       { return "resetOrderRating" }

// IntentNames возвращает имена намерений в порядке следования.
func IntentNames(intents []Intent) []string {
	names := make([]string, 0, len(intents))
	for _, in := range intents {
		names = append(names, in.Name())
	}
	return names
}
