// Package model содержит модели представления, которыми обмениваются хранилища и контроллер навигации.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoadingState описывает состояние асинхронного запроса хранилища.
type LoadingState string

const (
	LoadingIdle      LoadingState = "idle"
	LoadingPending   LoadingState = "pending"
	LoadingFulfilled LoadingState = "fulfilled"
	LoadingRejected  LoadingState = "rejected"
)

// DeviceType описывает класс устройства покупателя.
type DeviceType string

const (
	DeviceDesktop DeviceType = "DESKTOP"
	DeviceMobile  DeviceType = "MOBILE"
	DeviceTablet  DeviceType = "TABLET"
)

// RevenueCenter описывает точку исполнения заказа.
type RevenueCenter struct {
	ID   int64  `json:"revenue_center_id"`
	Name string `json:"name,omitempty"`
}

// Order описывает текущий заказ покупателя (корзину).
type Order struct {
	ServiceType   string          `json:"service_type,omitempty"`
	OrderType     string          `json:"order_type,omitempty"`
	RevenueCenter *RevenueCenter  `json:"revenue_center,omitempty"`
	CartTotal     decimal.Decimal `json:"cart_total"`
	MenuSlug      string          `json:"menu_slug,omitempty"`
	DeviceType    DeviceType      `json:"device_type,omitempty"`
}

// RevenueCenterID возвращает идентификатор точки или 0, если точка не выбрана.
func (o Order) RevenueCenterID() int64 {
	if o.RevenueCenter == nil {
		return 0
	}
	return o.RevenueCenter.ID
}

// SSO описывает состояние внешней учётной записи лояльности.
type SSO struct {
	Connected bool `json:"connected"`
}

// CheckCustomer описывает покупателя внутри серверного чека.
type CheckCustomer struct {
	CustomerID int64 `json:"customer_id,omitempty"`
	SSO        *SSO  `json:"sso,omitempty"`
}

// Check - серверное представление заказа на этапе оформления.
type Check struct {
	Total    decimal.Decimal `json:"total"`
	Customer *CheckCustomer  `json:"customer,omitempty"`
}

// CompletedOrder - неизменяемый снимок успешно оформленного заказа.
type CompletedOrder struct {
	OrderID         int64           `json:"order_id"`
	Total           decimal.Decimal `json:"total"`
	ServiceType     string          `json:"service_type,omitempty"`
	RevenueCenterID int64           `json:"revenue_center_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Checkout описывает состояние оформления заказа.
type Checkout struct {
	Check          *Check            `json:"check,omitempty"`
	CompletedOrder *CompletedOrder   `json:"completed_order,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
	Submitting     bool              `json:"submitting"`
	Tip            *decimal.Decimal  `json:"tip,omitempty"`
}

// FormError возвращает ошибку формы оформления, если она есть.
func (c Checkout) FormError() string {
	if c.Errors == nil {
		return ""
	}
	return c.Errors["form"]
}

// GroupOrder описывает участие сессии в групповом заказе.
type GroupOrder struct {
	CartID    int64 `json:"cart_id,omitempty"`
	CartOwner bool  `json:"cart_owner"`
	CartGuest bool  `json:"cart_guest"`
}

// OrderRating описывает оценку заказа.
type OrderRating struct {
	OrderID int64  `json:"order_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// RatingState - состояние хранилища оценок для одного идентификатора оценки.
type RatingState struct {
	UUID      string       `json:"uuid,omitempty"`
	Rating    *OrderRating `json:"order_rating,omitempty"`
	Loading   LoadingState `json:"loading"`
	Error     string       `json:"error,omitempty"`
	ErrorKind string       `json:"error_kind,omitempty"`
}

// Fulfillment описывает статус выдачи заказа у обочины.
type Fulfillment struct {
	OrderID     int64  `json:"order_id"`
	ArrivalInfo string `json:"arrival_info,omitempty"`
	HasArrived  bool   `json:"has_arrived"`
}

// FulfillmentState - состояние хранилища выдачи заказа.
type FulfillmentState struct {
	OrderID     int64        `json:"order_id,omitempty"`
	Fulfillment *Fulfillment `json:"fulfillment,omitempty"`
	Loading     LoadingState `json:"loading"`
	Error       string       `json:"error,omitempty"`
}

// Profile описывает профиль аутентифицированного покупателя.
type Profile struct {
	CustomerID int64  `json:"customer_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
}

// Customer - состояние хранилища покупателя.
type Customer struct {
	Profile *Profile     `json:"profile,omitempty"`
	Loading LoadingState `json:"loading"`
	Error   string       `json:"error,omitempty"`
}

// Authenticated сообщает, вошёл ли покупатель в систему.
func (c Customer) Authenticated() bool {
	return c.Profile != nil
}

// PasswordReset - состояние сброса пароля.
type PasswordReset struct {
	ResetSent bool   `json:"reset_sent"`
	Error     string `json:"error,omitempty"`
}

// Favorite описывает избранную позицию меню.
type Favorite struct {
	FavoriteID int64  `json:"favorite_id"`
	ItemName   string `json:"item_name"`
}

// Favorites - состояние хранилища избранного.
type Favorites struct {
	Entities []Favorite   `json:"entities"`
	Loading  LoadingState `json:"loading"`
	Error    string       `json:"error,omitempty"`
}

// Brand содержит настройки витрины.
type Brand struct {
	Title      string `yaml:"title" json:"title"`
	MenuSlug   string `yaml:"menu_slug" json:"menu_slug"`
	HasThanx   bool   `yaml:"has_thanx" json:"has_thanx"`
	HasLoyalty bool   `yaml:"has_loyalty" json:"has_loyalty"`
	HasLevelUp bool   `yaml:"has_levelup" json:"has_levelup"`
}

// Snapshot - согласованный срез состояния всех хранилищ для одной сессии.
type Snapshot struct {
	Order         Order            `json:"order"`
	Checkout      Checkout         `json:"checkout"`
	Confirmation  *CompletedOrder  `json:"confirmation,omitempty"`
	GroupOrder    GroupOrder       `json:"group_order"`
	Rating        RatingState      `json:"rating"`
	Fulfillment   FulfillmentState `json:"fulfillment"`
	Customer      Customer         `json:"customer"`
	PasswordReset PasswordReset    `json:"password_reset"`
	Favorites     Favorites        `json:"favorites"`
	// OrderHistory - заказы, подтверждённые в этой сессии, новые первыми.
	OrderHistory []CompletedOrder `json:"order_history,omitempty"`
}
