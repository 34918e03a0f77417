package navigation

import (
	"reflect"

	"github.com/mmeshcher/storefront/internal/model"
)

// Field - наблюдаемое поле хранилища.
type Field uint32

// FieldSet - набор наблюдаемых полей.
type FieldSet = Field

const (
	FieldServiceType Field = 1 << iota
	FieldRevenueCenter
	FieldCartTotal
	FieldCheck
	FieldCompletedOrder
	FieldCheckoutErrors
	FieldSubmitting
	FieldConfirmation
	FieldGroupOrder
	FieldRating
	FieldFulfillment
	FieldCustomer
	FieldPasswordReset
	FieldFavorites
	FieldOrderHistory
)

// Has сообщает, пересекаются ли наборы.
func (f Field) Has(other Field) bool {
	return f&other != 0
}

// Changed возвращает набор полей, значения которых различаются между срезами.
func Changed(prev, next model.Snapshot) FieldSet {
	var set FieldSet

	if prev.Order.ServiceType != next.Order.ServiceType {
		set |= FieldServiceType
	}
	if prev.Order.RevenueCenterID() != next.Order.RevenueCenterID() {
		set |= FieldRevenueCenter
	}
	if !prev.Order.CartTotal.Equal(next.Order.CartTotal) {
		set |= FieldCartTotal
	}
	if !reflect.DeepEqual(prev.Checkout.Check, next.Checkout.Check) {
		set |= FieldCheck
	}
	if completedOrderID(prev.Checkout.CompletedOrder) != completedOrderID(next.Checkout.CompletedOrder) {
		set |= FieldCompletedOrder
	}
	if !reflect.DeepEqual(prev.Checkout.Errors, next.Checkout.Errors) {
		set |= FieldCheckoutErrors
	}
	if prev.Checkout.Submitting != next.Checkout.Submitting {
		set |= FieldSubmitting
	}
	if completedOrderID(prev.Confirmation) != completedOrderID(next.Confirmation) {
		set |= FieldConfirmation
	}
	if prev.GroupOrder != next.GroupOrder {
		set |= FieldGroupOrder
	}
	if !reflect.DeepEqual(prev.Rating, next.Rating) {
		set |= FieldRating
	}
	if !reflect.DeepEqual(prev.Fulfillment, next.Fulfillment) {
		set |= FieldFulfillment
	}
	if !reflect.DeepEqual(prev.Customer, next.Customer) {
		set |= FieldCustomer
	}
	if prev.PasswordReset != next.PasswordReset {
		set |= FieldPasswordReset
	}
	if !reflect.DeepEqual(prev.Favorites, next.Favorites) {
		set |= FieldFavorites
	}
	if !reflect.DeepEqual(prev.OrderHistory, next.OrderHistory) {
		set |= FieldOrderHistory
	}

	return set
}

func completedOrderID(o *model.CompletedOrder) int64 {
	if o == nil {
		return 0
	}
	return o.OrderID
}
