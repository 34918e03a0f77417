package navigation

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storefront/internal/model"
)

// fakeStores хранит срез состояния в памяти и применяет намерения синхронно.
type fakeStores struct {
	snap    model.Snapshot
	batches [][]string

	// remote имитирует сетевые операции хранилищ.
	remote func(st *model.Snapshot, in Intent)
	failOn string
}

func (f *fakeStores) Snapshot(context.Context, string) (model.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeStores) Dispatch(_ context.Context, _ string, intents ...Intent) error {
	f.batches = append(f.batches, IntentNames(intents))
	for _, in := range intents {
		if in.Name() == f.failOn {
			return errors.New("store unavailable")
		}
	}
	for _, in := range intents {
		f.apply(in)
	}
	return nil
}

func (f *fakeStores) apply(in Intent) {
	st := &f.snap
	switch v := in.(type) {
	case ResetOrder:
		st.Order = model.Order{}
	case ResetOrderType:
		st.Order.ServiceType = ""
		st.Order.OrderType = ""
		st.Order.RevenueCenter = nil
	case ResetCheckout:
		st.Checkout = model.Checkout{}
	case ResetErrors:
		st.Checkout.Errors = nil
	case ResetTip:
		st.Checkout.Tip = nil
	case SetTip:
		st.Checkout.Tip = v.Tip
	case ResetCompletedOrder:
		st.Checkout.CompletedOrder = nil
	case SetConfirmationOrder:
		o := v.Order
		st.Confirmation = &o
	case SetSubmitting:
		st.Checkout.Submitting = v.Submitting
	case SetDeviceType:
		st.Order.DeviceType = v.Device
	case LogoutCustomer:
		st.Customer = model.Customer{}
	case ResetPasswordReset:
		st.PasswordReset = model.PasswordReset{}
	case ResetOrderRating:
		st.Rating = model.RatingState{Loading: model.LoadingIdle}
	default:
		if f.remote != nil {
			f.remote(st, in)
		}
	}
}

// flat возвращает все применённые намерения подряд.
func (f *fakeStores) flat() []string {
	var out []string
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

func (f *fakeStores) dispatched(name string) int {
	n := 0
	for _, got := range f.flat() {
		if got == name {
			n++
		}
	}
	return n
}

func newTestSession(f *fakeStores, brand model.Brand) *Session {
	return NewNavigator(f, f, brand, nil).Session("session-1")
}

func activeOrder(total string) model.Order {
	return model.Order{
		ServiceType:   "PICKUP",
		OrderType:     "OLO",
		RevenueCenter: &model.RevenueCenter{ID: 7, Name: "Downtown"},
		CartTotal:     decimal.RequireFromString(total),
	}
}

var testBrand = model.Brand{Title: "Cafe", MenuSlug: "/menu/downtown"}
