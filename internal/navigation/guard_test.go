package navigation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mmeshcher/storefront/internal/model"
)

func TestCheckoutGuards(t *testing.T) {
	tests := []struct {
		name  string
		order model.Order
		want  *Redirect
	}{
		{
			name:  "no revenue center",
			order: model.Order{ServiceType: "PICKUP", CartTotal: decimal.NewFromInt(10)},
			want:  &Redirect{Violation: NoActiveOrder, To: RouteHome},
		},
		{
			name: "no service type",
			order: model.Order{
				RevenueCenter: &model.RevenueCenter{ID: 1},
				CartTotal:     decimal.NewFromInt(10),
			},
			want: &Redirect{Violation: NoActiveOrder, To: RouteHome},
		},
		{
			name:  "revenue center without id",
			order: model.Order{ServiceType: "PICKUP", RevenueCenter: &model.RevenueCenter{}},
			want:  &Redirect{Violation: NoActiveOrder, To: RouteHome},
		},
		{
			name:  "empty cart goes to menu",
			order: activeOrder("0"),
			want:  &Redirect{Violation: EmptyCart, To: "/menu/downtown"},
		},
		{
			name:  "active order",
			order: activeOrder("12.50"),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Env{Snapshot: model.Snapshot{Order: tt.order}, Brand: testBrand}
			assert.Equal(t, tt.want, Evaluate(env, CheckoutGuards...))
		})
	}
}

func TestRequireGroupCart(t *testing.T) {
	tests := []struct {
		name  string
		group model.GroupOrder
		fails bool
	}{
		{name: "no cart", group: model.GroupOrder{}, fails: true},
		{name: "cart without role", group: model.GroupOrder{CartID: 3}, fails: true},
		{name: "owner", group: model.GroupOrder{CartID: 3, CartOwner: true}},
		{name: "guest", group: model.GroupOrder{CartID: 3, CartGuest: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RequireGroupCart(Env{Snapshot: model.Snapshot{GroupOrder: tt.group}})
			if tt.fails {
				assert.Equal(t, &Redirect{Violation: NoActiveGroupCart, To: RouteHome}, r)
				return
			}
			assert.Nil(t, r)
		})
	}
}

func TestRequireFulfillment_WaitsForPendingFetch(t *testing.T) {
	pending := Env{Snapshot: model.Snapshot{Fulfillment: model.FulfillmentState{Loading: model.LoadingPending}}}
	assert.Nil(t, RequireFulfillment(pending))

	missing := Env{Snapshot: model.Snapshot{Fulfillment: model.FulfillmentState{Loading: model.LoadingRejected}}}
	assert.Equal(t, &Redirect{Violation: NoFulfillmentRecord, To: RouteHome}, RequireFulfillment(missing))
}

func TestMenuRoute(t *testing.T) {
	assert.Equal(t, "/menu/uptown", MenuRoute(model.Order{MenuSlug: "menu/uptown"}, testBrand))
	assert.Equal(t, "/menu/downtown", MenuRoute(model.Order{}, testBrand))
	assert.Equal(t, RouteMenu, MenuRoute(model.Order{}, model.Brand{}))
}

func TestChanged(t *testing.T) {
	prev := model.Snapshot{Order: activeOrder("10")}
	next := prev
	next.Order.CartTotal = decimal.RequireFromString("10.00")
	assert.Zero(t, Changed(prev, next))

	next.Order.CartTotal = decimal.Zero
	next.Favorites.Loading = model.LoadingPending
	got := Changed(prev, next)
	assert.True(t, got.Has(FieldCartTotal))
	assert.True(t, got.Has(FieldFavorites))
	assert.False(t, got.Has(FieldServiceType))
}

func TestClassifyDevice(t *testing.T) {
	tests := []struct {
		ua   string
		want model.DeviceType
	}{
		{"", model.DeviceDesktop},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36", model.DeviceDesktop},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", model.DeviceMobile},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/120.0 Mobile Safari/537.36", model.DeviceMobile},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", model.DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 13; SM-X700) Chrome/120.0 Safari/537.36", model.DeviceTablet},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyDevice(tt.ua), tt.ua)
	}
}

func TestLoyaltyProgramOf(t *testing.T) {
	assert.Equal(t, LoyaltyBuiltIn, LoyaltyProgramOf(model.Brand{HasLoyalty: true, HasThanx: true}))
	assert.Equal(t, LoyaltyThanx, LoyaltyProgramOf(model.Brand{HasThanx: true, HasLevelUp: true}))
	assert.Equal(t, LoyaltyLevelUp, LoyaltyProgramOf(model.Brand{HasLevelUp: true}))
	assert.Equal(t, LoyaltyNone, LoyaltyProgramOf(model.Brand{}))
}
