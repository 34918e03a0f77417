package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/storefront/internal/model"
)

func TestGroupRoleOf(t *testing.T) {
	role, ok := GroupRoleOf(model.GroupOrder{CartID: 1, CartOwner: true})
	assert.True(t, ok)
	assert.Equal(t, GroupRoleOwner, role)

	role, ok = GroupRoleOf(model.GroupOrder{CartID: 1, CartGuest: true})
	assert.True(t, ok)
	assert.Equal(t, GroupRoleGuest, role)

	_, ok = GroupRoleOf(model.GroupOrder{CartID: 1})
	assert.False(t, ok)
}

func TestGroupOrderReview_OwnerOnly(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{GroupOrder: model.GroupOrder{CartID: 12, CartOwner: true}}}
	s := newTestSession(f, testBrand)

	res, err := s.Visit(context.Background(), &GroupOrderReviewPage{})
	require.NoError(t, err)

	view := res.View.(GroupOrderReviewView)
	assert.Equal(t, GroupRoleOwner, view.Role)
	assert.Equal(t, int64(12), view.CartID)
}

func TestGroupOrderReview_NoRoleRedirectsHome(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{GroupOrder: model.GroupOrder{}}}
	s := newTestSession(f, testBrand)

	res, err := s.Visit(context.Background(), &GroupOrderReviewPage{})
	require.NoError(t, err)

	assert.Equal(t, RouteHome, res.Redirect)
	assert.Equal(t, NoActiveGroupCart, res.Violation)
}

func TestGroupOrderReview_CartClosedWhileViewing(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{GroupOrder: model.GroupOrder{CartID: 12, CartGuest: true}}}
	s := newTestSession(f, testBrand)
	ctx := context.Background()

	_, err := s.Visit(ctx, &GroupOrderReviewPage{})
	require.NoError(t, err)

	f.snap.GroupOrder = model.GroupOrder{}
	res, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, RouteHome, res.Redirect)
}

func TestFavorites_UnauthenticatedRendersNothing(t *testing.T) {
	f := &fakeStores{}
	s := newTestSession(f, testBrand)

	res, err := s.Visit(context.Background(), &FavoritesPage{})
	require.NoError(t, err)

	assert.Equal(t, RouteHome, res.Redirect)
	assert.Equal(t, Unauthenticated, res.Violation)
	assert.Nil(t, res.View)
	assert.Equal(t, 0, f.dispatched("fetchCustomerFavorites"))
}

func TestFavorites_FetchOnEntry(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{Customer: model.Customer{Profile: &model.Profile{CustomerID: 3}}}}
	f.remote = func(st *model.Snapshot, in Intent) {
		if _, ok := in.(FetchCustomerFavorites); ok {
			st.Favorites = model.Favorites{
				Entities: []model.Favorite{{FavoriteID: 1, ItemName: "Latte"}},
				Loading:  model.LoadingFulfilled,
			}
		}
	}
	s := newTestSession(f, testBrand)
	ctx := context.Background()

	res, err := s.Visit(ctx, &FavoritesPage{})
	require.NoError(t, err)

	view := res.View.(FavoritesView)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Latte", view.Items[0].ItemName)
	assert.False(t, view.Empty)

	_, err = s.Visit(ctx, &FavoritesPage{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatched("fetchCustomerFavorites"))
}

func TestAccount_LogoutRedirectsHome(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{Customer: model.Customer{Profile: &model.Profile{CustomerID: 3, Email: "a@b.c"}}}}
	brand := testBrand
	brand.HasLevelUp = true
	s := newTestSession(f, brand)
	ctx := context.Background()

	res, err := s.Visit(ctx, &AccountPage{})
	require.NoError(t, err)
	view := res.View.(AccountView)
	assert.Equal(t, "a@b.c", view.Profile.Email)
	assert.Equal(t, LoyaltyLevelUp, view.Loyalty)

	res, err = s.Dispatch(ctx, LogoutCustomer{})
	require.NoError(t, err)
	assert.Equal(t, RouteHome, res.Redirect)
	assert.Equal(t, Unauthenticated, res.Violation)
}

func TestAccount_ShowsOrderHistory(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{Customer: model.Customer{Profile: &model.Profile{CustomerID: 3}}}}
	f.remote = func(st *model.Snapshot, in Intent) {
		if _, ok := in.(FetchOrderHistory); ok {
			st.OrderHistory = []model.CompletedOrder{{OrderID: 1002}, {OrderID: 1001}}
		}
	}
	s := newTestSession(f, testBrand)

	res, err := s.Visit(context.Background(), &AccountPage{})
	require.NoError(t, err)

	view := res.View.(AccountView)
	require.Len(t, view.Orders, 2)
	assert.Equal(t, int64(1002), view.Orders[0].OrderID)
	assert.Equal(t, 1, f.dispatched("fetchOrderHistory"))
}

func TestFulfillment(t *testing.T) {
	t.Run("record found", func(t *testing.T) {
		f := &fakeStores{}
		f.remote = func(st *model.Snapshot, in Intent) {
			if v, ok := in.(FetchOrderFulfillment); ok {
				st.Fulfillment = model.FulfillmentState{
					OrderID:     v.OrderID,
					Fulfillment: &model.Fulfillment{OrderID: v.OrderID, ArrivalInfo: "red car"},
					Loading:     model.LoadingFulfilled,
				}
			}
		}
		s := newTestSession(f, testBrand)

		res, err := s.Visit(context.Background(), NewFulfillmentPage(88))
		require.NoError(t, err)
		view := res.View.(FulfillmentView)
		assert.Equal(t, "red car", view.Fulfillment.ArrivalInfo)
		assert.Equal(t, []string{"fetchOrderFulfillment"}, f.batches[0])
	})

	t.Run("record missing", func(t *testing.T) {
		f := &fakeStores{}
		f.remote = func(st *model.Snapshot, in Intent) {
			if v, ok := in.(FetchOrderFulfillment); ok {
				st.Fulfillment = model.FulfillmentState{OrderID: v.OrderID, Loading: model.LoadingRejected, Error: "not found"}
			}
		}
		s := newTestSession(f, testBrand)

		res, err := s.Visit(context.Background(), NewFulfillmentPage(88))
		require.NoError(t, err)
		assert.Equal(t, RouteHome, res.Redirect)
		assert.Equal(t, NoFulfillmentRecord, res.Violation)
	})
}

func TestConfirmation_EmptySlotRedirectsHome(t *testing.T) {
	s := newTestSession(&fakeStores{}, testBrand)

	res, err := s.Visit(context.Background(), &ConfirmationPage{})
	require.NoError(t, err)
	assert.Equal(t, RouteHome, res.Redirect)
}

func TestLogin_Modes(t *testing.T) {
	f := &fakeStores{}
	f.remote = func(st *model.Snapshot, in Intent) {
		if v, ok := in.(SendPasswordResetEmail); ok {
			assert.Equal(t, "https://shop.example.com/reset-password", v.LinkURL)
			st.PasswordReset.ResetSent = true
		}
	}
	s := newTestSession(f, testBrand)
	ctx := context.Background()

	page := NewLoginPage("/account")
	res, err := s.Visit(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, LoginModeLogin, res.View.(LoginView).Mode)

	res, err = s.Perform(ctx, page.Key(), ToggleReset{})
	require.NoError(t, err)
	assert.Equal(t, LoginModeReset, res.View.(LoginView).Mode)

	res, err = s.Perform(ctx, page.Key(), RequestPasswordReset{Email: "a@b.c", Origin: "https://shop.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, LoginModeResetSent, res.View.(LoginView).Mode)

	res, err = s.Perform(ctx, page.Key(), DismissResetSent{})
	require.NoError(t, err)
	assert.Equal(t, LoginModeLogin, res.View.(LoginView).Mode)
}

func TestLogin_SuccessClosesAndResets(t *testing.T) {
	f := &fakeStores{snap: model.Snapshot{PasswordReset: model.PasswordReset{ResetSent: true}}}
	f.remote = func(st *model.Snapshot, in Intent) {
		if v, ok := in.(LoginCustomer); ok {
			st.Customer = model.Customer{Profile: &model.Profile{CustomerID: 5, Email: v.Email}, Loading: model.LoadingFulfilled}
		}
	}
	s := newTestSession(f, testBrand)
	ctx := context.Background()

	page := NewLoginPage("/favorites")
	_, err := s.Visit(ctx, page)
	require.NoError(t, err)

	res, err := s.Perform(ctx, page.Key(), Login{Email: "a@b.c", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, RouteFavorites, res.Redirect)
	assert.Empty(t, res.Violation)
	assert.False(t, f.snap.PasswordReset.ResetSent)
	assert.Empty(t, s.Active())
}

func TestLogin_FailureStaysOpen(t *testing.T) {
	f := &fakeStores{}
	f.remote = func(st *model.Snapshot, in Intent) {
		if _, ok := in.(LoginCustomer); ok {
			st.Customer = model.Customer{Loading: model.LoadingRejected, Error: "Invalid email or password"}
		}
	}
	s := newTestSession(f, testBrand)
	ctx := context.Background()

	page := NewLoginPage("//evil.example.com")
	_, err := s.Visit(ctx, page)
	require.NoError(t, err)

	res, err := s.Perform(ctx, page.Key(), Login{Email: "a@b.c", Password: "bad"})
	require.NoError(t, err)
	view := res.View.(LoginView)
	assert.Equal(t, "Invalid email or password", view.Error)
	assert.Equal(t, RouteHome, page.returnTo)
}
