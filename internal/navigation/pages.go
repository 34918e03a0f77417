package navigation

import (
	"github.com/mmeshcher/storefront/internal/model"
)

// HomePage - главная страница.
type HomePage struct {
	basePage
}

// HomeView - модель представления главной страницы.
type HomeView struct {
	Title string      `json:"title"`
	Order model.Order `json:"order"`
}

func (p *HomePage) Route() string { return RouteHome }
func (p *HomePage) Key() string   { return RouteHome }

func (p *HomePage) View(env Env) any {
	return HomeView{Title: env.Brand.Title, Order: env.Snapshot.Order}
}

// MenuPage - страница меню точки исполнения.
type MenuPage struct {
	basePage
	route string
}

// NewMenuPage создаёт страницу меню по маршруту.
func NewMenuPage(route string) *MenuPage {
	if route == "" {
		route = RouteMenu
	}
	return &MenuPage{route: route}
}

// MenuView - модель представления меню.
type MenuView struct {
	Title      string            `json:"title"`
	Order      model.Order       `json:"order"`
	GroupOrder *model.GroupOrder `json:"group_order,omitempty"`
}

func (p *MenuPage) Route() string { return p.route }
func (p *MenuPage) Key() string   { return p.route }

func (p *MenuPage) View(env Env) any {
	v := MenuView{Title: "Menu | " + env.Brand.Title, Order: env.Snapshot.Order}
	if env.Snapshot.GroupOrder.CartID != 0 {
		g := env.Snapshot.GroupOrder
		v.GroupOrder = &g
	}
	return v
}

// ConfirmationPage - страница подтверждения оформленного заказа.
type ConfirmationPage struct {
	basePage
}

// ConfirmationView - модель представления подтверждения.
type ConfirmationView struct {
	Title string               `json:"title"`
	Order model.CompletedOrder `json:"order"`
}

func (p *ConfirmationPage) Route() string      { return RouteConfirmation }
func (p *ConfirmationPage) Key() string        { return RouteConfirmation }
func (p *ConfirmationPage) Observes() FieldSet { return FieldConfirmation }
func (p *ConfirmationPage) Guards() []Guard    { return []Guard{RequireConfirmation} }

func (p *ConfirmationPage) View(env Env) any {
	return ConfirmationView{
		Title: "Confirmation | " + env.Brand.Title,
		Order: *env.Snapshot.Confirmation,
	}
}

// FavoritesPage - избранное покупателя. Без входа ничего не отображается.
type FavoritesPage struct {
	basePage
	requested bool
}

// FavoritesView - модель представления избранного.
type FavoritesView struct {
	Title     string           `json:"title"`
	Items     []model.Favorite `json:"items"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	Empty     bool             `json:"empty"`
	ScrollTop bool             `json:"scroll_top"`
}

func (p *FavoritesPage) Route() string      { return RouteFavorites }
func (p *FavoritesPage) Key() string        { return RouteFavorites }
func (p *FavoritesPage) Observes() FieldSet { return FieldCustomer | FieldFavorites }
func (p *FavoritesPage) Guards() []Guard    { return []Guard{RequireCustomer} }

func (p *FavoritesPage) React(Env, int64) Reaction {
	if p.requested {
		return Reaction{}
	}
	p.requested = true
	return Reaction{Intents: []Intent{FetchCustomerFavorites{}}}
}

func (p *FavoritesPage) View(env Env) any {
	f := env.Snapshot.Favorites
	items := f.Entities
	if items == nil {
		items = []model.Favorite{}
	}
	loading := f.Loading == model.LoadingPending
	return FavoritesView{
		Title:     "Favorites | " + env.Brand.Title,
		Items:     items,
		Loading:   len(items) == 0 && loading,
		Error:     f.Error,
		Empty:     len(items) == 0 && !loading && f.Error == "",
		ScrollTop: f.Error != "",
	}
}

// LoyaltyProgram - программа лояльности, показываемая в кабинете.
type LoyaltyProgram string

const (
	LoyaltyNone    LoyaltyProgram = ""
	LoyaltyBuiltIn LoyaltyProgram = "loyalty"
	LoyaltyThanx   LoyaltyProgram = "thanx"
	LoyaltyLevelUp LoyaltyProgram = "levelup"
)

// LoyaltyProgramOf выбирает программу лояльности по настройкам бренда.
func LoyaltyProgramOf(brand model.Brand) LoyaltyProgram {
	switch {
	case brand.HasLoyalty:
		return LoyaltyBuiltIn
	case brand.HasThanx:
		return LoyaltyThanx
	case brand.HasLevelUp:
		return LoyaltyLevelUp
	default:
		return LoyaltyNone
	}
}

// AccountPage - личный кабинет покупателя.
type AccountPage struct {
	basePage
}

// AccountView - модель представления кабинета.
type AccountView struct {
	Title   string                 `json:"title"`
	Profile model.Profile          `json:"profile"`
	Loyalty LoyaltyProgram         `json:"loyalty,omitempty"`
	Orders  []model.CompletedOrder `json:"orders"`
}

func (p *AccountPage) Route() string      { return RouteAccount }
func (p *AccountPage) Key() string        { return RouteAccount }
func (p *AccountPage) Observes() FieldSet { return FieldCustomer | FieldOrderHistory }
func (p *AccountPage) Guards() []Guard    { return []Guard{RequireCustomer} }
func (p *AccountPage) Enter() []Intent    { return []Intent{FetchOrderHistory{}} }

func (p *AccountPage) View(env Env) any {
	return AccountView{
		Title:   "Account | " + env.Brand.Title,
		Profile: *env.Snapshot.Customer.Profile,
		Loyalty: LoyaltyProgramOf(env.Brand),
		Orders:  env.Snapshot.OrderHistory,
	}
}

// FulfillmentPage - страница выдачи заказа у обочины.
type FulfillmentPage struct {
	basePage
	orderID int64
}

// NewFulfillmentPage создаёт страницу выдачи для заказа.
func NewFulfillmentPage(orderID int64) *FulfillmentPage {
	return &FulfillmentPage{orderID: orderID}
}

// FulfillmentView - модель представления выдачи заказа.
type FulfillmentView struct {
	Title       string             `json:"title"`
	OrderID     int64              `json:"order_id"`
	Loading     bool               `json:"loading"`
	Fulfillment *model.Fulfillment `json:"fulfillment,omitempty"`
}

func (p *FulfillmentPage) Route() string      { return FulfillmentRoute(p.orderID) }
func (p *FulfillmentPage) Key() string        { return FulfillmentRoute(p.orderID) }
func (p *FulfillmentPage) Observes() FieldSet { return FieldFulfillment }
func (p *FulfillmentPage) Guards() []Guard    { return []Guard{RequireFulfillment} }

func (p *FulfillmentPage) Enter() []Intent {
	return []Intent{FetchOrderFulfillment{OrderID: p.orderID}}
}

func (p *FulfillmentPage) View(env Env) any {
	f := env.Snapshot.Fulfillment
	return FulfillmentView{
		Title:       "Curbside Pickup | " + env.Brand.Title,
		OrderID:     p.orderID,
		Loading:     f.Loading == model.LoadingPending,
		Fulfillment: f.Fulfillment,
	}
}
