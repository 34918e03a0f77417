package navigation

import (
	"github.com/mmeshcher/storefront/internal/model"
)

// Violation - причина, по которой охранное правило не пропустило покупателя на страницу.
type Violation string

const (
	NoActiveOrder       Violation = "NoActiveOrder"
	EmptyCart           Violation = "EmptyCart"
	NoActiveGroupCart   Violation = "NoActiveGroupCart"
	NoFulfillmentRecord Violation = "NoFulfillmentRecord"
	Unauthenticated     Violation = "Unauthenticated"
	NoConfirmedOrder    Violation = "NoConfirmedOrder"
)

// Env - входные данные одного цикла оценки страницы.
type Env struct {
	Snapshot model.Snapshot
	Brand    model.Brand
}

// Redirect описывает перенаправление, вызванное нарушением охранного правила.
type Redirect struct {
	Violation Violation
	To        string
}

// Guard - чистая функция состояния. Возвращает nil, если правило выполнено.
type Guard func(env Env) *Redirect

// Evaluate проверяет правила по порядку и возвращает первое нарушение.
func Evaluate(env Env, guards ...Guard) *Redirect {
	for _, g := range guards {
		if r := g(env); r != nil {
			return r
		}
	}
	return nil
}

// RequireActiveOrder требует выбранную точку исполнения и тип обслуживания.
func RequireActiveOrder(env Env) *Redirect {
	o := env.Snapshot.Order
	if o.RevenueCenterID() == 0 || o.ServiceType == "" {
		return &Redirect{Violation: NoActiveOrder, To: RouteHome}
	}
	return nil
}

// RequireNonEmptyCart требует положительную сумму корзины.
func RequireNonEmptyCart(env Env) *Redirect {
	if !env.Snapshot.Order.CartTotal.IsPositive() {
		return &Redirect{Violation: EmptyCart, To: MenuRoute(env.Snapshot.Order, env.Brand)}
	}
	return nil
}

// RequireGroupCart требует активный групповой заказ, в котором сессия владелец или гость.
func RequireGroupCart(env Env) *Redirect {
	g := env.Snapshot.GroupOrder
	if g.CartID == 0 {
		return &Redirect{Violation: NoActiveGroupCart, To: RouteHome}
	}
	if _, ok := GroupRoleOf(g); !ok {
		return &Redirect{Violation: NoActiveGroupCart, To: RouteHome}
	}
	return nil
}

// RequireFulfillment требует загруженную запись о выдаче заказа.
// Пока запрос в процессе, правило считается выполненным.
func RequireFulfillment(env Env) *Redirect {
	f := env.Snapshot.Fulfillment
	if f.Loading == model.LoadingPending {
		return nil
	}
	if f.Fulfillment == nil {
		return &Redirect{Violation: NoFulfillmentRecord, To: RouteHome}
	}
	return nil
}

// RequireCustomer требует аутентифицированного покупателя.
func RequireCustomer(env Env) *Redirect {
	if !env.Snapshot.Customer.Authenticated() {
		return &Redirect{Violation: Unauthenticated, To: RouteHome}
	}
	return nil
}

// RequireConfirmation требует заполненный слот подтверждения.
func RequireConfirmation(env Env) *Redirect {
	if env.Snapshot.Confirmation == nil {
		return &Redirect{Violation: NoConfirmedOrder, To: RouteHome}
	}
	return nil
}

// CheckoutGuards - правила входа на страницы оформления.
var CheckoutGuards = []Guard{RequireActiveOrder, RequireNonEmptyCart}
