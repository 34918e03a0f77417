package navigation

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/storefront/internal/model"
)

// CheckoutPage - страница оформления заказа. С флагом review это страница
// проверки заказа, которая дополнительно следит за рассинхронизацией SSO.
type CheckoutPage struct {
	basePage

	device model.DeviceType
	review bool

	checkRequested bool
	loggedOut      bool
	scrolled       bool
}

// NewCheckoutPage создаёт страницу оформления для устройства покупателя.
func NewCheckoutPage(device model.DeviceType) *CheckoutPage {
	return &CheckoutPage{device: device}
}

// NewCheckoutReviewPage создаёт страницу проверки заказа.
func NewCheckoutReviewPage(device model.DeviceType) *CheckoutPage {
	return &CheckoutPage{device: device, review: true}
}

// CheckoutView - модель представления страницы оформления.
type CheckoutView struct {
	Title      string           `json:"title"`
	Loading    bool             `json:"loading"`
	ScrollTop  bool             `json:"scroll_top"`
	FormError  string           `json:"form_error,omitempty"`
	Submitting bool             `json:"submitting"`
	Check      *model.Check     `json:"check,omitempty"`
	Tip        *decimal.Decimal `json:"tip,omitempty"`
	Order      model.Order      `json:"order"`
}

func (p *CheckoutPage) Route() string {
	if p.review {
		return RouteCheckoutReview
	}
	return RouteCheckout
}

func (p *CheckoutPage) Key() string {
	return p.Route() + "|" + string(p.device)
}

func (p *CheckoutPage) Observes() FieldSet {
	return FieldServiceType | FieldRevenueCenter | FieldCartTotal | FieldCompletedOrder |
		FieldCheck | FieldCheckoutErrors | FieldSubmitting | FieldCustomer
}

func (p *CheckoutPage) Enter() []Intent {
	return []Intent{
		SetSubmitting{Submitting: false},
		SetDeviceType{Device: p.device},
	}
}

func (p *CheckoutPage) Guards() []Guard {
	return CheckoutGuards
}

func (p *CheckoutPage) React(env Env, consumed int64) Reaction {
	if r, ok := Handoff(env.Snapshot.Checkout.CompletedOrder, consumed); ok {
		return r
	}

	var intents []Intent
	if p.review && !p.loggedOut && ssoDesynced(env) {
		p.loggedOut = true
		intents = append(intents, LogoutCustomer{})
	}
	if env.Snapshot.Checkout.Check == nil && !p.checkRequested {
		p.checkRequested = true
		intents = append(intents, FetchOrder{})
	}

	return Reaction{Intents: intents}
}

func (p *CheckoutPage) Exit() []Intent {
	return []Intent{ResetErrors{}, ResetTip{}}
}

func (p *CheckoutPage) View(env Env) any {
	co := env.Snapshot.Checkout
	formError := co.FormError()

	scroll := !p.scrolled || (formError != "" && !co.Submitting)
	p.scrolled = true

	return CheckoutView{
		Title:      "Checkout | " + env.Brand.Title,
		Loading:    co.Check == nil,
		ScrollTop:  scroll,
		FormError:  formError,
		Submitting: co.Submitting,
		Check:      co.Check,
		Tip:        co.Tip,
		Order:      env.Snapshot.Order,
	}
}

// ssoDesynced сообщает, что внешняя учётная запись лояльности отвязана от покупателя чека.
func ssoDesynced(env Env) bool {
	if !env.Brand.HasThanx {
		return false
	}
	check := env.Snapshot.Checkout.Check
	if check == nil || check.Customer == nil {
		return false
	}
	c := check.Customer
	return c.CustomerID != 0 && c.SSO != nil && !c.SSO.Connected
}

// SubmitCheckout - отправка заказа со страницы оформления.
type SubmitCheckout struct{}

func (SubmitCheckout) Intents(p Page, _ model.Snapshot) ([]Intent, error) {
	if _, ok := p.(*CheckoutPage); !ok {
		return nil, ErrPageNotActive
	}
	return []Intent{SetSubmitting{Submitting: true}, SubmitOrder{}}, nil
}

func (SubmitCheckout) Settle(Page, model.Snapshot) {}

// ErrNegativeTip возвращается при попытке задать отрицательные чаевые.
var ErrNegativeTip = errors.New("tip must not be negative")

// ChangeTip - правка чаевых на странице оформления. Правка действует, пока покупатель
// не покинет страницу: эффект выхода сбрасывает её.
type ChangeTip struct {
	Tip *decimal.Decimal
}

func (a ChangeTip) Intents(p Page, _ model.Snapshot) ([]Intent, error) {
	if _, ok := p.(*CheckoutPage); !ok {
		return nil, ErrPageNotActive
	}
	if a.Tip != nil && a.Tip.IsNegative() {
		return nil, ErrNegativeTip
	}
	return []Intent{SetTip(a)}, nil
}

func (ChangeTip) Settle(Page, model.Snapshot) {}
