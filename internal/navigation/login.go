package navigation

import (
	"strings"

	"github.com/mmeshcher/storefront/internal/model"
)

// LoginMode - режим окна входа.
type LoginMode string

const (
	LoginModeLogin     LoginMode = "login"
	LoginModeReset     LoginMode = "reset"
	LoginModeResetSent LoginMode = "resetSent"
)

var loginMessaging = map[LoginMode]LoginView{
	LoginModeLogin: {
		Title:    "Log into your account",
		Subtitle: "Please enter your email address and password",
		Toggle:   "Forget your password?",
	},
	LoginModeReset: {
		Title:    "Reset your password",
		Subtitle: "Please enter the email address associated with your account",
		Toggle:   "Nevermind, I remembered it",
	},
	LoginModeResetSent: {
		Title:    "Password reset email sent",
		Subtitle: "A reset password email was just sent to the email address you provided. Please check your inbox and click on the link in the email in order to reset your password.",
		Toggle:   "Back to login form",
	},
}

// LoginPage - окно входа и сброса пароля. После входа окно закрывается
// переходом на returnTo.
type LoginPage struct {
	basePage
	returnTo string
	isReset  bool
}

// NewLoginPage создаёт окно входа с маршрутом возврата.
func NewLoginPage(returnTo string) *LoginPage {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = RouteHome
	}
	return &LoginPage{returnTo: returnTo}
}

// LoginView - модель представления окна входа.
type LoginView struct {
	Mode     LoginMode `json:"mode"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle"`
	Toggle   string    `json:"toggle"`
	Error    string    `json:"error,omitempty"`
	Loading  bool      `json:"loading"`
}

func (p *LoginPage) Route() string      { return RouteLogin }
func (p *LoginPage) Key() string        { return RouteLogin }
func (p *LoginPage) Observes() FieldSet { return FieldCustomer | FieldPasswordReset }

// Rebind обновляет маршрут возврата.
func (p *LoginPage) Rebind(next Page) {
	if n, ok := next.(*LoginPage); ok {
		p.returnTo = n.returnTo
	}
}

func (p *LoginPage) React(env Env, _ int64) Reaction {
	if env.Snapshot.Customer.Authenticated() {
		return Reaction{Redirect: p.returnTo}
	}
	return Reaction{}
}

func (p *LoginPage) Exit() []Intent {
	return []Intent{ResetPasswordReset{}}
}

// Mode вычисляет режим окна.
func (p *LoginPage) Mode(reset model.PasswordReset) LoginMode {
	switch {
	case reset.ResetSent:
		return LoginModeResetSent
	case p.isReset:
		return LoginModeReset
	default:
		return LoginModeLogin
	}
}

func (p *LoginPage) View(env Env) any {
	mode := p.Mode(env.Snapshot.PasswordReset)
	v := loginMessaging[mode]
	v.Mode = mode
	v.Loading = env.Snapshot.Customer.Loading == model.LoadingPending
	v.Error = env.Snapshot.Customer.Error
	if mode != LoginModeLogin && env.Snapshot.PasswordReset.Error != "" {
		v.Error = env.Snapshot.PasswordReset.Error
	}
	return v
}

// Login - вход покупателя по почте и паролю.
type Login struct {
	Email    string
	Password string
}

func (a Login) Intents(p Page, _ model.Snapshot) ([]Intent, error) {
	if _, ok := p.(*LoginPage); !ok {
		return nil, ErrPageNotActive
	}
	return []Intent{LoginCustomer(a)}, nil
}

func (a Login) Settle(Page, model.Snapshot) {}

// RequestPasswordReset - запрос письма со ссылкой на сброс пароля.
// Origin - схема и хост витрины, к которым добавляется маршрут сброса.
type RequestPasswordReset struct {
	Email  string
	Origin string
}

func (a RequestPasswordReset) Intents(p Page, _ model.Snapshot) ([]Intent, error) {
	if _, ok := p.(*LoginPage); !ok {
		return nil, ErrPageNotActive
	}
	link := strings.TrimRight(a.Origin, "/") + RouteResetPassword
	return []Intent{SendPasswordResetEmail{Email: a.Email, LinkURL: link}}, nil
}

func (a RequestPasswordReset) Settle(Page, model.Snapshot) {}

// ToggleReset переключает окно между входом и сбросом пароля.
type ToggleReset struct{}

func (ToggleReset) Intents(p Page, _ model.Snapshot) ([]Intent, error) {
	if _, ok := p.(*LoginPage); !ok {
		return nil, ErrPageNotActive
	}
	return nil, nil
}

func (ToggleReset) Settle(p Page, _ model.Snapshot) {
	if lp, ok := p.(*LoginPage); ok {
		lp.isReset = !lp.isReset
	}
}

// DismissResetSent возвращает окно из режима отправленного письма к форме входа.
type DismissResetSent struct{}

func (DismissResetSent) Intents(p Page, _ model.Snapshot) ([]Intent, error) {
	if _, ok := p.(*LoginPage); !ok {
		return nil, ErrPageNotActive
	}
	return []Intent{ResetPasswordReset{}}, nil
}

func (DismissResetSent) Settle(p Page, _ model.Snapshot) {
	if lp, ok := p.(*LoginPage); ok {
		lp.isReset = false
	}
}
