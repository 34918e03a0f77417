package navigation

// Reaction - эффекты одного цикла оценки страницы после прохождения охранных правил.
type Reaction struct {
	Intents []Intent
	// Redirect уводит со страницы после применения Intents.
	Redirect string
	// Consumes - идентификатор оформленного заказа, переданного на подтверждение.
	Consumes int64
}

// Page - страница витрины, привязанная к сессии на время своего жизненного цикла.
// Экземпляр страницы хранит только временные флаги текущего посещения.
type Page interface {
	// Route - логический маршрут страницы.
	Route() string
	// Key - ключ привязки: маршрут плюс зависимости, влияющие на идентичность посещения.
	Key() string
	// Observes - поля хранилищ, изменение которых требует повторной оценки.
	Observes() FieldSet
	// Enter - эффекты входа, выполняются один раз на привязку.
	Enter() []Intent
	// Guards - упорядоченные охранные правила.
	Guards() []Guard
	// React - эффекты цикла оценки после прохождения правил.
	React(env Env, consumed int64) Reaction
	// Exit - эффекты выхода, выполняются при любом уходе со страницы.
	Exit() []Intent
	// View - модель представления страницы.
	View(env Env) any
}

// Rebinder реализуют страницы, принимающие новые параметры запроса без смены ключа привязки.
type Rebinder interface {
	Rebind(next Page)
}

// basePage даёт пустые реализации необязательных частей жизненного цикла.
type basePage struct{}

func (basePage) Enter() []Intent           { return nil }
func (basePage) Guards() []Guard           { return nil }
func (basePage) React(Env, int64) Reaction { return Reaction{} }
func (basePage) Exit() []Intent            { return nil }
func (basePage) Observes() FieldSet        { return 0 }
