package navigation

import "github.com/mmeshcher/storefront/internal/model"

// Handoff строит атомарную передачу оформленного заказа на страницу подтверждения.
//
// Порядок намерений фиксирован: копия в слот подтверждения, очистка оформленного
// заказа, сброс рабочего заказа. Переход на подтверждение выполняется после применения
// всей пачки. consumed - идентификатор заказа, уже переданного в этой сессии; повторная
// передача того же заказа не выполняется.
func Handoff(completed *model.CompletedOrder, consumed int64) (Reaction, bool) {
	if completed == nil {
		return Reaction{}, false
	}
	if consumed != 0 && completed.OrderID == consumed {
		return Reaction{}, false
	}

	return Reaction{
		Intents: []Intent{
			SetConfirmationOrder{Order: *completed},
			ResetCompletedOrder{},
			ResetOrder{},
		},
		Redirect: RouteConfirmation,
		Consumes: completed.OrderID,
	}, true
}
