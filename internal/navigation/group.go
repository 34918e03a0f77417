package navigation

import "github.com/mmeshcher/storefront/internal/model"

// GroupRole - роль сессии в групповом заказе.
type GroupRole string

const (
	GroupRoleOwner GroupRole = "owner"
	GroupRoleGuest GroupRole = "guest"
)

// GroupRoleOf выбирает ровно один сценарий просмотра группового заказа.
// Если не выставлен ни один флаг, активной групповой сессии нет.
func GroupRoleOf(g model.GroupOrder) (GroupRole, bool) {
	switch {
	case g.CartGuest:
		return GroupRoleGuest, true
	case g.CartOwner:
		return GroupRoleOwner, true
	default:
		return "", false
	}
}

// GroupOrderReviewPage - страница просмотра группового заказа.
type GroupOrderReviewPage struct {
	basePage
}

// GroupOrderReviewView - модель представления группового заказа.
type GroupOrderReviewView struct {
	Title     string    `json:"title"`
	Role      GroupRole `json:"role"`
	CartID    int64     `json:"cart_id"`
	ScrollTop bool      `json:"scroll_top"`
}

func (p *GroupOrderReviewPage) Route() string      { return RouteGroupOrderReview }
func (p *GroupOrderReviewPage) Key() string        { return RouteGroupOrderReview }
func (p *GroupOrderReviewPage) Observes() FieldSet { return FieldGroupOrder }
func (p *GroupOrderReviewPage) Guards() []Guard    { return []Guard{RequireGroupCart} }

func (p *GroupOrderReviewPage) View(env Env) any {
	role, _ := GroupRoleOf(env.Snapshot.GroupOrder)
	return GroupOrderReviewView{
		Title:     "Review Group Order | " + env.Brand.Title,
		Role:      role,
		CartID:    env.Snapshot.GroupOrder.CartID,
		ScrollTop: true,
	}
}
