package navigation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mmeshcher/storefront/internal/model"
)

// RatingStatus - состояние сеанса оценки заказа.
type RatingStatus string

const (
	RatingIdle         RatingStatus = "idle"
	RatingLoading      RatingStatus = "loading"
	RatingLoaded       RatingStatus = "loaded"
	RatingUnsubscribed RatingStatus = "unsubscribed"
	RatingNotFound     RatingStatus = "not_found"
	RatingCancelled    RatingStatus = "cancelled"
	RatingSubmitting   RatingStatus = "submitting"
	RatingSubmitted    RatingStatus = "submitted"
)

// ErrorKindCancelled - структурированный признак отменённого заказа от хранилища оценок.
const ErrorKindCancelled = "cancelled"

// RatingPage - страница оценки заказа по идентификатору оценки.
type RatingPage struct {
	basePage

	uuid        string
	queryRating int
	unsubscribe bool

	submitting bool
	attempted  bool
	submitted  bool
}

// NewRatingPage создаёт страницу оценки. queryRating - предзаполненная оценка из ссылки
// (0, если не передана), unsubscribe - признак отписки из письма.
func NewRatingPage(uuid string, queryRating int, unsubscribe bool) *RatingPage {
	return &RatingPage{uuid: uuid, queryRating: queryRating, unsubscribe: unsubscribe}
}

// RatingTitles - заголовки страницы оценки.
type RatingTitles struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// RatingView - модель представления страницы оценки.
type RatingView struct {
	PageTitle   string             `json:"page_title"`
	Status      RatingStatus       `json:"status"`
	Titles      RatingTitles       `json:"titles"`
	RatingUUID  string             `json:"rating_uuid"`
	OrderRating *model.OrderRating `json:"order_rating,omitempty"`
	Error       string             `json:"error,omitempty"`
	BackLink    string             `json:"back_link,omitempty"`
}

func (p *RatingPage) Route() string { return RatingRoute(p.uuid) }

func (p *RatingPage) Key() string {
	return RatingRoute(p.uuid) + "|unsubscribe=" + strconv.FormatBool(p.unsubscribe)
}

func (p *RatingPage) Observes() FieldSet { return FieldRating | FieldCustomer }

// Enter выбирает ровно одно входное действие: отписку или загрузку оценки.
func (p *RatingPage) Enter() []Intent {
	if p.unsubscribe {
		return []Intent{UnsubscribeOrderRating{UUID: p.uuid}}
	}
	return []Intent{FetchOrderRating{UUID: p.uuid}}
}

func (p *RatingPage) Exit() []Intent {
	return []Intent{ResetOrderRating{}}
}

// Rebind принимает новую предзаполненную оценку при том же ключе привязки.
func (p *RatingPage) Rebind(next Page) {
	if n, ok := next.(*RatingPage); ok {
		p.queryRating = n.queryRating
	}
}

// Submitted сообщает, что оценка отправлена в рамках этого посещения.
func (p *RatingPage) Submitted() bool {
	return p.submitted
}

// Status вычисляет состояние сеанса оценки.
func (p *RatingPage) Status(st model.RatingState) RatingStatus {
	pending := st.Loading == model.LoadingPending

	switch {
	case p.unsubscribe && pending:
		return RatingLoading
	case p.unsubscribe:
		return RatingUnsubscribed
	case p.submitting:
		return RatingSubmitting
	case p.submitted && st.Error == "" && !pending:
		return RatingSubmitted
	case pending:
		return RatingLoading
	case st.Error != "" && p.attempted && st.Rating != nil:
		// ошибка отправки остаётся в форме, оценку можно отправить снова
		return RatingLoaded
	case st.Error != "" && isCancelled(st):
		return RatingCancelled
	case st.Error != "":
		return RatingNotFound
	case st.Rating != nil:
		return RatingLoaded
	case st.Loading == model.LoadingIdle:
		return RatingIdle
	default:
		return RatingNotFound
	}
}

// AdjustedRating возвращает оценку для формы: до отправки значение из ссылки
// заменяет загруженное, идентификатор заказа не меняется никогда.
func (p *RatingPage) AdjustedRating(st model.RatingState) *model.OrderRating {
	if st.Rating == nil {
		return nil
	}
	r := *st.Rating
	if p.queryRating > 0 && !p.submitted {
		r.Rating = p.queryRating
	}
	return &r
}

func (p *RatingPage) View(env Env) any {
	st := env.Snapshot.Rating
	status := p.Status(st)

	pageTitle := "Rating Not Found"
	if st.Rating != nil {
		pageTitle = fmt.Sprintf("Rating Order #%d", st.Rating.OrderID)
	}

	v := RatingView{
		PageTitle:  pageTitle + " | " + env.Brand.Title,
		Status:     status,
		Titles:     ratingTitles(status, st.Rating),
		RatingUUID: p.uuid,
	}

	switch status {
	case RatingLoaded:
		v.OrderRating = p.AdjustedRating(st)
		v.Error = st.Error
	case RatingNotFound, RatingCancelled, RatingUnsubscribed:
		v.Error = st.Error
	case RatingSubmitted:
		v.BackLink = RouteHome
		if env.Snapshot.Customer.Authenticated() {
			v.BackLink = RouteAccount
		}
	}

	return v
}

// isCancelled распознаёт отменённый заказ. Поиск подстроки в тексте ошибки хрупок
// и оставлен для совместимости с хранилищами, не отдающими вид ошибки.
func isCancelled(st model.RatingState) bool {
	if st.ErrorKind == ErrorKindCancelled {
		return true
	}
	return strings.Contains(st.Error, "cancelled")
}

func ratingTitles(status RatingStatus, r *model.OrderRating) RatingTitles {
	switch status {
	case RatingUnsubscribed:
		return RatingTitles{
			Title:    "You've been unsubscribed",
			Subtitle: "You will not receive future order rating emails.",
		}
	case RatingSubmitted:
		return RatingTitles{
			Title:    "Thanks for rating your order!",
			Subtitle: "You can update your rating from your Order History if you need to make any adjustments.",
		}
	case RatingLoaded, RatingSubmitting:
		if r != nil && r.OrderID != 0 {
			return RatingTitles{
				Title: "Almost done!",
				Subtitle: fmt.Sprintf("Please verify your rating and add any comments (optionally) for order #%d, and then click Submit.",
					r.OrderID),
			}
		}
	case RatingCancelled:
		return RatingTitles{Title: "This order has been cancelled"}
	case RatingLoading, RatingIdle:
		return RatingTitles{Title: "Retrieving order rating..."}
	}
	return RatingTitles{
		Title:    "Sorry, but we couldn't find your order",
		Subtitle: "Please try clicking on the link in the email again",
	}
}

// SubmitRating - отправка оценки с активной страницы оценки.
type SubmitRating struct {
	Rating  int
	Comment string
}

func (a SubmitRating) Intents(p Page, snap model.Snapshot) ([]Intent, error) {
	rp, ok := p.(*RatingPage)
	if !ok || rp.unsubscribe {
		return nil, ErrPageNotActive
	}
	// Отправлять можно только загруженную оценку: ненайденная и отменённая окончательны.
	if rp.Status(snap.Rating) != RatingLoaded {
		return nil, ErrActionRejected
	}
	rp.submitting = true
	rp.attempted = true
	return []Intent{UpdateOrderRating{
		UUID:   rp.uuid,
		Rating: model.OrderRating{Rating: a.Rating, Comment: a.Comment},
	}}, nil
}

// Settle выставляет признак отправки только при успехе. Признак односторонний.
func (a SubmitRating) Settle(p Page, snap model.Snapshot) {
	rp, ok := p.(*RatingPage)
	if !ok {
		return
	}
	rp.submitting = false
	if snap.Rating.Error == "" && snap.Rating.Loading != model.LoadingPending {
		rp.submitted = true
	}
}

// Abort снимает признак отправки, если намерение не дошло до хранилища.
func (a SubmitRating) Abort(p Page) {
	if rp, ok := p.(*RatingPage); ok {
		rp.submitting = false
	}
}
