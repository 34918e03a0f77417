// Package service реализует хранилища витрины: применяет именованные намерения
// контроллера навигации к состоянию сессии и обращается к API заказов.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/events"
	"github.com/mmeshcher/storefront/internal/model"
	"github.com/mmeshcher/storefront/internal/navigation"
	"github.com/mmeshcher/storefront/internal/orderapi"
	"github.com/mmeshcher/storefront/internal/repository"
)

// ErrUnknownIntent возвращается для намерения, которое хранилища не умеют применять.
var ErrUnknownIntent = errors.New("unknown intent")

// errNotLoggedIn записывается в состояние избранного, если покупатель не вошёл.
const errNotLoggedIn = "You must be logged in to view favorites"

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	GetSession(ctx context.Context, id string) (*repository.SessionState, error)
	UpdateSession(ctx context.Context, id string, fn func(st *repository.SessionState) error) error
	PurgeSessions(ctx context.Context, before time.Time) (int64, error)
	GetConfirmedOrders(ctx context.Context, sessionID string) ([]model.CompletedOrder, error)
}

// OrderAPI описывает операции удалённого API заказов.
type OrderAPI interface {
	GetOrderRating(ctx context.Context, ratingUUID string) (*model.OrderRating, error)
	UpdateOrderRating(ctx context.Context, ratingUUID string, rating model.OrderRating) (*model.OrderRating, error)
	UnsubscribeOrderRating(ctx context.Context, ratingUUID string) error
	GetOrderFulfillment(ctx context.Context, orderID int64) (*model.Fulfillment, error)
	ValidateOrder(ctx context.Context, token string, order model.Order) (*model.Check, error)
	SubmitOrder(ctx context.Context, token string, order model.Order, tip *decimal.Decimal) (*model.CompletedOrder, error)
	LoginCustomer(ctx context.Context, email, password string) (*orderapi.Auth, error)
	LogoutCustomer(ctx context.Context, token string) error
	SendPasswordResetEmail(ctx context.Context, email, linkURL string) error
	GetCustomerFavorites(ctx context.Context, token string) ([]model.Favorite, error)
}

// Sweeper забывает неактивные сессии в памяти.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Service - единственный писатель состояния сессий.
type Service struct {
	repo      Repository
	api       OrderAPI
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService создаёт сервис поверх репозитория, API заказов и публикатора событий.
func NewService(repo Repository, api OrderAPI, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		api:       api,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}

// Snapshot возвращает срез состояния сессии. Для новой сессии это пустое состояние.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (model.Snapshot, error) {
	st, err := s.state(ctx, sessionID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return st.Snapshot, nil
}

func (s *Service) state(ctx context.Context, sessionID string) (repository.SessionState, error) {
	st, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return newSessionState(), nil
		}
		return repository.SessionState{}, fmt.Errorf("load session: %w", err)
	}
	return *st, nil
}

func newSessionState() repository.SessionState {
	return repository.SessionState{Snapshot: model.Snapshot{
		Rating:      model.RatingState{Loading: model.LoadingIdle},
		Fulfillment: model.FulfillmentState{Loading: model.LoadingIdle},
		Customer:    model.Customer{Loading: model.LoadingIdle},
		Favorites:   model.Favorites{Loading: model.LoadingIdle},
	}}
}

// mutation - чистое изменение состояния сессии, вычисленное до открытия транзакции.
type mutation func(st *repository.SessionState)

// Dispatch применяет пачку намерений в переданном порядке.
//
// Сначала выполняются сетевые запросы: каждое намерение видит результат предыдущих
// на рабочей копии состояния. Затем все изменения применяются одной транзакцией,
// поэтому пачка видна целиком или не видна вовсе. Ошибки API записываются в
// состояние хранилищ; ошибкой Dispatch завершается только сбой хранения.
// События публикуются после фиксации транзакции.
func (s *Service) Dispatch(ctx context.Context, sessionID string, intents ...navigation.Intent) error {
	if len(intents) == 0 {
		return nil
	}

	working, err := s.state(ctx, sessionID)
	if err != nil {
		return err
	}

	muts := make([]mutation, 0, len(intents))
	var pending []events.Event
	for _, in := range intents {
		m, ev, err := s.resolve(ctx, sessionID, &working, in)
		if err != nil {
			return err
		}
		m(&working)
		muts = append(muts, m)
		if ev != nil {
			pending = append(pending, ev)
		}
	}

	err = s.repo.UpdateSession(ctx, sessionID, func(st *repository.SessionState) error {
		for _, m := range muts {
			m(st)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply %v: %w", navigation.IntentNames(intents), err)
	}

	for _, ev := range pending {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("publish event", zap.String("event", ev.RoutingKey()), zap.Error(err))
		}
	}
	return nil
}

// resolve выполняет сетевую часть намерения и возвращает изменение состояния.
func (s *Service) resolve(ctx context.Context, sessionID string, st *repository.SessionState, in navigation.Intent) (mutation, events.Event, error) {
	snap := st.Snapshot

	switch v := in.(type) {
	case navigation.ResetOrder:
		return func(st *repository.SessionState) { st.Snapshot.Order = model.Order{} }, nil, nil

	case navigation.ResetOrderType:
		return func(st *repository.SessionState) {
			st.Snapshot.Order.ServiceType = ""
			st.Snapshot.Order.OrderType = ""
			st.Snapshot.Order.RevenueCenter = nil
		}, nil, nil

	case navigation.SetOrder:
		return func(st *repository.SessionState) {
			order := v.Order
			if order.DeviceType == "" {
				order.DeviceType = st.Snapshot.Order.DeviceType
			}
			st.Snapshot.Order = order
		}, nil, nil

	case navigation.SetDeviceType:
		return func(st *repository.SessionState) { st.Snapshot.Order.DeviceType = v.Device }, nil, nil

	case navigation.SetGroupOrder:
		return func(st *repository.SessionState) { st.Snapshot.GroupOrder = v.GroupOrder }, nil, nil

	case navigation.ResetCheckout:
		return func(st *repository.SessionState) { st.Snapshot.Checkout = model.Checkout{} }, nil, nil

	case navigation.ResetErrors:
		return func(st *repository.SessionState) { st.Snapshot.Checkout.Errors = nil }, nil, nil

	case navigation.ResetTip:
		return func(st *repository.SessionState) { st.Snapshot.Checkout.Tip = nil }, nil, nil

	case navigation.SetTip:
		return func(st *repository.SessionState) { st.Snapshot.Checkout.Tip = v.Tip }, nil, nil

	case navigation.ResetCompletedOrder:
		return func(st *repository.SessionState) { st.Snapshot.Checkout.CompletedOrder = nil }, nil, nil

	case navigation.SetSubmitting:
		return func(st *repository.SessionState) { st.Snapshot.Checkout.Submitting = v.Submitting }, nil, nil

	case navigation.SetConfirmationOrder:
		order := v.Order
		ev := events.OrderConfirmed{
			SessionID:       sessionID,
			OrderID:         order.OrderID,
			Total:           order.Total,
			ServiceType:     order.ServiceType,
			RevenueCenterID: order.RevenueCenterID,
			ConfirmedAt:     s.now(),
		}
		return func(st *repository.SessionState) {
			o := order
			st.Snapshot.Confirmation = &o
		}, ev, nil

	case navigation.FetchOrder:
		check, err := s.api.ValidateOrder(ctx, st.CustomerToken, snap.Order)
		if err != nil {
			s.logRemote(sessionID, in, err)
			errs := orderapi.FormErrors(err)
			return func(st *repository.SessionState) { st.Snapshot.Checkout.Errors = errs }, nil, nil
		}
		return func(st *repository.SessionState) { st.Snapshot.Checkout.Check = check }, nil, nil

	case navigation.SubmitOrder:
		completed, err := s.api.SubmitOrder(ctx, st.CustomerToken, snap.Order, snap.Checkout.Tip)
		if err != nil {
			s.logRemote(sessionID, in, err)
			errs := orderapi.FormErrors(err)
			return func(st *repository.SessionState) {
				st.Snapshot.Checkout.Errors = errs
				st.Snapshot.Checkout.Submitting = false
			}, nil, nil
		}
		if completed.CreatedAt.IsZero() {
			completed.CreatedAt = s.now()
		}
		if completed.ServiceType == "" {
			completed.ServiceType = snap.Order.ServiceType
		}
		if completed.RevenueCenterID == 0 {
			completed.RevenueCenterID = snap.Order.RevenueCenterID()
		}
		return func(st *repository.SessionState) {
			st.Snapshot.Checkout.CompletedOrder = completed
			st.Snapshot.Checkout.Errors = nil
			st.Snapshot.Checkout.Submitting = false
		}, nil, nil

	case navigation.LoginCustomer:
		auth, err := s.api.LoginCustomer(ctx, v.Email, v.Password)
		if err != nil {
			s.logRemote(sessionID, in, err)
			msg := orderapi.Message(err)
			return func(st *repository.SessionState) {
				st.CustomerToken = ""
				st.Snapshot.Customer = model.Customer{Loading: model.LoadingRejected, Error: msg}
			}, nil, nil
		}
		profile := auth.Profile
		return func(st *repository.SessionState) {
			p := profile
			st.CustomerToken = auth.Token
			st.Snapshot.Customer = model.Customer{Profile: &p, Loading: model.LoadingFulfilled}
		}, nil, nil

	case navigation.LogoutCustomer:
		if st.CustomerToken != "" {
			if err := s.api.LogoutCustomer(ctx, st.CustomerToken); err != nil {
				s.logRemote(sessionID, in, err)
			}
		}
		return func(st *repository.SessionState) {
			st.CustomerToken = ""
			st.Snapshot.Customer = model.Customer{Loading: model.LoadingIdle}
			st.Snapshot.Favorites = model.Favorites{Loading: model.LoadingIdle}
		}, nil, nil

	case navigation.SendPasswordResetEmail:
		if err := s.api.SendPasswordResetEmail(ctx, v.Email, v.LinkURL); err != nil {
			s.logRemote(sessionID, in, err)
			msg := orderapi.Message(err)
			return func(st *repository.SessionState) { st.Snapshot.PasswordReset = model.PasswordReset{Error: msg} }, nil, nil
		}
		return func(st *repository.SessionState) { st.Snapshot.PasswordReset = model.PasswordReset{ResetSent: true} }, nil, nil

	case navigation.ResetPasswordReset:
		return func(st *repository.SessionState) { st.Snapshot.PasswordReset = model.PasswordReset{} }, nil, nil

	case navigation.FetchCustomerFavorites:
		if st.CustomerToken == "" {
			return func(st *repository.SessionState) {
				st.Snapshot.Favorites = model.Favorites{Loading: model.LoadingRejected, Error: errNotLoggedIn}
			}, nil, nil
		}
		favs, err := s.api.GetCustomerFavorites(ctx, st.CustomerToken)
		if err != nil {
			s.logRemote(sessionID, in, err)
			msg := orderapi.Message(err)
			return func(st *repository.SessionState) {
				st.Snapshot.Favorites.Loading = model.LoadingRejected
				st.Snapshot.Favorites.Error = msg
			}, nil, nil
		}
		return func(st *repository.SessionState) {
			st.Snapshot.Favorites = model.Favorites{Entities: favs, Loading: model.LoadingFulfilled}
		}, nil, nil

	case navigation.FetchOrderHistory:
		orders, err := s.repo.GetConfirmedOrders(ctx, sessionID)
		if err != nil {
			return nil, nil, fmt.Errorf("load order history: %w", err)
		}
		return func(st *repository.SessionState) { st.Snapshot.OrderHistory = orders }, nil, nil

	case navigation.FetchOrderFulfillment:
		f, err := s.api.GetOrderFulfillment(ctx, v.OrderID)
		if err != nil {
			s.logRemote(sessionID, in, err)
			msg := orderapi.Message(err)
			return func(st *repository.SessionState) {
				st.Snapshot.Fulfillment = model.FulfillmentState{OrderID: v.OrderID, Loading: model.LoadingRejected, Error: msg}
			}, nil, nil
		}
		return func(st *repository.SessionState) {
			st.Snapshot.Fulfillment = model.FulfillmentState{OrderID: v.OrderID, Fulfillment: f, Loading: model.LoadingFulfilled}
		}, nil, nil

	case navigation.FetchOrderRating:
		rating, err := s.api.GetOrderRating(ctx, v.UUID)
		if err != nil {
			s.logRemote(sessionID, in, err)
			failed := model.RatingState{
				UUID:      v.UUID,
				Loading:   model.LoadingRejected,
				Error:     orderapi.Message(err),
				ErrorKind: ratingErrorKind(err),
			}
			return func(st *repository.SessionState) { st.Snapshot.Rating = failed }, nil, nil
		}
		return func(st *repository.SessionState) {
			st.Snapshot.Rating = model.RatingState{UUID: v.UUID, Rating: rating, Loading: model.LoadingFulfilled}
		}, nil, nil

	case navigation.UpdateOrderRating:
		updated, err := s.api.UpdateOrderRating(ctx, v.UUID, v.Rating)
		if err != nil {
			s.logRemote(sessionID, in, err)
			msg := orderapi.Message(err)
			return func(st *repository.SessionState) {
				st.Snapshot.Rating.Loading = model.LoadingRejected
				st.Snapshot.Rating.Error = msg
			}, nil, nil
		}
		if updated.OrderID == 0 && snap.Rating.Rating != nil {
			updated.OrderID = snap.Rating.Rating.OrderID
		}
		ev := events.RatingSubmitted{RatingUUID: v.UUID, OrderID: updated.OrderID, Rating: updated.Rating}
		return func(st *repository.SessionState) {
			st.Snapshot.Rating.UUID = v.UUID
			st.Snapshot.Rating.Rating = updated
			st.Snapshot.Rating.Loading = model.LoadingFulfilled
			st.Snapshot.Rating.Error = ""
			st.Snapshot.Rating.ErrorKind = ""
		}, ev, nil

	case navigation.UnsubscribeOrderRating:
		if err := s.api.UnsubscribeOrderRating(ctx, v.UUID); err != nil {
			s.logRemote(sessionID, in, err)
			msg := orderapi.Message(err)
			return func(st *repository.SessionState) {
				st.Snapshot.Rating = model.RatingState{UUID: v.UUID, Loading: model.LoadingRejected, Error: msg}
			}, nil, nil
		}
		return func(st *repository.SessionState) {
			st.Snapshot.Rating = model.RatingState{UUID: v.UUID, Loading: model.LoadingFulfilled}
		}, events.RatingUnsubscribed{RatingUUID: v.UUID}, nil

	case navigation.ResetOrderRating:
		return func(st *repository.SessionState) {
			st.Snapshot.Rating = model.RatingState{Loading: model.LoadingIdle}
		}, nil, nil
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownIntent, in.Name())
}

func ratingErrorKind(err error) string {
	if orderapi.ErrorCode(err) == orderapi.CodeCancelled {
		return navigation.ErrorKindCancelled
	}
	return ""
}

func (s *Service) logRemote(sessionID string, in navigation.Intent, err error) {
	// Ненайденная запись - обычный ответ для устаревших ссылок из писем.
	if orderapi.IsNotFound(err) {
		s.logger.Debug("order api record not found",
			zap.String("session", sessionID),
			zap.String("intent", in.Name()),
		)
		return
	}
	s.logger.Info("order api request failed",
		zap.String("session", sessionID),
		zap.String("intent", in.Name()),
		zap.Error(err),
	)
}

// StartMaintenance запускает фоновую очистку: удаляет сессии, неактивные дольше maxIdle,
// из базы и из памяти контроллера навигации.
func (s *Service) StartMaintenance(ctx context.Context, interval, maxIdle time.Duration, sweeper Sweeper) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.maintain(ctx, maxIdle, sweeper)
			}
		}
	}()
}

func (s *Service) maintain(ctx context.Context, maxIdle time.Duration, sweeper Sweeper) {
	removed, err := s.repo.PurgeSessions(ctx, s.now().Add(-maxIdle))
	if err != nil {
		s.logger.Error("purge sessions", zap.Error(err))
		return
	}

	forgotten := 0
	if sweeper != nil {
		forgotten = sweeper.Sweep(maxIdle)
	}
	if removed > 0 || forgotten > 0 {
		s.logger.Info("idle sessions removed", zap.Int64("stored", removed), zap.Int("active", forgotten))
	}
}
