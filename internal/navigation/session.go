package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/storefront/internal/model"
)

// ErrPageNotActive возвращается, если действие относится не к активной странице сессии.
var ErrPageNotActive = errors.New("page is not active")

// ErrActionRejected возвращается, если состояние страницы не допускает действие.
var ErrActionRejected = errors.New("action is not allowed in the current page state")

// maxCycles ограничивает число повторных оценок, вызванных собственными эффектами страницы.
const maxCycles = 4

// Result - итог посещения страницы или действия на ней.
type Result struct {
	// Redirect непустой, если покупателя нужно перевести на другой маршрут.
	Redirect string
	// Violation заполнен, если перевод вызван охранным правилом.
	Violation Violation
	// View - модель представления, если перевода нет.
	View any
}

// Action - действие пользователя на активной странице.
type Action interface {
	// Intents формирует намерения действия по текущему срезу состояния.
	Intents(p Page, snap model.Snapshot) ([]Intent, error)
	// Settle вызывается после применения намерений со свежим срезом состояния.
	Settle(p Page, snap model.Snapshot)
}

// Aborter реализуют действия, которым нужно откатить временные флаги страницы,
// если намерения не удалось применить.
type Aborter interface {
	Abort(p Page)
}

// Session - контроллер навигации одной сессии покупателя.
// Вызовы сериализуются: в каждый момент оценивается не более одного события.
type Session struct {
	id         string
	store      Store
	dispatcher Dispatcher
	brand      model.Brand
	logger     *zap.Logger

	mu       sync.Mutex
	active   Page
	last     *model.Snapshot
	consumed int64
	// seenAt - время последнего обращения в наносекундах Unix. Читается без mu.
	seenAt atomic.Int64
}

func (s *Session) touch() {
	s.seenAt.Store(time.Now().UnixNano())
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string {
	return s.id
}

// Active возвращает маршрут активной страницы или пустую строку.
func (s *Session) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.Route()
}

// Visit привязывает страницу к сессии и оценивает её.
// Если активна другая страница (или та же с другим ключом привязки), сначала
// выполняются её эффекты выхода.
func (s *Session) Visit(ctx context.Context, page Page) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	fresh := false
	switch {
	case s.active == nil:
		fresh = true
	case s.active.Key() != page.Key():
		if err := s.leave(ctx); err != nil {
			return Result{}, err
		}
		fresh = true
	default:
		if rb, ok := s.active.(Rebinder); ok {
			rb.Rebind(page)
		}
	}

	if fresh {
		s.active = page
		s.last = nil
		if err := s.dispatch(ctx, page.Enter()); err != nil {
			// Страница не смогла войти: выход всё равно обязателен.
			if lerr := s.leave(ctx); lerr != nil {
				s.logger.Warn("exit after failed enter",
					zap.String("session", s.id),
					zap.String("page", page.Route()),
					zap.Error(lerr),
				)
			}
			return Result{}, fmt.Errorf("enter %s: %w", page.Route(), err)
		}
	}

	return s.evaluate(ctx)
}

// Perform выполняет действие на активной странице с ключом key.
func (s *Session) Perform(ctx context.Context, key string, action Action) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.active == nil || s.active.Key() != key {
		return Result{}, ErrPageNotActive
	}

	before, err := s.store.Snapshot(ctx, s.id)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot: %w", err)
	}
	intents, err := action.Intents(s.active, before)
	if err != nil {
		return Result{}, err
	}
	if err := s.dispatch(ctx, intents); err != nil {
		if ab, ok := action.(Aborter); ok {
			ab.Abort(s.active)
		}
		return Result{}, err
	}

	snap, err := s.store.Snapshot(ctx, s.id)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot: %w", err)
	}
	action.Settle(s.active, snap)

	return s.evaluate(ctx)
}

// Refresh повторно оценивает активную страницу после изменения хранилищ извне.
func (s *Session) Refresh(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return Result{}, nil
	}
	return s.evaluate(ctx)
}

// Dispatch применяет намерения, не связанные со страницей, и повторно оценивает активную страницу.
func (s *Session) Dispatch(ctx context.Context, intents ...Intent) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.dispatch(ctx, intents); err != nil {
		return Result{}, err
	}
	if s.active == nil {
		return Result{}, nil
	}
	return s.evaluate(ctx)
}

// Leave уводит сессию с активной страницы.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leave(ctx)
}

// StartOver сбрасывает тип заказа и оформление и возвращает на главную.
func (s *Session) StartOver(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.leave(ctx); err != nil {
		return Result{}, err
	}
	if err := s.dispatch(ctx, []Intent{ResetOrderType{}, ResetCheckout{}}); err != nil {
		return Result{}, err
	}
	return Result{Redirect: RouteHome}, nil
}

func (s *Session) evaluate(ctx context.Context) (Result, error) {
	for cycle := 0; cycle < maxCycles; cycle++ {
		snap, err := s.store.Snapshot(ctx, s.id)
		if err != nil {
			return Result{}, fmt.Errorf("snapshot: %w", err)
		}

		env := Env{Snapshot: snap, Brand: s.brand}
		page := s.active

		if s.last != nil && !Changed(*s.last, snap).Has(page.Observes()) {
			return Result{View: page.View(env)}, nil
		}
		s.last = &snap

		if r := Evaluate(env, page.Guards()...); r != nil {
			s.logger.Debug("guard redirect",
				zap.String("session", s.id),
				zap.String("page", page.Route()),
				zap.String("violation", string(r.Violation)),
				zap.String("to", r.To),
			)
			if err := s.leave(ctx); err != nil {
				return Result{}, err
			}
			return Result{Redirect: r.To, Violation: r.Violation}, nil
		}

		reaction := page.React(env, s.consumed)
		if len(reaction.Intents) > 0 {
			if err := s.dispatch(ctx, reaction.Intents); err != nil {
				return Result{}, err
			}
			if reaction.Consumes != 0 {
				s.consumed = reaction.Consumes
			}
		}

		if reaction.Redirect != "" {
			if err := s.leave(ctx); err != nil {
				return Result{}, err
			}
			return Result{Redirect: reaction.Redirect}, nil
		}

		if len(reaction.Intents) == 0 {
			return Result{View: page.View(env)}, nil
		}
	}

	snap, err := s.store.Snapshot(ctx, s.id)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot: %w", err)
	}
	s.last = &snap
	return Result{View: s.active.View(Env{Snapshot: snap, Brand: s.brand})}, nil
}

func (s *Session) leave(ctx context.Context) error {
	if s.active == nil {
		return nil
	}
	page := s.active
	s.active = nil
	s.last = nil

	if err := s.dispatch(ctx, page.Exit()); err != nil {
		return fmt.Errorf("exit %s: %w", page.Route(), err)
	}
	return nil
}

func (s *Session) dispatch(ctx context.Context, intents []Intent) error {
	if len(intents) == 0 {
		return nil
	}
	s.logger.Debug("dispatch",
		zap.String("session", s.id),
		zap.Strings("intents", IntentNames(intents)),
	)
	if err := s.dispatcher.Dispatch(ctx, s.id, intents...); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

// Navigator хранит контроллеры активных сессий.
type Navigator struct {
	store      Store
	dispatcher Dispatcher
	brand      model.Brand
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewNavigator создаёт реестр сессий поверх хранилищ и диспетчера намерений.
func NewNavigator(store Store, dispatcher Dispatcher, brand model.Brand, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{
		store:      store,
		dispatcher: dispatcher,
		brand:      brand,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Brand возвращает настройки витрины.
func (n *Navigator) Brand() model.Brand {
	return n.brand
}

// Session возвращает контроллер сессии, создавая его при первом обращении.
func (n *Navigator) Session(id string) *Session {
	n.mu.Lock()
	defer n.mu.Unlock()

	s, ok := n.sessions[id]
	if !ok {
		s = &Session{
			id:         id,
			store:      n.store,
			dispatcher: n.dispatcher,
			brand:      n.brand,
			logger:     n.logger,
		}
		s.touch()
		n.sessions[id] = s
	}
	return s
}

// Sweep забывает сессии, неактивные дольше maxIdle, и возвращает их число.
// Эффекты выхода таких сессий не выполняются: хранилища очищаются отдельно.
func (n *Navigator) Sweep(maxIdle time.Duration) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	deadline := time.Now().Add(-maxIdle).UnixNano()
	removed := 0
	for id, s := range n.sessions {
		if s.seenAt.Load() < deadline {
			delete(n.sessions, id)
			removed++
		}
	}
	return removed
}
