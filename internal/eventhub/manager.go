// Package eventhub fans grievance events out to live websocket dashboards and to
// registered sinks such as the Telegram notifier.
package eventhub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"grievance/backend/internal/logger"
	"grievance/backend/internal/metrics"
	"grievance/backend/internal/models"
)

// ErrStopped is returned once the hub loop has exited.
var ErrStopped = errors.New("event hub stopped")

const eventBuffer = 256

// Sink receives every event regardless of viewer interest.
type Sink interface {
	Handle(ctx context.Context, e models.Event)
}

// ManagerService owns the set of live clients. All of its state is touched by the
// Run goroutine only; other goroutines talk to it through channels.
type ManagerService struct {
	clients map[Client]struct{}

	registerCh   chan Client
	unregisterCh chan Client
	eventsCh     chan models.Event
	done         chan struct{}

	sinks   []Sink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewManagerService(m *metrics.Metrics, l *zap.Logger, sinks ...Sink) *ManagerService {
	return &ManagerService{
		clients:      make(map[Client]struct{}),
		registerCh:   make(chan Client),
		unregisterCh: make(chan Client),
		eventsCh:     make(chan models.Event, eventBuffer),
		done:         make(chan struct{}),
		sinks:        sinks,
		metrics:      m,
		logger:       logger.OrNop(l),
	}
}

// Run processes registrations and events until ctx is cancelled. Remaining clients
// are closed on exit.
func (m *ManagerService) Run(ctx context.Context) {
	defer func() {
		for c := range m.clients {
			m.drop(c)
		}
		close(m.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-m.registerCh:
			m.clients[c] = struct{}{}
			m.gauge()
			m.logger.Debug("Client registered", zap.String("user_id", c.GetViewer().UserID))
		case c := <-m.unregisterCh:
			if _, ok := m.clients[c]; ok {
				m.drop(c)
			}
		case e := <-m.eventsCh:
			m.broadcast(ctx, e)
		}
	}
}

// Register adds a client. It returns ErrStopped after the hub has exited.
func (m *ManagerService) Register(c Client) error {
	select {
	case m.registerCh <- c:
		return nil
	case <-m.done:
		return ErrStopped
	}
}

// Unregister removes and closes a client. Unknown clients are ignored.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.unregisterCh <- c:
	case <-m.done:
	}
}

// Publish hands an event to the hub, which makes the hub usable as the process
// local publisher when Redis is not configured.
func (m *ManagerService) Publish(ctx context.Context, e models.Event) error {
	// eventsCh is buffered, so a stopped hub must be detected before the send.
	select {
	case <-m.done:
		return ErrStopped
	default:
	}
	select {
	case m.eventsCh <- e:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

func (m *ManagerService) broadcast(ctx context.Context, e models.Event) {
	for c := range m.clients {
		if !Interested(c.GetViewer(), e) {
			continue
		}
		select {
		case c.GetSendChannel() <- e:
		default:
			m.logger.Warn("Dropping slow client", zap.String("user_id", c.GetViewer().UserID))
			m.drop(c)
		}
	}
	for _, s := range m.sinks {
		go m.deliver(ctx, s, e)
	}
}

func (m *ManagerService) deliver(ctx context.Context, s Sink, e models.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Event sink panicked", zap.Any("panic", r), zap.String("event", string(e.Type)))
		}
	}()
	s.Handle(ctx, e)
}

func (m *ManagerService) drop(c Client) {
	delete(m.clients, c)
	c.Close()
	m.gauge()
}

func (m *ManagerService) gauge() {
	if m.metrics != nil {
		m.metrics.WebsocketClients.Set(float64(len(m.clients)))
	}
}
