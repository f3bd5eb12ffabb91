package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/arborhaus/arborhaus-backend/pkg/enums"
	"github.com/arborhaus/arborhaus-backend/pkg/logger"
	"github.com/arborhaus/arborhaus-backend/pkg/metrics"
)

// Notification is one message handed to the dispatch collaborator.
type Notification struct {
	Recipient string                     `json:"recipient"`
	Subject   string                     `json:"subject"`
	Template  enums.NotificationTemplate `json:"template"`
	Payload   map[string]any             `json:"payload"`
}

// Dispatcher delivers a notification to the outside world.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Sender wraps a Dispatcher with the best-effort contract: failures and
// panics are caught, logged, and counted, never returned to the caller.
// It must only be invoked after the primary transaction has committed.
type Sender struct {
	dispatcher Dispatcher
	logg       *logger.Logger
	engine     *metrics.EngineMetrics
	inflight   sync.WaitGroup
}

// NewSender builds a best-effort sender.
func NewSender(dispatcher Dispatcher, logg *logger.Logger, engine *metrics.EngineMetrics) (*Sender, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Sender{dispatcher: dispatcher, logg: logg, engine: engine}, nil
}

// Send hands every notification to a background goroutine and returns
// immediately. Delivery outlives the request context so that a client
// disconnect after commit cannot drop the confirmation.
func (s *Sender) Send(ctx context.Context, notifications ...Notification) {
	if len(notifications) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.sendAll(detached, notifications)
	}()
}

// Flush blocks until every dispatch handed to Send has finished.
func (s *Sender) Flush() {
	s.inflight.Wait()
}

func (s *Sender) sendAll(ctx context.Context, notifications []Notification) {
	var combined error
	for _, n := range notifications {
		if err := s.dispatchOne(ctx, n); err != nil {
			s.engine.IncNotifyFailure(n.Template.String())
			combined = multierr.Append(combined, fmt.Errorf("%s to %s: %w", n.Template, n.Recipient, err))
			continue
		}
		s.engine.IncNotifySuccess(n.Template.String())
	}
	if combined != nil {
		s.logg.Error(ctx, "notification dispatch incomplete", combined)
	}
}

func (s *Sender) dispatchOne(ctx context.Context, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatcher panic: %v", r)
		}
	}()
	return s.dispatcher.Dispatch(ctx, n)
}

// LogDispatcher writes notifications to the structured log. It backs local
// development and any deployment without a Pub/Sub project configured.
type LogDispatcher struct {
	logg *logger.Logger
}

// NewLogDispatcher builds the logging fallback dispatcher.
func NewLogDispatcher(logg *logger.Logger) (*LogDispatcher, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &LogDispatcher{logg: logg}, nil
}

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(ctx context.Context, n Notification) error {
	ctx = d.logg.WithFields(ctx, map[string]any{
		"recipient": n.Recipient,
		"subject":   n.Subject,
		"template":  n.Template.String(),
	})
	d.logg.Info(ctx, "notification dispatched (log sink)")
	return nil
}
