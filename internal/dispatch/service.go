package dispatch

import (
	"context"
	"fmt"

	"github.com/roach88/wikidb/internal/bus"
)

// DefaultAddress is the bus address the dispatcher listens on unless configured.
const DefaultAddress = "wikidb.queue"

// SchemaStore is a PageStore that can also prepare its schema.
type SchemaStore interface {
	PageStore
	EnsureSchema(ctx context.Context) error
}

// Service is a started dispatcher bound to the bus.
type Service struct {
	dispatcher *Dispatcher
	reg        *bus.Registration
	cancel     context.CancelFunc
}

// Start ensures the schema, then registers a dispatcher on b at address.
// Any failure aborts startup and nothing is registered.
//
// ctx bounds schema creation and is the parent of every store operation the
// service runs; Stop cancels it.
func Start(ctx context.Context, b *bus.Bus, s SchemaStore, address string, opts ...Option) (*Service, error) {
	if address == "" {
		address = DefaultAddress
	}

	d := New(s, opts...)

	if err := s.EnsureSchema(ctx); err != nil {
		d.logger.Error("create table statement failed", "error", err)
		return nil, fmt.Errorf("start dispatcher: %w", err)
	}
	d.logger.Debug("pages table created")

	svcCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	reg, err := b.Consumer(address, func(msg *bus.Message) {
		d.serve(svcCtx, msg)
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start dispatcher: register on %s: %w", address, err)
	}
	d.logger.Info("dispatcher listening", "address", address)

	return &Service{dispatcher: d, reg: reg, cancel: cancel}, nil
}

// Address returns the bus address the service is bound to.
func (s *Service) Address() string {
	return s.reg.Address()
}

// Dispatcher returns the underlying dispatcher.
func (s *Service) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Stop unregisters the dispatcher. Messages already delivered still get
// answered; store calls still running see a canceled context and fail.
func (s *Service) Stop() {
	s.reg.Unregister()
	s.cancel()
}
