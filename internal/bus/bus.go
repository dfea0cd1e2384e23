package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultSendTimeout bounds how long Request waits for an outcome.
const DefaultSendTimeout = 30 * time.Second

var (
	// ErrNoHandlers means nothing is registered at the address.
	ErrNoHandlers = errors.New("bus: no handlers for address")

	// ErrTimeout means the request deadline passed before an outcome arrived.
	ErrTimeout = errors.New("bus: timed out waiting for reply")

	// ErrClosed means the bus no longer accepts consumers or messages.
	ErrClosed = errors.New("bus: closed")
)

// Handler consumes messages delivered to an address.
type Handler func(msg *Message)

// Bus routes messages between senders and consumers in one process.
//
// Thread-safety: all methods are safe for concurrent use.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]*Registration
	cursor   map[string]int
	closed   bool
	inflight sync.WaitGroup
	logger   *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for delivery diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[string][]*Registration),
		cursor:   make(map[string]int),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registration is a consumer bound to an address.
type Registration struct {
	bus     *Bus
	address string
	handler Handler
	once    sync.Once
}

// Address returns the address the consumer is bound to.
func (r *Registration) Address() string {
	return r.address
}

// Unregister detaches the consumer. Messages already delivered still run.
func (r *Registration) Unregister() {
	r.once.Do(func() {
		r.bus.remove(r)
	})
}

// Consumer binds h to address.
func (b *Bus) Consumer(address string, h Handler) (*Registration, error) {
	if address == "" {
		return nil, errors.New("bus: consumer address is empty")
	}
	if h == nil {
		return nil, errors.New("bus: consumer handler is nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	reg := &Registration{bus: b, address: address, handler: h}
	b.handlers[address] = append(b.handlers[address], reg)
	return reg, nil
}

func (b *Bus) remove(reg *Registration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[reg.address]
	for i, r := range regs {
		if r == reg {
			regs = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(b.handlers, reg.address)
		delete(b.cursor, reg.address)
		return
	}
	b.handlers[reg.address] = regs
}

// DeliveryOption adjusts a single send.
type DeliveryOption func(*deliveryOptions)

type deliveryOptions struct {
	headers Headers
	timeout time.Duration
}

// WithHeader attaches a header to the message.
func WithHeader(key, value string) DeliveryOption {
	return func(o *deliveryOptions) {
		if o.headers == nil {
			o.headers = Headers{}
		}
		o.headers[key] = value
	}
}

// WithTimeout overrides DefaultSendTimeout for a request.
// Zero or negative disables the bus deadline; the caller's context still applies.
func WithTimeout(d time.Duration) DeliveryOption {
	return func(o *deliveryOptions) {
		o.timeout = d
	}
}

func buildOptions(opts []DeliveryOption) deliveryOptions {
	o := deliveryOptions{timeout: DefaultSendTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Request sends body to one consumer at address and waits for its reply.
//
// The returned error is a *ReplyError when the consumer failed the message,
// or wraps ErrNoHandlers, ErrTimeout, ErrClosed, or the context's error.
func (b *Bus) Request(ctx context.Context, address string, body any, opts ...DeliveryOption) (*Message, error) {
	o := buildOptions(opts)
	msg, err := newMessage(address, body, o.headers)
	if err != nil {
		return nil, err
	}

	replies := make(chan outcome, 1)
	msg.reply = replies

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if err := b.deliverOne(msg); err != nil {
		return nil, err
	}

	select {
	case out := <-replies:
		return out.msg, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: address %s, message %s: %w", ErrTimeout, address, msg.ID, ctx.Err())
		}
		return nil, fmt.Errorf("bus: request to %s abandoned: %w", address, ctx.Err())
	}
}

// Send delivers body to one consumer at address without waiting.
func (b *Bus) Send(address string, body any, opts ...DeliveryOption) error {
	o := buildOptions(opts)
	msg, err := newMessage(address, body, o.headers)
	if err != nil {
		return err
	}
	return b.deliverOne(msg)
}

// Publish delivers body to every consumer at address. No consumers is not an error.
func (b *Bus) Publish(address string, body any, opts ...DeliveryOption) error {
	o := buildOptions(opts)
	msg, err := newMessage(address, body, o.headers)
	if err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	regs := append([]*Registration(nil), b.handlers[address]...)
	b.inflight.Add(len(regs))
	b.mu.Unlock()

	for _, reg := range regs {
		copied := &Message{ID: msg.ID, Address: msg.Address, Headers: msg.Headers, Body: msg.Body}
		go b.run(reg, copied)
	}
	return nil
}

// deliverOne picks the next consumer round-robin and runs it on a new goroutine.
func (b *Bus) deliverOne(msg *Message) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	regs := b.handlers[msg.Address]
	if len(regs) == 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoHandlers, msg.Address)
	}
	i := b.cursor[msg.Address] % len(regs)
	b.cursor[msg.Address] = i + 1
	reg := regs[i]
	b.inflight.Add(1)
	b.mu.Unlock()

	go b.run(reg, msg)
	return nil
}

func (b *Bus) run(reg *Registration, msg *Message) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("consumer panicked",
				"address", msg.Address,
				"message_id", msg.ID,
				"panic", r,
			)
			if msg.ExpectsReply() {
				_ = msg.Fail(CodeRecipientPanic, fmt.Sprintf("consumer panic: %v", r))
			}
		}
	}()

	reg.handler(msg)
}

// Close stops accepting consumers and messages, then waits for in-flight
// deliveries to finish. Safe to call more than once.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.handlers = make(map[string][]*Registration)
	b.mu.Unlock()

	b.inflight.Wait()
}
