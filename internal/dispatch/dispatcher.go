package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/wikidb/internal/bus"
	"github.com/roach88/wikidb/internal/store"
)

// PageStore is the set of store operations the dispatcher fronts.
// Implemented by *store.Store.
type PageStore interface {
	ListPageNames(ctx context.Context) ([]string, error)
	GetPage(ctx context.Context, name string) (store.Page, bool, error)
	CreatePage(ctx context.Context, name, content string) error
	SavePage(ctx context.Context, id int64, content string) error
	DeletePage(ctx context.Context, id int64) error
}

// Dispatcher routes messages by action to a PageStore.
//
// Thread-safety: a Dispatcher holds no per-message state and may serve any
// number of messages concurrently.
type Dispatcher struct {
	store  PageStore
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a Dispatcher over s.
func New(s PageStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{store: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register binds the dispatcher to address on b.
func (d *Dispatcher) Register(b *bus.Bus, address string) (*bus.Registration, error) {
	reg, err := b.Consumer(address, d.Serve)
	if err != nil {
		return nil, fmt.Errorf("register dispatcher on %s: %w", address, err)
	}
	d.logger.Debug("queue consumer created", "address", address)
	return reg, nil
}

// Serve handles msg and answers it with a reply or a failure.
func (d *Dispatcher) Serve(msg *bus.Message) {
	d.serve(context.Background(), msg)
}

func (d *Dispatcher) serve(ctx context.Context, msg *bus.Message) {
	d.logger.Debug("message received",
		"message_id", msg.ID,
		"headers", msg.Headers,
		"body", string(msg.Body),
	)

	res := d.Handle(ctx, msg.Headers, msg.Body)

	var err error
	if res.OK() {
		err = msg.Reply(res.Payload)
	} else {
		err = msg.Fail(int(res.Failure.Code), res.Failure.Message)
	}
	if err != nil {
		d.logger.Warn("could not answer message", "message_id", msg.ID, "error", err)
	}
}

// Handle runs the action named in headers against the store.
func (d *Dispatcher) Handle(ctx context.Context, headers bus.Headers, body json.RawMessage) Result {
	if !headers.Contains(HeaderAction) {
		d.logger.Error("no action header specified", "headers", headers, "body", string(body))
		return failed(NoActionSpecified, "No action header specified.")
	}

	name := headers.Get(HeaderAction)
	action, ok := ParseAction(name)
	if !ok {
		d.logger.Error("bad action", "action", name)
		return failed(BadAction, "Bad action "+name)
	}

	var (
		payload any
		err     error
	)
	switch action {
	case AllPages:
		payload, err = d.allPages(ctx)
	case GetPage:
		payload, err = d.getPage(ctx, body)
	case CreatePage:
		payload, err = d.createPage(ctx, body)
	case SavePage:
		payload, err = d.savePage(ctx, body)
	case DeletePage:
		payload, err = d.deletePage(ctx, body)
	default:
		panic(fmt.Sprintf("dispatch: unhandled action %s", action))
	}

	if err != nil {
		d.logger.Error("database error", "action", action.String(), "error", err)
		return failed(DBError, err.Error())
	}
	return succeeded(payload)
}

func (d *Dispatcher) allPages(ctx context.Context) (any, error) {
	names, err := d.store.ListPageNames(ctx)
	if err != nil {
		return nil, err
	}
	return AllPagesReply{Pages: names}, nil
}

func (d *Dispatcher) getPage(ctx context.Context, body json.RawMessage) (any, error) {
	var req GetPageRequest
	if err := decodeBody(GetPage, body, &req); err != nil {
		return nil, err
	}

	page, found, err := d.store.GetPage(ctx, normalizeName(req.Page))
	if err != nil {
		return nil, err
	}
	if !found {
		return GetPageReply{Found: false}, nil
	}
	return GetPageReply{Found: true, ID: &page.ID, RawContent: &page.Content}, nil
}

func (d *Dispatcher) createPage(ctx context.Context, body json.RawMessage) (any, error) {
	var req CreatePageRequest
	if err := decodeBody(CreatePage, body, &req); err != nil {
		return nil, err
	}
	d.logger.Debug("creating page", "title", req.Title)

	if err := d.store.CreatePage(ctx, normalizeName(req.Title), req.Markdown); err != nil {
		return nil, err
	}
	return ReplyOK, nil
}

func (d *Dispatcher) savePage(ctx context.Context, body json.RawMessage) (any, error) {
	var req SavePageRequest
	if err := decodeBody(SavePage, body, &req); err != nil {
		return nil, err
	}
	if err := d.store.SavePage(ctx, int64(req.ID), req.Markdown); err != nil {
		return nil, err
	}
	return ReplyOK, nil
}

func (d *Dispatcher) deletePage(ctx context.Context, body json.RawMessage) (any, error) {
	var req DeletePageRequest
	if err := decodeBody(DeletePage, body, &req); err != nil {
		return nil, err
	}
	if err := d.store.DeletePage(ctx, int64(req.ID)); err != nil {
		return nil, err
	}
	return ReplyOK, nil
}

// decodeBody unmarshals a request body. Malformed parameters are reported as
// store errors, the same as a backend rejecting them.
func decodeBody(action Action, body json.RawMessage, v any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s body: %w", action, err)
	}
	return nil
}

// normalizeName puts page names in NFC so composed and decomposed spellings
// address the same row.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}
