// Package wikiclient sends typed wiki persistence requests over the bus.
package wikiclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/wikidb/internal/bus"
	"github.com/roach88/wikidb/internal/dispatch"
)

// Client talks to a dispatcher at one bus address.
type Client struct {
	bus     *bus.Bus
	address string
	timeout time.Duration
}

// New returns a client for the dispatcher at address. A zero timeout uses
// bus.DefaultSendTimeout.
func New(b *bus.Bus, address string, timeout time.Duration) *Client {
	if address == "" {
		address = dispatch.DefaultAddress
	}
	if timeout <= 0 {
		timeout = bus.DefaultSendTimeout
	}
	return &Client{bus: b, address: address, timeout: timeout}
}

// Page is a page as seen by callers of the client.
type Page struct {
	Found   bool
	ID      int64
	Content string
}

// Request sends an arbitrary action with body and returns the raw reply.
// Failures are returned as *bus.ReplyError.
func (c *Client) Request(ctx context.Context, action string, body any) (*bus.Message, error) {
	return c.bus.Request(ctx, c.address, body,
		bus.WithHeader(dispatch.HeaderAction, action),
		bus.WithTimeout(c.timeout),
	)
}

func (c *Client) call(ctx context.Context, action dispatch.Action, body, out any) error {
	reply, err := c.Request(ctx, action.String(), body)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if out == nil {
		return nil
	}
	if err := reply.Decode(out); err != nil {
		return fmt.Errorf("%s: decode reply: %w", action, err)
	}
	return nil
}

// AllPages lists page names in ascending order.
func (c *Client) AllPages(ctx context.Context) ([]string, error) {
	var out dispatch.AllPagesReply
	if err := c.call(ctx, dispatch.AllPages, struct{}{}, &out); err != nil {
		return nil, err
	}
	return out.Pages, nil
}

// GetPage fetches a page by name. A missing page is not an error.
func (c *Client) GetPage(ctx context.Context, name string) (Page, error) {
	var out dispatch.GetPageReply
	if err := c.call(ctx, dispatch.GetPage, dispatch.GetPageRequest{Page: name}, &out); err != nil {
		return Page{}, err
	}
	page := Page{Found: out.Found}
	if out.ID != nil {
		page.ID = *out.ID
	}
	if out.RawContent != nil {
		page.Content = *out.RawContent
	}
	return page, nil
}

// CreatePage stores a new page.
func (c *Client) CreatePage(ctx context.Context, name, markdown string) error {
	return c.call(ctx, dispatch.CreatePage, dispatch.CreatePageRequest{Title: name, Markdown: markdown}, nil)
}

// SavePage replaces a page's content by id.
func (c *Client) SavePage(ctx context.Context, id int64, markdown string) error {
	return c.call(ctx, dispatch.SavePage, dispatch.SavePageRequest{ID: dispatch.PageID(id), Markdown: markdown}, nil)
}

// DeletePage removes a page by id.
func (c *Client) DeletePage(ctx context.Context, id int64) error {
	return c.call(ctx, dispatch.DeletePage, dispatch.DeletePageRequest{ID: dispatch.PageID(id)}, nil)
}

// ParseID parses an id as sent by HTML forms.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid page id %q", s)
	}
	return id, nil
}
