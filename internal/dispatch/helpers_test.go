package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wikidb/internal/bus"
	"github.com/roach88/wikidb/internal/store"
	"github.com/roach88/wikidb/internal/testutil"
)

const testAddress = "wikidb.test"

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	return testutil.OpenStore(t, 4)
}

// setupService starts a dispatcher over a fresh store and returns its bus.
func setupService(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.New()
	t.Cleanup(b.Close)

	svc, err := Start(context.Background(), b, setupTestStore(t), testAddress)
	require.NoError(t, err)
	t.Cleanup(svc.Stop)
	return b
}

// send issues one request with the given action header ("" sends no header).
func send(t *testing.T, b *bus.Bus, action string, body any) (*bus.Message, error) {
	t.Helper()
	var opts []bus.DeliveryOption
	if action != "" {
		opts = append(opts, bus.WithHeader(HeaderAction, action))
	}
	return b.Request(context.Background(), testAddress, body, opts...)
}

func mustSend(t *testing.T, b *bus.Bus, action string, body any) *bus.Message {
	t.Helper()
	reply, err := send(t, b, action, body)
	require.NoError(t, err, "action %s", action)
	return reply
}

func getPage(t *testing.T, b *bus.Bus, name string) GetPageReply {
	t.Helper()
	var out GetPageReply
	require.NoError(t, mustSend(t, b, "get-page", map[string]string{"page": name}).Decode(&out))
	return out
}

func requireFailure(t *testing.T, err error) *bus.ReplyError {
	t.Helper()
	var re *bus.ReplyError
	require.True(t, errors.As(err, &re), "expected *bus.ReplyError, got %v", err)
	return re
}

// fakeStore records calls and returns a fixed error from every operation.
type fakeStore struct {
	mu        sync.Mutex
	calls     []string
	err       error
	schemaErr error
}

func (f *fakeStore) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "EnsureSchema")
	return f.schemaErr
}

func (f *fakeStore) ListPageNames(ctx context.Context) ([]string, error) {
	return nil, f.record("ListPageNames")
}

func (f *fakeStore) GetPage(ctx context.Context, name string) (store.Page, bool, error) {
	return store.Page{}, false, f.record("GetPage:" + name)
}

func (f *fakeStore) CreatePage(ctx context.Context, name, content string) error {
	return f.record("CreatePage:" + name)
}

func (f *fakeStore) SavePage(ctx context.Context, id int64, content string) error {
	return f.record("SavePage")
}

func (f *fakeStore) DeletePage(ctx context.Context, id int64) error {
	return f.record("DeletePage")
}
