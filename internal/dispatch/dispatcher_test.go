package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wikidb/internal/bus"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestDispatch_NoActionHeader(t *testing.T) {
	b := setupService(t)

	_, err := send(t, b, "", map[string]string{"page": "Home"})
	re := requireFailure(t, err)
	assert.Equal(t, int(NoActionSpecified), re.Code)
	assert.Equal(t, 0, re.Code)
	assert.Equal(t, "No action header specified.", re.Message)
}

func TestDispatch_BadAction(t *testing.T) {
	b := setupService(t)

	_, err := send(t, b, "frobnicate", nil)
	re := requireFailure(t, err)
	assert.Equal(t, 1, re.Code)
	assert.Contains(t, re.Message, "frobnicate")
}

func TestDispatch_GetMissingPage(t *testing.T) {
	b := setupService(t)

	reply := mustSend(t, b, "get-page", map[string]string{"page": "Never Created"})
	newGolden(t).Assert(t, "get_page_not_found", reply.Body)
}

func TestDispatch_EndToEnd(t *testing.T) {
	b := setupService(t)

	var ok string
	require.NoError(t, mustSend(t, b, "create-page", map[string]string{"title": "Home", "markdown": "# Hi"}).Decode(&ok))
	assert.Equal(t, ReplyOK, ok)

	reply := mustSend(t, b, "get-page", map[string]string{"page": "Home"})
	newGolden(t).Assert(t, "get_page_found", reply.Body)

	var page GetPageReply
	require.NoError(t, reply.Decode(&page))
	require.True(t, page.Found)
	require.NotNil(t, page.ID)
	id := fmt.Sprint(*page.ID)

	mustSend(t, b, "save-page", map[string]string{"id": id, "markdown": "# Hi there"})
	page = getPage(t, b, "Home")
	require.True(t, page.Found)
	assert.Equal(t, "# Hi there", *page.RawContent)

	mustSend(t, b, "delete-page", map[string]string{"id": id})
	page = getPage(t, b, "Home")
	assert.False(t, page.Found)
	assert.Nil(t, page.ID)
	assert.Nil(t, page.RawContent)
}

func TestDispatch_CreateThenGet(t *testing.T) {
	b := setupService(t)

	cases := []struct {
		title    string
		markdown string
	}{
		{"Plain", "just text"},
		{"Empty", ""},
		{"Unicode ☃", "snow *man*\n\n- one\n- two"},
		{"Quotes \"and\" slashes/", "<b>raw</b> & \\ escapes"},
	}
	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			mustSend(t, b, "create-page", map[string]string{"title": tc.title, "markdown": tc.markdown})
			page := getPage(t, b, tc.title)
			require.True(t, page.Found)
			assert.Equal(t, tc.markdown, *page.RawContent)
		})
	}
}

func TestDispatch_AllPagesSorted(t *testing.T) {
	b := setupService(t)

	for _, name := range []string{"Zebra", "Apple", "Mango"} {
		mustSend(t, b, "create-page", map[string]string{"title": name, "markdown": ""})
	}

	reply := mustSend(t, b, "all-pages", struct{}{})
	newGolden(t).Assert(t, "all_pages_sorted", reply.Body)
}

func TestDispatch_AllPagesEmpty(t *testing.T) {
	b := setupService(t)

	var out AllPagesReply
	require.NoError(t, mustSend(t, b, "all-pages", nil).Decode(&out))
	assert.NotNil(t, out.Pages)
	assert.Empty(t, out.Pages)
}

func TestDispatch_CreateDuplicate(t *testing.T) {
	b := setupService(t)

	mustSend(t, b, "create-page", map[string]string{"title": "Home", "markdown": "a"})
	_, err := send(t, b, "create-page", map[string]string{"title": "Home", "markdown": "b"})
	re := requireFailure(t, err)
	assert.Equal(t, int(DBError), re.Code)
	assert.Contains(t, re.Message, "UNIQUE constraint failed")
}

func TestDispatch_CreateWithoutTitle(t *testing.T) {
	b := setupService(t)

	_, err := send(t, b, "create-page", map[string]string{"markdown": "orphan"})
	re := requireFailure(t, err)
	assert.Equal(t, 2, re.Code)
}

func TestDispatch_SaveAndDeleteUnknownID(t *testing.T) {
	b := setupService(t)

	var ok string
	require.NoError(t, mustSend(t, b, "save-page", map[string]string{"id": "999", "markdown": "x"}).Decode(&ok))
	assert.Equal(t, ReplyOK, ok)
	require.NoError(t, mustSend(t, b, "delete-page", map[string]string{"id": "999"}).Decode(&ok))
	assert.Equal(t, ReplyOK, ok)
}

func TestDispatch_NumericID(t *testing.T) {
	b := setupService(t)

	mustSend(t, b, "create-page", map[string]string{"title": "Home", "markdown": "a"})
	page := getPage(t, b, "Home")

	mustSend(t, b, "save-page", map[string]any{"id": *page.ID, "markdown": "b"})
	assert.Equal(t, "b", *getPage(t, b, "Home").RawContent)
}

func TestDispatch_MalformedID(t *testing.T) {
	b := setupService(t)

	_, err := send(t, b, "delete-page", map[string]string{"id": "abc"})
	re := requireFailure(t, err)
	assert.Equal(t, int(DBError), re.Code)
	assert.Contains(t, re.Message, "invalid page id")
}

func TestDispatch_NormalizesNames(t *testing.T) {
	b := setupService(t)

	mustSend(t, b, "create-page", map[string]string{"title": "Cafe\u0301", "markdown": "coffee"})
	page := getPage(t, b, "Caf\u00e9")
	require.True(t, page.Found)
	assert.Equal(t, "coffee", *page.RawContent)
}

func TestDispatch_Concurrent(t *testing.T) {
	b := setupService(t)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := send(t, b, "create-page", map[string]string{"title": fmt.Sprintf("p%02d", i), "markdown": "x"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var out AllPagesReply
	require.NoError(t, mustSend(t, b, "all-pages", nil).Decode(&out))
	assert.Len(t, out.Pages, n)
	assert.IsIncreasing(t, out.Pages)
}

func TestHandle_ProtocolErrorsSkipStore(t *testing.T) {
	fs := &fakeStore{}
	d := New(fs)

	res := d.Handle(context.Background(), bus.Headers{}, nil)
	require.False(t, res.OK())
	assert.Equal(t, NoActionSpecified, res.Failure.Code)

	res = d.Handle(context.Background(), bus.Headers{HeaderAction: "frobnicate"}, nil)
	require.False(t, res.OK())
	assert.Equal(t, BadAction, res.Failure.Code)
	assert.Equal(t, "Bad action frobnicate", res.Failure.Message)

	res = d.Handle(context.Background(), bus.Headers{HeaderAction: ""}, nil)
	require.False(t, res.OK())
	assert.Equal(t, BadAction, res.Failure.Code)

	assert.Empty(t, fs.Calls())
}

func TestHandle_StoreErrorBecomesDBError(t *testing.T) {
	fs := &fakeStore{err: errors.New("connection reset by peer")}
	d := New(fs)

	for _, action := range Actions() {
		t.Run(action.String(), func(t *testing.T) {
			body := json.RawMessage(`{"page":"p","title":"t","markdown":"m","id":"1"}`)
			res := d.Handle(context.Background(), bus.Headers{HeaderAction: action.String()}, body)
			require.False(t, res.OK())
			assert.Equal(t, DBError, res.Failure.Code)
			assert.Equal(t, "connection reset by peer", res.Failure.Message)
		})
	}
	assert.Len(t, fs.Calls(), len(Actions()), "each action calls the store exactly once, with no retry")
}

func TestHandle_MalformedBody(t *testing.T) {
	fs := &fakeStore{}
	d := New(fs)

	res := d.Handle(context.Background(), bus.Headers{HeaderAction: "get-page"}, json.RawMessage(`[1,2`))
	require.False(t, res.OK())
	assert.Equal(t, DBError, res.Failure.Code)
	assert.Empty(t, fs.Calls())
}

func TestHandle_EmptyBody(t *testing.T) {
	fs := &fakeStore{}
	d := New(fs)

	res := d.Handle(context.Background(), bus.Headers{HeaderAction: "get-page"}, nil)
	require.True(t, res.OK())
	assert.Equal(t, GetPageReply{Found: false}, res.Payload)
	assert.Equal(t, []string{"GetPage:"}, fs.Calls())
}
