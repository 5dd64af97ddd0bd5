package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/snapgrid/internal/adapter"
	"github.com/mmcdole/snapgrid/internal/adapter/source/unsplash"
	"github.com/mmcdole/snapgrid/internal/domain"
	"github.com/mmcdole/snapgrid/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	catsBody = `{"total":2,"results":[{"id":"a","urls":{"regular":"http://x/a.jpg"}},{"id":"b","urls":{"regular":"http://x/b.jpg"}}]}`
	zzzBody  = `{"total":0,"results":[]}`
	dogsBody = `{"total":9,"results":[{"id":"d1","urls":{"regular":"http://x/d1.jpg"}}]}`
)

var errOffline = &domain.TransportError{Err: errors.New("dial tcp: connection refused")}

// fakeClient records requests and lets the test complete them in any order
type fakeClient struct {
	mu    sync.Mutex
	calls []fakeCall
}

type fakeCall struct {
	term     string
	callback func(data []byte, err error)
}

func (f *fakeClient) Request(searchTerm string, callback func(data []byte, err error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{term: searchTerm, callback: callback})
}

func (f *fakeClient) respond(i int, data string) {
	f.mu.Lock()
	call := f.calls[i]
	f.mu.Unlock()
	call.callback([]byte(data), nil)
}

func (f *fakeClient) fail(i int, err error) {
	f.mu.Lock()
	call := f.calls[i]
	f.mu.Unlock()
	call.callback(nil, err)
}

// queueDispatcher holds work until the test drains it, standing in for a UI loop
type queueDispatcher struct {
	mu      sync.Mutex
	pending []func()
}

func (q *queueDispatcher) Dispatch(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, fn)
}

func (q *queueDispatcher) drain() int {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

func newTestService(client domain.SearchClient, dispatcher domain.Dispatcher) (*SearchService, *int) {
	svc := NewSearchService(client, unsplash.NewDecoder(adapter.NullLogger()), dispatcher, adapter.NullLogger())
	changes := 0
	svc.SetOnPhotosChanged(func() { changes++ })
	return svc, &changes
}

func ids(photos []domain.Photo) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.ID
	}
	return out
}

func TestInitialState(t *testing.T) {
	svc, changes := newTestService(&fakeClient{}, nil)

	photos, ok := svc.Photos()
	assert.False(t, ok)
	assert.Nil(t, photos)
	assert.Equal(t, 1, svc.Count())
	assert.True(t, svc.IsPlaceholder())
	assert.Empty(t, svc.Term())
	assert.Equal(t, 0, *changes)

	_, ok = svc.ItemAt(0)
	assert.False(t, ok)
}

func TestFetchCatsScenario(t *testing.T) {
	client := &fakeClient{}
	svc, changes := newTestService(client, nil)

	svc.FetchImages("cats")
	require.Len(t, client.calls, 1)
	assert.Equal(t, "cats", client.calls[0].term)

	client.respond(0, catsBody)

	photos, ok := svc.Photos()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ids(photos))
	assert.Equal(t, 2, svc.Count())
	assert.False(t, svc.IsPlaceholder())
	assert.Equal(t, 2, svc.Total())
	assert.Equal(t, "cats", svc.Term())
	assert.Equal(t, 1, *changes)

	first, ok := svc.ItemAt(0)
	require.True(t, ok)
	u, _ := first.PreviewURL()
	assert.Equal(t, "http://x/a.jpg", u)

	_, ok = svc.ItemAt(2)
	assert.False(t, ok)
	_, ok = svc.ItemAt(-1)
	assert.False(t, ok)
}

func TestFetchEmptyScenario(t *testing.T) {
	client := &fakeClient{}
	svc, changes := newTestService(client, nil)

	svc.FetchImages("zzz")
	client.respond(0, zzzBody)

	photos, ok := svc.Photos()
	require.True(t, ok)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
	assert.Equal(t, 1, svc.Count())
	assert.True(t, svc.IsPlaceholder())
	assert.Equal(t, 1, *changes)
}

func TestTransportFailureBeforeAnySuccess(t *testing.T) {
	client := &fakeClient{}
	svc, changes := newTestService(client, nil)

	svc.FetchImages("cats")
	client.fail(0, errOffline)

	_, ok := svc.Photos()
	assert.False(t, ok)
	assert.Equal(t, 1, svc.Count())
	assert.Equal(t, 0, *changes)
}

func TestFailureKeepsPreviousPhotos(t *testing.T) {
	tests := []struct {
		name   string
		finish func(c *fakeClient, i int)
	}{
		{name: "transport error", finish: func(c *fakeClient, i int) { c.fail(i, errOffline) }},
		{name: "malformed body", finish: func(c *fakeClient, i int) { c.respond(i, `{"total":`) }},
		{name: "missing results", finish: func(c *fakeClient, i int) { c.respond(i, `{"total":4}`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			svc, changes := newTestService(client, nil)

			svc.FetchImages("cats")
			client.respond(0, catsBody)
			require.Equal(t, 1, *changes)

			svc.FetchImages("dogs")
			tt.finish(client, 1)

			photos, ok := svc.Photos()
			require.True(t, ok)
			assert.Equal(t, []string{"a", "b"}, ids(photos))
			assert.Equal(t, 2, svc.Total())
			assert.Equal(t, "cats", svc.Term(), "term follows the applied page")
			assert.Equal(t, 1, *changes)
		})
	}
}

func TestSuccessReplacesWholesale(t *testing.T) {
	client := &fakeClient{}
	svc, changes := newTestService(client, nil)

	svc.FetchImages("cats")
	client.respond(0, catsBody)
	svc.FetchImages("dogs")
	client.respond(1, dogsBody)

	photos, _ := svc.Photos()
	assert.Equal(t, []string{"d1"}, ids(photos))
	assert.Equal(t, 9, svc.Total())
	assert.Equal(t, 2, *changes)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	client := &fakeClient{}
	svc, changes := newTestService(client, nil)
	m := metrics.New()
	svc.SetMetrics(m)

	svc.FetchImages("cats")
	svc.FetchImages("dogs")

	// Later request finishes first, earlier one straggles in afterwards
	client.respond(1, dogsBody)
	client.respond(0, catsBody)

	photos, _ := svc.Photos()
	assert.Equal(t, []string{"d1"}, ids(photos))
	assert.Equal(t, "dogs", svc.Term())
	assert.Equal(t, 1, *changes)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResponses))
}

func TestStaleSuccessAfterLatestFailure(t *testing.T) {
	client := &fakeClient{}
	svc, changes := newTestService(client, nil)

	svc.FetchImages("cats")
	svc.FetchImages("dogs")

	client.fail(1, errOffline)
	client.respond(0, catsBody)

	_, ok := svc.Photos()
	assert.False(t, ok)
	assert.Equal(t, 0, *changes)
}

func TestMutationWaitsForDispatcher(t *testing.T) {
	client := &fakeClient{}
	ui := &queueDispatcher{}
	svc, changes := newTestService(client, ui)

	svc.FetchImages("cats")
	client.respond(0, catsBody)

	// Nothing is visible until the UI loop runs the completion
	_, ok := svc.Photos()
	assert.False(t, ok)
	assert.Equal(t, 0, *changes)

	assert.Equal(t, 1, ui.drain())

	photos, ok := svc.Photos()
	require.True(t, ok)
	assert.Len(t, photos, 2)
	assert.Equal(t, 1, *changes)
}

func TestFailureStillDispatchesNothingVisible(t *testing.T) {
	client := &fakeClient{}
	ui := &queueDispatcher{}
	svc, changes := newTestService(client, ui)

	svc.FetchImages("cats")
	client.fail(0, errOffline)
	ui.drain()

	_, ok := svc.Photos()
	assert.False(t, ok)
	assert.Equal(t, 0, *changes)
}

func TestSetOnPhotosChangedReplacesSlot(t *testing.T) {
	client := &fakeClient{}
	svc := NewSearchService(client, unsplash.NewDecoder(adapter.NullLogger()), nil, adapter.NullLogger())

	var first, second int
	svc.SetOnPhotosChanged(func() { first++ })
	svc.SetOnPhotosChanged(func() { second++ })

	svc.FetchImages("cats")
	client.respond(0, catsBody)

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	svc.SetOnPhotosChanged(nil)
	svc.FetchImages("dogs")
	assert.NotPanics(t, func() { client.respond(1, dogsBody) })
}

func TestFetchImagesEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("query") {
		case "cats":
			w.Write([]byte(catsBody))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := unsplash.NewClient(srv.URL, "key", adapter.NullLogger())

	// A channel stands in for the UI goroutine
	uiQueue := make(chan func(), 4)
	dispatcher := domain.DispatcherFunc(func(fn func()) { uiQueue <- fn })

	svc := NewSearchService(client, unsplash.NewDecoder(adapter.NullLogger()), dispatcher, adapter.NullLogger())
	changed := make(chan struct{}, 1)
	svc.SetOnPhotosChanged(func() { changed <- struct{}{} })

	runUI := func() {
		select {
		case fn := <-uiQueue:
			fn()
		case <-time.After(5 * time.Second):
			t.Fatal("completion never dispatched")
		}
	}

	svc.FetchImages("cats")
	runUI()
	select {
	case <-changed:
	default:
		t.Fatal("change callback did not fire")
	}
	assert.Equal(t, 2, svc.Count())

	svc.FetchImages("broken")
	runUI()
	select {
	case <-changed:
		t.Fatal("change callback fired on failure")
	default:
	}
	assert.Equal(t, 2, svc.Count())
}
