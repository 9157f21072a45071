package queues

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturn-sh/saturn/pkg/types"
)

func TestHTTPQueuePollReturnsMessageOnOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}))
	defer srv.Close()

	item := types.QueueItem{
		Name:     "q1",
		Input:    types.InputSpec{Name: "http", Options: map[string]string{"url": srv.URL}},
		Pipeline: types.PipelineSpec{Name: "p1", ResourceTypes: []string{"gpu"}},
	}
	h, err := NewHTTP(item, nil)
	require.NoError(t, err)

	xmsg, err := h.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "m1", xmsg.Message.Message.ID)
	assert.Equal(t, "p1", xmsg.Message.Pipeline)
	assert.Equal(t, []string{"gpu"}, xmsg.Message.MissingResources)
}

func TestHTTPQueuePollRetriesOnNoContent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	}))
	defer srv.Close()

	item := types.QueueItem{
		Name:  "q1",
		Input: types.InputSpec{Name: "http", Options: map[string]string{"url": srv.URL}},
	}
	h, err := NewHTTP(item, nil)
	require.NoError(t, err)
	h.interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = h.Poll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestHTTPQueueRequiresURL(t *testing.T) {
	_, err := NewHTTP(types.QueueItem{Name: "q1", Input: types.InputSpec{Name: "http"}}, nil)
	assert.Error(t, err)
}

func TestRegistryBuildsMemoryAndHTTP(t *testing.T) {
	r := NewRegistry()

	q, err := r.Build(types.QueueItem{Name: "mem1", Input: types.InputSpec{Name: "memory"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mem1", q.Name())

	hq, err := r.Build(types.QueueItem{Name: "http1", Input: types.InputSpec{Name: "http", Options: map[string]string{"url": "http://example.invalid"}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http1", hq.Name())

	_, err = r.Build(types.QueueItem{Name: "bad", Input: types.InputSpec{Name: "does-not-exist"}}, nil)
	assert.Error(t, err)
}
