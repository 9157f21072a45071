package topics

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

func TestChannelPublishNoWaitDeclinesWhenFull(t *testing.T) {
	c := NewChannel(1)
	ok, err := c.Publish(context.Background(), types.Message{ID: "a"}, false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Publish(context.Background(), types.Message{ID: "b"}, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChannelPublishWaitBlocksUntilRoom(t *testing.T) {
	c := NewChannel(1)
	_, _ = c.Publish(context.Background(), types.Message{ID: "a"}, false)

	done := make(chan struct{})
	go func() {
		ok, err := c.Publish(context.Background(), types.Message{ID: "b"}, true)
		assert.NoError(t, err)
		assert.True(t, ok)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("publish(wait=true) returned before room was made")
	case <-time.After(20 * time.Millisecond):
	}

	<-c.Messages()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish(wait=true) never unblocked")
	}
}

func TestHTTPPublishNoWaitDeclinesOnNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL)
	ok, err := h.Publish(context.Background(), types.Message{ID: "a"}, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPPublishWaitRetriesUntilAccepted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL)
	h.client.Timeout = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := h.Publish(ctx, types.Message{ID: "a"}, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestRegistryBuildsChannelAndHTTP(t *testing.T) {
	r := NewRegistry()

	tp, err := r.Build("channel", map[string]string{"name": "out1"})
	require.NoError(t, err)
	_, ok := tp.(*Channel)
	assert.True(t, ok)

	same, err := r.Build("channel", map[string]string{"name": "out1"})
	require.NoError(t, err)
	assert.Same(t, tp, same)

	_, err = r.Build("http", nil)
	assert.Error(t, err)

	tp, err = r.Build("http", map[string]string{"url": "http://example.invalid"})
	require.NoError(t, err)
	_, ok = tp.(*HTTP)
	assert.True(t, ok)
}
