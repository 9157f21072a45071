package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturn-sh/saturn/pkg/hooks"
	"github.com/saturn-sh/saturn/pkg/queue"
	"github.com/saturn-sh/saturn/pkg/types"
)

func TestNextServesEachQueueExactlyOnce(t *testing.T) {
	s := New(nil)
	defer s.Close(context.Background())

	q1 := queue.NewMemQueue("q1", nil, 1)
	q2 := queue.NewMemQueue("q2", nil, 1)
	q3 := queue.NewMemQueue("q3", nil, 1)
	q1.Push(types.PipelineMessage{Pipeline: "q1"})
	q2.Push(types.PipelineMessage{Pipeline: "q2"})
	q3.Push(types.PipelineMessage{Pipeline: "q3"})
	s.Add(q1)
	s.Add(q2)
	s.Add(q3)

	seen := map[string]int{}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		msg, err := s.Next(ctx)
		require.NoError(t, err)
		seen[msg.Message.Pipeline]++
	}

	assert.Equal(t, map[string]int{"q1": 1, "q2": 1, "q3": 1}, seen)
}

func TestFairnessOverManyTicksCountsStayWithinOne(t *testing.T) {
	s := New(nil)
	defer s.Close(context.Background())

	const queues = 3
	const ticks = 30
	mqs := make([]*queue.MemQueue, queues)
	for i := range mqs {
		mqs[i] = queue.NewMemQueue(string(rune('a'+i)), nil, ticks)
		for j := 0; j < ticks; j++ {
			mqs[i].Push(types.PipelineMessage{Pipeline: mqs[i].Name()})
		}
		s.Add(mqs[i])
	}

	counts := map[string]int{}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := 0; i < queues*ticks; i++ {
		msg, err := s.Next(ctx)
		require.NoError(t, err)
		counts[msg.Message.Pipeline]++
	}

	for name, c := range counts {
		assert.InDeltaf(t, ticks, c, 1, "queue %s emitted %d of %d ticks", name, c, ticks)
	}
}

func TestParkedQueueIsNeverPolledUntilUnparked(t *testing.T) {
	s := New(nil)
	defer s.Close(context.Background())

	parked := queue.NewMemQueue("parked", nil, 1)
	open := queue.NewMemQueue("open", nil, 4)
	parked.Push(types.PipelineMessage{Pipeline: "parked"})
	for i := 0; i < 3; i++ {
		open.Push(types.PipelineMessage{Pipeline: "open"})
	}
	parked.Park()
	s.Add(parked)
	s.Add(open)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		msg, err := s.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "open", msg.Message.Pipeline)
	}

	parked.Unpark()
	open.Push(types.PipelineMessage{Pipeline: "open"})
	msg, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{"parked", "open"}, msg.Message.Pipeline)

	// Drain whichever queue wasn't served first, confirming parked is
	// now eligible within one revolution of Unpark.
	msg2, err := s.Next(ctx)
	require.NoError(t, err)
	served := map[string]bool{msg.Message.Pipeline: true, msg2.Message.Pipeline: true}
	assert.True(t, served["parked"])
}

func TestSyncReplaceSameNameOnlyServesReplacement(t *testing.T) {
	s := New(nil)
	defer s.Close(context.Background())

	original := queue.NewMemQueue("q1", nil, 4)
	original.Push(types.PipelineMessage{Pipeline: "original"})
	s.Add(original)

	msg, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "original", msg.Message.Pipeline)

	s.Remove(original)
	replacement := queue.NewMemQueue("q1", nil, 4)
	replacement.Push(types.PipelineMessage{Pipeline: "replacement"})
	s.Add(replacement)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg2, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "replacement", msg2.Message.Pipeline)

	require.Eventually(t, original.Closed, time.Second, 10*time.Millisecond,
		"original queue should be closed after replacement")
}

func TestPollFiresPolledHook(t *testing.T) {
	h := hooks.New()
	var mu sync.Mutex
	var fired int
	h.Register(hooks.SitePolled, func(ctx context.Context, ev hooks.Event) error {
		mu.Lock()
		defer mu.Unlock()
		fired++
		return nil
	})

	s := New(h)
	defer s.Close(context.Background())

	q := queue.NewMemQueue("q1", nil, 1)
	q.Push(types.PipelineMessage{Pipeline: "q1"})
	s.Add(q)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.Next(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCloseDuringBlockedNextReturnsPromptly(t *testing.T) {
	s := New(nil)
	empty := queue.NewMemQueue("empty", nil, 1)
	s.Add(empty)

	done := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		done <- err
	}()

	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.Close(context.Background())
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, queue.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}

	select {
	case err := <-closeDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return within bounded time")
	}
}
