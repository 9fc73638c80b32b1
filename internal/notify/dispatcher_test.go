package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// flakyChannel fails the first failuresPerRecipient attempts for each
// recipient, then succeeds.
type flakyChannel struct {
	mu                   sync.Mutex
	failuresPerRecipient int
	attempts             map[string]int
	delivered            map[string]int
}

func newFlakyChannel(failures int) *flakyChannel {
	return &flakyChannel{
		failuresPerRecipient: failures,
		attempts:             make(map[string]int),
		delivered:            make(map[string]int),
	}
}

func (c *flakyChannel) Send(_ context.Context, recipientEmail, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts[recipientEmail]++
	if c.attempts[recipientEmail] <= c.failuresPerRecipient {
		return errors.New("transient delivery failure")
	}
	c.delivered[recipientEmail]++
	return nil
}

func (c *flakyChannel) deliveredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.delivered {
		total += n
	}
	return total
}

func testDraft(email string) Draft {
	return Draft{
		ID:             uuid.New(),
		RecipientEmail: email,
		Subject:        "subject",
		Body:           "body",
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestRetryConvergesToExactlyOneDelivery(t *testing.T) {
	channel := newFlakyChannel(2)
	dispatcher := NewDispatcher(channel, DispatcherConfig{
		Workers:      2,
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	})
	dispatcher.Start()
	defer dispatcher.Stop()

	const n = 5
	for i := 0; i < n; i++ {
		dispatcher.Enqueue(testDraft(fmt.Sprintf("user-%d@example.com", i)))
	}

	if !waitFor(t, 5*time.Second, func() bool { return channel.deliveredCount() == n }) {
		t.Fatalf("delivered %d messages, want %d", channel.deliveredCount(), n)
	}

	channel.mu.Lock()
	defer channel.mu.Unlock()
	for email, count := range channel.delivered {
		if count != 1 {
			t.Errorf("%s delivered %d times, want 1", email, count)
		}
		if channel.attempts[email] != 3 {
			t.Errorf("%s took %d attempts, want 3", email, channel.attempts[email])
		}
	}
}

func TestExhaustedRetriesDropWithoutBlockingLaterDrafts(t *testing.T) {
	channel := newFlakyChannel(100)
	dispatcher := NewDispatcher(channel, DispatcherConfig{
		Workers:      1,
		MaxAttempts:  2,
		RetryBackoff: time.Millisecond,
	})
	dispatcher.Start()
	defer dispatcher.Stop()

	dispatcher.Enqueue(testDraft("doomed@example.com"))

	if !waitFor(t, 5*time.Second, func() bool {
		channel.mu.Lock()
		defer channel.mu.Unlock()
		return channel.attempts["doomed@example.com"] == 2
	}) {
		t.Fatal("draft was not attempted the bounded number of times")
	}

	if channel.deliveredCount() != 0 {
		t.Errorf("delivered %d messages, want 0", channel.deliveredCount())
	}

	// A later draft with a healthy recipient still gets through.
	channel.mu.Lock()
	channel.failuresPerRecipient = 0
	channel.mu.Unlock()

	dispatcher.Enqueue(testDraft("healthy@example.com"))

	if !waitFor(t, 5*time.Second, func() bool { return channel.deliveredCount() == 1 }) {
		t.Error("draft enqueued after an exhausted one was never delivered")
	}
}

// blockingChannel holds every Send until released.
type blockingChannel struct {
	release chan struct{}
}

func (c *blockingChannel) Send(ctx context.Context, _, _, _ string) error {
	select {
	case <-c.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestEnqueueNeverBlocksCaller(t *testing.T) {
	channel := &blockingChannel{release: make(chan struct{})}
	dispatcher := NewDispatcher(channel, DispatcherConfig{
		Workers:        1,
		QueueSize:      1,
		MaxAttempts:    1,
		AttemptTimeout: 50 * time.Millisecond,
	})
	dispatcher.Start()
	defer dispatcher.Stop()
	defer close(channel.release)

	// Far more drafts than the queue holds; the caller must return promptly
	// even while the single worker is stuck.
	start := time.Now()
	for i := 0; i < 50; i++ {
		dispatcher.Enqueue(testDraft(fmt.Sprintf("user-%d@example.com", i)))
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("50 enqueues took %v, expected near-immediate return", elapsed)
	}
}

func TestStopWaitsForWorkers(t *testing.T) {
	channel := newFlakyChannel(0)
	dispatcher := NewDispatcher(channel, DispatcherConfig{Workers: 2})
	dispatcher.Start()

	dispatcher.Enqueue(testDraft("someone@example.com"))
	waitFor(t, time.Second, func() bool { return channel.deliveredCount() == 1 })

	done := make(chan struct{})
	go func() {
		dispatcher.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	// Enqueue after Stop must not panic or block.
	dispatcher.Enqueue(testDraft("late@example.com"))
}
