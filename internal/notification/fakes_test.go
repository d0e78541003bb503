package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"expense-approvals/internal/models"
	"expense-approvals/internal/notification/channel"
)

type fakeRealtime struct {
	mu      sync.Mutex
	online  map[string]bool
	failFor map[string]bool
	sent    map[string][]channel.Message
}

func newFakeRealtime(online ...string) *fakeRealtime {
	f := &fakeRealtime{online: map[string]bool{}, failFor: map[string]bool{}, sent: map[string][]channel.Message{}}
	for _, id := range online {
		f.online[id] = true
	}
	return f
}

func (f *fakeRealtime) SendToUser(_ context.Context, userID string, msg channel.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return false, errors.New("redis down")
	}
	if !f.online[userID] {
		return false, nil
	}
	f.sent[userID] = append(f.sent[userID], msg)
	return true, nil
}

type fakePush struct {
	mu      sync.Mutex
	fail    map[string]error
	block   map[string]bool
	sent    []string
	lastMsg channel.Message

	// barrier holds every Send until that many sends are in flight.
	barrier  int
	arrivals int
	released chan struct{}
}

func newFakePush() *fakePush {
	return &fakePush{fail: map[string]error{}, block: map[string]bool{}}
}

func (f *fakePush) awaitPeers(ctx context.Context) error {
	f.mu.Lock()
	if f.released == nil {
		f.released = make(chan struct{})
	}
	f.arrivals++
	if f.arrivals == f.barrier {
		close(f.released)
	}
	released := f.released
	f.mu.Unlock()

	select {
	case <-released:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakePush) Send(ctx context.Context, device models.DeviceEndpoint, msg channel.Message) error {
	if f.barrier > 0 {
		if err := f.awaitPeers(ctx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	err := f.fail[device.Token]
	block := f.block[device.Token]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.sent = append(f.sent, device.Token)
	f.lastMsg = msg
	f.mu.Unlock()
	return nil
}

func (f *fakePush) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type sentEmail struct {
	to, subject, body string
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to, subject, body})
	return nil
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
