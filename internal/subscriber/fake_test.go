package subscriber

import (
	"context"
	"sync"

	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/directory"
	"github.com/ovaphlow/pitchfork/service-subscribe-go/internal/subscriber/entity"
)

// fakeDirectory keeps members by key and records every call in order.
type fakeDirectory struct {
	mu      sync.Mutex
	members map[string]entity.Subscriber
	calls   []string
	written []entity.Subscriber

	existsErr error
	createErr error
	updateErr error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{members: map[string]entity.Subscriber{}}
}

func (f *fakeDirectory) Name() string { return "fake" }

func (f *fakeDirectory) Exists(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "exists:"+directory.MemberKey(email))
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.members[directory.MemberKey(email)]
	return ok, nil
}

func (f *fakeDirectory) Create(_ context.Context, s entity.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	f.written = append(f.written, s)
	if f.createErr != nil {
		return f.createErr
	}
	f.members[directory.MemberKey(s.Email)] = s
	return nil
}

func (f *fakeDirectory) Update(_ context.Context, s entity.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update")
	f.written = append(f.written, s)
	if f.updateErr != nil {
		return f.updateErr
	}
	f.members[directory.MemberKey(s.Email)] = s
	return nil
}

type fakeWelcomer struct {
	sent []string
	err  error
}

func (f *fakeWelcomer) SendWelcome(_ context.Context, s entity.Subscriber) error {
	f.sent = append(f.sent, s.Email)
	return f.err
}

type fakeRecorder struct {
	events []entity.Event
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, ev entity.Event) error {
	f.events = append(f.events, ev)
	return f.err
}
