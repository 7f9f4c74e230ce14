package signup_test

import (
	"context"
	"sync"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/mock"
)

// MockRegistrar implements signup.Registrar
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, req signup.RegisterRequest) (*signup.Session, error) {
	args := m.Called(ctx, req)
	if s := args.Get(0); s != nil {
		return s.(*signup.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRegistrar) GoogleLogin(ctx context.Context, code string) (*signup.Session, error) {
	args := m.Called(ctx, code)
	if s := args.Get(0); s != nil {
		return s.(*signup.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockTokenStore implements signup.TokenStore
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Get(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockTokenStore) Save(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type recordingSink struct {
	mu     sync.Mutex
	events []signup.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event signup.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Types() []signup.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]signup.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

func (r *recordingSink) States() []signup.SubmissionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []signup.SubmissionState
	for _, e := range r.events {
		if e.EventType == signup.ActivityEventStateChanged {
			out = append(out, e.ToState)
		}
	}
	return out
}
