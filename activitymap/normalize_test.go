package activitymap_test

import (
	"context"
	"errors"
	"testing"
	"time"

	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := signup.ActivityEvent{
		EventType: signup.ActivityEventRegisterSuccess,
		FromState: signup.StateSubmitting,
		ToState:   signup.StateSuccess,
		Email:     " Ada@Example.com ",
		Metadata: map[string]any{
			"subject": "user-100",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "ada@example.com" {
		t.Fatalf("expected actor_id ada@example.com, got %q", out.ActorID)
	}
	if out.Verb != string(signup.ActivityEventRegisterSuccess) {
		t.Fatalf("expected verb %q, got %q", signup.ActivityEventRegisterSuccess, out.Verb)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-100" {
		t.Fatalf("expected object_id user-100, got %q", out.ObjectID)
	}
	if out.Channel != "signup" {
		t.Fatalf("expected channel signup, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata[activitymap.MetadataKeyFromState] != "submitting" {
		t.Fatalf("expected metadata from_state submitting, got %#v", out.Metadata[activitymap.MetadataKeyFromState])
	}
	if out.Metadata[activitymap.MetadataKeyToState] != "success" {
		t.Fatalf("expected metadata to_state success, got %#v", out.Metadata[activitymap.MetadataKeyToState])
	}

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := signup.ActivityEvent{
		EventType: signup.ActivityEventValidationFailure,
		Metadata: map[string]any{
			"reason": "Please fill in all required fields.",
		},
	}

	out := activitymap.Normalize(
		event,
		activitymap.WithDefaultChannel("audit"),
		activitymap.WithDefaultObjectType("form"),
		activitymap.WithObjectIDResolver(func(e signup.ActivityEvent) string {
			return "signup-form"
		}),
	)

	if out.Channel != "audit" {
		t.Fatalf("expected channel audit, got %q", out.Channel)
	}
	if out.ObjectType != "form" {
		t.Fatalf("expected object_type form, got %q", out.ObjectType)
	}
	if out.ObjectID != "signup-form" {
		t.Fatalf("expected object_id signup-form, got %q", out.ObjectID)
	}
	if _, ok := out.Metadata[activitymap.MetadataKeyToState]; ok {
		t.Fatalf("expected no to_state without a transition, got %+v", out.Metadata)
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActorFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  signup.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses email when present",
			event:  signup.ActivityEvent{Email: "a@b.co"},
			expect: "a@b.co",
		},
		{
			name:   "uses default fallback when email missing",
			event:  signup.ActivityEvent{Email: "   "},
			expect: "anonymous",
		},
		{
			name:   "uses configured fallback when email missing",
			event:  signup.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("google")},
			expect: "google",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}

func TestSink(t *testing.T) {
	t.Parallel()

	var got []activitymap.Normalized
	sink := activitymap.Sink(func(n activitymap.Normalized) error {
		got = append(got, n)
		return nil
	}, activitymap.WithDefaultChannel("cli"))

	err := sink.Record(context.Background(), signup.ActivityEvent{
		EventType: signup.ActivityEventStateChanged,
		FromState: signup.StateIdle,
		ToState:   signup.StateValidating,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Channel != "cli" || got[0].Verb != string(signup.ActivityEventStateChanged) {
		t.Fatalf("unexpected records %+v", got)
	}

	boom := errors.New("boom")
	failing := activitymap.Sink(func(activitymap.Normalized) error { return boom })
	if err := failing.Record(context.Background(), signup.ActivityEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected emit error, got %v", err)
	}

	if err := activitymap.Sink(nil).Record(context.Background(), signup.ActivityEvent{}); err != nil {
		t.Fatalf("expected nil emit to be a no-op, got %v", err)
	}
}
