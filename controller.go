package signup

import (
	"context"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// SubmissionState is the controller's position in the submit workflow
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateValidating SubmissionState = "validating"
	StateSubmitting SubmissionState = "submitting"
	StateSuccess    SubmissionState = "success"
	StateFailed     SubmissionState = "failed"
)

// MessageRequiredFields is shown when a required input is blank
const MessageRequiredFields = "Please fill in all required fields."

// ControllerOption customizes a SubmissionController
type ControllerOption func(*SubmissionController)

// WithControllerClock overrides the clock used for activity timestamps.
func WithControllerClock(clock func() time.Time) ControllerOption {
	return func(c *SubmissionController) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithControllerActivitySink wires an activity sink for workflow events.
func WithControllerActivitySink(sink ActivitySink) ControllerOption {
	return func(c *SubmissionController) {
		c.activitySink = normalizeActivitySink(sink)
	}
}

func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *SubmissionController) {
		c.logger = ensureLogger(logger)
	}
}

// SubmissionController drives a Store through validation, submission and
// feedback. At most one request is in flight at any time.
type SubmissionController struct {
	store       *Store
	client      Registrar
	transitions map[SubmissionState]map[SubmissionState]struct{}

	mu              sync.Mutex
	state           SubmissionState
	inFlight        bool
	strength        Strength
	validationShown bool

	activitySink ActivitySink
	logger       Logger
	now          func() time.Time
}

// NewSubmissionController wires store and client together
func NewSubmissionController(store *Store, client Registrar, opts ...ControllerOption) *SubmissionController {
	if store == nil {
		store = NewStore()
	}

	c := &SubmissionController{
		store:  store,
		client: client,
		transitions: map[SubmissionState]map[SubmissionState]struct{}{
			StateIdle: {
				StateValidating: {},
				StateSubmitting: {},
			},
			StateValidating: {
				StateIdle:       {},
				StateSubmitting: {},
			},
			StateSubmitting: {
				StateSuccess: {},
				StateFailed:  {},
			},
			StateSuccess: {
				StateIdle: {},
			},
			StateFailed: {
				StateIdle: {},
			},
		},
		state:        StateIdle,
		strength:     EvaluateStrength(store.Snapshot().Password),
		activitySink: noopActivitySink{},
		logger:       ensureLogger(nil),
		now:          time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Store returns the form state the controller drives
func (c *SubmissionController) Store() *Store {
	return c.store
}

// State returns the current workflow state
func (c *SubmissionController) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Strength returns the strength of the password last seen by ChangePassword
func (c *SubmissionController) Strength() Strength {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.strength
}

// ChangePassword updates the password, refreshes the strength indicator,
// and clears a validation error if one is shown.
func (c *SubmissionController) ChangePassword(password string) Strength {
	c.store.SetPassword(password)

	c.mu.Lock()
	c.strength = EvaluateStrength(password)
	shown := c.validationShown
	c.validationShown = false
	strength := c.strength
	c.mu.Unlock()

	if shown {
		c.store.ClearFeedbackMessage()
	}

	return strength
}

// Submit validates the form and registers the account.
// The outcome is always reflected in the store feedback message, except
// for ErrSubmissionInFlight which leaves the store untouched.
func (c *SubmissionController) Submit(ctx context.Context) (*Session, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	c.moveTo(ctx, StateValidating, nil)

	form := c.store.Snapshot()
	c.refreshStrength(form.Password)

	if err := validateForm(form); err != nil {
		return nil, c.rejectForm(ctx, form, err)
	}

	c.moveTo(ctx, StateSubmitting, nil)

	if c.client == nil {
		return c.fail(ctx, ActivityEventRegisterFailure, form.Email, MessageRegistrationFailed,
			errClientMissing(MessageRegistrationFailed))
	}

	session, err := c.client.Register(ctx, RegisterRequest{
		Name:       form.Name,
		Email:      form.Email,
		Password:   form.Password,
		RememberMe: form.RememberMe,
	})
	if err != nil {
		return c.fail(ctx, ActivityEventRegisterFailure, form.Email, MessageRegistrationFailed, err)
	}
	if session == nil {
		session = &Session{}
	}

	c.moveTo(ctx, StateSuccess, nil)
	c.showFeedback(MessageRegistrationSuccess)
	c.store.ResetForm()
	c.refreshStrength("")
	c.record(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		Email:     form.Email,
		Metadata:  map[string]any{"subject": session.Subject},
	})
	c.moveTo(ctx, StateIdle, nil)

	return session, nil
}

// GoogleLogin exchanges an authorization code for a session. It skips form
// validation and never resets the form.
func (c *SubmissionController) GoogleLogin(ctx context.Context, code string) (*Session, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	c.moveTo(ctx, StateSubmitting, map[string]any{"operation": "google_login"})

	if c.client == nil {
		return c.fail(ctx, ActivityEventGoogleLoginFailure, "", MessageGoogleLoginFailed,
			errClientMissing(MessageGoogleLoginFailed))
	}

	session, err := c.client.GoogleLogin(ctx, code)
	if err != nil {
		return c.fail(ctx, ActivityEventGoogleLoginFailure, "", MessageGoogleLoginFailed, err)
	}
	if session == nil {
		session = &Session{}
	}

	c.moveTo(ctx, StateSuccess, nil)
	c.showFeedback(MessageGoogleLoginSuccess)
	c.record(ctx, ActivityEvent{
		EventType: ActivityEventGoogleLoginSuccess,
		Email:     session.Email,
		Metadata:  map[string]any{"subject": session.Subject},
	})
	c.moveTo(ctx, StateIdle, nil)

	return session, nil
}

func (c *SubmissionController) fail(ctx context.Context, event ActivityEventType, email, fallback string, err error) (*Session, error) {
	msg := FeedbackMessage(err, fallback)

	c.moveTo(ctx, StateFailed, nil)
	c.showFeedback(msg)
	c.record(ctx, ActivityEvent{
		EventType: event,
		Email:     email,
		Metadata:  map[string]any{"message": msg},
	})
	c.logger.Warn("signup request failed", "event", event, "feedback", msg, "error", err)
	c.moveTo(ctx, StateIdle, nil)

	return nil, err
}

// validate runs the password policy first, then the required field checks.
// validateForm applies the password policy first, then the required fields.
// Submit and RegisterMessage.Validate share it.
func validateForm(form FormState) error {
	if !AcceptablePassword(form.Password) {
		return ErrPasswordPolicy
	}

	err := validation.ValidateStruct(&form,
		validation.Field(&form.Name, validation.Required),
		validation.Field(&form.Email, validation.Required),
		validation.Field(&form.Password, validation.Required),
	)
	if err != nil {
		rich := goerrors.FromOzzoValidation(err, MessageRequiredFields)
		rich.TextCode = TextCodeFormInvalid
		rich.Code = goerrors.CodeBadRequest
		return rich
	}

	return nil
}

// ReportInvalid shows a validation failure found before Submit ran, with the
// same feedback, activity and transitions Submit would produce.
func (c *SubmissionController) ReportInvalid(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if aerr := c.acquire(); aerr != nil {
		return aerr
	}
	defer c.release()

	c.moveTo(ctx, StateValidating, nil)

	form := c.store.Snapshot()
	c.refreshStrength(form.Password)

	return c.rejectForm(ctx, form, err)
}

// rejectForm expects the controller to be in StateValidating
func (c *SubmissionController) rejectForm(ctx context.Context, form FormState, err error) error {
	c.showValidationError(err)
	c.record(ctx, ActivityEvent{
		EventType: ActivityEventValidationFailure,
		Email:     form.Email,
		Metadata:  map[string]any{"reason": FeedbackMessage(err, MessageRequiredFields)},
	})
	c.moveTo(ctx, StateIdle, nil)
	return err
}

func errClientMissing(message string) error {
	return goerrors.New(message, goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal).
		WithMetadata(map[string]any{"reason": "registration client is not configured"})
}

func (c *SubmissionController) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		c.logger.Warn("signup request rejected, another request is in flight", "state", c.state)
		return ErrSubmissionInFlight
	}

	c.inFlight = true
	return nil
}

func (c *SubmissionController) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
}

func (c *SubmissionController) refreshStrength(password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strength = EvaluateStrength(password)
}

func (c *SubmissionController) showValidationError(err error) {
	c.mu.Lock()
	c.validationShown = true
	c.mu.Unlock()

	c.store.SetFeedbackMessage(FeedbackMessage(err, MessagePasswordPolicy))
}

func (c *SubmissionController) showFeedback(msg string) {
	c.mu.Lock()
	c.validationShown = false
	c.mu.Unlock()

	c.store.SetFeedbackMessage(msg)
}

func (c *SubmissionController) moveTo(ctx context.Context, target SubmissionState, metadata map[string]any) {
	c.mu.Lock()
	from := c.state
	allowed := c.canTransition(from, target)
	c.state = target
	c.mu.Unlock()

	if !allowed {
		c.logger.Error("unexpected submission transition", "from", from, "to", target)
	} else {
		c.logger.Debug("submission transition", "from", from, "to", target)
	}

	c.record(ctx, ActivityEvent{
		EventType: ActivityEventStateChanged,
		FromState: from,
		ToState:   target,
		Metadata:  metadata,
	})
}

func (c *SubmissionController) canTransition(from, to SubmissionState) bool {
	targets, ok := c.transitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

func (c *SubmissionController) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now()
	}

	sink := normalizeActivitySink(c.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		c.logger.Warn("submission activity sink error", "error", err)
	}
}
