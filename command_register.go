package signup

import (
	"context"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

type RegisterMessage struct {
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Password   string           `json:"password"`
	RememberMe bool             `json:"rememberMe"`
	OnSession  func(s *Session) `json:"-"`
}

func (e RegisterMessage) Type() string { return "signup.register" }

// Validate runs the same rules as SubmissionController.Submit
func (e RegisterMessage) Validate() error {
	return validateForm(FormState{
		Name:       e.Name,
		Email:      e.Email,
		Password:   e.Password,
		RememberMe: e.RememberMe,
	})
}

var _ command.Commander[RegisterMessage] = (*RegisterHandler)(nil)

// RegisterHandler loads the message into the form and submits it
type RegisterHandler struct {
	controller *SubmissionController
}

func NewRegisterHandler(controller *SubmissionController) *RegisterHandler {
	return &RegisterHandler{controller: controller}
}

func (h *RegisterHandler) Execute(ctx context.Context, event RegisterMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during signup registration")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterHandler) execute(ctx context.Context, event RegisterMessage) error {
	if h.controller == nil {
		return goerrors.New("submission controller is required", goerrors.CategoryBadInput)
	}

	store := h.controller.Store()
	store.SetName(event.Name)
	store.SetEmail(event.Email)
	store.SetRememberMe(event.RememberMe)
	h.controller.ChangePassword(event.Password)

	if err := event.Validate(); err != nil {
		return h.controller.ReportInvalid(ctx, err)
	}

	session, err := h.controller.Submit(ctx)
	if err != nil {
		return err
	}

	if event.OnSession != nil {
		event.OnSession(session)
	}

	return nil
}
