package signup

import (
	"context"
	"strings"

	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

type GoogleLoginMessage struct {
	Code      string           `json:"code"`
	OnSession func(s *Session) `json:"-"`
}

func (e GoogleLoginMessage) Type() string { return "signup.google_login" }

func (e GoogleLoginMessage) Validate() error {
	if strings.TrimSpace(e.Code) == "" {
		return goerrors.New("authorization code is required", goerrors.CategoryValidation).
			WithTextCode(TextCodeFormInvalid).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

var _ command.Commander[GoogleLoginMessage] = (*GoogleLoginHandler)(nil)

type GoogleLoginHandler struct {
	controller *SubmissionController
}

func NewGoogleLoginHandler(controller *SubmissionController) *GoogleLoginHandler {
	return &GoogleLoginHandler{controller: controller}
}

func (h *GoogleLoginHandler) Execute(ctx context.Context, event GoogleLoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during google login")
	default:
		return h.execute(ctx, event)
	}
}

func (h *GoogleLoginHandler) execute(ctx context.Context, event GoogleLoginMessage) error {
	if h.controller == nil {
		return goerrors.New("submission controller is required", goerrors.CategoryBadInput)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	session, err := h.controller.GoogleLogin(ctx, event.Code)
	if err != nil {
		return err
	}

	if event.OnSession != nil {
		event.OnSession(session)
	}

	return nil
}
