package signup_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "signup.register", signup.RegisterMessage{}.Type())
	assert.Equal(t, "signup.google_login", signup.GoogleLoginMessage{}.Type())
}

func TestRegisterMessageValidate(t *testing.T) {
	err := signup.RegisterMessage{Name: "Ada", Password: "CorrectHorseBattery99!"}.Validate()
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.NotEmpty(t, rich.ValidationErrors)
	assert.Equal(t, signup.TextCodeFormInvalid, rich.TextCode)

	assert.NoError(t, signup.RegisterMessage{Name: "Ada", Email: "a@b.c", Password: "CorrectHorseBattery99!"}.Validate())
}

func TestRegisterMessageValidateMatchesControllerOrder(t *testing.T) {
	msg := signup.RegisterMessage{Password: "abc"}

	assert.ErrorIs(t, msg.Validate(), signup.ErrPasswordPolicy)

	store := signup.NewStore()
	store.SetPassword(msg.Password)
	_, err := signup.NewSubmissionController(store, &MockRegistrar{}).Submit(context.Background())
	assert.ErrorIs(t, err, signup.ErrPasswordPolicy)
}

func TestGoogleLoginMessageValidate(t *testing.T) {
	assert.Error(t, signup.GoogleLoginMessage{Code: "  "}.Validate())
	assert.NoError(t, signup.GoogleLoginMessage{Code: "abc"}.Validate())
}

func TestRegisterHandlerSubmitsMessage(t *testing.T) {
	client := &MockRegistrar{}
	client.On("Register", mock.Anything, signup.RegisterRequest{
		Name:       "Ada",
		Email:      "ada@example.com",
		Password:   "CorrectHorseBattery99!",
		RememberMe: true,
	}).Return(&signup.Session{Token: "tok"}, nil).Once()

	ctrl := signup.NewSubmissionController(signup.NewStore(), client)
	handler := signup.NewRegisterHandler(ctrl)

	var got *signup.Session
	err := handler.Execute(context.Background(), signup.RegisterMessage{
		Name:       "Ada",
		Email:      "ada@example.com",
		Password:   "CorrectHorseBattery99!",
		RememberMe: true,
		OnSession:  func(s *signup.Session) { got = s },
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, signup.MessageRegistrationSuccess, ctrl.Store().Snapshot().FeedbackMessage)
	client.AssertExpectations(t)
}

func TestRegisterHandlerPolicyFailure(t *testing.T) {
	client := &MockRegistrar{}
	ctrl := signup.NewSubmissionController(signup.NewStore(), client)
	handler := signup.NewRegisterHandler(ctrl)

	err := handler.Execute(context.Background(), signup.RegisterMessage{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "password",
	})
	assert.ErrorIs(t, err, signup.ErrPasswordPolicy)
	client.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterHandlerValidatesBeforeSubmitting(t *testing.T) {
	client := &MockRegistrar{}
	sink := &recordingSink{}
	ctrl := signup.NewSubmissionController(signup.NewStore(), client, signup.WithControllerActivitySink(sink))

	err := signup.NewRegisterHandler(ctrl).Execute(context.Background(), signup.RegisterMessage{
		Email:    "ada@example.com",
		Password: "CorrectHorseBattery99!",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, signup.TextCodeFormInvalid, rich.TextCode)

	assert.Equal(t, signup.MessageRequiredFields, ctrl.Store().Snapshot().FeedbackMessage)
	assert.Equal(t, signup.StateIdle, ctrl.State())
	assert.Contains(t, sink.Types(), signup.ActivityEventValidationFailure)
	client.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestGoogleLoginHandlerValidatesCode(t *testing.T) {
	client := &MockRegistrar{}
	ctrl := signup.NewSubmissionController(signup.NewStore(), client)

	err := signup.NewGoogleLoginHandler(ctrl).Execute(context.Background(), signup.GoogleLoginMessage{Code: "   "})
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))
	client.AssertNotCalled(t, "GoogleLogin", mock.Anything, mock.Anything)
}

func TestHandlersHonourCancelledContext(t *testing.T) {
	client := &MockRegistrar{}
	ctrl := signup.NewSubmissionController(signup.NewStore(), client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := signup.NewRegisterHandler(ctrl).Execute(ctx, signup.RegisterMessage{})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryOperation))

	err = signup.NewGoogleLoginHandler(ctrl).Execute(ctx, signup.GoogleLoginMessage{Code: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	client.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "GoogleLogin", mock.Anything, mock.Anything)
}

func TestGoogleLoginHandler(t *testing.T) {
	client := &MockRegistrar{}
	client.On("GoogleLogin", mock.Anything, "code-1").Return(&signup.Session{Token: "g"}, nil).Once()

	ctrl := signup.NewSubmissionController(signup.NewStore(), client)

	var got *signup.Session
	err := signup.NewGoogleLoginHandler(ctrl).Execute(context.Background(), signup.GoogleLoginMessage{
		Code:      "code-1",
		OnSession: func(s *signup.Session) { got = s },
	})
	require.NoError(t, err)
	assert.Equal(t, "g", got.Token)
	assert.Equal(t, signup.MessageGoogleLoginSuccess, ctrl.Store().Snapshot().FeedbackMessage)
}

func TestHandlersRequireController(t *testing.T) {
	err := signup.NewRegisterHandler(nil).Execute(context.Background(), signup.RegisterMessage{})
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))

	err = signup.NewGoogleLoginHandler(nil).Execute(context.Background(), signup.GoogleLoginMessage{})
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))
}
