package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/activitymap"
	"github.com/goliatone/go-signup/config"
	"github.com/goliatone/go-signup/repository"
	"github.com/goliatone/go-signup/social"
	"github.com/goliatone/go-signup/social/providers/google"
)

const usage = `usage: signup [-config path] <command> [flags]

commands:
  register   create an account with name, email and password
  google     sign in with a Google account
  strength   rate a password
  token      show or clear the stored session token
  config     print the resolved configuration
`

type App struct {
	config *config.Config
	logger *glog.BaseLogger
	repo   *repository.Manager
	client *signup.RegistrationClient
	ctrl   *signup.SubmissionController
	out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("signup", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	configPath := global.String("config", "config.yaml", "path to the yaml configuration file")
	if err := global.Parse(args); err != nil {
		return err
	}

	if global.NArg() == 0 {
		global.Usage()
		return errors.New("a command is required", errors.CategoryBadInput)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	cmd, rest := global.Arg(0), global.Args()[1:]

	// these do not need the backend or the token store
	switch cmd {
	case "strength":
		return strengthCommand(rest, out)
	case "config":
		fmt.Fprintln(out, print.MaybeSecureJSON(cfg))
		return nil
	}

	app, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case "register":
		return app.register(ctx, rest)
	case "google":
		return app.google(ctx, rest)
	case "token":
		return app.token(ctx, rest)
	}

	global.Usage()
	return errors.New("unknown command", errors.CategoryBadInput).
		WithMetadata(map[string]any{"command": cmd})
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*App, error) {
	lgr := glog.NewLogger(
		glog.WithLoggerType(cfg.Log.Format),
		glog.WithLevel(cfg.Log.Level),
		glog.WithName("signup"),
		glog.WithAddSource(false),
		glog.WithWriter(os.Stderr),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	repo, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	repo.MustValidate()

	lgr.GetLogger("storage").Debug("token store ready", "driver", repo.Driver())

	client := signup.NewRegistrationClient(cfg,
		signup.WithTokenStore(repo.Tokens()),
		signup.WithClientLogger(lgr.GetLogger("client")),
		signup.WithCredentials(cfg.GetWithCredentials()),
	)

	activity := lgr.GetLogger("activity")
	ctrl := signup.NewSubmissionController(signup.NewStore(), client,
		signup.WithControllerLogger(lgr.GetLogger("controller")),
		signup.WithControllerActivitySink(activitymap.Sink(func(record activitymap.Normalized) error {
			activity.Debug(record.Verb,
				"actor", record.ActorID,
				"object", record.ObjectID,
				"metadata", record.Metadata,
			)
			return nil
		})),
	)

	return &App{
		config: cfg,
		logger: lgr,
		repo:   repo,
		client: client,
		ctrl:   ctrl,
		out:    out,
	}, nil
}

func (a *App) Close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("failed to close token store", "error", err)
	}
}

// showFeedback prints every feedback message the form publishes
func (a *App) showFeedback() func() {
	last := ""
	return a.ctrl.Store().Subscribe(func(state signup.FormState) {
		if state.FeedbackMessage != "" && state.FeedbackMessage != last {
			fmt.Fprintln(a.out, state.FeedbackMessage)
		}
		last = state.FeedbackMessage
	})
}

func (a *App) printSession(session *signup.Session) {
	fmt.Fprintln(a.out, print.MaybePrettyJSON(session))
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", os.Getenv("SIGNUP_PASSWORD"), "password, defaults to $SIGNUP_PASSWORD")
	remember := fs.Bool("remember", false, "remember this device")
	if err := fs.Parse(args); err != nil {
		return err
	}

	defer a.showFeedback()()

	handler := signup.NewRegisterHandler(a.ctrl)
	return handler.Execute(ctx, signup.RegisterMessage{
		Name:       *name,
		Email:      *email,
		Password:   *password,
		RememberMe: *remember,
		OnSession:  a.printSession,
	})
}

func (a *App) google(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("google", flag.ContinueOnError)
	code := fs.String("code", "", "authorization code obtained elsewhere, skips the consent flow")
	prompt := fs.String("prompt", "select_account", "google prompt parameter")
	hint := fs.String("login-hint", "", "email to preselect on the consent screen")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *code == "" {
		obtained, err := a.consent(ctx, *prompt, *hint)
		if err != nil {
			return err
		}
		*code = obtained
	}

	defer a.showFeedback()()

	handler := signup.NewGoogleLoginHandler(a.ctrl)
	return handler.Execute(ctx, signup.GoogleLoginMessage{
		Code:      *code,
		OnSession: a.printSession,
	})
}

func (a *App) consent(ctx context.Context, prompt, hint string) (string, error) {
	states, err := social.NewEphemeralStateManager(social.DefaultStateTTL)
	if err != nil {
		return "", err
	}

	provider := google.New(google.Config{
		ClientID:    a.config.GetGoogleClientID(),
		CallbackURL: a.config.GetGoogleRedirectURL(),
		Scopes:      a.config.GetGoogleScopes(),
	})

	opts := []social.AuthCodeOption{social.WithPrompt(prompt)}
	if hint != "" {
		opts = append(opts, social.WithLoginHint(hint))
	}

	flow := social.NewCodeFlow(provider, states,
		social.WithFlowLogger(a.logger.GetLogger("oauth")),
		social.WithFlowAuthCodeOptions(opts...),
	)

	return flow.Run(ctx, func(authURL string) error {
		_, err := fmt.Fprintf(a.out, "Open this URL to continue with Google:\n\n  %s\n\n", authURL)
		return err
	})
}

func (a *App) token(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	wipe := fs.Bool("clear", false, "delete the stored token")
	raw := fs.Bool("raw", false, "print the token instead of its claims")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tokens := a.client.Tokens()

	if *wipe {
		if err := tokens.Delete(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "token cleared")
		return nil
	}

	token, err := tokens.Get(ctx)
	if signup.IsTokenNotFound(err) {
		fmt.Fprintln(a.out, "no token stored")
		return nil
	}
	if err != nil {
		return err
	}

	if *raw {
		fmt.Fprintln(a.out, token)
		return nil
	}

	a.printSession(signup.SessionFromToken(token))
	return nil
}

func strengthCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("strength", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	password := strings.Join(fs.Args(), " ")
	if password == "" {
		password = os.Getenv("SIGNUP_PASSWORD")
	}

	fmt.Fprintf(out, "strength: %s\n", signup.EvaluateStrength(password))
	if !signup.AcceptablePassword(password) {
		fmt.Fprintln(out, signup.MessagePasswordPolicy)
	}
	return nil
}
