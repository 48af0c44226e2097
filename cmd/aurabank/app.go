package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aura-bank/aurabank/internal/account"
	"github.com/aura-bank/aurabank/internal/api"
	"github.com/aura-bank/aurabank/internal/authorize"
	"github.com/aura-bank/aurabank/internal/capture"
	"github.com/aura-bank/aurabank/internal/config"
	"github.com/aura-bank/aurabank/internal/guard"
	"github.com/aura-bank/aurabank/internal/identity"
	"github.com/aura-bank/aurabank/internal/session"
)

var errQuit = errors.New("quit")

// app is the interactive client shell. All real orchestration lives in the
// internal packages; this layer only reads input and prints results.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	client   *api.Client
	sessions session.Store
	guard    guard.Guard
	identity *identity.Service
	accounts *account.Service
	in       *bufio.Reader
	out      io.Writer
}

func newApp(cfg config.Config, logger *slog.Logger, client *api.Client, sessions session.Store, in io.Reader, out io.Writer) *app {
	g := guard.New(sessions)
	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		sessions: sessions,
		guard:    g,
		identity: identity.NewService(client, sessions, logger),
		accounts: account.NewService(client, g, logger),
		in:       bufio.NewReader(in),
		out:      out,
	}
}

func (a *app) run(ctx context.Context) error {
	fmt.Fprintf(a.out, "Welcome to %s\n", a.cfg.AppName)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var err error
		if a.guard.Authorized(ctx) {
			err = a.dashboard(ctx)
		} else {
			err = a.home(ctx)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *app) home(ctx context.Context) error {
	fmt.Fprintln(a.out, "\n[1] Login  [2] Login with Face  [3] Register  [q] Quit")
	choice, err := a.prompt("> ")
	if err != nil {
		return err
	}
	switch choice {
	case "1":
		a.login(ctx)
	case "2":
		a.faceLogin(ctx)
	case "3":
		a.register(ctx)
	case "q":
		return errQuit
	}
	return nil
}

func (a *app) login(ctx context.Context) {
	username, err := a.prompt("Username: ")
	if err != nil {
		return
	}
	password, err := a.prompt("Password: ")
	if err != nil {
		return
	}

	fmt.Fprintln(a.out, "Logging in...")
	res, err := a.identity.Login(ctx, username, password)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, res.Message)
}

func (a *app) faceLogin(ctx context.Context) {
	username, err := a.prompt("Username: ")
	if err != nil {
		return
	}

	res, err := a.identity.LoginFace(ctx, username, a.newEngine(a.cfg.ScanInterval))
	if err != nil {
		if errors.Is(err, identity.ErrUsernameRequired) {
			fmt.Fprintln(a.out, identity.MsgUsernameRequired)
			return
		}
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, res.Message)
}

func (a *app) register(ctx context.Context) {
	var in identity.RegistrationInput
	fields := []struct {
		label string
		dst   *string
	}{
		{"Full Name: ", &in.Name},
		{"Username: ", &in.Username},
		{"Email Address: ", &in.Email},
		{"Phone Number: ", &in.PhoneNumber},
		{"Account Number: ", &in.AccountNumber},
		{"Password: ", &in.Password},
		{"Confirm Password: ", &in.ConfirmPassword},
	}
	for _, f := range fields {
		v, err := a.prompt(f.label)
		if err != nil {
			return
		}
		*f.dst = v
	}

	fmt.Fprintln(a.out, "Registering...")
	res, err := a.identity.Register(ctx, in)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, res.Message)

	// Face setup is a required next step after registration.
	a.enrollFace(ctx)
}

func (a *app) dashboard(ctx context.Context) error {
	overview, err := a.accounts.Overview(ctx)
	if errors.Is(err, guard.ErrNotAuthenticated) {
		return nil // back to the login menu
	}
	if err != nil {
		a.report(err)
	} else {
		a.render(overview)
	}

	fmt.Fprintln(a.out, "\n[t] Send Money  [e] Enroll Face  [r] Refresh  [l] Logout  [q] Quit")
	choice, err := a.prompt("> ")
	if err != nil {
		return err
	}
	switch choice {
	case "t":
		a.transfer(ctx)
	case "e":
		a.enrollFace(ctx)
	case "r":
	case "l":
		if err := a.identity.Logout(ctx); err != nil {
			a.report(err)
		}
	case "q":
		return errQuit
	}
	return nil
}

func (a *app) render(o account.Overview) {
	fmt.Fprintf(a.out, "\nWelcome back, %s!\n", o.User.Name)
	fmt.Fprintf(a.out, "Username:  %s\n", o.User.Username)
	fmt.Fprintf(a.out, "Account #: %s\n", o.User.AccountNumber)
	fmt.Fprintf(a.out, "Balance:   %.2f\n", o.User.Balance)

	fmt.Fprintln(a.out, "\nTransaction History")
	if len(o.Transactions) == 0 {
		fmt.Fprintln(a.out, "No transactions yet.")
		return
	}
	for _, tx := range o.Transactions {
		sign := "+"
		if tx.Type == "sent" {
			sign = "-"
		}
		fmt.Fprintf(a.out, "%s  %-20s %s %.2f\n", tx.Timestamp.Local().Format(time.DateTime), tx.OtherPartyName, sign, tx.Amount)
	}
}

func (a *app) transfer(ctx context.Context) {
	recipient, err := a.prompt("Recipient's Account Number: ")
	if err != nil {
		return
	}
	rawAmount, err := a.prompt("Amount: ")
	if err != nil {
		return
	}
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		fmt.Fprintln(a.out, "Amount must be a number.")
		return
	}

	transfer, err := a.accounts.PrepareTransfer(recipient, amount)
	if err != nil {
		a.report(err)
		return
	}
	sessionID, err := a.guard.Require(ctx)
	if err != nil {
		a.report(err)
		return
	}

	orch := authorize.New(a.client, a.newEngine(a.cfg.ScanInterval), &cliPrompter{app: a}, a.logger)
	outcome, err := orch.Authorize(ctx, sessionID, transfer)
	if errors.Is(err, authorize.ErrCancelled) {
		fmt.Fprintln(a.out, "Transfer cancelled.")
		return
	}
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintf(a.out, "%s New balance: %.2f\n", outcome.Message, outcome.NewBalance)
}

func (a *app) enrollFace(ctx context.Context) {
	enrollment, err := a.identity.CaptureForEnrollment(ctx, a.newEngine(a.cfg.EnrollScanInterval))
	if err != nil {
		a.report(err)
		return
	}

	fmt.Fprintln(a.out, "Face captured! Enroll it now?")
	choice, err := a.prompt("[y/N] ")
	if err != nil || !strings.EqualFold(choice, "y") {
		fmt.Fprintln(a.out, "Enrollment discarded.")
		return
	}

	msg, err := a.identity.Enroll(ctx, enrollment)
	if err != nil {
		a.report(err)
		return
	}
	fmt.Fprintln(a.out, msg)
}

func (a *app) newEngine(interval time.Duration) *capture.Engine {
	return capture.NewEngine(
		capture.StaticCamera{},
		capture.FileDetector{Path: a.cfg.DescriptorFile},
		capture.WithInterval(interval),
		capture.WithLogger(a.logger),
		capture.WithStatusFunc(func(msg string) { fmt.Fprintln(a.out, msg) }),
	)
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// report prints a failure message. Business failures show the server's
// wording verbatim; anything else degrades to a generic message with the
// detail kept in the log.
func (a *app) report(err error) {
	var bizErr *api.BusinessError
	if errors.As(err, &bizErr) {
		fmt.Fprintln(a.out, bizErr.Message)
		return
	}
	a.logger.Warn("request failed", "error", err)
	fmt.Fprintln(a.out, "An unexpected error occurred. Please try again.")
}

// cliPrompter adapts the console to the authorization flow.
type cliPrompter struct {
	app *app
}

func (p *cliPrompter) Method(_ context.Context) (authorize.Method, error) {
	for {
		fmt.Fprintln(p.app.out, "[1] Authorize with Password  [2] Authorize with Face  [c] Cancel")
		choice, err := p.app.prompt("> ")
		if err != nil {
			return 0, authorize.ErrCancelled
		}
		switch choice {
		case "1":
			return authorize.MethodPassword, nil
		case "2":
			return authorize.MethodFace, nil
		case "c":
			return 0, authorize.ErrCancelled
		}
	}
}

func (p *cliPrompter) Password(_ context.Context) (string, error) {
	password, err := p.app.prompt("Enter your password: ")
	if err != nil {
		return "", authorize.ErrCancelled
	}
	return password, nil
}

func (p *cliPrompter) Notify(message string) {
	fmt.Fprintln(p.app.out, message)
}
