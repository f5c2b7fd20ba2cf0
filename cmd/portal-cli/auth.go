package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	domainauth "github.com/target/profile-portal/internal/domain/auth"
	apperrors "github.com/target/profile-portal/internal/errors"
	"github.com/target/profile-portal/internal/http/uiutil"
	"github.com/target/profile-portal/internal/http/validation"
	"github.com/target/profile-portal/internal/service"
	"golang.org/x/term"
)

type loginOptions struct {
	Username string
	Password string
}

type registerOptions struct {
	Name     string
	Username string
	Password string
	Confirm  string
}

func parseLoginFlags(args []string, stderr io.Writer) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts loginOptions
	fs.StringVar(&opts.Username, "username", "", "Username (prompted when omitted)")
	fs.StringVar(&opts.Password, "password", "", "Password (prompted when omitted; avoid on shared machines)")

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	return opts, nil
}

func parseRegisterFlags(args []string, stderr io.Writer) (registerOptions, error) {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts registerOptions
	fs.StringVar(&opts.Name, "name", "", "Display name (prompted when omitted)")
	fs.StringVar(&opts.Username, "username", "", "Username (prompted when omitted)")
	fs.StringVar(&opts.Password, "password", "", "Password (prompted when omitted)")
	fs.StringVar(&opts.Confirm, "confirm", "", "Password confirmation (prompted when omitted)")

	if err := fs.Parse(args); err != nil {
		return registerOptions{}, err
	}
	return opts, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.Username == "" {
		if opts.Username, err = cmdCtx.prompt("Username: "); err != nil {
			return err
		}
	}
	if opts.Password == "" {
		if opts.Password, err = cmdCtx.promptSecret("Password: "); err != nil {
			return err
		}
	}

	form := validation.LoginForm{Username: opts.Username, Password: opts.Password}
	if errs := form.Validate(); len(errs) > 0 {
		return fieldErrors(errs)
	}

	res, err := cmdCtx.API.Login(cmdCtx.Ctx, form.Credentials())
	if err != nil {
		return failure(err, service.MsgLoginFailed)
	}
	if err := cmdCtx.remember(res); err != nil {
		return err
	}
	return writef(cmdCtx.out, "%s as %s\n", service.MsgLoggedIn, displayName(res.User))
}

func runRegister(cmdCtx *commandContext, args []string) error {
	opts, err := parseRegisterFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	prompts := []struct {
		dst    *string
		label  string
		secret bool
	}{
		{&opts.Name, "Name: ", false},
		{&opts.Username, "Username: ", false},
		{&opts.Password, "Password: ", true},
		{&opts.Confirm, "Confirm Password: ", true},
	}
	for _, p := range prompts {
		if *p.dst != "" {
			continue
		}
		read := cmdCtx.prompt
		if p.secret {
			read = cmdCtx.promptSecret
		}
		if *p.dst, err = read(p.label); err != nil {
			return err
		}
	}

	form := validation.RegisterForm{
		Name:            opts.Name,
		Username:        opts.Username,
		Password:        opts.Password,
		ConfirmPassword: opts.Confirm,
	}
	if errs := form.Validate(); len(errs) > 0 {
		return fieldErrors(errs)
	}

	res, err := cmdCtx.API.Register(cmdCtx.Ctx, form.Registration())
	if err != nil {
		return failure(err, service.MsgRegistrationFailed)
	}
	if err := cmdCtx.remember(res); err != nil {
		return err
	}
	return writef(cmdCtx.out, "%s as %s\n", service.MsgRegistered, displayName(res.User))
}

func runProfile(cmdCtx *commandContext, _ []string) error {
	tok, err := cmdCtx.Tokens.Load()
	if err != nil {
		return err
	}

	cmdCtx.API.SetAuthHeader(tok.Token)
	user, err := cmdCtx.API.Profile(cmdCtx.Ctx)
	if err != nil {
		// Any failed fetch invalidates the stored token, rejection or not.
		cmdCtx.Logger.Debug("profile fetch failed", "error", err)
		if delErr := cmdCtx.Tokens.Delete(); delErr != nil {
			cmdCtx.Logger.Warn("remove rejected token", "error", delErr)
		}
		return errors.New(service.MsgSessionExpired)
	}

	w := tabwriter.NewWriter(cmdCtx.out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Username:", user.Username},
		{"Name:", user.Name},
		{"Joined At:", uiutil.FormatFullDateTime(user.CreatedAt, time.Local)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	if err := cmdCtx.Tokens.Delete(); err != nil {
		return err
	}
	return writef(cmdCtx.out, "%s\n", service.MsgLoggedOut)
}

// remember persists the token of a successful login or registration.
func (c *commandContext) remember(res domainauth.AuthResult) error {
	tok := domainauth.StoredToken{
		SessionID: "cli",
		Token:     res.Token,
		ExpiresAt: service.TokenExpiry(res.Token, time.Now()),
	}
	if err := c.Tokens.Save(tok); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (c *commandContext) prompt(label string) (string, error) {
	if err := writef(c.out, "%s", label); err != nil {
		return "", err
	}
	line, err := c.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads without echo when stdin is a terminal and falls back to a plain line otherwise.
func (c *commandContext) promptSecret(label string) (string, error) {
	if c.stdin == nil || !term.IsTerminal(int(c.stdin.Fd())) {
		return c.prompt(label)
	}
	if err := writef(c.out, "%s", label); err != nil {
		return "", err
	}
	b, err := term.ReadPassword(int(c.stdin.Fd()))
	if werr := writef(c.out, "\n"); werr != nil {
		return "", werr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// failure turns a backend error into the message shown to the user, with fallback
// when the backend gave none.
func failure(err error, fallback string) error {
	if msg := apperrors.GetMessage(err); msg != "" {
		return errors.New(msg)
	}
	return errors.New(fallback)
}

// fieldErrors reports validation failures one per line, in field order.
func fieldErrors(errs map[string]string) error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, errs[f]))
	}
	return errors.New(strings.Join(msgs, "\n"))
}

func displayName(u domainauth.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
