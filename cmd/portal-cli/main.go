// Command portal-cli is a terminal client for the accounts API: it logs in, registers,
// shows the profile and logs out, keeping the bearer token in a local file.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/target/profile-portal/config"
	"github.com/target/profile-portal/internal/adapters/backend"
	"github.com/target/profile-portal/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	API    *backend.Client
	Tokens *tokenFile

	in  *bufio.Reader
	out io.Writer
	// stdin is consulted for terminal detection when prompting for passwords.
	stdin *os.File
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	bootstrap.SetLogLevel(max(cfg.SlogLevel(), slog.LevelWarn))

	tokens, err := defaultTokenFile()
	if err != nil {
		logger.Error("resolve token file", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI cannot run without a token location
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		API: backend.NewClient(backend.Options{
			BaseURL: cfg.API.BaseURL,
			Timeout: cfg.API.Timeout,
			Logger:  logger,
		}),
		Tokens: tokens,
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		stdin:  os.Stdin,
	}
	runErr := cmd.run(cmdCtx, os.Args[2:])
	stop()
	if runErr != nil {
		if werr := writef(os.Stderr, "%s: %v\n", cmdName, runErr); werr != nil {
			logger.Error("print command error failed", "error", werr)
		}
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"login": {
			name:        "login",
			description: "Log in and remember the session token",
			run:         runLogin,
		},
		"register": {
			name:        "register",
			description: "Create an account and log in",
			run:         runRegister,
		},
		"profile": {
			name:        "profile",
			description: "Show the logged-in user's profile",
			run:         runProfile,
		},
		"logout": {
			name:        "logout",
			description: "Forget the session token",
			run:         runLogout,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: portal-cli <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-10s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
