package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	redisadapter "github.com/dewv/nlc-visits/internal/adapters/redis"
	"github.com/dewv/nlc-visits/internal/bootstrap"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
)

const defaultSessionTimeout = 30 * time.Second

type listSessionsOptions struct {
	Timeout time.Duration
}

type clearSessionsOptions struct {
	Timeout time.Duration
	DryRun  bool
	Yes     bool
}

type sessionsConfirmOptions struct {
	opts   clearSessionsOptions
	target string
}

func (s sessionsConfirmOptions) IsDryRun() bool    { return s.opts.DryRun }
func (s sessionsConfirmOptions) IsYes() bool       { return s.opts.Yes }
func (s sessionsConfirmOptions) GetTarget() string { return s.target }
func (s sessionsConfirmOptions) GetWarning() string {
	return "WARNING: every signed-in student and staff member will be logged out."
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseListSessionsFlags(args)
	if err != nil {
		return err
	}
	return withSessionStore(cmdCtx, opts.Timeout, func(ctx context.Context, store *redisadapter.SessionStore) error {
		sessions, listErr := store.List(ctx)
		if listErr != nil {
			return fmt.Errorf("list sessions: %w", listErr)
		}
		return printSessions(os.Stdout, sessions, time.Now())
	})
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}
	return withSessionStore(cmdCtx, opts.Timeout, func(ctx context.Context, store *redisadapter.SessionStore) error {
		count, countErr := store.Count(ctx)
		if countErr != nil {
			return fmt.Errorf("count sessions: %w", countErr)
		}
		if count == 0 {
			return writeln(os.Stdout, "No sessions to clear.")
		}
		if opts.DryRun {
			return writef(os.Stdout, "Would delete %d session(s) under %q.\n", count, cmdCtx.Config.Redis.KeyPrefix)
		}

		confirm := sessionsConfirmOptions{
			opts:   opts,
			target: fmt.Sprintf("%d session(s) under %q", count, cmdCtx.Config.Redis.KeyPrefix),
		}
		if confirmErr := confirmAction(confirm, "delete sessions"); confirmErr != nil {
			return confirmErr
		}

		deleted, clearErr := store.Clear(ctx)
		if clearErr != nil {
			return fmt.Errorf("clear sessions: %w", clearErr)
		}
		cmdCtx.Logger.Info("sessions cleared", "deleted", deleted)
		return writef(os.Stdout, "Deleted %d session(s).\n", deleted)
	})
}

func parseListSessionsFlags(args []string) (listSessionsOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listSessionsOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultSessionTimeout, "Maximum duration to wait for Redis")

	if err := fs.Parse(args); err != nil {
		return listSessionsOptions{}, err
	}
	if opts.Timeout <= 0 {
		return listSessionsOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := clearSessionsOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultSessionTimeout, "Maximum duration to wait for Redis")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Report how many sessions would be deleted without deleting them")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return clearSessionsOptions{}, err
	}
	if opts.Timeout <= 0 {
		return clearSessionsOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func withSessionStore(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *redisadapter.SessionStore) error,
) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer closeRedis(cmdCtx, client)

	return f(ctx, redisadapter.NewSessionStoreWithPrefix(client, cmdCtx.Config.Redis.KeyPrefix))
}

func closeRedis(cmdCtx *commandContext, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
}

func printSessions(w io.Writer, sessions []domainauth.Session, now time.Time) error {
	if len(sessions) == 0 {
		return writeln(w, "No live sessions.")
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ExpiresAt.Before(sessions[j].ExpiresAt)
	})
	if err := writef(w, "%-8s %-32s %-10s %s\n", "ROLE", "IDENTIFIER", "EXPIRES", "STATE"); err != nil {
		return err
	}
	for _, sess := range sessions {
		if err := writef(w, "%-8s %-32s %-10s %s\n",
			roleLabel(sess),
			identifierLabel(sess),
			sess.ExpiresAt.Sub(now).Round(time.Second),
			sessionState(sess),
		); err != nil {
			return err
		}
	}
	return writef(w, "\n%d live session(s)\n", len(sessions))
}

func roleLabel(sess domainauth.Session) string {
	if !sess.IsAuthenticated() {
		return "-"
	}
	return string(sess.Role)
}

func identifierLabel(sess domainauth.Session) string {
	switch {
	case sess.Identifier != "":
		return sess.Identifier
	case sess.Challenge != nil:
		return sess.Challenge.Identifier
	default:
		return "-"
	}
}

func sessionState(sess domainauth.Session) string {
	switch {
	case sess.Challenge != nil:
		return "security question"
	case !sess.IsAuthenticated():
		return "anonymous"
	case sess.ForceProfileUpdate:
		return "profile update required"
	case sess.CurrentVisitID != nil:
		return "checked in"
	default:
		return "signed in"
	}
}
