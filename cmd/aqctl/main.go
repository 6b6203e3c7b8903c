// Command aqctl runs one-off maintenance tasks against the telemetry store.
//
//	aqctl promote-to-admin <email>
//	aqctl run-retention-now
//	aqctl dump-config
//
// Exit codes: 0 success, 1 failure, 2 invalid argument, 3 not found.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"liyu1981.xyz/iaq-telemetry-service/pkg/common"
	"liyu1981.xyz/iaq-telemetry-service/pkg/config"
	"liyu1981.xyz/iaq-telemetry-service/pkg/db"
	"liyu1981.xyz/iaq-telemetry-service/pkg/iot"
	"liyu1981.xyz/iaq-telemetry-service/pkg/models"
)

const (
	exitOK              = 0
	exitFailure         = 1
	exitInvalidArgument = 2
	exitNotFound        = 3
)

const usage = `usage: aqctl <command> [args]

commands:
  promote-to-admin <email>   grant admin to an existing user
  run-retention-now          run one retention sweep and print what was removed
  dump-config                print the effective configuration as YAML
`

type app struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (*config.Config, error)
	openDB     func(cfg *config.Config) (*db.DB, error)
}

func openConfiguredDB(cfg *config.Config) (*db.DB, error) {
	t := cfg.Transport
	return db.Open(db.UseDialector(t.DBType, t.DBPath, t.DBDSN))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.Load,
		openDB:     openConfiguredDB,
	}
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func cliLogger() *zap.Logger {
	return common.GetLoggerWith(common.LoggerNameCLI)
}

func (a *app) fail(code int, format string, args ...any) int {
	fmt.Fprintf(a.stderr, "aqctl: "+format+"\n", args...)
	return code
}

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.stderr, usage)
		return exitInvalidArgument
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return a.fail(exitInvalidArgument, "invalid configuration: %v", err)
	}

	switch args[0] {
	case "dump-config":
		if len(args) != 1 {
			return a.fail(exitInvalidArgument, "dump-config takes no arguments")
		}
		if err := cfg.Dump(a.stdout); err != nil {
			return a.fail(exitFailure, "dump config: %v", err)
		}
		return exitOK
	case "promote-to-admin":
		if len(args) != 2 {
			return a.fail(exitInvalidArgument, "promote-to-admin takes exactly one email")
		}
		return a.withDB(cfg, func(database *db.DB) int {
			return a.promoteToAdmin(ctx, database, args[1])
		})
	case "run-retention-now":
		if len(args) != 1 {
			return a.fail(exitInvalidArgument, "run-retention-now takes no arguments")
		}
		return a.withDB(cfg, func(database *db.DB) int {
			return a.runRetentionNow(ctx, database, cfg)
		})
	default:
		fmt.Fprint(a.stderr, usage)
		return a.fail(exitInvalidArgument, "unknown command %q", args[0])
	}
}

func (a *app) withDB(cfg *config.Config, fn func(*db.DB) int) int {
	database, err := a.openDB(cfg)
	if err != nil {
		return a.fail(exitFailure, "open database: %v", err)
	}
	defer database.Close()
	return fn(database)
}

var emailValidator = z.String().Trim().Email().Required()

func (a *app) promoteToAdmin(ctx context.Context, database *db.DB, email string) int {
	if issues := emailValidator.Validate(&email); issues != nil {
		return a.fail(exitInvalidArgument, "invalid email %q", email)
	}
	email = strings.ToLower(email)

	res := database.Conn.WithContext(ctx).
		Model(&models.User{}).
		Where("lower(email) = ?", email).
		Update("is_admin", true)
	if res.Error != nil {
		return a.fail(exitFailure, "promote %s: %v", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return a.fail(exitNotFound, "no user with email %s", email)
	}

	cliLogger().Info("User promoted to admin", zap.String("email", email))
	fmt.Fprintf(a.stdout, "%s is now an admin\n", email)
	return exitOK
}

func (a *app) runRetentionNow(ctx context.Context, database *db.DB, cfg *config.Config) int {
	core := iot.New(*database, *cfg)
	report, err := core.Retention.Sweep(ctx)
	if err != nil {
		if errors.Is(err, iot.ErrCorruptCursor) {
			return a.fail(exitFailure, "retention cursor is corrupt; clear retention_state to recover")
		}
		return a.fail(exitFailure, "retention sweep: %v", err)
	}

	targets := make([]string, 0, len(report.Deleted))
	for target := range report.Deleted {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		fmt.Fprintf(a.stdout, "%-16s %d\n", target, report.Deleted[target])
	}
	fmt.Fprintf(a.stdout, "%-16s %d\n", "total", report.Total())
	if report.Paused {
		fmt.Fprintln(a.stdout, "paused at the time budget; run again to continue")
	}
	return exitOK
}
