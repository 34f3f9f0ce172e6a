// Package cli is the snipkeeper command line. Every data command needs an
// open session, taken from --token or the session file written by login.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dmitrijs2005/snipkeeper/internal/app"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/config"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
	exitFatal   = 2
)

type runner struct {
	cfgFile string
	token   string
	jsonOut bool

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	cfg *config.Config
	app *app.App
	// log overrides the configured logger; set by tests.
	log logging.Logger
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	r := &runner{in: bufio.NewReader(in), out: out, errOut: errOut}
	return r.execute(ctx, args)
}

func (r *runner) execute(ctx context.Context, args []string) int {
	root := r.rootCommand()
	root.SetArgs(args)
	root.SetIn(r.in)
	root.SetOut(r.out)
	root.SetErr(r.errOut)

	err := root.ExecuteContext(ctx)
	if cerr := r.close(); err == nil {
		err = cerr
	}
	if err == nil {
		return exitSuccess
	}

	fmt.Fprintln(r.errOut, "error:", err)
	if errors.Is(err, common.ErrEncryptionKeyMissing) {
		fmt.Fprintln(r.errOut, "run `snipkeeper init` to create the key file")
		return exitFatal
	}
	return exitError
}

func (r *runner) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "snipkeeper",
		Short: "Snipkeeper keeps reusable text snippets with encrypted secrets",
		Long: `Snipkeeper stores snippets (commands, URLs, paths, notes) in a local
SQLite file. Sensitive values are encrypted with a key kept in a separate
key file.

Run without a command to start the housekeeping loop, which purges expired
sessions and takes scheduled backups until interrupted.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(r.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			r.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.open(cmd.Context()); err != nil {
				return err
			}
			return r.app.Housekeeping(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&r.cfgFile, "config", "", "JSON config file")
	pf.String("data-dir", "", "data directory (default ~/.snipkeeper)")
	pf.String("db", "", "database file")
	pf.String("key-file", "", "encryption key file")
	pf.String("log-file", "", "log file (default stderr)")
	pf.String("log-format", "", "log format: text, json or zap")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&r.token, "token", "", "session token (default: the session file)")
	pf.BoolVar(&r.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		r.versionCommand(),
		r.initCommand(),
		r.loginCommand(),
		r.logoutCommand(),
		r.passwdCommand(),
		r.itemCommand(),
		r.searchCommand(),
		r.categoryCommand(),
		r.tagCommand(),
		r.areaCommand(),
		r.backupCommand(),
	)
	return root
}

func (r *runner) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the snipkeeper version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(r.out, "snipkeeper", Version)
		},
	}
}

// open builds the application once per invocation.
func (r *runner) open(ctx context.Context) error {
	if r.app != nil {
		return nil
	}
	a, err := app.New(ctx, r.cfg, r.log)
	if err != nil {
		return err
	}
	r.app = a
	return nil
}

func (r *runner) close() error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// authed opens the app and checks the session before running fn.
func (r *runner) authed(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := r.open(ctx); err != nil {
			return err
		}
		token, err := r.sessionToken()
		if err != nil {
			return err
		}
		if _, err := r.app.Auth.Validate(ctx, token); err != nil {
			return fmt.Errorf("%w; run `snipkeeper login`", err)
		}
		return fn(cmd, args)
	}
}

func (r *runner) sessionToken() (string, error) {
	if r.token != "" {
		return r.token, nil
	}
	data, err := os.ReadFile(r.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: not logged in; run `snipkeeper login`", common.ErrUnknownSession)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (r *runner) saveSession(token string) error {
	return os.WriteFile(r.cfg.SessionFile, []byte(token+"\n"), 0o600)
}

func (r *runner) clearSession() error {
	err := os.Remove(r.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
