package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/app"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/spf13/cobra"
)

func (r *runner) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the key file and set the master credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := app.Init(r.cfg)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(r.out, "Key file created:", r.cfg.KeyFile)
				fmt.Fprintln(r.out, "Keep it safe: sensitive values cannot be read without it.")
			}

			ctx := cmd.Context()
			if err := r.open(ctx); err != nil {
				return err
			}
			ok, err := r.app.Auth.Initialized(ctx)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(r.out, "Already initialized.")
				return nil
			}

			credential, err := r.newCredential()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(credential)
			if err := r.app.Auth.Setup(ctx, credential); err != nil {
				return err
			}
			fmt.Fprintln(r.out, "Master credential set. Run `snipkeeper login` to start a session.")
			return nil
		},
	}
}

// newCredential asks for a credential twice.
func (r *runner) newCredential() ([]byte, error) {
	first, err := GetPassword("New master credential", r.out)
	if err != nil {
		return nil, err
	}
	second, err := GetPassword("Repeat master credential", r.out)
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)
	if len(first) == 0 || !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, fmt.Errorf("%w: credentials are empty or do not match", common.ErrValidation)
	}
	return first, nil
}

func (r *runner) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open a session valid for 24 hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := r.open(ctx); err != nil {
				return err
			}
			credential, err := GetPassword("Master credential", r.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(credential)

			sess, err := r.app.Auth.Authenticate(ctx, credential)
			if err != nil {
				return err
			}
			if err := r.saveSession(sess.Token); err != nil {
				return err
			}
			if r.jsonOut {
				return printJSON(r.out, map[string]any{"token": sess.Token, "expires_at": sess.ExpiresAt})
			}
			fmt.Fprintf(r.out, "Logged in until %s\n", sess.ExpiresAt.Local().Format(timeLayout))
			return nil
		},
	}
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := r.open(ctx); err != nil {
				return err
			}
			token, err := r.sessionToken()
			if err != nil {
				return err
			}
			err = r.app.Auth.Logout(ctx, token)
			if err != nil && !errors.Is(err, common.ErrUnknownSession) {
				return err
			}
			if err := r.clearSession(); err != nil {
				return err
			}
			fmt.Fprintln(r.out, "Logged out.")
			return nil
		},
	}
}

func (r *runner) passwdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master credential and close every session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := r.open(ctx); err != nil {
				return err
			}
			current, err := GetPassword("Current master credential", r.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(current)
			next, err := r.newCredential()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(next)

			if err := r.app.Auth.ChangeCredential(ctx, current, next); err != nil {
				return err
			}
			if err := r.clearSession(); err != nil {
				return err
			}
			fmt.Fprintln(r.out, "Master credential changed. All sessions were closed.")
			return nil
		},
	}
}
