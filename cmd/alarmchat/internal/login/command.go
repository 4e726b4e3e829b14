package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal"
	"github.com/tinyland-inc/alarmchat/pkg/auth"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
)

func NewLoginCommand() *cobra.Command {
	var userID, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and store them locally",
		Args:  cobra.NoArgs,
		Example: `  alarmchat login
  alarmchat login --user u1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return loginCmd(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), userID, password)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")

	return cmd
}

func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := internal.CredentialStore().Clear(); err != nil {
				return fmt.Errorf("removing credentials: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func loginCmd(ctx context.Context, in io.Reader, out io.Writer, userID, password string) error {
	cfg, err := internal.LoadConfig(false)
	if err != nil {
		return err
	}

	creds, err := readCredentials(in, out, userID, password)
	if err != nil {
		return err
	}

	client, err := internal.NewDirectoryClient(cfg, nil)
	if err != nil {
		return err
	}
	if err := client.Login(ctx, creds); err != nil {
		if errors.Is(err, directory.ErrUnauthenticated) {
			return errors.New("login rejected: invalid user id or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	store := internal.CredentialStore()
	if err := store.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}

	fmt.Fprintf(out, "✓ Logged in as %s\n", creds.UserID)
	fmt.Fprintf(out, "  Credentials stored in %s\n", store.Path())
	return nil
}

// readCredentials completes the flag values. On a terminal the password is
// read without echo; otherwise both values are read line by line from in.
func readCredentials(in io.Reader, out io.Writer, userID, password string) (auth.Credentials, error) {
	if userID != "" && password != "" {
		return auth.Credentials{UserID: userID, Password: password}, nil
	}

	if userID != "" && in == os.Stdin && readline.IsTerminal(int(os.Stdin.Fd())) {
		rl, err := readline.New("")
		if err == nil {
			defer rl.Close()
			pw, err := rl.ReadPassword("Password: ")
			if err != nil {
				return auth.Credentials{}, err
			}
			if len(pw) == 0 {
				return auth.Credentials{}, errors.New("password cannot be empty")
			}
			return auth.Credentials{UserID: userID, Password: string(pw)}, nil
		}
	}

	return auth.PromptCredentials(userID, in, out)
}
