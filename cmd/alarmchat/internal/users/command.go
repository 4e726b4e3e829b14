package users

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
	"github.com/tinyland-inc/alarmchat/pkg/screens"
)

func NewUsersCommand() *cobra.Command {
	var search string
	var remote bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users you can invite",
		Args:  cobra.NoArgs,
		Example: `  alarmchat users
  alarmchat users --search ali
  alarmchat users --search ali --remote`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usersCmd(cmd.Context(), cmd.OutOrStdout(), search, remote)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show users whose name or id contains this text")
	cmd.Flags().BoolVar(&remote, "remote", false, "Let the server do the search")

	return cmd
}

func usersCmd(ctx context.Context, out io.Writer, search string, remote bool) error {
	cfg, err := internal.LoadConfig(false)
	if err != nil {
		return err
	}
	store := internal.CredentialStore()
	creds, err := internal.RequireCredentials(store)
	if err != nil {
		return err
	}
	client, err := internal.NewDirectoryClient(cfg, store)
	if err != nil {
		return err
	}

	if remote {
		found, err := client.SearchUsers(ctx, search)
		if err != nil {
			return fmt.Errorf("searching users: %w", err)
		}
		PrintUsers(out, client, directory.Candidates(found, creds.UserID, ""), nil, "No matching users found.")
		return nil
	}

	screen := screens.NewInviteScreen(client, creds.UserID, internal.ConsoleNotifier{Out: out})
	if err := screen.Open(ctx); err != nil {
		return err
	}
	screen.SetSearch(search)
	PrintView(out, screen.View())
	return nil
}

// PrintView renders an invite screen snapshot.
func PrintView(out io.Writer, v screens.InviteView) {
	if v.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", v.Error)
		return
	}
	if len(v.Rows) == 0 {
		fmt.Fprintln(out, v.Empty)
		return
	}
	for _, row := range v.Rows {
		printRow(out, row.User, row.ImageURL, row.Inviting)
	}
}

type imageResolver interface {
	ImageURL(profilePicURL string) string
}

// PrintUsers renders a plain user listing.
func PrintUsers(out io.Writer, images imageResolver, list []directory.User, inviting func(string) bool, empty string) {
	if len(list) == 0 {
		fmt.Fprintln(out, empty)
		return
	}
	for _, u := range list {
		printRow(out, u, images.ImageURL(u.ProfilePicURL), inviting != nil && inviting(u.UserID))
	}
}

func printRow(out io.Writer, u directory.User, image string, inviting bool) {
	line := fmt.Sprintf("  %-16s %-20s", u.UserID, u.DisplayName())
	if image != "" {
		line += " " + image
	}
	if inviting {
		line += " (inviting...)"
	}
	fmt.Fprintln(out, line)
}
