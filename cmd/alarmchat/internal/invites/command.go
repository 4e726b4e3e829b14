package invites

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal"
	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal/users"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
	"github.com/tinyland-inc/alarmchat/pkg/screens"
	"github.com/tinyland-inc/alarmchat/pkg/utils"
)

func NewInvitesCommand() *cobra.Command {
	var sent bool

	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List received invites",
		Args:  cobra.NoArgs,
		Example: `  alarmchat invites
  alarmchat invites --sent
  alarmchat invites watch --schedule "*/5 * * * *"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listCmd(cmd.Context(), cmd.OutOrStdout(), sent)
		},
	}

	cmd.Flags().BoolVar(&sent, "sent", false, "List invites you have sent instead")

	cmd.AddCommand(newWatchCommand())

	return cmd
}

func NewInviteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "invite <user-id>",
		Short:   "Send a contact invite",
		Args:    userIDArg,
		Example: "  alarmchat invite u1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScreen(cmd, func(ctx context.Context, s *screens.InviteScreen) error {
				return s.SendInvite(ctx, args[0])
			})
		},
	}
}

func NewAcceptCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "accept <user-id>",
		Short:   "Accept the invite sent by a user",
		Args:    userIDArg,
		Example: "  alarmchat accept u1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScreen(cmd, func(ctx context.Context, s *screens.InviteScreen) error {
				return s.AcceptInvite(ctx, args[0])
			})
		},
	}
}

func NewRejectCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reject <user-id>",
		Short:   "Reject the invite sent by a user",
		Args:    userIDArg,
		Example: "  alarmchat reject u1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScreen(cmd, func(ctx context.Context, s *screens.InviteScreen) error {
				return s.RejectInvite(ctx, args[0])
			})
		},
	}
}

// userIDArg accepts exactly one valid user id.
func userIDArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	return utils.ValidateUserID(args[0])
}

type session struct {
	client *directory.Client
	selfID string
	screen *screens.InviteScreen
}

func openSession(out io.Writer) (*session, error) {
	cfg, err := internal.LoadConfig(false)
	if err != nil {
		return nil, err
	}
	store := internal.CredentialStore()
	creds, err := internal.RequireCredentials(store)
	if err != nil {
		return nil, err
	}
	client, err := internal.NewDirectoryClient(cfg, store)
	if err != nil {
		return nil, err
	}
	return &session{
		client: client,
		selfID: creds.UserID,
		screen: screens.NewInviteScreen(client, creds.UserID, internal.ConsoleNotifier{Out: out}),
	}, nil
}

func withScreen(cmd *cobra.Command, fn func(context.Context, *screens.InviteScreen) error) error {
	s, err := openSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return fn(cmd.Context(), s.screen)
}

func listCmd(ctx context.Context, out io.Writer, sent bool) error {
	s, err := openSession(out)
	if err != nil {
		return err
	}

	if sent {
		list, err := s.client.ListSentInvites(ctx, s.selfID)
		if err != nil {
			return fmt.Errorf("listing sent invites: %w", err)
		}
		users.PrintUsers(out, s.client, list, nil, "No invites sent yet.")
		return nil
	}

	if err := s.screen.SelectTab(ctx, screens.TabInvited); err != nil {
		return err
	}
	users.PrintView(out, s.screen.View())
	return nil
}
