// alarmchat - terminal client for the False Alarm chat backend
// License: MIT

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal"
	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal/chat"
	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal/invites"
	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal/login"
	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal/users"
	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal/version"
)

func NewAlarmchatCommand() *cobra.Command {
	short := fmt.Sprintf("%s alarmchat - False Alarm chat client v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:          "alarmchat",
		Short:        short,
		Example:      "alarmchat invites",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		login.NewLoginCommand(),
		login.NewLogoutCommand(),
		users.NewUsersCommand(),
		invites.NewInvitesCommand(),
		invites.NewInviteCommand(),
		invites.NewAcceptCommand(),
		invites.NewRejectCommand(),
		chat.NewChatCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewAlarmchatCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
