package chat

import (
	"github.com/spf13/cobra"
)

func NewChatCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"c"},
		Short:   "Open the chat list with the live alert channel",
		Args:    cobra.NoArgs,
		Example: `  alarmchat chat
  alarmchat chat --with u1
  alarmchat chat --username Alice --debug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return chatCmd(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.with, "with", "w", "", "Select this contact on start")
	cmd.Flags().StringVar(&opts.username, "username", "", "Display name sent with messages (default: your directory name)")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}
