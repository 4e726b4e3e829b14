package invites

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/adhocore/gronx"
	"github.com/spf13/cobra"

	"github.com/tinyland-inc/alarmchat/cmd/alarmchat/internal"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
)

const defaultSchedule = "* * * * *"

func newWatchCommand() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new invites on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !gronx.New().IsValid(schedule) {
				return fmt.Errorf("invalid schedule %q", schedule)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watchCmd(ctx, cmd.OutOrStdout(), schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", defaultSchedule, "Cron expression controlling how often invites are refreshed")

	return cmd
}

func watchCmd(ctx context.Context, out io.Writer, schedule string) error {
	s, err := openSession(out)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s Watching invites (%s), Ctrl+C to stop\n", internal.Logo, schedule)
	w := &watcher{seen: make(map[string]bool), out: out}
	return w.run(ctx, schedule, func(ctx context.Context) ([]directory.User, error) {
		if err := s.screen.FetchInvitedUsers(ctx); err != nil {
			return nil, err
		}
		return s.screen.Invited(), nil
	})
}

type fetchFunc func(ctx context.Context) ([]directory.User, error)

// watcher reports invites it has not seen before.
type watcher struct {
	seen map[string]bool
	out  io.Writer
}

func (w *watcher) run(ctx context.Context, schedule string, fetch fetchFunc) error {
	for {
		if err := w.poll(ctx, fetch); err != nil {
			if errors.Is(err, directory.ErrUnauthenticated) {
				return err
			}
			logger.WarnCF("invites", "Refreshing invites failed", map[string]any{"error": err.Error()})
		}

		next, err := gronx.NextTick(schedule, false)
		if err != nil {
			return fmt.Errorf("computing next refresh: %w", err)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (w *watcher) poll(ctx context.Context, fetch fetchFunc) error {
	list, err := fetch(ctx)
	if err != nil {
		return err
	}
	for _, u := range list {
		if w.seen[u.UserID] {
			continue
		}
		w.seen[u.UserID] = true
		fmt.Fprintf(w.out, "%s New invite from %s (%s)\n", internal.Logo, u.DisplayName(), u.UserID)
	}
	return nil
}
