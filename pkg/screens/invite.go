package screens

import (
	"context"
	"errors"
	"sync"

	"github.com/tinyland-inc/alarmchat/pkg/directory"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
)

type Tab string

const (
	TabInvite  Tab = "invite"
	TabInvited Tab = "invited"
)

// ErrInviteInFlight is returned when an invite to the same user is already
// being sent.
var ErrInviteInFlight = errors.New("invite already in progress")

// UserRow is one rendered directory entry.
type UserRow struct {
	directory.User
	ImageURL string
	Inviting bool
}

// InviteView is a snapshot of what the invitation screen shows.
type InviteView struct {
	Tab     Tab
	Search  string
	Loading bool
	Error   string
	Rows    []UserRow
	Empty   string // message shown when Rows is empty
}

// InviteScreen is the contact-invitation screen.
type InviteScreen struct {
	dir      Directory
	selfID   string
	notifier Notifier
	inflight *directory.InFlight

	mu         sync.Mutex
	tab        Tab
	search     string
	registered []directory.User
	invited    []directory.User
	loading    bool
	err        error
}

func NewInviteScreen(dir Directory, selfID string, notifier Notifier) *InviteScreen {
	return &InviteScreen{
		dir:      dir,
		selfID:   selfID,
		notifier: notifier,
		inflight: directory.NewInFlight(),
		tab:      TabInvite,
	}
}

// Open loads the directory, as the screen does when first shown.
func (s *InviteScreen) Open(ctx context.Context) error {
	return s.FetchUsers(ctx)
}

// SelectTab switches tabs and refreshes the listing behind the new tab.
func (s *InviteScreen) SelectTab(ctx context.Context, tab Tab) error {
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()

	if tab == TabInvited {
		return s.FetchInvitedUsers(ctx)
	}
	return s.FetchUsers(ctx)
}

func (s *InviteScreen) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = term
}

// FetchUsers reloads the registered-user directory.
func (s *InviteScreen) FetchUsers(ctx context.Context) error {
	s.begin()
	users, err := s.dir.ListUsers(ctx)
	s.finish(err, func() { s.registered = users })
	return err
}

// FetchInvitedUsers reloads the users who have invited us. It does nothing
// without a local identity.
func (s *InviteScreen) FetchInvitedUsers(ctx context.Context) error {
	if s.selfID == "" {
		return nil
	}
	s.begin()
	users, err := s.dir.ListReceivedInvites(ctx, s.selfID)
	s.finish(err, func() { s.invited = users })
	return err
}

func (s *InviteScreen) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.err = nil
}

func (s *InviteScreen) finish(err error, apply func()) {
	s.mu.Lock()
	s.loading = false
	switch {
	case err == nil:
		apply()
	case errors.Is(err, directory.ErrUnauthenticated):
	default:
		s.err = err
	}
	s.mu.Unlock()

	s.requireLoginOn(err)
}

// Candidates returns the invitable users matching the current search.
func (s *InviteScreen) Candidates() []directory.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return directory.Candidates(s.registered, s.selfID, s.search)
}

// Invited returns the last loaded received-invite listing.
func (s *InviteScreen) Invited() []directory.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]directory.User, len(s.invited))
	copy(out, s.invited)
	return out
}

// SendInvite invites receiverID. Success and duplicate invites both produce
// a notice followed by a refresh of the received invites.
func (s *InviteScreen) SendInvite(ctx context.Context, receiverID string) error {
	if !s.inflight.Begin(receiverID) {
		return ErrInviteInFlight
	}
	defer s.inflight.End(receiverID)

	err := s.dir.SendInvite(ctx, receiverID)
	switch {
	case err == nil:
		s.notifier.Notice("Invite sent successfully")
	case errors.Is(err, directory.ErrDuplicateInvite):
		s.notifier.Notice("You have already sent an invite to this user.")
	default:
		logger.WarnCF("screens", "Send invite failed", map[string]any{"receiver": receiverID, "error": err.Error()})
		s.notifier.Notice("Failed to send invite: " + err.Error())
		s.requireLoginOn(err)
		return err
	}

	if err := s.FetchInvitedUsers(ctx); err != nil {
		logger.WarnCF("screens", "Refreshing invites failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// Inviting reports whether an invite to id is in progress.
func (s *InviteScreen) Inviting(id string) bool {
	return s.inflight.Active(id)
}

func (s *InviteScreen) AcceptInvite(ctx context.Context, senderID string) error {
	if err := s.dir.AcceptInvite(ctx, senderID); err != nil {
		s.notifier.Notice("Error: Failed to accept invite")
		s.requireLoginOn(err)
		return err
	}
	s.notifier.Notice("Invite accepted!")
	s.refreshInvitesQuietly(ctx)
	return nil
}

func (s *InviteScreen) RejectInvite(ctx context.Context, senderID string) error {
	if err := s.dir.RejectInvite(ctx, senderID); err != nil {
		s.notifier.Notice("Error: Failed to reject invite")
		s.requireLoginOn(err)
		return err
	}
	s.notifier.Notice("Invite rejected!")
	s.refreshInvitesQuietly(ctx)
	return nil
}

func (s *InviteScreen) requireLoginOn(err error) {
	if errors.Is(err, directory.ErrUnauthenticated) {
		s.notifier.RequireLogin()
	}
}

func (s *InviteScreen) refreshInvitesQuietly(ctx context.Context) {
	if err := s.FetchInvitedUsers(ctx); err != nil {
		logger.WarnCF("screens", "Refreshing invites failed", map[string]any{"error": err.Error()})
	}
}

// View returns what the screen currently shows.
func (s *InviteScreen) View() InviteView {
	s.mu.Lock()
	v := InviteView{
		Tab:     s.tab,
		Search:  s.search,
		Loading: s.loading,
	}
	if s.err != nil {
		v.Error = s.err.Error()
	}
	var users []directory.User
	if s.tab == TabInvited {
		users = append(users, s.invited...)
		v.Empty = "No invites received yet."
	} else {
		users = directory.Candidates(s.registered, s.selfID, s.search)
		v.Empty = "No matching users found."
	}
	s.mu.Unlock()

	for _, u := range users {
		v.Rows = append(v.Rows, UserRow{
			User:     u,
			ImageURL: s.dir.ImageURL(u.ProfilePicURL),
			Inviting: s.inflight.Active(u.UserID),
		})
	}
	return v
}
