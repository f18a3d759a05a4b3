// Package switcher drives the pick-then-promote flow for whatever surface
// hosts it (CLI, HTTP). It owns the UI-facing state; the profile package
// stays free of any UI concern.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/profile"
)

// SwitchCommandID identifies the profile switch command
const SwitchCommandID = "switch-profile"

// ErrNoCandidates is returned when no profile matches the query
var ErrNoCandidates = errors.New("no matching AWS profile")

// ErrCancelled is returned by a Chooser when the user backs out
var ErrCancelled = errors.New("selection cancelled")

// ErrNoChooser is returned by Run when the host has no way to ask the user
var ErrNoChooser = errors.New("no profile chooser configured")

// Command is an action a host surface can register
type Command struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// CommandSource publishes the commands a host should register
type CommandSource interface {
	Commands() []Command
}

// SuggestionProvider returns candidate profile names for a query
type SuggestionProvider interface {
	Suggest(query string) []string
}

// Chooser asks the user to pick one of candidates
type Chooser interface {
	Choose(ctx context.Context, title string, candidates []string) (string, error)
}

// StatusIndicator displays the active profile
type StatusIndicator interface {
	SetActive(name string)
	Active() string
}

// Notifier shows a short message to the user
type Notifier interface {
	Notify(msg string)
}

// SettingsPanel exposes the single free-text setting
type SettingsPanel interface {
	Value() string
	SetValue(value string) error
}

// ProfileLister is the read side of the profile package
type ProfileLister interface {
	ListProfiles(includeReserved bool) []string
	ActiveOrigin() (string, bool)
}

// ProfilePromoter is the write side of the profile package
type ProfilePromoter interface {
	Promote(profileName string) error
}

// Dependencies holds everything the Switcher talks to
type Dependencies struct {
	Lister   ProfileLister
	Promoter ProfilePromoter
	Chooser  Chooser // optional; without it only SwitchTo works
	Status   StatusIndicator
	Notifier Notifier
}

// Switcher runs the picker-then-promote flow
type Switcher struct {
	deps   *Dependencies
	logger *slog.Logger
}

// New creates a Switcher and seeds the status indicator from the store
func New(deps *Dependencies, log *slog.Logger) *Switcher {
	s := &Switcher{
		deps:   deps,
		logger: logger.WithComponent(log, "switcher"),
	}
	s.RefreshStatus()
	return s
}

// Commands implements CommandSource. Hosts without a Chooser cannot run the
// picker, so nothing is published for them.
func (s *Switcher) Commands() []Command {
	if s.deps.Chooser == nil {
		return nil
	}
	return []Command{
		{
			ID:   SwitchCommandID,
			Name: "Switch to AWS profile",
			Run: func(ctx context.Context) error {
				return s.Run(ctx, "")
			},
		},
	}
}

// Command looks up a published command by id
func (s *Switcher) Command(id string) (Command, bool) {
	return lo.Find(s.Commands(), func(c Command) bool {
		return c.ID == id
	})
}

// Suggest implements SuggestionProvider. The store is read on every call.
func (s *Switcher) Suggest(query string) []string {
	return FilterProfiles(s.deps.Lister.ListProfiles(false), query)
}

// FilterProfiles keeps the names containing query, ignoring case
func FilterProfiles(profiles []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(profiles, func(name string, _ int) bool {
		return strings.Contains(strings.ToLower(name), q)
	})
}

// Run suggests profiles matching query, lets the user choose one and
// promotes it. A single match is still confirmed through the Chooser.
func (s *Switcher) Run(ctx context.Context, query string) error {
	if s.deps.Chooser == nil {
		return ErrNoChooser
	}

	candidates := s.Suggest(query)
	if len(candidates) == 0 {
		s.deps.Notifier.Notify("No AWS profile to switch to")
		return ErrNoCandidates
	}

	chosen, err := s.deps.Chooser.Choose(ctx, "Switch to AWS profile", candidates)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			s.logger.Debug("Profile selection cancelled")
			return err
		}
		s.deps.Notifier.Notify(Notice(err))
		return err
	}

	return s.SwitchTo(chosen)
}

// SwitchTo promotes name and updates the status indicator
func (s *Switcher) SwitchTo(name string) error {
	if err := s.deps.Promoter.Promote(name); err != nil {
		s.deps.Notifier.Notify(Notice(err))
		logger.WithProfile(s.logger, name).Warn("Failed to switch profile", "error", err)
		return err
	}

	s.deps.Status.SetActive(name)
	s.deps.Notifier.Notify(fmt.Sprintf("Selected %s as %s", name, profile.ReservedProfile))
	return nil
}

// RefreshStatus re-reads the active profile from the store
func (s *Switcher) RefreshStatus() {
	origin, _ := s.deps.Lister.ActiveOrigin()
	s.deps.Status.SetActive(origin)
}

// Active returns what the status indicator currently shows
func (s *Switcher) Active() string {
	return s.deps.Status.Active()
}

// Notice renders err as an actionable message for the user
func Notice(err error) string {
	if suggestion := swerrors.GetSuggestion(err); suggestion != "" {
		return fmt.Sprintf("%v. %s", err, suggestion)
	}
	return err.Error()
}

// Status is an in-memory StatusIndicator safe for concurrent use
type Status struct {
	mu     sync.RWMutex
	active string
}

// SetActive implements StatusIndicator
func (s *Status) SetActive(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = name
}

// Active implements StatusIndicator
func (s *Status) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// String renders the status line
func (s *Status) String() string {
	if active := s.Active(); active != "" {
		return "AWS: " + active
	}
	return "AWS: (unknown)"
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(msg string)

// Notify implements Notifier
func (f NotifierFunc) Notify(msg string) {
	f(msg)
}
