// Package profile lists the profiles of an AWS shared credentials file and
// promotes one of them to the reserved default profile.
package profile

import (
	"log/slog"
	"sort"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/repository"
)

// ReservedProfile is the profile AWS tooling uses when none is selected
const ReservedProfile = "default"

// CredentialStore loads and saves a whole credentials file
type CredentialStore interface {
	Load() (repository.Snapshot, error)
	Save(s repository.Snapshot) error
	Path() string
}

// Lister enumerates profile names. It never fails: a missing or broken
// credentials file reads as an empty list.
type Lister struct {
	store  CredentialStore
	logger *slog.Logger
}

// NewLister creates a Lister over store
func NewLister(store CredentialStore, log *slog.Logger) *Lister {
	return &Lister{
		store:  store,
		logger: logger.WithComponent(log, "lister"),
	}
}

// ListProfiles returns the profile names sorted ascending. The reserved
// profile is left out unless includeReserved is set.
func (l *Lister) ListProfiles(includeReserved bool) []string {
	s, ok := l.load()
	if !ok {
		return []string{}
	}

	profiles := s.Names()
	if !includeReserved {
		for i, name := range profiles {
			if name == ReservedProfile {
				profiles = append(profiles[:i], profiles[i+1:]...)
				break
			}
		}
	}

	sort.Strings(profiles)
	return profiles
}

// ActiveOrigin returns the profile the reserved profile was last promoted
// from, if that is recorded.
func (l *Lister) ActiveOrigin() (string, bool) {
	s, ok := l.load()
	if !ok {
		return "", false
	}
	rec, ok := s.Profile(ReservedProfile)
	if !ok {
		return "", false
	}
	origin, ok := rec.Get(OriginField)
	if !ok || origin == "" {
		return "", false
	}
	return origin, true
}

func (l *Lister) load() (repository.Snapshot, bool) {
	s, err := l.store.Load()
	if err == nil {
		return s, true
	}

	switch swerrors.GetCode(err) {
	case swerrors.CodeStoreNotFound:
		l.logger.Info("Credentials file does not exist", "path", l.store.Path())
	case swerrors.CodeStoreParse:
		l.logger.Warn("Credentials file is not valid", "path", l.store.Path(), "error", err)
	default:
		l.logger.Warn("Failed to read credentials file", "path", l.store.Path(), "error", err)
	}
	return repository.Snapshot{}, false
}
