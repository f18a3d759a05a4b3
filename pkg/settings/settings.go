// Package settings persists awsswitch's user settings as TOML.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/OpenPeeDeeP/xdg"
	"github.com/natefinch/atomic"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
)

const (
	settingsFile = "settings.toml"

	// DefaultValue is the free-text setting before the user changes it
	DefaultValue = "default"
)

// Settings is the on-disk settings document
type Settings struct {
	// Value is a free-text note; nothing in the switch flow reads it.
	Value string `toml:"value"`
	// CredentialsFile overrides the AWS credentials file location.
	CredentialsFile string `toml:"credentials_file,omitempty"`
}

// Defaults returns the settings used when no file exists
func Defaults() Settings {
	return Settings{Value: DefaultValue}
}

// DefaultPath returns <XDG config home>/awsswitch/settings.toml
func DefaultPath() string {
	return filepath.Join(xdg.New("tenkoh", "awsswitch").ConfigHome(), settingsFile)
}

// Store reads and writes the settings file. It implements
// switcher.SettingsPanel.
type Store struct {
	path string
}

// NewStore creates a Store at the default path
func NewStore() *Store {
	return NewStoreWithPath(DefaultPath())
}

// NewStoreWithPath creates a Store at path
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings, filling in defaults for anything unset.
// A missing file yields Defaults().
func (s *Store) Load() (Settings, error) {
	out := Defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return out, swerrors.NewFileOperationError("read", s.path, err)
	}

	if _, err := toml.Decode(string(data), &out); err != nil {
		return Defaults(), swerrors.NewSettingsError(s.path, err)
	}
	return out, nil
}

// Save replaces the settings file in a single rename with 0600 permissions,
// creating the directory
func (s *Store) Save(settings Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return swerrors.NewFileOperationError("mkdir", filepath.Dir(s.path), err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return swerrors.NewFileOperationError("write", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return swerrors.NewFileOperationError("chmod", s.path, err)
	}
	return nil
}

// Value implements switcher.SettingsPanel. Read errors fall back to the
// default value.
func (s *Store) Value() string {
	settings, err := s.Load()
	if err != nil {
		return DefaultValue
	}
	return settings.Value
}

// SetValue implements switcher.SettingsPanel
func (s *Store) SetValue(value string) error {
	settings, err := s.Load()
	if err != nil {
		return err
	}
	settings.Value = value
	return s.Save(settings)
}
