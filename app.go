package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"

	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/profile"
	"github.com/tenkoh/awsswitch/pkg/repository"
	"github.com/tenkoh/awsswitch/pkg/settings"
	"github.com/tenkoh/awsswitch/pkg/switcher"
)

// application holds the collaborators shared by every command
type application struct {
	log             *slog.Logger
	credentialsPath string
	settings        *settings.Store
	store           *repository.FileSystemCredentialStore
	lister          *profile.Lister
	promoter        *profile.Promoter
}

// newApplication resolves paths from flags and settings and builds the core.
// The credentials file is taken from --credentials-file, then the settings
// file, then the AWS SDK default.
func newApplication(c *cli.Context) (*application, error) {
	log := newLogger(c)

	settingsPath, err := homedir.Expand(c.String("settings-file"))
	if err != nil {
		return nil, fmt.Errorf("expanding settings path: %w", err)
	}
	settingsStore := settings.NewStoreWithPath(settingsPath)

	credentialsPath := c.String("credentials-file")
	if credentialsPath == "" {
		conf, err := settingsStore.Load()
		if err != nil {
			return nil, err
		}
		credentialsPath = conf.CredentialsFile
	}
	if credentialsPath == "" {
		credentialsPath = repository.DefaultCredentialsPath()
	}
	credentialsPath, err = homedir.Expand(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("expanding credentials path: %w", err)
	}

	log.Debug("Resolved paths", "credentials", credentialsPath, "settings", settingsPath)

	store := repository.NewFileSystemCredentialStoreWithPath(credentialsPath)
	return &application{
		log:             log,
		credentialsPath: credentialsPath,
		settings:        settingsStore,
		store:           store,
		lister:          profile.NewLister(store, log),
		promoter:        profile.NewPromoter(store, log),
	}, nil
}

// newSwitcher wires the core to a chooser and writes notices to w
func (a *application) newSwitcher(chooser switcher.Chooser, w io.Writer) *switcher.Switcher {
	return switcher.New(&switcher.Dependencies{
		Lister:   a.lister,
		Promoter: a.promoter,
		Chooser:  chooser,
		Status:   &switcher.Status{},
		Notifier: switcher.NotifierFunc(func(msg string) {
			fmt.Fprintln(w, msg)
		}),
	}, a.log)
}

func newLogger(c *cli.Context) *slog.Logger {
	config := logger.DefaultConfig()
	config.Level = c.String("log-level")
	config.Format = c.String("log-format")
	if config.Output == "stdout" {
		return logger.NewLoggerWithWriter(config, c.App.Writer)
	}
	return logger.NewLoggerWithWriter(config, c.App.ErrWriter)
}
