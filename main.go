package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tenkoh/awsswitch/pkg/logger"
	"github.com/tenkoh/awsswitch/pkg/profile"
	"github.com/tenkoh/awsswitch/pkg/prompt"
	"github.com/tenkoh/awsswitch/pkg/service"
	"github.com/tenkoh/awsswitch/pkg/settings"
	"github.com/tenkoh/awsswitch/pkg/switcher"
)

// errReported marks failures the switcher has already shown to the user
var errReported = errors.New("already reported")

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newCLIApp(stdout, stderr)
	if err := app.RunContext(ctx, args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(stderr, switcher.Notice(err))
		}
		return 1
	}
	return 0
}

func newCLIApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "awsswitch",
		Usage:     "Promote a profile of the AWS credentials file to default",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"AWSSWITCH_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log format (text, json)",
				EnvVars: []string{"AWSSWITCH_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:  "credentials-file",
				Usage: "Path of the AWS shared credentials file (default: settings, then ~/.aws/credentials)",
			},
			&cli.StringFlag{
				Name:  "settings-file",
				Value: settings.DefaultPath(),
				Usage: "Path of the awsswitch settings file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List profiles of the credentials file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "all",
						Aliases: []string{"a"},
						Usage:   "Include the default profile",
					},
				},
				Action: listAction,
			},
			{
				Name:      "switch",
				Usage:     "Promote a profile to default",
				ArgsUsage: "[PROFILE]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Only offer profiles containing this text",
					},
					&cli.BoolFlag{
						Name:  "accessible",
						Usage: "Use a line-based picker for screen readers",
					},
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Check the promoted credentials against S3",
					},
					&cli.StringFlag{
						Name:  "endpoint-url",
						Usage: "S3 endpoint used by --verify (for S3 compatible services)",
					},
					&cli.StringFlag{
						Name:  "region",
						Usage: "Region used by --verify when the profile has none",
					},
				},
				Action: switchAction,
			},
			{
				Name:   "status",
				Usage:  "Print the profile default was promoted from",
				Action: statusAction,
			},
			{
				Name:      "settings",
				Usage:     "Show or set the free-text setting",
				ArgsUsage: "[VALUE]",
				Action:    settingsAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the JSON API locally",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   8080,
						Usage:   "Port to serve the API",
					},
				},
				Action: serveAction,
			},
		},
	}
}

func listAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}
	for _, name := range app.lister.ListProfiles(c.Bool("all")) {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

func switchAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}

	picker := prompt.NewPicker(
		prompt.WithAccessible(c.Bool("accessible")),
		prompt.WithQuery(c.String("query")),
	)
	sw := app.newSwitcher(picker, c.App.Writer)

	if c.Args().Present() {
		err = sw.SwitchTo(c.Args().First())
	} else {
		cmd, ok := sw.Command(switcher.SwitchCommandID)
		if !ok {
			return switcher.ErrNoChooser
		}
		err = cmd.Run(c.Context)
	}
	switch {
	case errors.Is(err, switcher.ErrCancelled):
		app.log.Debug("Switch cancelled")
		return nil
	case err != nil:
		return errReported
	}

	if !c.Bool("verify") {
		return nil
	}

	checker := service.NewCredentialChecker(service.NewS3Service, app.log)
	err = checker.Check(c.Context, service.S3Config{
		Profile:         profile.ReservedProfile,
		CredentialsFile: app.credentialsPath,
		EndpointURL:     c.String("endpoint-url"),
		Region:          c.String("region"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "AWS accepted the %s credentials\n", profile.ReservedProfile)
	return nil
}

func statusAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}
	origin, ok := app.lister.ActiveOrigin()
	if !ok {
		origin = "(unknown)"
	}
	fmt.Fprintln(c.App.Writer, origin)
	return nil
}

func settingsAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}
	if c.Args().Present() {
		if err := app.settings.SetValue(c.Args().First()); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.App.Writer, app.settings.Value())
	return nil
}

func serveAction(c *cli.Context) error {
	app, err := newApplication(c)
	if err != nil {
		return err
	}

	port := c.Int("port")
	logger.WithComponent(app.log, "main").Info("Starting awsswitch server",
		"port", port,
		"credentials", app.credentialsPath,
	)
	return startServer(c.Context, port, app, c.App.ErrWriter)
}
