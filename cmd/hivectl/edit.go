package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/config"
	"github.com/hivetools/hivectl/pkg/edit"
	"github.com/hivetools/hivectl/pkg/logging"
)

var editCmdDef = cli.Command{
	Name:    "edit",
	Aliases: []string{"update"},
	Usage:   "Update a resource in the registry",
	Description: heredoc.Doc(`
		Fetches the resource, opens it in your editor ($VISUAL, then $EDITOR,
		then vi), and submits the edited text back. The text is submitted
		exactly as saved; saving an empty file cancels the edit.

		With --filename the editor is skipped and the file's contents are
		submitted instead. The resource is still fetched first: an update is
		never issued for a resource that cannot be read.
	`),
	Action: unknownResourceAction,
	Subcommands: []*cli.Command{
		{
			Name:      "app",
			Usage:     "Edit an app's data.",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{fileFlag},
			Action: util.ChainCmdMiddleware(cmdEditApp,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "device",
			Usage:     "Edit a device's data.",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{appFlag, fileFlag},
			Action: util.ChainCmdMiddleware(cmdEditDevice,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

// Errors:
//
//    - hivectl-error-validation -- id missing or payload file malformed
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-fetch -- the resource could not be retrieved for editing
//    - hivectl-error-io -- editor or payload file trouble
//    - hivectl-error-edit-cancelled -- the edit was abandoned
//    - hivectl-error-transport -- registry unreachable on submit
//    - hivectl-error-server -- registry rejected the update
func cmdEditApp(c *cli.Context) error {
	id, err := requireID(c, hiveapi.KindApp)
	if err != nil {
		return err
	}
	return runEdit(c, hiveapi.Ref{Kind: hiveapi.KindApp, ID: id})
}

// Errors:
//
//    - hivectl-error-validation -- id missing, app unresolvable, or payload file malformed
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-fetch -- the resource could not be retrieved for editing
//    - hivectl-error-io -- editor or payload file trouble
//    - hivectl-error-edit-cancelled -- the edit was abandoned
//    - hivectl-error-transport -- registry unreachable on submit
//    - hivectl-error-server -- registry rejected the update
func cmdEditDevice(c *cli.Context) error {
	id, err := requireID(c, hiveapi.KindDevice)
	if err != nil {
		return err
	}
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := resolveApp(c, cfg)
	if err != nil {
		return err
	}
	return runEditLoaded(c, cfg, path, hiveapi.Ref{Kind: hiveapi.KindDevice, ID: id, App: app})
}

func runEdit(c *cli.Context, ref hiveapi.Ref) error {
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	return runEditLoaded(c, cfg, path, ref)
}

func runEditLoaded(c *cli.Context, cfg *config.Config, path string, ref hiveapi.Ref) error {
	if err := ensureValidToken(c, cfg, path); err != nil {
		return err
	}
	flow := &edit.Flow{
		Client: newClient(cfg),
		Stdin:  c.App.Reader,
		Stdout: c.App.Writer,
		Stderr: c.App.ErrWriter,
	}
	var err error
	if filename := c.String("filename"); filename != "" {
		err = flow.RunFile(c.Context, ref, filename)
	} else {
		err = flow.Run(c.Context, ref)
	}
	if err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("%s %q updated.", ref.Kind.Label(), ref.ID)
	return nil
}
