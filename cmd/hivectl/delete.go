package main

import (
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/logging"
)

var deleteCmdDef = cli.Command{
	Name:    "delete",
	Aliases: []string{"remove"},
	Usage:   "Delete a resource in the registry",
	Action:  unknownResourceAction,
	Subcommands: []*cli.Command{
		{
			Name:      "app",
			Usage:     "Delete an app.",
			ArgsUsage: "<id>",
			Action: util.ChainCmdMiddleware(cmdDeleteApp,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "device",
			Usage:     "Delete a device.",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{appFlag},
			Action: util.ChainCmdMiddleware(cmdDeleteDevice,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

// Errors:
//
//    - hivectl-error-validation -- id missing
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-transport -- registry unreachable
//    - hivectl-error-server -- registry rejected the delete
func cmdDeleteApp(c *cli.Context) error {
	id, err := requireID(c, hiveapi.KindApp)
	if err != nil {
		return err
	}
	cfg, path, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := ensureValidToken(c, cfg, path); err != nil {
		return err
	}
	ref := hiveapi.Ref{Kind: hiveapi.KindApp, ID: id}
	if err := newClient(cfg).Delete(c.Context, ref); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("App %q deleted.", id)
	return nil
}

// Errors:
//
//    - hivectl-error-validation -- id missing or app unresolvable
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-transport -- registry unreachable
//    - hivectl-error-server -- registry rejected the delete
func cmdDeleteDevice(c *cli.Context) error {
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
	if err := ensureValidToken(c, cfg, path); err != nil {
		return err
	}
	ref := hiveapi.Ref{Kind: hiveapi.KindDevice, ID: id, App: app}
	if err := newClient(cfg).Delete(c.Context, ref); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("Device %q deleted.", id)
	return nil
}
