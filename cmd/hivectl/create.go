package main

import (
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/logging"
)

var createCmdDef = cli.Command{
	Name:    "create",
	Aliases: []string{"add"},
	Usage:   "Create a resource in the registry",
	Action:  unknownResourceAction,
	Subcommands: []*cli.Command{
		{
			Name:      "app",
			Usage:     "Create an app.",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{dataFlag},
			Action: util.ChainCmdMiddleware(cmdCreateApp,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "device",
			Usage:     "Create a device.",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{appFlag, dataFlag},
			Action: util.ChainCmdMiddleware(cmdCreateDevice,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

// Errors:
//
//    - hivectl-error-validation -- id missing or --data malformed
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-transport -- registry unreachable
//    - hivectl-error-server -- registry rejected the create
func cmdCreateApp(c *cli.Context) error {
	id, err := requireID(c, hiveapi.KindApp)
	if err != nil {
		return err
	}
	payload, err := payloadFlag(c)
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
	if err := newClient(cfg).Create(c.Context, ref, payload); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("App %q created.", id)
	return nil
}

// Errors:
//
//    - hivectl-error-validation -- id missing, app unresolvable, or --data malformed
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-transport -- registry unreachable
//    - hivectl-error-server -- registry rejected the create
func cmdCreateDevice(c *cli.Context) error {
	id, err := requireID(c, hiveapi.KindDevice)
	if err != nil {
		return err
	}
	payload, err := payloadFlag(c)
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
	if err := newClient(cfg).Create(c.Context, ref, payload); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("Device %q created.", id)
	return nil
}
