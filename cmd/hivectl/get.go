package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/logging"
)

var getCmdDef = cli.Command{
	Name:   "get",
	Usage:  "Read a resource from the registry",
	Action: unknownResourceAction,
	Subcommands: []*cli.Command{
		{
			Name:      "app",
			Usage:     "Retrieve an app's data.",
			ArgsUsage: "<id>",
			Action: util.ChainCmdMiddleware(cmdGetApp,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
		{
			Name:      "device",
			Usage:     "Retrieve a device's data.",
			ArgsUsage: "<id>",
			Flags:     []cli.Flag{appFlag},
			Action: util.ChainCmdMiddleware(cmdGetDevice,
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
//    - hivectl-error-server -- registry rejected the read
func cmdGetApp(c *cli.Context) error {
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
	body, err := newClient(cfg).Read(c.Context, ref)
	if err != nil {
		return err
	}
	printBody(c, body)
	return nil
}

// Errors:
//
//    - hivectl-error-validation -- id missing or app unresolvable
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-transport -- registry unreachable
//    - hivectl-error-server -- registry rejected the read
func cmdGetDevice(c *cli.Context) error {
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
	body, err := newClient(cfg).Read(c.Context, ref)
	if err != nil {
		return err
	}
	printBody(c, body)
	return nil
}

// printBody emits the raw response body on stdout, without interpretation,
// making sure a trailing newline exists for the terminal's sake.
func printBody(c *cli.Context, body []byte) {
	logger := logging.Ctx(c.Context)
	s := string(body)
	logger.OutRaw(s)
	if !strings.HasSuffix(s, "\n") {
		logger.OutRaw("\n")
	}
}
