package main

import (
	"github.com/MakeNowJust/heredoc"
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/cmd/hivectl/internal/util"
	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/logging"
)

var sendCmdDef = cli.Command{
	Name:   "send",
	Usage:  "Send a command message to a device",
	Action: unknownResourceAction,
	Subcommands: []*cli.Command{
		{
			Name:      "device",
			Usage:     "The device to send the command to.",
			ArgsUsage: "<id>",
			Description: heredoc.Doc(`
				Posts a named command message through the cloud command
				endpoint. The --data payload, if any, travels as the message
				body. Use --url when command traffic is served from a
				different host than the management API.
			`),
			Flags: []cli.Flag{
				appFlag,
				dataFlag,
				&cli.StringFlag{
					Name:  "url",
					Usage: "The command endpoint. Defaults to the registry url.",
				},
				&cli.StringFlag{
					Name:  "command",
					Usage: "The name of the command to send.",
				},
			},
			Action: util.ChainCmdMiddleware(cmdSendDevice,
				util.CmdMiddlewareLogging,
				util.CmdMiddlewareTracingConfig,
				util.CmdMiddlewareTracingSpan,
			),
		},
	},
}

// Errors:
//
//    - hivectl-error-validation -- id, app, or command name missing; --data malformed
//    - hivectl-error-config -- config missing or unreadable
//    - hivectl-error-auth -- token expired and could not be refreshed
//    - hivectl-error-transport -- command endpoint unreachable
//    - hivectl-error-server -- command endpoint rejected the message
func cmdSendDevice(c *cli.Context) error {
	id, err := requireID(c, hiveapi.KindDevice)
	if err != nil {
		return err
	}
	command := c.String("command")
	if command == "" {
		return hiveapi.ErrorValidation("missing command name; use --command")
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
	if err := newClient(cfg).SendCommand(c.Context, c.String("url"), app, id, command, payload); err != nil {
		return err
	}
	logging.Ctx(c.Context).Out("Command %q sent to device %q.", command, id)
	return nil
}
