package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/serum-errors/go-serum"
	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/hiveapi"
)

const VERSION = "v0.2.0"

// Exit codes: 0 success; 2 pre-flight, transport, auth, or fetch failure;
// 3 the registry rejected the primary operation.
const (
	ExitPreflight = 2
	ExitRejected  = 3
)

func makeApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "hivectl"
	app.Version = VERSION
	app.Usage = "Manage apps and devices in a hive cloud registry."
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Reader = stdin
	cli.VersionFlag = &cli.BoolFlag{
		Name: "version", // And no short alias.  "-v" is for "verbose"!
	}
	app.HideVersion = true
	verboseCount := new(int)
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:      "config",
			Usage:     "Path to the hivectl config file. Defaults to $HIVECFG, then the platform config directory.",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose output. Repeat to increase verbosity.",
			Count:   verboseCount,
		},
		&cli.BoolFlag{
			Name: "quiet",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Enable JSON API error output",
		},
		&cli.StringFlag{
			Name:      "trace.file",
			Usage:     "Enable tracing and emit output to file",
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "trace.http.enable",
			Usage: "Enable remote tracing over http",
		},
		&cli.BoolFlag{
			Name:  "trace.http.insecure",
			Usage: "Allows insecure http",
		},
		&cli.StringFlag{
			Name:  "trace.http.endpoint",
			Usage: "Sets an endpoint for remote open-telemetry tracing collection",
		},
	}
	app.ExitErrHandler = exitErrHandler
	app.Action = unknownCommandAction
	app.Commands = []*cli.Command{
		&createCmdDef,
		&getCmdDef,
		&editCmdDef,
		&deleteCmdDef,
		&loginCmdDef,
		&tokenCmdDef,
		&versionCmdDef,
		&sendCmdDef,
		&guideCmdDef,
	}
	return app
}

// unknownCommandAction rejects verbs outside the closed command set before
// anything else can happen; with no arguments at all it shows help instead.
func unknownCommandAction(c *cli.Context) error {
	if c.Args().Present() {
		return hiveapi.ErrorUnknownCommand(c.Args().First())
	}
	return cli.ShowAppHelp(c)
}

// unknownResourceAction plays the same role one level down, for resource
// tokens under a verb.
func unknownResourceAction(c *cli.Context) error {
	if c.Args().Present() {
		return hiveapi.ErrorUnknownCommand(c.Args().First())
	}
	cli.ShowSubcommandHelp(c)
	return hiveapi.ErrorValidation(fmt.Sprintf("%s: missing resource; expected `app` or `device`", c.Command.Name))
}

// Called after a command returns a non-nil error value.
// Prints the formatted error to stderr.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	if c.Bool("json") {
		bytes, err := json.Marshal(err)
		if err != nil {
			panic("error marshaling json")
		}
		fmt.Fprintf(c.App.ErrWriter, "%s\n", string(bytes))
	} else {
		fmt.Fprintf(c.App.ErrWriter, "error: %s\n", err)
	}
}

// exitCodeForError maps the error taxonomy onto process exit codes. Only a
// rejection of the primary CRUD call gets code 3; every other failure is a
// pre-flight or transport problem and gets code 2.
func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	if serum.Code(err) == hiveapi.ECodeServer {
		return ExitRejected
	}
	return ExitPreflight
}

func main() {
	err := makeApp(os.Stdin, os.Stdout, os.Stderr).Run(os.Args)
	if err != nil {
		os.Exit(exitCodeForError(err))
	}
}
