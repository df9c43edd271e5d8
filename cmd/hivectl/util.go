package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/auth"
	"github.com/hivetools/hivectl/pkg/config"
	"github.com/hivetools/hivectl/pkg/registry"
)

// loadConfig resolves the config file location and reads the snapshot.
// Purely local: safe to call before argument validation is finished.
//
// Errors:
//
//    - hivectl-error-config --
func loadConfig(c *cli.Context) (*config.Config, string, error) {
	path, err := config.ResolvePath(c.String("config"))
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// ensureValidToken validates (and if needed refreshes) the token record,
// persisting the config when the record changed. Called exactly once per
// invocation, after all pre-network validation and before the first
// authenticated call.
//
// Errors:
//
//    - hivectl-error-auth --
//    - hivectl-error-io -- the refreshed token could not be persisted
func ensureValidToken(c *cli.Context, cfg *config.Config, path string) error {
	sess := &auth.Session{Config: cfg}
	changed, err := sess.EnsureValid(c.Context)
	if err != nil {
		return err
	}
	if changed {
		if err := cfg.Save(path); err != nil {
			return err
		}
	}
	return nil
}

func newClient(cfg *config.Config) *registry.Client {
	return &registry.Client{
		BaseURL: cfg.Registry,
		Token:   cfg.Token.AccessToken,
	}
}

// resolveApp picks the app id for a device operation: the --app flag wins,
// then the configured default app. Neither present is a pre-network failure.
//
// Errors:
//
//    - hivectl-error-validation -- no app flag and no default app configured
func resolveApp(c *cli.Context, cfg *config.Config) (string, error) {
	if a := c.String("app"); a != "" {
		return a, nil
	}
	if cfg.DefaultApp != "" {
		fmt.Fprintf(c.App.ErrWriter, "Using default app %q.\n", cfg.DefaultApp)
		return cfg.DefaultApp, nil
	}
	return "", hiveapi.ErrorValidation("missing app argument and no default app specified in config file")
}

// payloadFlag returns the inline --data payload, validated as JSON but
// otherwise untouched.
//
// Errors:
//
//    - hivectl-error-validation -- --data is not valid JSON
func payloadFlag(c *cli.Context) (json.RawMessage, error) {
	d := c.String("data")
	if d == "" {
		return nil, nil
	}
	if !json.Valid([]byte(d)) {
		return nil, hiveapi.ErrorValidation("the --data argument is not valid JSON")
	}
	return json.RawMessage(d), nil
}

// requireID returns the positional resource id.
//
// Errors:
//
//    - hivectl-error-validation -- no id was given
func requireID(c *cli.Context, kind hiveapi.Kind) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", hiveapi.ErrorValidation(fmt.Sprintf("missing %s id", kind))
	}
	return id, nil
}

var appFlag = &cli.StringFlag{
	Name:    "app",
	Aliases: []string{"a"},
	Usage:   "The app owning the device.",
}

var dataFlag = &cli.StringFlag{
	Name:    "data",
	Aliases: []string{"d"},
	Usage:   "Inline JSON payload for the resource spec.",
}

var fileFlag = &cli.StringFlag{
	Name:      "filename",
	Aliases:   []string{"f"},
	Usage:     "File that contains the data to update the resource with.",
	TakesFile: true,
}
