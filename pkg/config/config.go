package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hivetools/hivectl/hiveapi"
)

// EnvConfigPath names the environment variable consulted for the config file
// location when the --config flag is absent.
const EnvConfigPath = "HIVECFG"

const defaultFileName = "config.json"

// Config is the whole persisted state of the CLI: which registry we talk to,
// the credentials for it, and the optional default app.
//
// A Config value is an immutable snapshot from the orchestrator's point of
// view: operations receive it, never mutate-and-forget it. The only
// mutations are login (which builds a fresh Config) and a token refresh, and
// both are followed by one explicit Save.
type Config struct {
	Registry   string              `json:"registry_url"`
	Auth       Endpoints           `json:"auth"`
	Token      hiveapi.TokenRecord `json:"token"`
	DefaultApp string              `json:"default_app,omitempty"`
}

// Endpoints records where the identity provider lives. Captured at login
// time so later invocations can refresh without re-running discovery.
type Endpoints struct {
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
}

// ResolvePath picks the config file location: the --config flag wins, then
// $HIVECFG, then the platform config directory.
//
// Errors:
//
//    - hivectl-error-config -- no user config directory can be determined
func ResolvePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", hiveapi.ErrorConfig("cannot determine user config directory", err)
	}
	return filepath.Join(dir, "hivectl", defaultFileName), nil
}

// Load reads and parses the config file.
//
// Errors:
//
//    - hivectl-error-config -- file missing, unreadable, or not valid JSON
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, hiveapi.ErrorConfig("no configuration file found; did you log into a hive cloud instance?", err)
		}
		return nil, hiveapi.ErrorConfig("cannot read configuration file", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, hiveapi.ErrorConfig("configuration file is not valid JSON", err)
	}
	if cfg.Registry == "" {
		return nil, hiveapi.ErrorConfig("configuration file has no registry url", nil)
	}
	return &cfg, nil
}

// Save persists the config as a whole-file replace. The write goes to a
// sibling temp file first and is moved into place, so a concurrent reader
// never observes a torn file. No locking: concurrent writers race and the
// last one wins.
//
// Errors:
//
//    - hivectl-error-io -- directory creation or file write failed
func (cfg *Config) Save(path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return hiveapi.ErrorIo("cannot serialize configuration", path, err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return hiveapi.ErrorIo("cannot create configuration directory", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hivectl-config-*")
	if err != nil {
		return hiveapi.ErrorIo("cannot create temp file for configuration", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return hiveapi.ErrorIo("cannot set configuration file mode", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return hiveapi.ErrorIo("cannot write configuration", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return hiveapi.ErrorIo("cannot flush configuration", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return hiveapi.ErrorIo("cannot move configuration into place", path, err)
	}
	return nil
}
