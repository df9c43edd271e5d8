package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/hivetools/hivectl/hiveapi"
)

func TestResolvePath(t *testing.T) {
	t.Run("flag-wins", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/from/env.json")
		p, err := ResolvePath("/from/flag.json")
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, p, qt.Equals, "/from/flag.json")
	})
	t.Run("env-beats-default", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/from/env.json")
		p, err := ResolvePath("")
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, p, qt.Equals, "/from/env.json")
	})
	t.Run("default-is-in-the-user-config-dir", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		p, err := ResolvePath("")
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, filepath.Base(p), qt.Equals, "config.json")
		qt.Check(t, filepath.Base(filepath.Dir(p)), qt.Equals, "hivectl")
	})
}

func TestLoad(t *testing.T) {
	t.Run("missing-file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeConfig)
	})
	t.Run("not-json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		qt.Assert(t, os.WriteFile(path, []byte("registry_url: nope"), 0600), qt.IsNil)
		_, err := Load(path)
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeConfig)
	})
	t.Run("no-registry-url", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		qt.Assert(t, os.WriteFile(path, []byte(`{}`), 0600), qt.IsNil)
		_, err := Load(path)
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeConfig)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeper", "config.json")
	cfg := &Config{
		Registry: "https://hive.example.com",
		Auth: Endpoints{
			AuthorizationEndpoint: "https://sso.example.com/auth",
			TokenEndpoint:         "https://sso.example.com/token",
			ClientID:              "hivectl",
		},
		Token: hiveapi.TokenRecord{
			AccessToken:  "access",
			RefreshToken: "refresh",
			Expiry:       time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC),
		},
		DefaultApp: "factory",
	}
	qt.Assert(t, cfg.Save(path), qt.IsNil)

	t.Run("file-mode-is-owner-only", func(t *testing.T) {
		info, err := os.Stat(path)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, info.Mode().Perm(), qt.Equals, os.FileMode(0600))
	})

	t.Run("loads-back-identically", func(t *testing.T) {
		got, err := Load(path)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, got, qt.DeepEquals, cfg)
	})

	t.Run("save-is-a-whole-file-replace", func(t *testing.T) {
		smaller := &Config{Registry: "https://other.example.com"}
		qt.Assert(t, smaller.Save(path), qt.IsNil)
		got, err := Load(path)
		qt.Assert(t, err, qt.IsNil)
		qt.Check(t, got, qt.DeepEquals, smaller)
	})
}
