package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/serum-errors/go-serum"

	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/config"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// cliFixture is a registry stub plus a config file pointing at it, ready to
// be handed to the command tree through --config.
type cliFixture struct {
	srv        *httptest.Server
	status     int
	body       string
	seen       []seenRequest
	configPath string
	stdout     bytes.Buffer
	stderr     bytes.Buffer
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	fx := &cliFixture{status: http.StatusOK, body: "{}"}
	fx.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		qt.Assert(t, err, qt.IsNil)
		fx.seen = append(fx.seen, seenRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		w.WriteHeader(fx.status)
		io.WriteString(w, fx.body)
	}))
	t.Cleanup(fx.srv.Close)

	fx.configPath = filepath.Join(t.TempDir(), "config.json")
	cfg := &config.Config{
		Registry: fx.srv.URL,
		Token: hiveapi.TokenRecord{
			AccessToken:  "test-access",
			RefreshToken: "test-refresh",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	qt.Assert(t, cfg.Save(fx.configPath), qt.IsNil)
	return fx
}

func (fx *cliFixture) saveConfig(t *testing.T, mutate func(*config.Config)) {
	t.Helper()
	cfg, err := config.Load(fx.configPath)
	qt.Assert(t, err, qt.IsNil)
	mutate(cfg)
	qt.Assert(t, cfg.Save(fx.configPath), qt.IsNil)
}

// run invokes the command tree the way main does, with --config prepended.
func (fx *cliFixture) run(t *testing.T, args ...string) error {
	t.Helper()
	app := makeApp(strings.NewReader(""), &fx.stdout, &fx.stderr)
	argv := append([]string{"hivectl", "--config", fx.configPath}, args...)
	return app.Run(argv)
}

func TestCRUDWireCalls(t *testing.T) {
	for _, tc := range []struct {
		name   string
		args   []string
		method string
		path   string
	}{
		{"create-app", []string{"create", "app", "factory"},
			http.MethodPost, "/api/v1/apps"},
		{"get-app", []string{"get", "app", "factory"},
			http.MethodGet, "/api/v1/apps/factory"},
		{"delete-app", []string{"delete", "app", "factory"},
			http.MethodDelete, "/api/v1/apps/factory"},
		{"create-device", []string{"create", "device", "--app", "factory", "sensor1"},
			http.MethodPost, "/api/v1/apps/factory/devices"},
		{"get-device", []string{"get", "device", "--app", "factory", "sensor1"},
			http.MethodGet, "/api/v1/apps/factory/devices/sensor1"},
		{"delete-device", []string{"delete", "device", "--app", "factory", "sensor1"},
			http.MethodDelete, "/api/v1/apps/factory/devices/sensor1"},
		{"remove-alias", []string{"remove", "app", "factory"},
			http.MethodDelete, "/api/v1/apps/factory"},
		{"add-alias", []string{"add", "app", "factory"},
			http.MethodPost, "/api/v1/apps"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fx := newCLIFixture(t)
			err := fx.run(t, tc.args...)
			qt.Assert(t, err, qt.IsNil)
			qt.Assert(t, fx.seen, qt.HasLen, 1)
			qt.Check(t, fx.seen[0].Method, qt.Equals, tc.method)
			qt.Check(t, fx.seen[0].Path, qt.Equals, tc.path)
			qt.Check(t, fx.seen[0].Auth, qt.Equals, "Bearer test-access")
		})
	}
}

func TestCreateDevicePayload(t *testing.T) {
	fx := newCLIFixture(t)
	err := fx.run(t, "create", "device", "--app", "factory", "--data", `{"temp":1}`, "sensor1")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, fx.seen, qt.HasLen, 1)
	qt.Check(t, string(fx.seen[0].Body), qt.Equals,
		`{"metadata":{"name":"sensor1","application":"factory"},"spec":{"temp":1}}`)
	qt.Check(t, fx.stdout.String(), qt.Contains, `Device "sensor1" created.`)
}

func TestGetPrintsTheRawBody(t *testing.T) {
	fx := newCLIFixture(t)
	fx.body = `{"metadata":{"name":"factory"},"spec":{"x":1}}`
	err := fx.run(t, "get", "app", "factory")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, fx.stdout.String(), qt.Equals, fx.body+"\n")
}

func TestUnknownTokensFailBeforeTheNetwork(t *testing.T) {
	t.Run("unknown-verb", func(t *testing.T) {
		fx := newCLIFixture(t)
		err := fx.run(t, "frobnicate", "app", "factory")
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeUnknownCmd)
		qt.Check(t, fx.seen, qt.HasLen, 0)
		qt.Check(t, exitCodeForError(err), qt.Equals, ExitPreflight)
	})
	t.Run("unknown-resource", func(t *testing.T) {
		fx := newCLIFixture(t)
		err := fx.run(t, "create", "gadget", "factory")
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeUnknownCmd)
		qt.Check(t, fx.seen, qt.HasLen, 0)
	})
	t.Run("bare-verb", func(t *testing.T) {
		fx := newCLIFixture(t)
		err := fx.run(t, "create")
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeValidation)
		qt.Check(t, fx.seen, qt.HasLen, 0)
	})
}

func TestValidationBeforeNetwork(t *testing.T) {
	t.Run("device-without-app", func(t *testing.T) {
		fx := newCLIFixture(t)
		err := fx.run(t, "delete", "device", "sensor1")
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeValidation)
		qt.Check(t, err.Error(), qt.Contains, "missing app argument and no default app")
		qt.Check(t, fx.seen, qt.HasLen, 0)
		qt.Check(t, exitCodeForError(err), qt.Equals, ExitPreflight)
	})
	t.Run("data-that-is-not-json", func(t *testing.T) {
		fx := newCLIFixture(t)
		err := fx.run(t, "create", "device", "--app", "factory", "--data", "{broken", "sensor1")
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeValidation)
		qt.Check(t, fx.seen, qt.HasLen, 0)
	})
	t.Run("missing-id", func(t *testing.T) {
		fx := newCLIFixture(t)
		err := fx.run(t, "create", "app")
		qt.Assert(t, err, qt.IsNotNil)
		qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeValidation)
		qt.Check(t, fx.seen, qt.HasLen, 0)
	})
}

func TestDefaultAppFallback(t *testing.T) {
	t.Run("default-app-is-used-and-announced", func(t *testing.T) {
		fx := newCLIFixture(t)
		fx.saveConfig(t, func(cfg *config.Config) { cfg.DefaultApp = "factory" })
		err := fx.run(t, "get", "device", "sensor1")
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, fx.seen, qt.HasLen, 1)
		qt.Check(t, fx.seen[0].Path, qt.Equals, "/api/v1/apps/factory/devices/sensor1")
		qt.Check(t, fx.stderr.String(), qt.Contains, `Using default app "factory".`)
	})
	t.Run("the-app-flag-beats-the-default", func(t *testing.T) {
		fx := newCLIFixture(t)
		fx.saveConfig(t, func(cfg *config.Config) { cfg.DefaultApp = "factory" })
		err := fx.run(t, "get", "device", "--app", "workshop", "sensor1")
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, fx.seen, qt.HasLen, 1)
		qt.Check(t, fx.seen[0].Path, qt.Equals, "/api/v1/apps/workshop/devices/sensor1")
		qt.Check(t, fx.stderr.String(), qt.Not(qt.Contains), "Using default app")
	})
}

func TestServerRejectionExitsWithCodeThree(t *testing.T) {
	fx := newCLIFixture(t)
	fx.status = http.StatusConflict
	fx.body = `{"message":"name already taken"}`
	err := fx.run(t, "create", "app", "factory")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeServer)
	qt.Check(t, exitCodeForError(err), qt.Equals, ExitRejected)
}

func TestExpiredTokenIsRefreshedTransparently(t *testing.T) {
	fx := newCLIFixture(t)
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh-access","token_type":"bearer","refresh_token":"fresh-refresh","expires_in":3600}`))
	}))
	defer idp.Close()
	fx.saveConfig(t, func(cfg *config.Config) {
		cfg.Auth = config.Endpoints{TokenEndpoint: idp.URL + "/token", ClientID: "hivectl"}
		cfg.Token.Expiry = time.Now().Add(-time.Minute)
	})

	err := fx.run(t, "get", "app", "factory")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, fx.seen, qt.HasLen, 1)
	qt.Check(t, fx.seen[0].Auth, qt.Equals, "Bearer fresh-access")

	// The refreshed record must have been persisted.
	cfg, err := config.Load(fx.configPath)
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, cfg.Token.AccessToken, qt.Equals, "fresh-access")
	qt.Check(t, cfg.Token.RefreshToken, qt.Equals, "fresh-refresh")
}

func TestExpiredTokenWithoutRefreshPathFails(t *testing.T) {
	fx := newCLIFixture(t)
	fx.saveConfig(t, func(cfg *config.Config) {
		cfg.Token.RefreshToken = ""
		cfg.Token.Expiry = time.Now().Add(-time.Minute)
	})
	err := fx.run(t, "get", "app", "factory")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeAuth)
	qt.Check(t, fx.seen, qt.HasLen, 0)
	qt.Check(t, exitCodeForError(err), qt.Equals, ExitPreflight)
}

func TestSendCommandFromTheCLI(t *testing.T) {
	fx := newCLIFixture(t)
	err := fx.run(t, "send", "device", "--app", "factory", "--command", "reboot",
		"--data", `{"when":"now"}`, "sensor1")
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, fx.seen, qt.HasLen, 1)
	qt.Check(t, fx.seen[0].Method, qt.Equals, http.MethodPost)
	qt.Check(t, fx.seen[0].Path, qt.Equals, "/api/command/v1alpha1/apps/factory/devices/sensor1")
	qt.Check(t, fx.seen[0].Query, qt.Equals, "command=reboot")
	qt.Check(t, string(fx.seen[0].Body), qt.Equals, `{"when":"now"}`)
	qt.Check(t, fx.stdout.String(), qt.Contains, `Command "reboot" sent to device "sensor1".`)
}

func TestEditWithFilenameFromTheCLI(t *testing.T) {
	fx := newCLIFixture(t)
	fx.body = `{"metadata":{"name":"factory"},"spec":{}}`
	payload := `{"metadata":{"name":"factory"},"spec":{"floor":2}}`
	file := filepath.Join(t.TempDir(), "payload.json")
	qt.Assert(t, os.WriteFile(file, []byte(payload), 0600), qt.IsNil)

	err := fx.run(t, "edit", "app", "--filename", file, "factory")
	qt.Assert(t, err, qt.IsNil)
	// The mandatory fetch happens before the update.
	qt.Assert(t, fx.seen, qt.HasLen, 2)
	qt.Check(t, fx.seen[0].Method, qt.Equals, http.MethodGet)
	qt.Check(t, fx.seen[1].Method, qt.Equals, http.MethodPut)
	qt.Check(t, fx.seen[1].Path, qt.Equals, "/api/v1/apps/factory")
	qt.Check(t, string(fx.seen[1].Body), qt.Equals, payload)
	qt.Check(t, fx.stdout.String(), qt.Contains, `App "factory" updated.`)
}

func TestTokenCommandPrintsTheAccessToken(t *testing.T) {
	fx := newCLIFixture(t)
	err := fx.run(t, "token")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, fx.stdout.String(), qt.Equals, "test-access\n")
	qt.Check(t, fx.seen, qt.HasLen, 0)
}

func TestVersionCommand(t *testing.T) {
	fx := newCLIFixture(t)
	err := fx.run(t, "version")
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, fx.stdout.String(), qt.Contains, "hivectl "+VERSION)
	qt.Check(t, fx.stdout.String(), qt.Contains, fx.srv.URL)
}

func TestMissingConfigIsAConfigError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := makeApp(strings.NewReader(""), &stdout, &stderr)
	missing := filepath.Join(t.TempDir(), "nope.json")
	err := app.Run([]string{"hivectl", "--config", missing, "get", "app", "factory"})
	qt.Assert(t, err, qt.IsNotNil)
	qt.Check(t, serum.Code(err), qt.Equals, hiveapi.ECodeConfig)
	qt.Check(t, exitCodeForError(err), qt.Equals, ExitPreflight)
}

func TestJSONErrorOutput(t *testing.T) {
	fx := newCLIFixture(t)
	fx.status = http.StatusConflict
	fx.body = `{"message":"name already taken"}`
	err := fx.run(t, "--json", "create", "app", "factory")
	qt.Assert(t, err, qt.IsNotNil)
	qt.Check(t, fx.stderr.String(), qt.Contains, `"code":`)
	qt.Check(t, fx.stderr.String(), qt.Contains, hiveapi.ECodeServer)
}
