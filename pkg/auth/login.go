package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/config"
	"github.com/hivetools/hivectl/pkg/logging"
)

// WellKnownPath is where a hive cloud instance describes its identity
// provider. The document carries the authorization and token endpoints and,
// optionally, the public client id the CLI should use.
const WellKnownPath = "/.well-known/hive-endpoints"

const defaultClientID = "hivectl"

type endpointDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id,omitempty"`
}

// LoginFlow runs the interactive browser login against a hive cloud
// instance. On success it returns a fully populated Config, which the caller
// persists (idempotently overwriting any prior stored config).
type LoginFlow struct {
	HTTP *http.Client // nil means http.DefaultClient

	// OpenURL presents the authorization URL to the user. Defaults to
	// opening the system browser; tests point it at the fake provider.
	OpenURL func(url string) error

	// ListenHost is the interface the one-shot callback server binds to.
	// Defaults to 127.0.0.1 with an ephemeral port.
	ListenHost string
}

func (f *LoginFlow) httpClient() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return http.DefaultClient
}

func (f *LoginFlow) openURL(url string) error {
	if f.OpenURL != nil {
		return f.OpenURL(url)
	}
	return browser.OpenURL(url)
}

type callbackResult struct {
	code  string
	state string
	err   error
}

// Run performs endpoint discovery, the authorization-code exchange, and
// returns the resulting configuration.
//
// Errors:
//
//    - hivectl-error-transport -- the instance or its identity provider is unreachable
//    - hivectl-error-server -- the instance rejected the discovery request
//    - hivectl-error-auth -- the authorization flow failed or was tampered with
func (f *LoginFlow) Run(ctx context.Context, apiURL string) (*config.Config, error) {
	logger := logging.Ctx(ctx)
	apiURL = strings.TrimRight(apiURL, "/")

	doc, err := f.discover(ctx, apiURL)
	if err != nil {
		return nil, err
	}
	clientID := doc.ClientID
	if clientID == "" {
		clientID = defaultClientID
	}
	logger.Debug("login", "authorization endpoint: %s", doc.AuthorizationEndpoint)
	logger.Debug("login", "token endpoint: %s", doc.TokenEndpoint)

	host := f.ListenHost
	if host == "" {
		host = "127.0.0.1"
	}
	listener, err := net.Listen("tcp", host+":0")
	if err != nil {
		return nil, hiveapi.ErrorAuth("cannot open a local port for the login callback", err)
	}
	defer listener.Close()

	oc := oauth2.Config{
		ClientID:    clientID,
		RedirectURL: fmt.Sprintf("http://%s/callback", listener.Addr().String()),
		Endpoint: oauth2.Endpoint{
			AuthURL:  doc.AuthorizationEndpoint,
			TokenURL: doc.TokenEndpoint,
		},
	}
	state := uuid.NewString()
	authURL := oc.AuthCodeURL(state)

	results := make(chan callbackResult, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/callback" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if errName := q.Get("error"); errName != "" {
			fmt.Fprintln(w, "Login failed. You can close this window.")
			results <- callbackResult{err: fmt.Errorf("%s: %s", errName, q.Get("error_description"))}
			return
		}
		fmt.Fprintln(w, "Login successful. You can close this window.")
		results <- callbackResult{code: q.Get("code"), state: q.Get("state")}
	})}
	go server.Serve(listener)
	defer server.Shutdown(context.Background())

	logger.Out("Opening your browser to complete the login.")
	logger.Out("If nothing happens, visit:\n\n    %s\n", authURL)
	if err := f.openURL(authURL); err != nil {
		logger.Debug("login", "could not open browser: %s", err)
	}

	var result callbackResult
	select {
	case result = <-results:
	case <-ctx.Done():
		return nil, hiveapi.ErrorAuth("login aborted", ctx.Err())
	}
	if result.err != nil {
		return nil, hiveapi.ErrorAuth("the identity provider reported an error", result.err)
	}
	if result.state != state {
		return nil, hiveapi.ErrorAuth("login callback state mismatch; aborting", nil)
	}

	exctx := context.WithValue(ctx, oauth2.HTTPClient, f.httpClient())
	tok, err := oc.Exchange(exctx, result.code)
	if err != nil {
		return nil, hiveapi.ErrorAuth("could not exchange the authorization code for a token", err)
	}

	return &config.Config{
		Registry: apiURL,
		Auth: config.Endpoints{
			AuthorizationEndpoint: doc.AuthorizationEndpoint,
			TokenEndpoint:         doc.TokenEndpoint,
			ClientID:              clientID,
		},
		Token: hiveapi.TokenRecord{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			Expiry:       tok.Expiry,
		},
	}, nil
}

// discover fetches the well-known endpoint document from the instance.
//
// Errors:
//
//    - hivectl-error-transport -- the instance is unreachable
//    - hivectl-error-server -- the instance answered with a non-2xx status
//    - hivectl-error-auth -- the document is malformed or incomplete
func (f *LoginFlow) discover(ctx context.Context, apiURL string) (*endpointDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+WellKnownPath, nil)
	if err != nil {
		return nil, hiveapi.ErrorAuth("cannot build discovery request", err)
	}
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return nil, hiveapi.ErrorTransport("cannot reach the hive cloud instance", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, hiveapi.ErrorServer(resp.Status, "endpoint discovery failed")
	}
	var doc endpointDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, hiveapi.ErrorAuth("cannot parse the endpoint document", err)
	}
	if doc.AuthorizationEndpoint == "" || doc.TokenEndpoint == "" {
		return nil, hiveapi.ErrorAuth("the endpoint document is missing the authorization or token endpoint", nil)
	}
	return &doc, nil
}
