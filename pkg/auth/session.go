package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/hivetools/hivectl/hiveapi"
	"github.com/hivetools/hivectl/pkg/config"
	"github.com/hivetools/hivectl/pkg/logging"
)

// Session validates the stored token record before any authenticated call.
// It is invoked exactly once per CLI invocation, ahead of the first resource
// call; a single invocation never straddles a refresh boundary after that.
type Session struct {
	Config *config.Config
	HTTP   *http.Client     // nil means http.DefaultClient
	Now    func() time.Time // nil means time.Now; tests pin this
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Session) httpClient() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return http.DefaultClient
}

// EnsureValid makes sure the access token in the config snapshot is usable.
// If it is, this is a no-op and no network traffic happens. If it has
// expired and a refresh token is stored, the refresh grant is exchanged at
// the identity provider's token endpoint and the record in s.Config is
// replaced (including a rotated refresh token when the provider returns
// one). The caller persists the config when changed is true.
//
// Errors:
//
//    - hivectl-error-auth -- token expired and refresh is impossible or was rejected
func (s *Session) EnsureValid(ctx context.Context) (changed bool, err error) {
	logger := logging.Ctx(ctx)
	if s.Config.Token.Usable(s.now()) {
		logger.Debug("auth", "access token still valid, no refresh needed")
		return false, nil
	}
	if s.Config.Token.RefreshToken == "" {
		return false, hiveapi.ErrorAuth("access token expired and no refresh token is stored; please run `hivectl login` again", nil)
	}
	if s.Config.Auth.TokenEndpoint == "" {
		return false, hiveapi.ErrorAuth("no token endpoint recorded in the configuration; please run `hivectl login` again", nil)
	}
	logger.Info("auth", "access token expired, refreshing")

	oc := oauth2.Config{
		ClientID: s.Config.Auth.ClientID,
		Endpoint: oauth2.Endpoint{TokenURL: s.Config.Auth.TokenEndpoint},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient())
	tok, err := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: s.Config.Token.RefreshToken}).Token()
	if err != nil {
		return false, hiveapi.ErrorAuth("could not refresh the access token; please run `hivectl login` again", err)
	}

	rec := hiveapi.TokenRecord{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if rec.RefreshToken == "" {
		// provider did not rotate; keep the one we have
		rec.RefreshToken = s.Config.Token.RefreshToken
	}
	s.Config.Token = rec
	return true, nil
}
