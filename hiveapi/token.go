package hiveapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpirySkew is subtracted from a token's lifetime when deciding whether it
// is still usable, so a request does not leave with a token that dies in
// flight.
const ExpirySkew = 30 * time.Second

// TokenRecord is the persisted credential pair for a registry.
type TokenRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// ExpiresAt reports when the access token stops being usable.
// Prefers the expiry the identity provider reported at issue time; falls back
// to the `exp` claim if the access token happens to be a JWT. Returns the
// zero time when neither source is available.
func (t TokenRecord) ExpiresAt() time.Time {
	if !t.Expiry.IsZero() {
		return t.Expiry
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Usable reports whether the access token can still be attached to a request
// at the given instant. A token with no discoverable expiry is assumed
// usable; the server is the final authority anyway.
func (t TokenRecord) Usable(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	exp := t.ExpiresAt()
	if exp.IsZero() {
		return true
	}
	return now.Add(ExpirySkew).Before(exp)
}
