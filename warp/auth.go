package warp

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/swim-go/swim/item"
)

// BearerCredentials returns the auth body {jwt:token}. The token is
// parsed without verification, which is left to the server, so that an
// expired or malformed token fails here rather than in a deauth.
func BearerCredentials(token string) (item.Value, error) {
	parser := gojwt.NewParser()
	t, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("warp: bearer token: %w", err)
	}
	exp, err := t.Claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("warp: bearer token: %w", err)
	}
	if exp != nil && !exp.After(time.Now()) {
		return nil, fmt.Errorf("warp: bearer token: %w", gojwt.ErrTokenExpired)
	}
	return item.RecordOf(item.TextSlot("jwt", item.Text(token))), nil
}
