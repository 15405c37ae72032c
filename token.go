package careauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the subset of access-token claims the client reads. The
// client holds no verification keys; claims are parsed unverified and used
// only for local bookkeeping (expiry scheduling, subject fallback). The
// server remains the authority on token validity.
type tokenClaims struct {
	Subject string
	Expiry  time.Time
}

func parseTokenClaims(token string) (tokenClaims, error) {
	var out tokenClaims

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return out, err
	}

	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Expiry = exp.Time
	}
	return out, nil
}

// tokensFromResponse builds the token pair from a wire response, filling
// expiries from JWT claims when the response omits explicit timestamps.
func tokensFromResponse(resp *LoginResponse) Tokens {
	tokens := Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.AccessExpiresAt > 0 {
		tokens.AccessExpiry = time.Unix(resp.AccessExpiresAt, 0)
	} else if claims, err := parseTokenClaims(resp.AccessToken); err == nil {
		tokens.AccessExpiry = claims.Expiry
	}
	if resp.RefreshExpiresAt > 0 {
		tokens.RefreshExpiry = time.Unix(resp.RefreshExpiresAt, 0)
	}
	return tokens
}
