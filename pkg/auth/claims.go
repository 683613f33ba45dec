package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Subject string
	Email   string
	Role    string
	JTI     string
}

// AccessTokenClaims is the shape of tokens issued by the hosted auth
// provider. The admin role travels in app_metadata.
type AccessTokenClaims struct {
	Email       string      `json:"email,omitempty"`
	Role        string      `json:"role,omitempty"`
	AppMetadata AppMetadata `json:"app_metadata"`
	jwt.RegisteredClaims
}

type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// EffectiveRole prefers the application role over the provider's generic
// role claim ("authenticated").
func (c *AccessTokenClaims) EffectiveRole() string {
	if c == nil {
		return ""
	}
	if c.AppMetadata.Role != "" {
		return c.AppMetadata.Role
	}
	return c.Role
}
