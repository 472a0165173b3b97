package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the holder flag
type SessionClaims struct {
	jwt.RegisteredClaims
	Holder bool `json:"holder"`
}
