package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

const AudienceSession = "nftgate:session"

// JWTTokenizer implements the Tokenizer interface with HS256 tokens keyed by
// the server session secret
type JWTTokenizer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer. An empty secret is accepted so
// the gate can start; issuance then fails with core.ErrMissingSecret.
func NewJWTTokenizer(secret, issuer string, ttl time.Duration) *JWTTokenizer {
	return &JWTTokenizer{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// IssueToken signs a session token for the wallet
func (j *JWTTokenizer) IssueToken(address string, holder bool) (string, error) {
	if len(j.secret) == 0 {
		return "", core.ErrMissingSecret
	}

	now := j.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   address,
			Audience:  jwt.ClaimStrings{AudienceSession},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Holder: holder,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// TokenToSession verifies signature, issuer, audience and expiry, then
// returns the identity carried by the token
func (j *JWTTokenizer) TokenToSession(tokenStr string) (*core.Session, error) {
	if len(j.secret) == 0 {
		return nil, core.ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithAudience(AudienceSession),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to parse token: %w", core.ErrInvalidToken)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type: %w", core.ErrInvalidToken)
	}
	if !strings.HasPrefix(claims.Subject, "0x") {
		return nil, fmt.Errorf("subject is not a wallet address: %w", core.ErrInvalidToken)
	}

	session := &core.Session{
		ID:        claims.ID,
		Address:   claims.Subject,
		Holder:    claims.Holder,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}

	return session, nil
}

// ExtractWallet returns the wallet of a valid token
func (j *JWTTokenizer) ExtractWallet(tokenStr string) (string, bool) {
	session, err := j.TokenToSession(tokenStr)
	if err != nil {
		return "", false
	}
	return session.Address, true
}

// IsHolderToken reports whether a valid token was minted for an NFT holder
func (j *JWTTokenizer) IsHolderToken(tokenStr string) bool {
	session, err := j.TokenToSession(tokenStr)
	if err != nil {
		return false
	}
	return session.Holder
}
