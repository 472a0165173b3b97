package tokenizer

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// HolderMarker marks holder tokens and delimits the wallet segment
const HolderMarker = "_nft_"

// DelimitedTokenizer mints the legacy "<secret>_nft_<wallet>_<unix ms>" tokens.
//
// The format carries no signature or expiry, and two tokens minted for the
// same wallet within one millisecond are identical.
type DelimitedTokenizer struct {
	secret string
	now    func() time.Time
}

// NewDelimitedTokenizer creates a new delimited tokenizer
func NewDelimitedTokenizer(secret string) *DelimitedTokenizer {
	return &DelimitedTokenizer{secret: secret, now: time.Now}
}

var _ ports.Tokenizer = (*DelimitedTokenizer)(nil)

// IssueToken builds a holder token. Only holders can be represented.
func (d *DelimitedTokenizer) IssueToken(address string, holder bool) (string, error) {
	if d.secret == "" {
		return "", core.ErrMissingSecret
	}
	if !holder || !strings.HasPrefix(address, "0x") || strings.Contains(address, "_") {
		return "", core.ErrInvalidToken
	}

	ts := strconv.FormatInt(d.now().UnixMilli(), 10)
	return d.secret + HolderMarker + address + "_" + ts, nil
}

// ExtractWallet returns the segment following the marker up to the next
// delimiter, provided it starts with 0x
func (d *DelimitedTokenizer) ExtractWallet(token string) (string, bool) {
	wallet, _, ok := splitToken(token)
	return wallet, ok
}

// IsHolderToken reports whether the token carries a holder marker followed by a wallet
func (d *DelimitedTokenizer) IsHolderToken(token string) bool {
	_, ok := d.ExtractWallet(token)
	return ok
}

// TokenToSession additionally requires the token to start with the server
// secret, so tokens cannot be fabricated from a wallet address alone
func (d *DelimitedTokenizer) TokenToSession(token string) (*core.Session, error) {
	if d.secret == "" {
		return nil, core.ErrMissingSecret
	}

	prefix := d.secret + HolderMarker
	if len(token) < len(prefix) || subtle.ConstantTimeCompare([]byte(token[:len(prefix)]), []byte(prefix)) != 1 {
		return nil, core.ErrInvalidToken
	}

	wallet, rest, ok := splitToken(token[len(d.secret):])
	if !ok {
		return nil, core.ErrInvalidToken
	}

	session := &core.Session{Address: wallet, Holder: true}
	if ms, err := strconv.ParseInt(rest, 10, 64); err == nil {
		session.IssuedAt = time.UnixMilli(ms)
	}
	return session, nil
}

// splitToken locates the marker and returns the wallet segment and whatever
// follows the next delimiter
func splitToken(token string) (wallet, rest string, ok bool) {
	idx := strings.Index(token, HolderMarker)
	if idx == -1 {
		return "", "", false
	}

	after := token[idx+len(HolderMarker):]
	wallet, rest, _ = strings.Cut(after, "_")
	if !strings.HasPrefix(wallet, "0x") {
		return "", "", false
	}
	return wallet, rest, true
}
