// Package signature verifies EIP-191 personal_sign signatures.
package signature

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/nftgate/core"
	"github.com/layer-3/nftgate/ports"
)

// PersonalVerifier recovers the signer of a personal_sign message
type PersonalVerifier struct{}

var _ ports.SignatureVerifier = PersonalVerifier{}

// NewPersonalVerifier creates a new verifier
func NewPersonalVerifier() PersonalVerifier {
	return PersonalVerifier{}
}

// Verify checks that signature over message was produced by the key behind address
func (PersonalVerifier) Verify(message, signature, address string) error {
	if !core.IsAddress(address) {
		return core.ErrInvalidAddress
	}

	signer, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if signer != common.HexToAddress(address) {
		return fmt.Errorf("signer %s does not match claimed address: %w", signer.Hex(), core.ErrInvalidSignature)
	}
	return nil
}

// RecoverAddress returns the address that signed message with personal_sign.
// Wallets emit V as 27/28, go-ethereum expects 0/1; both are accepted.
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id: %w", core.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
