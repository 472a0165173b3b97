package core

import "strings"

// ChallengePrefix is the literal every login message must contain
const ChallengePrefix = "Login to OSINT HUB with wallet:"

// ChallengeMessage returns the message a wallet signs to log in
func ChallengeMessage(address string) string {
	return ChallengePrefix + " " + address
}

// ValidateChallenge performs the structural check on a signed login message.
// It does not verify the signature itself.
func ValidateChallenge(message, claimedAddress string) bool {
	if claimedAddress == "" || !strings.Contains(message, ChallengePrefix) {
		return false
	}
	return strings.Contains(strings.ToLower(message), strings.ToLower(claimedAddress))
}
