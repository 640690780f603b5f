package booking

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// NewPNR returns 8 uppercase hex characters from 4 random bytes. Uniqueness
// is left to the ledger.
func NewPNR() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
