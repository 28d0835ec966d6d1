package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// NewID32 returns exactly 32 lowercase hex characters (a v4 UUID without hyphens).
func NewID32() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewTransactionID returns a prefixed, globally unique payment reference.
func NewTransactionID() string {
	return "TXN-" + strings.ToUpper(NewID32()[:20])
}

var appNumberSpace = big.NewInt(100_000_000)

// ApplicationNumber returns a human-facing reference such as "LA04821937".
// Uniqueness is enforced by the storage index, not here.
func ApplicationNumber() string {
	n, err := rand.Int(rand.Reader, appNumberSpace)
	if err != nil {
		// crypto/rand does not fail on supported platforms; fall back to uuid bits.
		return "LA" + NewID32()[:8]
	}
	return fmt.Sprintf("LA%08d", n.Int64())
}

// InstallmentID derives the public id of the seq-th installment of an application.
// Deterministic so a regenerated schedule keeps the same ids.
func InstallmentID(applicationID string, seq int) string {
	return fmt.Sprintf("%s-%03d", applicationID, seq)
}
