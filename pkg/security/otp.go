package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

type OTPGenerator struct {
	digits int
}

func NewOTPGenerator() *OTPGenerator {
	return &OTPGenerator{digits: 6}
}

// Generate returns a zero-padded numeric code drawn from crypto/rand. Codes
// never start with a zero so they survive clients that treat them as numbers.
func (g *OTPGenerator) Generate() (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.digits-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(low, big.NewInt(10)), low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	return fmt.Sprintf("%0*d", g.digits, n.Add(n, low)), nil
}
