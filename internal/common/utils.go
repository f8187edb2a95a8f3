package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MakeRandDigitCode returns a random numeric string of exactly n digits,
// left-padded with zeros. n <= 0 yields an empty string; n must not
// exceed 18 so the value fits into an int64.
func MakeRandDigitCode(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
