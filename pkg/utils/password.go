package utils

import (
	"crypto/rand"
	"math/big"
)

const tempPasswordChars = "abcdefghijkmnpqrstuvwxyz23456789"

// TempPassword generates a random temporary password for provisioned accounts.
func TempPassword(length int) (string, error) {
	if length <= 0 {
		length = 8
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(tempPasswordChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = tempPasswordChars[n.Int64()]
	}
	return string(out), nil
}
