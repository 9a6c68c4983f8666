package rooms

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// Codes are human-typeable four digit numbers.
const (
	minCode = 1000
	maxCode = 9999
)

func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+minCode, 10), nil
}
