package trade

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	orderNumberPrefix = "PO"
	orderSuffixLength = 9
	base36Alphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewOrderNumber derives a candidate order number of the form
// PO-<unix millis>-<9 base36 characters>. Uniqueness is guaranteed by the
// storage constraint, not by this function.
func NewOrderNumber(now time.Time) (string, error) {
	suffix := make([]byte, orderSuffixLength)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		suffix[i] = base36Alphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%d-%s", orderNumberPrefix, now.UnixMilli(), suffix), nil
}
