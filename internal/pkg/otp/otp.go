package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// ErrRandomSource is returned when the random source cannot produce a code.
var ErrRandomSource = errors.New("otp: random source failed")

// OTP generates one-time passcodes that are delivered out-of-band.
type OTP interface {
	// Generate returns a fresh numeric code.
	Generate() (string, error)
}

// Numeric generates 6 digit numeric codes drawn uniformly from
// 0 .. 999999, zero padded. The length matches the validator passcode rule.
type Numeric struct {
	digits otp.Digits
	max    *big.Int
	reader io.Reader
}

// NewNumeric builds a generator backed by crypto/rand.
func NewNumeric() *Numeric {
	return newNumeric(rand.Reader)
}

func newNumeric(reader io.Reader) *Numeric {
	return &Numeric{
		digits: otp.DigitsSix,
		max:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(otp.DigitsSix.Length())), nil),
		reader: reader,
	}
}

// Generate returns a code such as "004271".
//
// rand.Int rejects out-of-range samples instead of reducing modulo max,
// so every code in the space is equally likely.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.reader, n.max)
	if err != nil {
		return "", errors.Join(ErrRandomSource, err)
	}

	return n.digits.Format(int32(v.Int64())), nil
}
