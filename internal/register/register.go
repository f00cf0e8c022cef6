// internal/register/register.go
package register

import (
	"errors"
	"fmt"
	"math"
)

// Descriptor describes one scaled register value.
// WordCount selects the encoding: 1 = uint16, 2 = big-endian uint32 (hi, lo).
type Descriptor struct {
	Address   uint16
	Scaling   float64
	WordCount int
}

// ErrUnsupportedWordCount is matched by every ConfigurationError.
var ErrUnsupportedWordCount = errors.New("register: unsupported word count")

// ConfigurationError reports a descriptor that cannot be decoded.
// It is never a device or transport failure.
type ConfigurationError struct {
	Address   uint16
	WordCount int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("register 0x%04X: unsupported word count %d (want 1 or 2)", e.Address, e.WordCount)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrUnsupportedWordCount
}

// Code is the status-block error code for a misconfigured register.
func (e *ConfigurationError) Code() uint16 { return 1 }

// Supported reports whether the word count has a defined encoding.
func (d Descriptor) Supported() bool {
	return d.WordCount == 1 || d.WordCount == 2
}

// Validate rejects descriptors that Decode would not accept.
func (d Descriptor) Validate() error {
	if !d.Supported() {
		return &ConfigurationError{Address: d.Address, WordCount: d.WordCount}
	}
	if math.IsNaN(d.Scaling) || math.IsInf(d.Scaling, 0) {
		return fmt.Errorf("register 0x%04X: scaling must be finite", d.Address)
	}
	return nil
}

// Decode converts raw register words into a scaled engineering value.
// On any error the returned value is NaN.
func Decode(d Descriptor, words []uint16) (float64, error) {
	if !d.Supported() {
		return math.NaN(), &ConfigurationError{Address: d.Address, WordCount: d.WordCount}
	}
	if len(words) != d.WordCount {
		return math.NaN(), fmt.Errorf(
			"register 0x%04X: got %d words, want %d",
			d.Address, len(words), d.WordCount,
		)
	}

	var raw uint32
	switch d.WordCount {
	case 1:
		raw = uint32(words[0])
	case 2:
		raw = uint32(words[0])<<16 | uint32(words[1])
	}

	return float64(raw) * d.Scaling, nil
}
