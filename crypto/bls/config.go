package bls

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	SecretKeyLength = 32

	PublicKeyLengthCompressed   = 48
	PublicKeyLengthUncompressed = 96
	SignatureLengthCompressed   = 96
	SignatureLengthUncompressed = 192

	MinRandBytes     = 8
	MaxRandBytes     = 16
	DefaultRandBytes = MinRandBytes
)

// DST is the proof of possession ciphersuite tag used by Ethereum consensus
const DST = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_"

// Config is built once and shared by reference. It must not be modified after
// it has been passed to any operation.
type Config struct {
	// DST is the domain separation tag used for every hash-to-curve call
	DST []byte
	// Rand is the CSPRNG used for key generation and batch verification blinding
	Rand io.Reader
	// RandBytes is the size of per-set blinding scalars, between MinRandBytes and MaxRandBytes
	RandBytes int
}

var defaultConfig = Config{
	DST:       []byte(DST),
	Rand:      rand.Reader,
	RandBytes: DefaultRandBytes,
}

// DefaultConfig returns the process wide default configuration
func DefaultConfig() *Config { return &defaultConfig }

func NewConfig(dst string, randBytes int) (*Config, error) {
	conf := Config{
		DST:       []byte(dst),
		Rand:      rand.Reader,
		RandBytes: randBytes,
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

func (c *Config) Validate() error {
	if len(c.DST) == 0 {
		return fmt.Errorf("bls: empty domain separation tag")
	}
	if len(c.DST) > 255 {
		return fmt.Errorf("bls: domain separation tag is too long: %d", len(c.DST))
	}
	if c.Rand == nil {
		return fmt.Errorf("bls: random source is not set")
	}
	if c.RandBytes < MinRandBytes || c.RandBytes > MaxRandBytes {
		return fmt.Errorf("bls: blinding scalar size must be between %d and %d bytes, got %d", MinRandBytes, MaxRandBytes, c.RandBytes)
	}
	return nil
}

func confOrDefault(c *Config) *Config {
	if c == nil {
		return &defaultConfig
	}
	return c
}
