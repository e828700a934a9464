// Package keystore implements EIP-2335 encrypted BLS secret key files
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/signatory-io/bls-core/crypto/bls"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"
)

const Version = 4

const (
	KDFScrypt = "scrypt"
	KDFPBKDF2 = "pbkdf2"

	cipherAES128CTR = "aes-128-ctr"
	checksumSHA256  = "sha256"
	prfHMACSHA256   = "hmac-sha256"
)

var ErrChecksum = errors.New("keystore: checksum verification failed: incorrect password or corrupted keystore")

type KDFParams struct {
	DKLen int    `json:"dklen"`
	N     int    `json:"n,omitempty"`   // scrypt
	R     int    `json:"r,omitempty"`   // scrypt
	P     int    `json:"p,omitempty"`   // scrypt
	C     int    `json:"c,omitempty"`   // pbkdf2
	PRF   string `json:"prf,omitempty"` // pbkdf2
	Salt  string `json:"salt"`
}

type Module[P any] struct {
	Function string `json:"function"`
	Params   P      `json:"params"`
	Message  string `json:"message"`
}

type CipherParams struct {
	IV string `json:"iv"`
}

type Crypto struct {
	KDF      Module[KDFParams]      `json:"kdf"`
	Checksum Module[map[string]any] `json:"checksum"`
	Cipher   Module[CipherParams]   `json:"cipher"`
}

type Keystore struct {
	Crypto      Crypto `json:"crypto"`
	Description string `json:"description,omitempty"`
	Pubkey      string `json:"pubkey"`
	Path        string `json:"path"`
	UUID        string `json:"uuid"`
	Version     int    `json:"version"`
}

func Parse(data []byte) (*Keystore, error) {
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("keystore: failed to parse: %w", err)
	}
	if ks.Version != Version {
		return nil, fmt.Errorf("keystore: unsupported version: %d", ks.Version)
	}
	return &ks, nil
}

func (k *Keystore) Marshal() ([]byte, error) {
	return json.MarshalIndent(k, "", "  ")
}

// ProcessPassword applies NFKD normalization and strips control codes
func ProcessPassword(password []byte) []byte {
	normalized := norm.NFKD.Bytes(password)
	return []byte(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, string(normalized)))
}

func (k *Keystore) deriveKey(password []byte) ([]byte, error) {
	params := &k.Crypto.KDF.Params
	salt, err := hex.DecodeString(params.Salt)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to decode salt: %w", err)
	}
	if params.DKLen < 32 {
		return nil, fmt.Errorf("keystore: derived key is too short: %d", params.DKLen)
	}
	switch k.Crypto.KDF.Function {
	case KDFScrypt:
		key, err := scrypt.Key(password, salt, params.N, params.R, params.P, params.DKLen)
		if err != nil {
			return nil, fmt.Errorf("keystore: scrypt key derivation failed: %w", err)
		}
		return key, nil
	case KDFPBKDF2:
		if params.PRF != prfHMACSHA256 {
			return nil, fmt.Errorf("keystore: unsupported PRF: %s", params.PRF)
		}
		return pbkdf2.Key(password, salt, params.C, params.DKLen, sha256.New), nil
	default:
		return nil, fmt.Errorf("keystore: unsupported KDF function: %s", k.Crypto.KDF.Function)
	}
}

func checksum(decryptionKey, cipherMessage []byte) []byte {
	h := sha256.New()
	h.Write(decryptionKey[16:32])
	h.Write(cipherMessage)
	return h.Sum(nil)
}

func aes128CTR(key, iv, src []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to create AES cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("keystore: invalid IV length: %d", len(iv))
	}
	out := make([]byte, len(src))
	cipher.NewCTR(block, iv).XORKeyStream(out, src)
	return out, nil
}

// Decrypt returns the secret key. If the keystore carries a public key it must
// match the decrypted secret.
func (k *Keystore) Decrypt(password []byte) (*bls.SecretKey, error) {
	if k.Crypto.Checksum.Function != checksumSHA256 {
		return nil, fmt.Errorf("keystore: unsupported checksum function: %s", k.Crypto.Checksum.Function)
	}
	if k.Crypto.Cipher.Function != cipherAES128CTR {
		return nil, fmt.Errorf("keystore: unsupported cipher function: %s", k.Crypto.Cipher.Function)
	}

	decryptionKey, err := k.deriveKey(ProcessPassword(password))
	if err != nil {
		return nil, err
	}
	defer clear(decryptionKey)

	cipherMessage, err := hex.DecodeString(k.Crypto.Cipher.Message)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to decode cipher message: %w", err)
	}
	sum, err := hex.DecodeString(k.Crypto.Checksum.Message)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to decode checksum: %w", err)
	}
	if subtle.ConstantTimeCompare(checksum(decryptionKey, cipherMessage), sum) != 1 {
		return nil, ErrChecksum
	}

	iv, err := hex.DecodeString(k.Crypto.Cipher.Params.IV)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to decode IV: %w", err)
	}
	secret, err := aes128CTR(decryptionKey[:16], iv, cipherMessage)
	if err != nil {
		return nil, err
	}
	defer clear(secret)

	sk, err := bls.SecretKeyFromBytes(secret)
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}

	if k.Pubkey != "" {
		pub, err := sk.PublicKey()
		if err != nil {
			return nil, fmt.Errorf("keystore: %w", err)
		}
		expected, err := hex.DecodeString(strings.TrimPrefix(k.Pubkey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("keystore: failed to decode public key: %w", err)
		}
		if derived := pub.Bytes(); subtle.ConstantTimeCompare(derived, expected) != 1 {
			return nil, fmt.Errorf("keystore: public key mismatch: derived %x, keystore %x", derived, expected)
		}
	}
	return sk, nil
}

type Options struct {
	KDF         string
	ScryptN     int
	PBKDF2C     int
	Path        string
	Description string
	Rand        io.Reader
}

var DefaultOptions = Options{
	KDF:     KDFScrypt,
	ScryptN: 1 << 18,
	PBKDF2C: 1 << 18,
}

// Encrypt produces a version 4 keystore for sk
func Encrypt(sk *bls.SecretKey, password []byte, opts *Options) (*Keystore, error) {
	if opts == nil {
		opts = &DefaultOptions
	}
	r := opts.Rand
	if r == nil {
		r = rand.Reader
	}
	secret := sk.Bytes()
	if secret == nil {
		return nil, fmt.Errorf("keystore: %w", bls.ErrNotInitialized)
	}
	defer clear(secret)
	pub, err := sk.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}

	var salt [32]byte
	var iv [aes.BlockSize]byte
	if _, err := io.ReadFull(r, salt[:]); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}
	if _, err := io.ReadFull(r, iv[:]); err != nil {
		return nil, fmt.Errorf("keystore: %w", err)
	}

	ks := Keystore{
		Description: opts.Description,
		Pubkey:      hex.EncodeToString(pub.Bytes()),
		Path:        opts.Path,
		UUID:        uuid.NewString(),
		Version:     Version,
	}
	ks.Crypto.KDF.Function = opts.KDF
	ks.Crypto.KDF.Params = KDFParams{DKLen: 32, Salt: hex.EncodeToString(salt[:])}
	switch opts.KDF {
	case KDFScrypt:
		ks.Crypto.KDF.Params.N = opts.ScryptN
		ks.Crypto.KDF.Params.R = 8
		ks.Crypto.KDF.Params.P = 1
	case KDFPBKDF2:
		ks.Crypto.KDF.Params.C = opts.PBKDF2C
		ks.Crypto.KDF.Params.PRF = prfHMACSHA256
	default:
		return nil, fmt.Errorf("keystore: unsupported KDF function: %s", opts.KDF)
	}

	decryptionKey, err := ks.deriveKey(ProcessPassword(password))
	if err != nil {
		return nil, err
	}
	defer clear(decryptionKey)

	cipherMessage, err := aes128CTR(decryptionKey[:16], iv[:], secret)
	if err != nil {
		return nil, err
	}
	ks.Crypto.Cipher = Module[CipherParams]{
		Function: cipherAES128CTR,
		Params:   CipherParams{IV: hex.EncodeToString(iv[:])},
		Message:  hex.EncodeToString(cipherMessage),
	}
	ks.Crypto.Checksum = Module[map[string]any]{
		Function: checksumSHA256,
		Params:   map[string]any{},
		Message:  hex.EncodeToString(checksum(decryptionKey, cipherMessage)),
	}
	return &ks, nil
}
