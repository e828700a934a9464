// Package vault keeps a directory of EIP-2335 keystores and the keys
// unlocked from it
package vault

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/crypto/bls/coord"
	"github.com/signatory-io/bls-core/crypto/keystore"
	"github.com/signatory-io/bls-core/logger"
)

var (
	ErrLocked   = errors.New("locked")
	ErrNotFound = errors.New("key not found")
	ErrDecrypt  = errors.New("can't decrypt secret key")
)

type decryptError struct {
	error
}

func (d decryptError) Is(target error) bool { return target == ErrDecrypt }
func (d decryptError) Unwrap() error        { return d.error }

// PasswordManager supplies keystore passwords
type PasswordManager interface {
	GetPassword(ctx context.Context, pub *bls.PublicKey) ([]byte, error)
}

// Dir is a directory of *.json keystores
type Dir struct {
	dir      string
	conf     *bls.Config
	log      logger.Logger
	unlocked map[string]*bls.SecretKey
	mtx      sync.RWMutex
}

func New(dir string, conf *bls.Config, log logger.Logger) (*Dir, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	if conf == nil {
		conf = bls.DefaultConfig()
	}
	return &Dir{
		dir:      dir,
		conf:     conf,
		log:      logger.OrNop(log).With("vault", dir),
		unlocked: make(map[string]*bls.SecretKey),
	}, nil
}

func (d *Dir) Name() string { return fmt.Sprintf("local/%s", d.dir) }

// Key is a keystore found in the directory
type Key struct {
	file string
	ks   *keystore.Keystore
	pub  *bls.PublicKey
	d    *Dir
}

func (k *Key) File() string                 { return k.file }
func (k *Key) Path() string                 { return k.ks.Path }
func (k *Key) Description() string          { return k.ks.Description }
func (k *Key) PublicKey() *bls.PublicKey    { return k.pub }
func (k *Key) Keystore() *keystore.Keystore { return k.ks }

func (k *Key) IsLocked() bool {
	k.d.mtx.RLock()
	defer k.d.mtx.RUnlock()
	_, ok := k.d.unlocked[k.ks.Pubkey]
	return !ok
}

func (k *Key) decrypt(ctx context.Context, pm PasswordManager) (*bls.SecretKey, error) {
	if pm == nil {
		return nil, ErrLocked
	}
	pwd, err := pm.GetPassword(ctx, k.pub)
	if err != nil {
		return nil, err
	}
	defer clear(pwd)
	sk, err := k.ks.Decrypt(pwd)
	if err != nil {
		if errors.Is(err, keystore.ErrChecksum) {
			return nil, decryptError{error: err}
		}
		return nil, err
	}
	return sk, nil
}

// Unlock decrypts the key and keeps it in memory until Close
func (k *Key) Unlock(ctx context.Context, pm PasswordManager) error {
	if !k.IsLocked() {
		return nil
	}
	sk, err := k.decrypt(ctx, pm)
	if err != nil {
		return err
	}
	k.d.mtx.Lock()
	defer k.d.mtx.Unlock()
	if _, ok := k.d.unlocked[k.ks.Pubkey]; ok {
		sk.Zeroize()
		return nil
	}
	k.d.unlocked[k.ks.Pubkey] = sk
	k.d.log.With("pubkey", k.pub).Info("Key unlocked")
	return nil
}

// Sign signs msg with the unlocked key. A locked key is decrypted for this
// call only using pm.
func (k *Key) Sign(ctx context.Context, msg []byte, pm PasswordManager) (*bls.Signature, error) {
	if sig, ok, err := k.signUnlocked(msg); ok {
		return sig, err
	}
	sk, err := k.decrypt(ctx, pm)
	if err != nil {
		return nil, err
	}
	defer sk.Zeroize()
	return sk.Sign(k.d.conf, msg)
}

// signUnlocked signs with the cached key. The read lock is held while signing
// so Close can't wipe the scalar in use.
func (k *Key) signUnlocked(msg []byte) (*bls.Signature, bool, error) {
	k.d.mtx.RLock()
	defer k.d.mtx.RUnlock()
	sk, ok := k.d.unlocked[k.ks.Pubkey]
	if !ok {
		return nil, false, nil
	}
	sig, err := sk.Sign(k.d.conf, msg)
	return sig, true, err
}

func (d *Dir) readKey(name string) (*Key, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	ks, err := keystore.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	pub, err := bls.PublicKeyFromHex(ks.Pubkey, coord.Affine)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ks.Pubkey = strings.TrimPrefix(pub.Hex(), "0x")
	return &Key{file: name, ks: ks, pub: pub, d: d}, nil
}

type KeyIterator interface {
	Keys() iter.Seq[*Key]
	Err() error
}

type errIter struct {
	err error
}

func (e errIter) Keys() iter.Seq[*Key] { return func(func(*Key) bool) {} }
func (e errIter) Err() error           { return e.err }

type keyIter struct {
	d       *Dir
	entries []os.DirEntry
	err     error
}

func (it *keyIter) Err() error { return it.err }
func (it *keyIter) Keys() iter.Seq[*Key] {
	return func(yield func(*Key) bool) {
		if it.err != nil {
			return
		}
		for _, entry := range it.entries {
			if !entry.Type().IsRegular() || filepath.Ext(entry.Name()) != ".json" {
				continue
			}
			var key *Key
			if key, it.err = it.d.readKey(filepath.Join(it.d.dir, entry.Name())); it.err != nil {
				return
			}
			if !yield(key) {
				break
			}
		}
	}
}

// List iterates over the keystores. Iteration stops at the first unreadable file.
func (d *Dir) List(ctx context.Context) KeyIterator {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return errIter{err: err}
	}
	return &keyIter{d: d, entries: entries}
}

// Get looks up the key by its public key
func (d *Dir) Get(ctx context.Context, pub *bls.PublicKey) (*Key, error) {
	it := d.List(ctx)
	for k := range it.Keys() {
		if k.pub.Equal(pub) {
			return k, nil
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%v: %w", pub, ErrNotFound)
}

// Close forgets all unlocked keys
func (d *Dir) Close(ctx context.Context) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	for pkh, sk := range d.unlocked {
		sk.Zeroize()
		delete(d.unlocked, pkh)
	}
	return nil
}
