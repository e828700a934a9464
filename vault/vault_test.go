package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/crypto/keystore"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type dummyPM struct {
	cnt    int
	secret []byte
}

func (d *dummyPM) GetPassword(ctx context.Context, pub *bls.PublicKey) ([]byte, error) {
	d.cnt++
	return bytes.Clone(d.secret), nil
}

func writeKey(t *testing.T, dir string, name string, seed byte, password string) *bls.PublicKey {
	t.Helper()
	sk, err := bls.KeyGen(nil, bytes.Repeat([]byte{seed}, 32), "")
	require.NoError(t, err)
	ks, err := keystore.Encrypt(sk, []byte(password), &keystore.Options{KDF: keystore.KDFPBKDF2, PBKDF2C: 1024})
	require.NoError(t, err)
	data, err := ks.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0600))
	pub, err := sk.PublicKey()
	require.NoError(t, err)
	return pub
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	pub1 := writeKey(t, dir, "a.json", 1, "pw")
	pub2 := writeKey(t, dir, "b.json", 2, "pw")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("workers: 1\n"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0700))

	v, err := New(dir, nil, nil)
	require.NoError(t, err)

	var keys []*bls.PublicKey
	it := v.List(context.Background())
	for k := range it.Keys() {
		require.True(t, k.IsLocked())
		keys = append(keys, k.PublicKey())
	}
	require.NoError(t, it.Err())
	require.Len(t, keys, 2)
	require.True(t, keys[0].Equal(pub1))
	require.True(t, keys[1].Equal(pub2))

	_, err = v.Get(context.Background(), writeKey(t, t.TempDir(), "c.json", 3, "pw"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0600))
	it = v.List(context.Background())
	for range it.Keys() {
	}
	require.Error(t, it.Err())

	_, err = New(filepath.Join(dir, "a.json"), nil, nil)
	require.Error(t, err)
}

func TestUnlockSign(t *testing.T) {
	dir := t.TempDir()
	pub := writeKey(t, dir, "key.json", 1, "passwd")

	v, err := New(dir, nil, nil)
	require.NoError(t, err)
	key, err := v.Get(context.Background(), pub)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "key.json"), key.File())

	_, err = key.Sign(context.Background(), []byte("msg"), nil)
	require.ErrorIs(t, err, ErrLocked)

	wrong := dummyPM{secret: []byte("wrong")}
	require.ErrorIs(t, key.Unlock(context.Background(), &wrong), ErrDecrypt)
	require.True(t, key.IsLocked())

	pm := dummyPM{secret: []byte("passwd")}
	sig, err := key.Sign(context.Background(), []byte("msg"), &pm)
	require.NoError(t, err)
	require.Equal(t, 1, pm.cnt)
	require.True(t, key.IsLocked())

	ok, err := bls.Verify([]byte("msg"), pub, sig)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, key.Unlock(context.Background(), &pm))
	require.NoError(t, key.Unlock(context.Background(), &pm))
	require.Equal(t, 2, pm.cnt)

	// the unlocked state is shared by every reference to the key
	again, err := v.Get(context.Background(), pub)
	require.NoError(t, err)
	require.False(t, again.IsLocked())
	sig2, err := again.Sign(context.Background(), []byte("msg"), nil)
	require.NoError(t, err)
	require.True(t, sig.Equal(sig2))

	require.NoError(t, v.Close(context.Background()))
	require.True(t, again.IsLocked())
}

func TestSignClose(t *testing.T) {
	dir := t.TempDir()
	pub := writeKey(t, dir, "key.json", 1, "passwd")
	v, err := New(dir, nil, nil)
	require.NoError(t, err)
	key, err := v.Get(context.Background(), pub)
	require.NoError(t, err)
	pm := dummyPM{secret: []byte("passwd")}
	msg := []byte("msg")

	for range 10 {
		require.NoError(t, key.Unlock(context.Background(), &pm))
		var g errgroup.Group
		for range 4 {
			g.Go(func() error {
				for range 20 {
					sig, err := key.Sign(context.Background(), msg, nil)
					if errors.Is(err, ErrLocked) {
						return nil
					}
					if err != nil {
						return err
					}
					if sig.IsInfinity() {
						return errors.New("infinity signature")
					}
				}
				return nil
			})
		}
		g.Go(func() error { return v.Close(context.Background()) })
		require.NoError(t, g.Wait())
		require.True(t, key.IsLocked())
	}
}
