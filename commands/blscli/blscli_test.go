package blscli

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signatory-io/bls-core/core"
	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/vault"
	"github.com/stretchr/testify/require"
)

const testConfig = `
keystore:
  kdf: pbkdf2
  pbkdf2_c: 1024
`

type testEnv struct {
	t        *testing.T
	dir      string
	password string
}

func newTestEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, core.DefaultConfigFile), []byte(testConfig), 0600))
	password := filepath.Join(dir, "password")
	require.NoError(t, os.WriteFile(password, []byte("correct horse\n"), 0600))
	return &testEnv{t: t, dir: dir, password: password}
}

func (e *testEnv) runInput(in string, args ...string) (string, error) {
	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--base-dir", e.dir}, args...))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(in))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) run(args ...string) string {
	e.t.Helper()
	out, err := e.runInput("", args...)
	require.NoError(e.t, err)
	return strings.TrimSpace(out)
}

func ikm(b byte) ([]byte, string) {
	v := bytes.Repeat([]byte{b}, 32)
	return v, hex.EncodeToString(v)
}

func expectedKey(t *testing.T, b byte) *bls.SecretKey {
	v, _ := ikm(b)
	sk, err := bls.KeyGen(nil, v, "")
	require.NoError(t, err)
	return sk
}

func TestKeygenSignVerify(t *testing.T) {
	env := newTestEnv(t)
	_, ikmHex := ikm(1)
	sk := expectedKey(t, 1)
	pk, err := sk.PublicKey()
	require.NoError(t, err)

	require.Equal(t, pk.Hex(), env.run("keygen", "--ikm", ikmHex, "-p", env.password, "-o", "key1.json"))
	require.Equal(t, pk.Hex(), env.run("pubkey", "key1.json"))
	art := env.run("pubkey", "--art", "key1.json")
	require.True(t, strings.HasPrefix(art, pk.Hex()+"\n+---[BLS12-381]---+"))

	sig, err := sk.Sign(nil, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, sig.Hex(), env.run("sign", "key1.json", "hello", "-p", env.password))
	require.Equal(t, sig.Hex(), env.run("sign", "-x", "key1.json", hex.EncodeToString([]byte("hello")), "-p", env.password))

	require.Equal(t, "true", env.run("verify", "hello", pk.Hex(), sig.Hex()))
	require.Equal(t, "false", env.run("verify", "hellO", pk.Hex(), sig.Hex()))

	wrongPassword := filepath.Join(env.dir, "wrong")
	require.NoError(t, os.WriteFile(wrongPassword, []byte("wrong"), 0600))
	_, err = env.runInput("", "sign", "key1.json", "hello", "-p", wrongPassword)
	require.Error(t, err)

	// refuse to overwrite
	_, err = env.runInput("no\n", "keygen", "--ikm", ikmHex, "-p", env.password, "-o", "key1.json")
	require.ErrorIs(t, err, core.ErrTerminated)
}

func TestKeygenEIP2333(t *testing.T) {
	env := newTestEnv(t)
	seed, seedHex := ikm(7)
	sk, err := bls.DeriveEIP2333Path(seed, []uint32{12381, 3600, 0, 0, 0})
	require.NoError(t, err)
	pk, err := sk.PublicKey()
	require.NoError(t, err)

	require.Equal(t, pk.Hex(), env.run("keygen", "--seed", seedHex, "-p", env.password))
	data, err := os.ReadFile(filepath.Join(env.dir, defaultKeystoreFile))
	require.NoError(t, err)
	require.Contains(t, string(data), `"path": "m/12381/3600/0/0/0"`)

	_, err = env.runInput("", "keygen", "--seed", seedHex[:32], "-p", env.password, "-o", "short.json")
	require.ErrorIs(t, err, bls.ErrInvalidLength)
}

func TestParsePath(t *testing.T) {
	p, err := parsePath("m/12381/3600/1/0/0")
	require.NoError(t, err)
	require.Equal(t, []uint32{12381, 3600, 1, 0, 0}, p)

	p, err = parsePath("m")
	require.NoError(t, err)
	require.Empty(t, p)

	_, err = parsePath("12381/0")
	require.Error(t, err)
	_, err = parsePath("m/4294967296")
	require.Error(t, err)
}

func TestAggregate(t *testing.T) {
	env := newTestEnv(t)
	sk1, sk2 := expectedKey(t, 1), expectedKey(t, 2)
	pk1, err := sk1.PublicKey()
	require.NoError(t, err)
	pk2, err := sk2.PublicKey()
	require.NoError(t, err)

	sign := func(sk *bls.SecretKey, msg string) string {
		sig, err := sk.Sign(nil, []byte(msg))
		require.NoError(t, err)
		return sig.Hex()
	}

	aggPk, err := bls.AggregatePublicKeys([]bls.Arg{pk1, pk2})
	require.NoError(t, err)
	require.Equal(t, aggPk.Hex(), env.run("aggregate", "pubkeys", pk1.Hex(), pk2.Hex()))

	aggSame := env.run("aggregate", "signatures", sign(sk1, "msg"), sign(sk2, "msg"))
	require.Equal(t, "true", env.run("fast-verify", "msg", aggSame, pk1.Hex(), pk2.Hex()))
	require.Equal(t, "false", env.run("fast-verify", "msg", aggSame, pk1.Hex()))

	aggDistinct := env.run("aggregate", "signatures", sign(sk1, "a"), sign(sk2, "b"))
	require.Equal(t, "true", env.run("aggregate-verify", aggDistinct, "a:"+pk1.Hex(), "b:"+pk2.Hex()))
	require.Equal(t, "false", env.run("aggregate-verify", aggDistinct, "b:"+pk1.Hex(), "a:"+pk2.Hex()))

	_, err = env.runInput("", "aggregate", "pubkeys", "0x"+strings.Repeat("00", 48))
	require.ErrorIs(t, err, bls.ErrInvalidZeroKey)
	_, err = env.runInput("", "aggregate-verify", aggDistinct, "no-separator")
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	env := newTestEnv(t)
	var sets [][3]string
	for i := byte(1); i <= 3; i++ {
		sk := expectedKey(t, i)
		pk, err := sk.PublicKey()
		require.NoError(t, err)
		msg := []byte{'m', '0' + i}
		sig, err := sk.Sign(nil, msg)
		require.NoError(t, err)
		sets = append(sets, [3]string{string(msg), pk.Hex(), sig.Hex()})
	}

	for _, s := range sets {
		env.run("batch", "add", "batch.cbor", s[0], s[1], s[2])
	}
	require.Equal(t, "true", env.run("batch", "verify", "batch.cbor"))

	out := env.run("batch", "aggregate", "batch.cbor")
	require.Contains(t, out, "Public key: 0x")
	require.Contains(t, out, "Signature:  0x")

	// a signature over another message poisons the whole batch
	env.run("batch", "add", "batch.cbor", "m9", sets[0][1], sets[0][2])
	require.Equal(t, "false", env.run("batch", "verify", "batch.cbor"))

	// a missing file is an empty batch
	require.Equal(t, "false", env.run("batch", "verify", "missing.cbor"))
}

func TestConfigInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "base")
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--base-dir", dir, "--blinding-bytes", "12", "config", "init"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "successfully created")

	data, err := os.ReadFile(filepath.Join(dir, core.DefaultConfigFile))
	require.NoError(t, err)
	require.Contains(t, string(data), "blinding_bytes: 12")
	require.Contains(t, string(data), "kdf: scrypt")
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.runInput("", "--blinding-bytes", "32", "verify", "a", "b", "c")
	require.EqualError(t, err, "bls: blinding scalar size must be between 8 and 16 bytes, got 32")
}

func TestKeys(t *testing.T) {
	env := newTestEnv(t)
	_, ikm1 := ikm(1)
	_, ikm2 := ikm(2)
	pk1 := env.run("keygen", "--ikm", ikm1, "-p", env.password, "-o", "keys/a.json")
	pk2 := env.run("keygen", "--ikm", ikm2, "-p", env.password, "-o", "keys/b.json")

	out := env.run("keys", "list", "-d", "keys")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "Public Key"))
	require.Contains(t, lines[1], pk1)
	require.Contains(t, lines[2], pk2)

	sk := expectedKey(t, 2)
	sigA, err := sk.Sign(nil, []byte("a"))
	require.NoError(t, err)
	sigB, err := sk.Sign(nil, []byte("b"))
	require.NoError(t, err)
	require.Equal(t, sigA.Hex()+"\n"+sigB.Hex(), env.run("keys", "sign", "-d", "keys", pk2, "a", "b", "-p", env.password))

	_, err = env.runInput("", "keys", "sign", "-d", "keys", expectedPub(t, 3), "a", "-p", env.password)
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func expectedPub(t *testing.T, b byte) string {
	pk, err := expectedKey(t, b).PublicKey()
	require.NoError(t, err)
	return pk.Hex()
}
