package blscli

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/signatory-io/bls-core/core"
	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/crypto/keystore"
	"github.com/signatory-io/bls-core/utils"
	"github.com/spf13/cobra"
)

const defaultKeystoreFile = "keystore.json"

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func (r *rootContext) message(s string) ([]byte, error) {
	if r.hexMsg {
		return decodeHex(s)
	}
	return []byte(s), nil
}

// parsePath parses an EIP-2334 style derivation path like m/12381/3600/0/0/0
func parsePath(s string) ([]uint32, error) {
	parts := strings.Split(s, "/")
	if parts[0] != "m" {
		return nil, fmt.Errorf("invalid derivation path %q: must start with `m'", s)
	}
	path := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path %q: %w", s, err)
		}
		path = append(path, uint32(v))
	}
	return path, nil
}

func loadKeystore(path string) (*keystore.Keystore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return keystore.Parse(data)
}

func newKeygenCommand(ctx *rootContext) *cobra.Command {
	var (
		ikmHex       string
		info         string
		seedHex      string
		path         string
		output       string
		description  string
		passwordFile string
	)

	cmd := cobra.Command{
		Use:     "keygen",
		Aliases: []string{"gen"},
		Short:   "Generate a new secret key and store it in an EIP-2335 keystore",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				sk  *bls.SecretKey
				err error
			)
			switch {
			case seedHex != "":
				if ikmHex != "" {
					return errors.New("--seed and --ikm are mutually exclusive")
				}
				seed, err := decodeHex(seedHex)
				if err != nil {
					return err
				}
				p, err := parsePath(path)
				if err != nil {
					return err
				}
				sk, err = bls.DeriveEIP2333Path(seed, p)
				clear(seed)
				if err != nil {
					return err
				}
			default:
				var ikm []byte
				if ikmHex != "" {
					if ikm, err = decodeHex(ikmHex); err != nil {
						return err
					}
					defer clear(ikm)
				}
				if sk, err = bls.KeyGen(ctx.engine.Config(), ikm, info); err != nil {
					return err
				}
				path = ""
			}
			defer sk.Zeroize()

			password, err := readPassword(cmd, passwordFile, true)
			if err != nil {
				return err
			}
			defer clear(password)

			opts := ctx.conf.KeystoreOptions()
			opts.Path = path
			opts.Description = description
			ks, err := keystore.Encrypt(sk, password, opts)
			if err != nil {
				return err
			}
			data, err := ks.Marshal()
			if err != nil {
				return err
			}
			file := core.GetPath(output, ctx.conf.BasePath)
			if err := core.WriteNewFile(file, data, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			ctx.log.WithFields(map[string]any{"file": file, "pubkey": ks.Pubkey}).Info("Keystore created")
			fmt.Fprintf(cmd.OutOrStdout(), "0x%s\n", ks.Pubkey)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&ikmHex, "ikm", "", "Hex encoded 32 byte input key material, random if not set")
	f.StringVar(&info, "info", "", "Key generation info string")
	f.StringVar(&seedHex, "seed", "", "Hex encoded EIP-2333 seed of at least 32 bytes")
	f.StringVar(&path, "path", "m/12381/3600/0/0/0", "EIP-2334 derivation path used with --seed")
	f.StringVarP(&output, "output", "o", defaultKeystoreFile, "Keystore file (absolute or relative to the base directory)")
	f.StringVar(&description, "description", "", "Keystore description")
	addPasswordFlag(&cmd, &passwordFile)
	return &cmd
}

func newPubkeyCommand(ctx *rootContext) *cobra.Command {
	var art bool

	cmd := cobra.Command{
		Use:   "pubkey <keystore>",
		Short: "Print the public key stored in the keystore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := loadKeystore(core.GetPath(args[0], ctx.conf.BasePath))
			if err != nil {
				return err
			}
			pk, err := bls.PublicKeyFromHex(ks.Pubkey, ctx.conf.BLS.Form)
			if err != nil {
				return err
			}
			if err := pk.KeyValidate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pk)
			if art {
				digest := sha256.Sum256(pk.Bytes())
				fmt.Fprint(cmd.OutOrStdout(), utils.RandomArt("BLS12-381", digest[:]))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&art, "art", "a", false, "Print the public key fingerprint picture")
	return &cmd
}

func newSignCommand(ctx *rootContext) *cobra.Command {
	var passwordFile string

	cmd := cobra.Command{
		Use:   "sign <keystore> <message>",
		Short: "Sign the message with the key from the keystore",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := ctx.message(args[1])
			if err != nil {
				return err
			}
			ks, err := loadKeystore(core.GetPath(args[0], ctx.conf.BasePath))
			if err != nil {
				return err
			}
			password, err := readPassword(cmd, passwordFile, false)
			if err != nil {
				return err
			}
			defer clear(password)
			sk, err := ks.Decrypt(password)
			if err != nil {
				return err
			}
			defer sk.Zeroize()

			sig, err := sk.Sign(ctx.engine.Config(), msg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}
	addPasswordFlag(&cmd, &passwordFile)
	return &cmd
}
