package blscli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/signatory-io/bls-core/core"
	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/vault"
	"github.com/spf13/cobra"
)

type filePasswordManager struct {
	cmd  *cobra.Command
	file string
}

func (f *filePasswordManager) GetPassword(ctx context.Context, pub *bls.PublicKey) ([]byte, error) {
	if f.file == "" {
		fmt.Fprintf(f.cmd.ErrOrStderr(), "Unlocking %v\n", pub)
	}
	return readPassword(f.cmd, f.file, false)
}

func (r *rootContext) openVault(dir string) (*vault.Dir, error) {
	if dir == "" {
		dir = r.conf.BasePath
	} else {
		dir = core.GetPath(dir, r.conf.BasePath)
	}
	return vault.New(dir, r.engine.Config(), r.log)
}

func newKeysCommand(ctx *rootContext) *cobra.Command {
	var dir string

	cmd := cobra.Command{
		Use:   "keys",
		Short: "Keystore directory operations",
	}
	cmd.PersistentFlags().StringVarP(&dir, "dir", "d", "", "Keystore directory (absolute or relative to the base directory), defaults to the base directory")

	listCmd := cobra.Command{
		Use:     "list",
		Aliases: []string{"l"},
		Short:   "List keystores",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := ctx.openVault(dir)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
			fmt.Fprintln(w, "Public Key\tPath\tFile")
			it := v.List(cmd.Context())
			for k := range it.Keys() {
				fmt.Fprintf(w, "%v\t%s\t%s\n", k.PublicKey(), k.Path(), k.File())
			}
			if err := it.Err(); err != nil {
				return err
			}
			return w.Flush()
		},
	}

	var passwordFile string
	signCmd := cobra.Command{
		Use:   "sign <pubkey> <message>...",
		Short: "Sign messages with the keystore matching the public key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := bls.PublicKeyFromHex(args[0], ctx.conf.BLS.Form)
			if err != nil {
				return err
			}
			v, err := ctx.openVault(dir)
			if err != nil {
				return err
			}
			defer v.Close(cmd.Context())
			key, err := v.Get(cmd.Context(), pub)
			if err != nil {
				return err
			}
			// one password prompt for all messages
			if err := key.Unlock(cmd.Context(), &filePasswordManager{cmd: cmd, file: passwordFile}); err != nil {
				return err
			}
			for _, m := range args[1:] {
				msg, err := ctx.message(m)
				if err != nil {
					return err
				}
				sig, err := key.Sign(cmd.Context(), msg, nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), sig)
			}
			return nil
		},
	}
	addPasswordFlag(&signCmd, &passwordFile)

	cmd.AddCommand(&listCmd)
	cmd.AddCommand(&signCmd)
	return &cmd
}
