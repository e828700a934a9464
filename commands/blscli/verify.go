package blscli

import (
	"fmt"
	"strings"

	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/spf13/cobra"
)

func (r *rootContext) publicKeys(src []string) ([]bls.Arg, error) {
	out := make([]bls.Arg, len(src))
	for i, s := range src {
		pk, err := bls.PublicKeyFromHex(s, r.conf.BLS.Form)
		if err != nil {
			return nil, fmt.Errorf("public key #%d: %w", i, err)
		}
		out[i] = pk
	}
	return out, nil
}

func (r *rootContext) signatures(src []string) ([]bls.Arg, error) {
	out := make([]bls.Arg, len(src))
	for i, s := range src {
		sig, err := bls.SignatureFromHex(s, r.conf.BLS.Form)
		if err != nil {
			return nil, fmt.Errorf("signature #%d: %w", i, err)
		}
		out[i] = sig
	}
	return out, nil
}

func printResult(cmd *cobra.Command, ok bool, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ok)
	return nil
}

func newAggregateCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:     "aggregate",
		Aliases: []string{"agg"},
		Short:   "Signature and public key aggregation",
	}

	pubkeysCmd := cobra.Command{
		Use:     "pubkeys <pubkey>...",
		Aliases: []string{"pk"},
		Short:   "Aggregate public keys",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := ctx.publicKeys(args)
			if err != nil {
				return err
			}
			pk, err := ctx.engine.AggregatePublicKeys(keys)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pk)
			return nil
		},
	}

	sigsCmd := cobra.Command{
		Use:     "signatures <signature>...",
		Aliases: []string{"sig"},
		Short:   "Aggregate signatures",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sigs, err := ctx.signatures(args)
			if err != nil {
				return err
			}
			sig, err := ctx.engine.AggregateSignatures(sigs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}

	cmd.AddCommand(&pubkeysCmd)
	cmd.AddCommand(&sigsCmd)
	return &cmd
}

func newVerifyCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:   "verify <message> <pubkey> <signature>",
		Short: "Verify a single signature",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := ctx.message(args[0])
			if err != nil {
				return err
			}
			keys, err := ctx.publicKeys(args[1:2])
			if err != nil {
				return err
			}
			sigs, err := ctx.signatures(args[2:])
			if err != nil {
				return err
			}
			ok, err := ctx.engine.Verify(msg, keys[0], sigs[0])
			return printResult(cmd, ok, err)
		},
	}
	return &cmd
}

func newFastVerifyCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:   "fast-verify <message> <signature> <pubkey>...",
		Short: "Verify an aggregate signature of the same message by all keys",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := ctx.message(args[0])
			if err != nil {
				return err
			}
			sigs, err := ctx.signatures(args[1:2])
			if err != nil {
				return err
			}
			keys, err := ctx.publicKeys(args[2:])
			if err != nil {
				return err
			}
			ok, err := ctx.engine.FastAggregateVerify(msg, keys, sigs[0])
			return printResult(cmd, ok, err)
		},
	}
	return &cmd
}

func newAggregateVerifyCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:   "aggregate-verify <signature> <message>:<pubkey>...",
		Short: "Verify an aggregate signature of distinct messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sigs, err := ctx.signatures(args[:1])
			if err != nil {
				return err
			}
			pairs := args[1:]
			msgs := make([][]byte, len(pairs))
			keySrc := make([]string, len(pairs))
			for i, p := range pairs {
				sep := strings.LastIndexByte(p, ':')
				if sep < 0 {
					return fmt.Errorf("invalid message and public key pair %q", p)
				}
				if msgs[i], err = ctx.message(p[:sep]); err != nil {
					return err
				}
				keySrc[i] = p[sep+1:]
			}
			keys, err := ctx.publicKeys(keySrc)
			if err != nil {
				return err
			}
			ok, err := ctx.engine.AggregateVerify(msgs, keys, sigs[0])
			return printResult(cmd, ok, err)
		},
	}
	return &cmd
}
