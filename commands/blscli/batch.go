package blscli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/signatory-io/bls-core/core"
	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/utils"
	"github.com/spf13/cobra"
)

type batchSet struct {
	Msg       []byte `cbor:"0,keyasint"`
	PublicKey []byte `cbor:"1,keyasint"`
	Signature []byte `cbor:"2,keyasint"`
}

type batchFile struct {
	Sets []*batchSet `cbor:"0,keyasint"`
}

func loadBatch(path string) (*batchFile, error) {
	var b batchFile
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &b, nil
		}
		return nil, err
	}
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &b, nil
}

func (b *batchFile) save(path string) error {
	data, err := cbor.Marshal(b)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return utils.AtomicWrite(path, data, 0600)
}

// signatureSets passes raw encodings so the engine validates every element
func (b *batchFile) signatureSets() []*bls.SignatureSet {
	out := make([]*bls.SignatureSet, len(b.Sets))
	for i, s := range b.Sets {
		out[i] = &bls.SignatureSet{Msg: s.Msg, PublicKey: s.PublicKey, Signature: s.Signature}
	}
	return out
}

func (b *batchFile) aggregationSets() []*bls.AggregationSet {
	out := make([]*bls.AggregationSet, len(b.Sets))
	for i, s := range b.Sets {
		out[i] = &bls.AggregationSet{PublicKey: s.PublicKey, Signature: s.Signature}
	}
	return out
}

func newBatchCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:   "batch",
		Short: "Batch verification of independent signature sets",
	}

	addCmd := cobra.Command{
		Use:   "add <file> <message> <pubkey> <signature>",
		Short: "Append a signature set to the batch file",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := ctx.message(args[1])
			if err != nil {
				return err
			}
			keys, err := ctx.publicKeys(args[2:3])
			if err != nil {
				return err
			}
			sigs, err := ctx.signatures(args[3:])
			if err != nil {
				return err
			}
			path := core.GetPath(args[0], ctx.conf.BasePath)
			b, err := loadBatch(path)
			if err != nil {
				return err
			}
			b.Sets = append(b.Sets, &batchSet{
				Msg:       msg,
				PublicKey: keys[0].(*bls.PublicKey).Bytes(),
				Signature: sigs[0].(*bls.Signature).Bytes(),
			})
			if err := b.save(path); err != nil {
				return err
			}
			ctx.log.WithFields(map[string]any{"file": path, "sets": len(b.Sets)}).Debug("Signature set added")
			return nil
		},
	}

	verifyCmd := cobra.Command{
		Use:   "verify <file>",
		Short: "Verify all signature sets from the batch file at once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBatch(core.GetPath(args[0], ctx.conf.BasePath))
			if err != nil {
				return err
			}
			ok, err := ctx.engine.VerifyMultipleAggregateSignaturesAsync(cmd.Context(), b.signatureSets()).Wait(cmd.Context())
			return printResult(cmd, ok, err)
		},
	}

	aggCmd := cobra.Command{
		Use:   "aggregate <file>",
		Short: "Aggregate the batch file sets with random blinding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := loadBatch(core.GetPath(args[0], ctx.conf.BasePath))
			if err != nil {
				return err
			}
			res, err := ctx.engine.AggregateWithRandomnessAsync(cmd.Context(), b.aggregationSets()).Wait(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Public key: %v\n", res.PublicKey)
			fmt.Fprintf(out, "Signature:  %v\n", res.Signature)
			return nil
		},
	}

	cmd.AddCommand(&addCmd)
	cmd.AddCommand(&verifyCmd)
	cmd.AddCommand(&aggCmd)
	return &cmd
}
