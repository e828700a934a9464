package blscli

import (
	"github.com/signatory-io/bls-core/core"
	"github.com/signatory-io/bls-core/crypto/bls"
	"github.com/signatory-io/bls-core/logger"
	"github.com/spf13/cobra"
)

// commands carrying this annotation don't read the configuration file
const annotationNoConfigFile = "no-config-file"

type rootContext struct {
	conf   core.Config
	log    logger.Logger
	engine *bls.Engine
	hexMsg bool
}

func NewRootCommand() *cobra.Command {
	var ctx rootContext
	ctx.conf.Default()

	cmd := cobra.Command{
		Use:           "bls-cli [options]",
		Short:         "BLS12-381 key management, signing and signature aggregation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, noFile := cmd.Annotations[annotationNoConfigFile]
			if err := ctx.conf.FromCmdline(!noFile, cmd.Flags()); err != nil {
				return err
			}
			ctx.log = ctx.conf.NewLogger(cmd.ErrOrStderr())
			e, err := ctx.conf.NewEngine(ctx.log)
			if err != nil {
				return err
			}
			ctx.engine = e
			return nil
		},
	}

	f := cmd.PersistentFlags()
	ctx.conf.RegisterFlags(f, &cmd)
	f.BoolVarP(&ctx.hexMsg, "hex-msg", "x", false, "Messages are hex encoded")

	cmd.AddCommand(newConfigCommand(&ctx))
	cmd.AddCommand(newKeygenCommand(&ctx))
	cmd.AddCommand(newPubkeyCommand(&ctx))
	cmd.AddCommand(newSignCommand(&ctx))
	cmd.AddCommand(newKeysCommand(&ctx))
	cmd.AddCommand(newAggregateCommand(&ctx))
	cmd.AddCommand(newVerifyCommand(&ctx))
	cmd.AddCommand(newFastVerifyCommand(&ctx))
	cmd.AddCommand(newAggregateVerifyCommand(&ctx))
	cmd.AddCommand(newBatchCommand(&ctx))

	return &cmd
}
