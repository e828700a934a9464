package blscli

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/signatory-io/bls-core/core"
	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:     "config",
		Aliases: []string{"conf"},
		Short:   "bls-cli configuration commands",
	}
	cmd.AddCommand(newConfigInitCommand(ctx))
	return &cmd
}

func newConfigInitCommand(ctx *rootContext) *cobra.Command {
	cmd := cobra.Command{
		Use:         "init",
		Short:       "Create new configuration file with provided parameters",
		Annotations: map[string]string{annotationNoConfigFile: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := yaml.Marshal(&ctx.conf)
			if err != nil {
				return err
			}
			confPath, err := cmd.Flags().GetString("config-file")
			if err != nil {
				panic(err)
			}
			confPath = core.GetPath(confPath, ctx.conf.BasePath)
			if err := core.WriteNewFile(confPath, buf, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file %s is successfully created\n", confPath)
			return nil
		},
	}
	return &cmd
}
