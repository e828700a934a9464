package main

import (
	"fmt"
	"os"

	"github.com/signatory-io/bls-core/commands/blscli"
)

func main() {
	cmd := blscli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
