package blscli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errPasswordMismatch = errors.New("passwords don't match")

func addPasswordFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "password-file", "p", "", "Read the keystore password from the file instead of the terminal")
	cmd.MarkFlagFilename("password-file")
}

// readPassword reads the first line of the password file or prompts for the
// password if no file is given
func readPassword(cmd *cobra.Command, file string, confirm bool) ([]byte, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
			data = data[:i]
		}
		return data, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("standard input is not a terminal, use --password-file")
	}
	out := cmd.ErrOrStderr()
	password, err := promptPassword(fd, out, "Enter keystore password: ")
	if err != nil || !confirm {
		return password, err
	}
	again, err := promptPassword(fd, out, "Repeat password: ")
	if err != nil {
		return nil, err
	}
	defer clear(again)
	if !bytes.Equal(password, again) {
		clear(password)
		return nil, errPasswordMismatch
	}
	return password, nil
}

func promptPassword(fd int, out io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	return password, err
}
