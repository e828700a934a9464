package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/signatory-io/bls-core/utils"
)

// ErrTerminated is returned when the user refuses to overwrite a file
var ErrTerminated = errors.New("terminated by user")

// WriteNewFile creates the file at path. If it already exists the user is
// asked through in/out whether it should be overwritten.
func WriteNewFile(path string, data []byte, in io.Reader, out io.Writer) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	fd, err := os.OpenFile(path, os.O_EXCL|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		fmt.Fprintf(out, "File %s already exists.\nDo you want to overwrite it? [yes/no] ", path)
		var ans string
		n, err := fmt.Fscan(in, &ans)
		if err != nil {
			return err
		}
		if n != 1 || !strings.EqualFold(ans, "yes") {
			return ErrTerminated
		}
		return utils.AtomicWrite(path, data, 0600)
	}
	if _, err := fd.Write(data); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

func GetPath(path string, base string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
