package cli

import (
	"io"
	"os"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

func cmdList(stdout io.Writer, args []string) error {
	if len(args) < 1 {
		return imgfs.ErrNotEnoughArguments
	}
	if len(args) != 1 {
		return imgfs.ErrInvalidCommand
	}
	fs, err := imgfs.OpenFile(args[0], os.O_RDONLY)
	if err != nil {
		return err
	}
	defer fs.Close()
	return fs.WriteList(stdout)
}
