package cli

import (
	"fmt"
	"io"
	"os"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

func cmdCheck(stdout io.Writer, args []string) error {
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

	result, err := fs.Check()
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		fmt.Fprintln(stdout, msg)
	}
	if !result.IsClean() {
		fmt.Fprintf(stdout, "%d error(s) found\n", len(result.Errors))
		return imgfs.ErrRuntime
	}
	fmt.Fprintf(stdout, "No errors found (%d valid image(s))\n", result.ValidSlots)
	return nil
}
