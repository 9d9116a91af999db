package cli

import (
	"io"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

func cmdDelete(_ io.Writer, args []string) error {
	if len(args) < 2 {
		return imgfs.ErrNotEnoughArguments
	}
	if len(args) != 2 {
		return imgfs.ErrInvalidCommand
	}
	path, imgID := args[0], args[1]
	if err := validImgID(imgID); err != nil {
		return err
	}

	fs, err := imgfs.Open(path)
	if err != nil {
		return err
	}
	defer fs.Close()
	return fs.Delete(imgID)
}
