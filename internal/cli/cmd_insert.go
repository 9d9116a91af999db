package cli

import (
	"fmt"
	"io"
	"os"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

func cmdInsert(_ io.Writer, args []string) error {
	if len(args) < 3 {
		return imgfs.ErrNotEnoughArguments
	}
	if len(args) != 3 {
		return imgfs.ErrInvalidCommand
	}
	path, imgID, imagePath := args[0], args[1], args[2]
	if err := validImgID(imgID); err != nil {
		return err
	}

	image, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", imgfs.ErrIO, imagePath, err)
	}

	fs, err := imgfs.Open(path)
	if err != nil {
		return err
	}
	defer fs.Close()
	return fs.Insert(image, imgID)
}
