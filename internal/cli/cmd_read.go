package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/natefinch/atomic"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

// outputName joins the image id and a resolution suffix into the file name
// the extracted image is saved under.
func outputName(imgID string, resolution int) string {
	suffix := ""
	switch resolution {
	case imgfs.OrigRes:
		suffix = "_orig"
	case imgfs.SmallRes:
		suffix = "_small"
	case imgfs.ThumbRes:
		suffix = "_thumb"
	}
	return imgID + suffix + ".jpg"
}

func cmdRead(_ io.Writer, args []string) error {
	if len(args) != 2 && len(args) != 3 {
		return imgfs.ErrNotEnoughArguments
	}
	path, imgID := args[0], args[1]
	if err := validImgID(imgID); err != nil {
		return err
	}

	resolution := imgfs.OrigRes
	if len(args) == 3 {
		resolution = imgfs.ResolutionAtoi(args[2])
		if resolution == -1 {
			return imgfs.ErrResolutions
		}
	}

	// read/write: serving a thumbnail may materialize it
	fs, err := imgfs.Open(path)
	if err != nil {
		return err
	}
	defer fs.Close()

	image, err := fs.Read(imgID, resolution)
	if err != nil {
		return err
	}

	name := outputName(imgID, resolution)
	if err := atomic.WriteFile(name, bytes.NewReader(image)); err != nil {
		return fmt.Errorf("%w: write %s: %v", imgfs.ErrIO, name, err)
	}
	return nil
}
