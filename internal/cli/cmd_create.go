package cli

import (
	"fmt"
	"io"
	"strconv"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

// parseUint32 parses a decimal uint32, returning 0 on any failure (the
// callers treat 0 as invalid).
func parseUint32(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

func parseUint16(s string) uint16 {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

func cmdCreate(stdout io.Writer, args []string) error {
	if len(args) < 1 {
		return imgfs.ErrNotEnoughArguments
	}
	fmt.Fprintln(stdout, "Create")
	path := args[0]

	opts := imgfs.CreateOptions{
		MaxFiles:    imgfs.DefaultMaxFiles,
		ThumbWidth:  imgfs.DefaultThumbRes,
		ThumbHeight: imgfs.DefaultThumbRes,
		SmallWidth:  imgfs.DefaultSmallRes,
		SmallHeight: imgfs.DefaultSmallRes,
	}
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-max_files":
			if i+1 >= len(args) {
				return imgfs.ErrNotEnoughArguments
			}
			opts.MaxFiles = parseUint32(args[i+1])
			i++
			if opts.MaxFiles == 0 {
				return imgfs.ErrMaxFiles
			}
		case "-thumb_res":
			if i+2 >= len(args) {
				return imgfs.ErrNotEnoughArguments
			}
			opts.ThumbWidth = parseUint16(args[i+1])
			opts.ThumbHeight = parseUint16(args[i+2])
			i += 2
			if opts.ThumbWidth == 0 || opts.ThumbWidth > imgfs.MaxThumbRes ||
				opts.ThumbHeight == 0 || opts.ThumbHeight > imgfs.MaxThumbRes {
				return imgfs.ErrResolutions
			}
		case "-small_res":
			if i+2 >= len(args) {
				return imgfs.ErrNotEnoughArguments
			}
			opts.SmallWidth = parseUint16(args[i+1])
			opts.SmallHeight = parseUint16(args[i+2])
			i += 2
			if opts.SmallWidth == 0 || opts.SmallWidth > imgfs.MaxSmallRes ||
				opts.SmallHeight == 0 || opts.SmallHeight > imgfs.MaxSmallRes {
				return imgfs.ErrResolutions
			}
		default:
			return imgfs.ErrInvalidArgument
		}
	}

	fs, err := imgfs.Create(path, opts)
	if err != nil {
		return err
	}
	defer fs.Close()
	// one header record plus the slot table
	fmt.Fprintf(stdout, "%d item(s) written\n", 1+opts.MaxFiles)
	return nil
}
