// Package cli implements the imgfs command-line front end. Commands map
// onto store operations one to one; the process exit code is the numeric
// error code of whatever failed (0 on success).
package cli

import (
	"fmt"
	"io"

	imgfs "github.com/ehrlich-b/go-imgfs"
)

type command func(stdout io.Writer, args []string) error

var commands = []struct {
	name string
	fn   command
}{
	{"list", cmdList},
	{"create", cmdCreate},
	{"help", cmdHelp},
	{"delete", cmdDelete},
	{"insert", cmdInsert},
	{"read", cmdRead},
	{"check", cmdCheck},
}

// Run executes one subcommand. args is os.Args[1:]. The return value is
// the process exit code.
func Run(stdout, stderr io.Writer, args []string) int {
	err := run(stdout, args)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n", imgfs.Message(err))
		cmdHelp(stdout, nil)
	}
	return int(imgfs.CodeOf(err))
}

func run(stdout io.Writer, args []string) error {
	if len(args) < 1 {
		return imgfs.ErrNotEnoughArguments
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.fn(stdout, args[1:])
		}
	}
	return imgfs.ErrInvalidCommand
}

func cmdHelp(stdout io.Writer, _ []string) error {
	fmt.Fprintf(stdout, `imgfs [COMMAND] [ARGUMENTS]
  help: displays this help.
  list <imgFS_filename>: list imgFS content.
  create <imgFS_filename> [options]: create a new imgFS.
      options are:
          -max_files <MAX_FILES>: maximum number of files.
                                  default value is %d
                                  maximum value is 4294967295
          -thumb_res <X_RES> <Y_RES>: resolution for thumbnail images.
                                  default value is %dx%d
                                  maximum value is %dx%d
          -small_res <X_RES> <Y_RES>: resolution for small images.
                                  default value is %dx%d
                                  maximum value is %dx%d
  read   <imgFS_filename> <imgID> [original|orig|thumbnail|thumb|small]:
      read an image from the imgFS and save it to a file.
      default resolution is "original".
  insert <imgFS_filename> <imgID> <filename>: insert a new image in the imgFS.
  delete <imgFS_filename> <imgID>: delete image imgID from imgFS.
  check  <imgFS_filename>: verify the store's structural invariants.
`,
		imgfs.DefaultMaxFiles,
		imgfs.DefaultThumbRes, imgfs.DefaultThumbRes, imgfs.MaxThumbRes, imgfs.MaxThumbRes,
		imgfs.DefaultSmallRes, imgfs.DefaultSmallRes, imgfs.MaxSmallRes, imgfs.MaxSmallRes)
	return nil
}

// validImgID checks the length bounds of a user-supplied identifier.
func validImgID(imgID string) error {
	if len(imgID) == 0 || len(imgID) > imgfs.MaxImgID {
		return imgfs.ErrInvalidImgID
	}
	return nil
}
