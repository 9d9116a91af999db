package imgfs

import "errors"

// Code is the numeric error kind shared by the CLI (exit codes) and the
// HTTP layer (error reply messages). The order is fixed.
type Code int

const (
	CodeNone Code = iota
	CodeInvalidArgument
	CodeOutOfMemory
	CodeIO
	CodeRuntime
	CodeThreading
	CodeImgLib
	CodeInvalidCommand
	CodeNotEnoughArguments
	CodeMaxFiles
	CodeResolutions
	CodeInvalidImgID
	CodeImageNotFound
	CodeDuplicateID
	CodeImgFSFull
)

// Errors
var (
	ErrInvalidArgument    = errors.New("imgfs: invalid argument")
	ErrOutOfMemory        = errors.New("imgfs: out of memory")
	ErrIO                 = errors.New("imgfs: I/O error")
	ErrRuntime            = errors.New("imgfs: runtime error")
	ErrThreading          = errors.New("imgfs: threading error")
	ErrImgLib             = errors.New("imgfs: image library error")
	ErrInvalidCommand     = errors.New("imgfs: invalid command")
	ErrNotEnoughArguments = errors.New("imgfs: not enough arguments")
	ErrMaxFiles           = errors.New("imgfs: invalid max number of files")
	ErrResolutions        = errors.New("imgfs: invalid image resolutions")
	ErrInvalidImgID       = errors.New("imgfs: invalid image ID")
	ErrImageNotFound      = errors.New("imgfs: image not found")
	ErrDuplicateID        = errors.New("imgfs: duplicate image ID")
	ErrImgFSFull          = errors.New("imgfs: image store is full")
)

var errCodes = []struct {
	err  error
	code Code
}{
	{ErrInvalidArgument, CodeInvalidArgument},
	{ErrOutOfMemory, CodeOutOfMemory},
	{ErrIO, CodeIO},
	{ErrRuntime, CodeRuntime},
	{ErrThreading, CodeThreading},
	{ErrImgLib, CodeImgLib},
	{ErrInvalidCommand, CodeInvalidCommand},
	{ErrNotEnoughArguments, CodeNotEnoughArguments},
	{ErrMaxFiles, CodeMaxFiles},
	{ErrResolutions, CodeResolutions},
	{ErrInvalidImgID, CodeInvalidImgID},
	{ErrImageNotFound, CodeImageNotFound},
	{ErrDuplicateID, CodeDuplicateID},
	{ErrImgFSFull, CodeImgFSFull},
}

var codeMessages = map[Code]string{
	CodeNone:               "(no error)",
	CodeInvalidArgument:    "Invalid argument",
	CodeOutOfMemory:        "Out of memory",
	CodeIO:                 "Input/output error",
	CodeRuntime:            "Runtime error",
	CodeThreading:          "Thread error",
	CodeImgLib:             "Image library error",
	CodeInvalidCommand:     "Invalid command",
	CodeNotEnoughArguments: "Not enough arguments",
	CodeMaxFiles:           "Invalid max number of files",
	CodeResolutions:        "Invalid image resolutions",
	CodeInvalidImgID:       "Invalid image ID",
	CodeImageNotFound:      "Image not found",
	CodeDuplicateID:        "Duplicate image ID",
	CodeImgFSFull:          "Image store is full",
}

// CodeOf maps an error to its numeric kind. Unrecognized errors (including
// raw os errors that escaped wrapping) count as I/O errors. nil maps to
// CodeNone.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	for _, ec := range errCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeIO
}

// Message returns the human-readable message for an error kind, as shown in
// HTTP error replies and CLI diagnostics.
func Message(err error) string {
	return codeMessages[CodeOf(err)]
}
