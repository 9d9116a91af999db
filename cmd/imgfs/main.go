// Command imgfs is the command-line interface to an ImgFS store.
package main

import (
	"os"

	"github.com/ehrlich-b/go-imgfs/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args[1:]))
}
