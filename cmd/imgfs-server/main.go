// Command imgfs-server serves an ImgFS store over HTTP.
//
// Usage: imgfs-server <imgFS_filename> [port]
//
// The port must be at least 1024 and defaults to 8000. SIGINT or SIGTERM
// shuts the listener down and closes the store.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	imgfs "github.com/ehrlich-b/go-imgfs"
	"github.com/ehrlich-b/go-imgfs/internal/server"
)

const (
	defaultPort   = 8000
	firstUserPort = 1024
	indexFile     = "index.html"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	err := serve(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", imgfs.Message(err))
	}
	return int(imgfs.CodeOf(err))
}

func serve(args []string) error {
	if len(args) < 1 {
		return imgfs.ErrNotEnoughArguments
	}
	if len(args) > 2 {
		return imgfs.ErrInvalidCommand
	}

	port := uint16(defaultPort)
	if len(args) == 2 {
		p, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil || p < firstUserPort {
			return fmt.Errorf("%w: port %q", imgfs.ErrInvalidArgument, args[1])
		}
		port = uint16(p)
	}

	fs, err := imgfs.Open(args[0])
	if err != nil {
		return err
	}
	defer fs.Close()

	header := fs.Header()
	fmt.Print(header.String())

	srv := server.New(fs, server.Config{Port: port, IndexFile: indexFile})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "Shutting down...")
		srv.Close()
		<-errCh
		return nil
	}
}
