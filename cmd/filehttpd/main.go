package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"filehttpd/internal/config"
)

const usageLine = "usage: filehttpd -p PORT -r DOCUMENT_DIRECTORY -t AUTH_TOKEN"

var errUsage = errors.New("bad usage")

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code:
// 0 after a clean stop, 1 on any startup or fatal error.
func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	switch {
	case errors.Is(err, config.ErrMissingMandatory):
		fmt.Fprintln(w, config.MandatoryMessage)
		fmt.Fprintln(w, usageLine)
	case errors.Is(err, config.ErrPortRange):
		fmt.Fprintln(w, config.PortRangeMessage)
		fmt.Fprintln(w, usageLine)
	case errors.Is(err, errUsage):
		fmt.Fprintf(w, "filehttpd: %v\n", err)
		fmt.Fprintln(w, usageLine)
	default:
		fmt.Fprintf(w, "filehttpd: %v\n", err)
	}
}
