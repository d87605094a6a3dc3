// Command reqdump listens for TCP traffic and prints how each request is
// read, validated and classified. It never serves files or stops on
// TERMINATE; requests that would reach a handler are answered 200 OK.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"filehttpd/internal/headers"
	"filehttpd/internal/request"
	"filehttpd/internal/response"
	"filehttpd/internal/status"

	"github.com/spf13/cobra"
)

const defaultPort = 42069

func main() {
	var (
		port    int
		maxLine int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:          "reqdump",
		Short:        "Print the validation verdict of every request received",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listen(port, maxLine, timeout)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on")
	cmd.Flags().IntVar(&maxLine, "max-line", request.DefaultMaxLine, "maximum request line length in bytes")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "connection deadline")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func listen(port, maxLine int, timeout time.Duration) error {
	tcp, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}
	defer tcp.Close()

	fmt.Println("Listening for TCP traffic on", tcp.Addr())
	for {
		conn, err := tcp.Accept()
		if err != nil {
			fmt.Println("ERROR: failed to accept.\n", err)
			continue
		}
		go handleConn(conn, os.Stdout, maxLine, timeout)
	}
}

func handleConn(conn net.Conn, out io.Writer, maxLine int, timeout time.Duration) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout)) // optional safety

	req, err := request.ReadRequest(bufio.NewReaderSize(conn, headers.ReadBufferSize), maxLine)
	if err != nil {
		fmt.Fprintln(out, "ERROR: no request:", err)
		return
	}

	dump(out, req)

	st := req.Status
	if !st.IsSet() {
		st = status.OK
	}
	w := response.NewWriter(conn)
	if err := w.WriteStatusLine(st); err != nil {
		return
	}
	_ = w.WriteHeaders(response.GetDefaultHeaders(0))
}

func dump(out io.Writer, req *request.Request) {
	if req.Rejected() {
		fmt.Fprintf(out, "Rejected: %s (%v)\n", req.Status, req.Cause)
		return
	}

	fmt.Fprintf(out, "Request line:\n- Method: %s\n- Argument: %s\n- Protocol: %s\n",
		req.RequestLine.Method, req.RequestLine.Argument, req.RequestLine.Protocol)
	fmt.Fprintf(out, "Classified as: %s\n", req.Method)

	if req.Status.IsSet() {
		fmt.Fprintf(out, "Verdict: %s\n", req.Status)
	} else {
		fmt.Fprintf(out, "Verdict: passed, %s handler would run\n", req.Method)
	}

	fmt.Fprintf(out, "Header lines drained: %d\n", req.HeaderLines)
	if req.HeaderErr != nil {
		fmt.Fprintln(out, "- drain error:", req.HeaderErr)
	}
}
