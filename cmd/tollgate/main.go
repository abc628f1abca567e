package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjaminclauss/tollgate/internal/protocol"
)

const dialTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tollgate [address] [port] [action] [plate] [point]",
		Short: "Send one toll transaction to a tollgated server",
		Long: `tollgate reports a vehicle entry or exit to a tollgated server and prints
the server's response. Arguments omitted on the command line are prompted
for interactively.`,
		Args:         cobra.MaximumNArgs(5),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.InOrStdin(), cmd.OutOrStdout(), args)
		},
	}
}

func run(in io.Reader, out io.Writer, args []string) error {
	prompts := []string{
		"Enter server address (e.g. 127.0.0.1): ",
		"Enter server port (e.g. 9740): ",
		"Enter action (ENTRY/EXIT): ",
		"Enter vehicle plate number: ",
		"Enter toll point number: ",
	}

	reader := bufio.NewReader(in)
	values := make([]string, len(prompts))
	for i, prompt := range prompts {
		if i < len(args) {
			values[i] = strings.TrimSpace(args[i])
			continue
		}
		value, err := promptValue(reader, out, prompt)
		if err != nil {
			return err
		}
		values[i] = value
	}

	address, port := values[0], values[1]
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("port must be an integer, got %q", port)
	}

	req := &protocol.Request{
		// Interactive users type lowercase; the wire action is upper-case.
		Action: strings.ToUpper(values[2]),
		Plate:  values[3],
		Point:  values[4],
	}

	resp, err := send(net.JoinHostPort(address, port), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, resp)
	if !resp.OK {
		return errors.New("request rejected")
	}
	return nil
}

func promptValue(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func send(addr string, req *protocol.Request) (*protocol.Response, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(dialTimeout))
	if err := protocol.WriteRequest(conn, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}
