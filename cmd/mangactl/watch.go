package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const reconnectDelay = time.Second

func newWatchCommand() *cobra.Command {
	var (
		tcpAddr string
		wsURL   string
		pretty  bool
		once    bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print collection changes from a running api-server",
		Long:  "Connects to the TCP feed (--tcp) or the WebSocket feed (--ws) and prints each event.",
		Args:  cobra.NoArgs,
		// No store is needed to follow the feed.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if (tcpAddr == "") == (wsURL == "") {
				return errors.New("exactly one of --tcp or --ws is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			for {
				var err error
				if tcpAddr != "" {
					err = watchTCP(ctx, tcpAddr, cmd.OutOrStdout(), pretty)
				} else {
					err = watchWS(ctx, wsURL, cmd.OutOrStdout(), pretty)
				}
				if ctx.Err() != nil {
					return nil
				}
				if once {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "disconnected: %v, reconnecting\n", err)

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(reconnectDelay):
				}
			}
		},
	}
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "TCP feed address, e.g. 127.0.0.1:7070")
	cmd.Flags().StringVar(&wsURL, "ws", "", "WebSocket feed URL, e.g. ws://localhost:4000/ws")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	cmd.Flags().BoolVar(&once, "once", false, "exit instead of reconnecting when the feed closes")
	return cmd
}

func watchTCP(ctx context.Context, addr string, out io.Writer, pretty bool) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	return printEvents(conn, out, pretty)
}

func watchWS(ctx context.Context, url string, out io.Writer, pretty bool) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(out, msg, pretty)
	}
}

// printEvents copies newline-delimited events from r until it closes.
func printEvents(r io.Reader, out io.Writer, pretty bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		printEvent(out, sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func printEvent(out io.Writer, line []byte, pretty bool) {
	line = trimNewline(line)
	if !pretty {
		fmt.Fprintln(out, string(line))
		return
	}

	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Fprintln(out, string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(out, string(b))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
