package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if err := execute(context.Background(), args, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func execute(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "rtapd",
		Short: "Radiotap capture decoder daemon",
		Long: `rtapd decodes radiotap-prefixed 802.11 captures.

Frames arrive over TCP as COBS-framed buffers (server), from pcap or pcapng
files (replay), or as a single hex string (decode). Decoded captures are
written as JSONL and, in server mode, published to Foxglove Studio and a
Prometheus endpoint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "rtapd.toml", "Path to TOML config (missing file uses defaults)")

	root.AddCommand(
		newServerCmd(opts),
		newReplayCmd(opts),
		newDecodeCmd(opts),
	)
	return root
}
