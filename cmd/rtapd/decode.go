package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"rtapmon/pkg/logger"
	"rtapmon/pkg/protocol"
)

type decodeOptions struct {
	json bool
}

func newDecodeCmd(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{}
	cmd := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode one radiotap buffer given as hex",
		Long: `Decode one radiotap buffer and print its fields.

Spaces, colons and a leading 0x are ignored in the hex argument.

Examples:
  rtapd decode 0000080000000000
  rtapd decode "00 00 0a 00 06 00 00 00 10 0c" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, root, opts, strings.Join(args, ""))
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the JSONL record instead of a table")
	return cmd
}

func runDecode(cmd *cobra.Command, root *rootOptions, opts *decodeOptions, raw string) error {
	_, _, dec, err := loadRuntime(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	buf, err := parseHex(raw)
	if err != nil {
		return err
	}

	c := dec.Decode("cli", time.Now(), buf)
	out := cmd.OutOrStdout()
	if opts.json {
		if err := logger.NewJSONLWriter(out).Write(c); err != nil {
			return err
		}
	} else {
		printCapture(out, c)
	}
	if c.Err != nil {
		return c.Err
	}
	return nil
}

func parseHex(raw string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(strings.TrimSpace(raw))
	clean = strings.TrimPrefix(strings.TrimPrefix(clean, "0x"), "0X")
	buf, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return buf, nil
}

func printCapture(w io.Writer, c protocol.Capture) {
	fmt.Fprintf(w, "header: %d bytes, %d presence word(s)\n", c.Header.Len(), c.Header.WordCount())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tBIT\tNAMESPACE\tNAME\tOFFSET\tLEN\tHEX")
	for _, f := range c.Fields {
		name := f.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%d\t%s\n",
			f.Word, f.Bit, f.Namespace, name, f.Offset, f.Length, hex.EncodeToString(f.Data))
	}
	_ = tw.Flush()

	s := c.Summary
	if s.ChannelMHz != nil {
		fmt.Fprintf(w, "channel: %d MHz\n", *s.ChannelMHz)
	}
	if kbps, ok := s.RateKbps(); ok {
		fmt.Fprintf(w, "rate: %d kb/s\n", kbps)
	}
	if s.DBMSignal != nil {
		fmt.Fprintf(w, "signal: %d dBm\n", *s.DBMSignal)
	}
	if c.Dot11 != nil {
		fmt.Fprintf(w, "802.11: %s %s -> %s\n", c.Dot11.Type, c.Dot11.Addr2, c.Dot11.Addr1)
	}
}
