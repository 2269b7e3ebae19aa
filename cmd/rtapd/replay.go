package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rtapmon/pkg/logger"
	"rtapmon/pkg/transport"
)

type replayOptions struct {
	log    string
	source string
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <file.pcap>",
		Short: "Decode every frame of a pcap or pcapng capture to JSONL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.log, "log", "", "JSONL output path (default: stdout)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Source label for records (default: file name)")
	return cmd
}

func runReplay(cmd *cobra.Command, root *rootOptions, opts *replayOptions, path string) error {
	_, log, dec, err := loadRuntime(root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer file.Close()

	out, closeOut, err := openOutput(opts.log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	source := opts.source
	if source == "" {
		source = filepath.Base(path)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	frames := make(chan transport.Frame, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(frames)
		_, err := transport.ReadCapture(ctx, file, source, frames)
		errCh <- err
	}()

	jsonl := logger.NewJSONLWriter(out)
	var total, failed int
	for frame := range frames {
		c := dec.Decode(frame.Source, frame.Timestamp, frame.Data)
		total++
		if c.Err != nil {
			failed++
		}
		if err := jsonl.Write(c); err != nil {
			cancel()
			for range frames {
			}
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	log.Info().Str("file", path).Int("frames", total).Int("failed", failed).Msg("replay finished")
	return nil
}
