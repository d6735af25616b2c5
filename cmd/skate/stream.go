package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/owacoder/skate-sub000/json"
	"github.com/owacoder/skate-sub000/stream"
	"github.com/owacoder/skate-sub000/value"
)

func newStreamCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Read and write framed document streams",
	}
	cmd.AddCommand(newStreamEncodeCmd(v), newStreamDecodeCmd(v))
	return cmd
}

func newStreamEncodeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Write a JSON array as one doc frame per element",
		Long: `Write each element of a JSON array as a doc frame, followed by a final
ack frame. Any other document becomes a single frame.`,
		Example: `  echo '[{"id":1},{"id":2}]' | skate stream encode --crc > docs.frames`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var doc value.Value
			if err := json.UnmarshalWithOptions(data, &doc, readOptions(v)); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			var opts []stream.WriterOption
			if v.GetBool("crc") {
				opts = append(opts, stream.WithCRC())
			}
			if v.GetBool("compress") {
				ok, level := zstd.EncoderLevelFromString(v.GetString("level"))
				if !ok {
					return fmt.Errorf("unknown compression level %q", v.GetString("level"))
				}
				opts = append(opts, stream.WithCompression(level))
			}

			sid := v.GetUint64("sid")
			enc, err := stream.NewEncoder(cmd.OutOrStdout(), sid, opts...)
			if err != nil {
				return err
			}
			docs := []value.Value{doc}
			if doc.Kind() == value.KindArray {
				docs = doc.Elems()
			}
			for _, d := range docs {
				if err := enc.Encode(d); err != nil {
					enc.Close()
					return err
				}
			}
			if err := enc.Close(); err != nil {
				return err
			}
			streamLog.Infof("sid %d: wrote %d documents", sid, len(docs))
			return nil
		},
	}
	cmd.Flags().Uint64("sid", 1, "stream ID of the frames")
	cmd.Flags().Bool("crc", false, "add a CRC-32 to each frame")
	cmd.Flags().Bool("compress", false, "zstd-compress payloads")
	cmd.Flags().String("level", "default", "compression level (fastest, default, better, best)")
	return cmd
}

func newStreamDecodeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Print the doc frames of a stream as JSON lines",
		Long: `Read frames and print each document as one line of compact JSON.
Sequence numbers and base hashes are checked per stream ID; err frames
are logged and make the command fail once the input is exhausted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			var opts []stream.ReaderOption
			if v.GetBool("no-verify") {
				opts = append(opts, stream.WithCRCVerification(false))
			}
			if n := v.GetInt("max-payload"); n > 0 {
				opts = append(opts, stream.WithMaxPayload(n))
			}
			r := stream.NewReader(in, opts...)
			defer r.Close()

			out := cmd.OutOrStdout()
			writeOpts := json.DefaultWriteOptions()
			writeOpts.AllowNonFinite = true

			var remote []error
			h := stream.NewFrameHandler()
			h.ReadOptions = readOptions(v)
			h.OnDoc = func(sid, seq uint64, doc value.Value) error {
				streamLog.Debugf("sid %d seq %d: doc", sid, seq)
				line, err := json.MarshalWithOptions(doc, writeOpts)
				if err != nil {
					return err
				}
				return writeLine(out, line)
			}
			h.OnErr = func(sid, seq uint64, message string) error {
				streamLog.Errorf("sid %d seq %d: remote error: %s", sid, seq, message)
				remote = append(remote, &stream.RemoteError{SID: sid, Seq: seq, Message: message})
				return nil
			}
			h.OnSeqGap = func(sid uint64, expected, got uint64) error {
				if v.GetBool("allow-gaps") {
					streamLog.Warningf("sid %d: frames %d..%d missing", sid, expected, got-1)
					return nil
				}
				return &stream.SequenceError{SID: sid, Expected: expected, Got: got}
			}
			h.OnFinal = func(sid uint64) error {
				streamLog.Debugf("sid %d: final", sid)
				return nil
			}

			frames := 0
			for {
				frame, err := r.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				frames++
				if err := h.Handle(frame); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			streamLog.Infof("%s: %d frames, %d streams", name, frames, len(h.Tracker.SIDs()))
			return errors.Join(remote...)
		},
	}
	cmd.Flags().Bool("no-verify", false, "skip CRC verification")
	cmd.Flags().Int("max-payload", 0, "maximum payload size in bytes (default 64 MiB)")
	cmd.Flags().Bool("allow-gaps", false, "log missing frames instead of failing")
	cmd.Flags().Bool("allow-non-finite", false, "accept Infinity and NaN in payloads")
	return cmd
}
