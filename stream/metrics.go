package stream

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

var (
	framesWritten       = metrics.NewCounter("skate_stream_frames_written_total")
	framesRead          = metrics.NewCounter("skate_stream_frames_read_total")
	payloadBytesWritten = metrics.NewCounter("skate_stream_payload_bytes_written_total")
	payloadBytesRead    = metrics.NewCounter("skate_stream_payload_bytes_read_total")
)

// WriteMetrics writes the frame and byte counters in Prometheus text
// format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
