package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Each frame is "data: <json>\n\n" where the body is a JSON serialization
// of StreamChunk, so chunk text may contain any character (including
// newlines) without corrupting frame boundaries. Frames are independently
// parseable; there is no cross-frame state.
const (
	framePrefix = "data:"

	// ContentType is the media type advertised for a frame stream.
	ContentType = "text/event-stream"
)

// Marshal encodes a chunk as a single self-delimited frame.
func Marshal(chunk StreamChunk) ([]byte, error) {
	body, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal chunk: %w", err)
	}
	return []byte(framePrefix + " " + string(body) + "\n\n"), nil
}

// WriteFrame encodes chunk and writes it to w.
func WriteFrame(w io.Writer, chunk StreamChunk) error {
	frame, err := Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	return nil
}

// Scanner reads a frame stream and yields decoded chunks.
//
// Decoding is deliberately lenient: a frame that does not parse is
// dropped silently rather than aborting the stream, so one corrupt frame
// costs its own chunk and nothing else. Callers relying on every content
// chunk should be aware a malformed frame is invisible to them.
type Scanner struct {
	s *bufio.Scanner
}

// NewScanner wraps r in a frame scanner.
func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Scanner{s: s}
}

// Next returns the next decoded chunk. It returns io.EOF once the
// underlying stream ends, and the read error if the transport fails.
func (sc *Scanner) Next() (StreamChunk, error) {
	for sc.s.Scan() {
		line := strings.TrimSpace(sc.s.Text())
		if !strings.HasPrefix(line, framePrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, framePrefix))
		if payload == "" {
			continue
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue // drop malformed frame
		}
		if chunk.Type == "" {
			continue
		}
		return chunk, nil
	}
	if err := sc.s.Err(); err != nil {
		return StreamChunk{}, fmt.Errorf("wire: read stream: %w", err)
	}
	return StreamChunk{}, io.EOF
}
