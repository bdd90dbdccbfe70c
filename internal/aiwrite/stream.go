package aiwrite

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// StreamReader yields the text deltas of a server-sent chat completion
// stream. It is finite and cannot be restarted: Next returns io.EOF after the
// [DONE] frame or when the connection ends.
type StreamReader struct {
	reader *bufio.Reader
	body   io.ReadCloser
	logger *zap.Logger
	done   bool
	err    error
}

func NewStreamReader(body io.ReadCloser, logger *zap.Logger) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(body),
		body:   body,
		logger: logger,
	}
}

// Next returns the next non-empty delta. Frames that cannot be parsed are
// skipped.
func (s *StreamReader) Next() (string, error) {
	for !s.done {
		line, readErr := s.reader.ReadBytes('\n')
		if readErr != nil {
			s.done = true
			if !errors.Is(readErr, io.EOF) {
				s.err = readErr
			}
		}
		if len(line) > 0 {
			if delta, ok := s.frame(line); ok {
				return delta, nil
			}
		}
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

// frame parses a single line and reports whether it carried text.
func (s *StreamReader) frame(line []byte) (string, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, dataPrefix) {
		return "", false
	}
	payload := bytes.TrimPrefix(bytes.TrimPrefix(line, dataPrefix), []byte(" "))
	if bytes.Equal(payload, doneMarker) {
		s.done = true
		return "", false
	}

	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		s.logger.Debug("Skipping malformed stream frame", zap.Error(err), zap.ByteString("frame", payload))
		return "", false
	}
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return "", false
	}
	return chunk.Choices[0].Delta.Content, true
}

func (s *StreamReader) Close() error {
	s.done = true
	return s.body.Close()
}
