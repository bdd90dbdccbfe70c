package relay

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleChat forwards the JSON body verbatim with the server-held bearer key
// and streams the upstream response back as it arrives.
func (s *Server) handleChat(c *gin.Context) {
	if s.cfg.ChatAPIKey == "" {
		c.JSON(http.StatusInternalServerError, errorBody("Server not configured"))
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		s.logger.Warn("Failed to read chat request body", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Proxy error"))
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, s.cfg.ChatUpstreamURL, bytes.NewReader(body))
	if err != nil {
		s.logger.Error("Failed to build chat upstream request", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Proxy error"))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.ChatAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		trackUpstream("chat", 0)
		s.logger.Warn("Chat upstream unreachable", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Proxy error"))
		return
	}
	defer resp.Body.Close()
	trackUpstream("chat", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("Chat upstream error", zap.Int("status", resp.StatusCode))
		c.JSON(resp.StatusCode, errorBody("Upstream error"))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	activeStreams.Inc()
	defer activeStreams.Dec()

	written, err := s.pipe(c, resp.Body)
	if err != nil {
		// Headers are gone already; the client sees a truncated stream.
		s.logger.Warn("Chat stream interrupted", zap.Error(err), zap.Int64("bytes", written))
		return
	}
	s.logger.Debug("Chat stream relayed", zap.Int64("bytes", written))
}

// pipe copies src to the client, flushing after every read so events are
// delivered as soon as the upstream emits them.
func (s *Server) pipe(c *gin.Context, src io.Reader) (int64, error) {
	buf := make([]byte, 4096)
	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			w, err := c.Writer.Write(buf[:n])
			total += int64(w)
			if err != nil {
				return total, err
			}
			c.Writer.Flush()
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return total, nil
			}
			return total, readErr
		}
	}
}
