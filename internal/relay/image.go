package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type randomPhoto struct {
	URLs struct {
		Raw string `json:"raw"`
	} `json:"urls"`
}

// handleImage asks the image API for a random landscape photo and answers
// with {url}, sized for a full-screen background.
func (s *Server) handleImage(c *gin.Context) {
	if s.cfg.ImageAccessKey == "" {
		c.JSON(http.StatusInternalServerError, errorBody("Server not configured"))
		return
	}

	query := url.Values{}
	query.Set("query", "nature landscape")
	query.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, s.cfg.ImageUpstreamURL+"?"+query.Encode(), nil)
	if err != nil {
		s.logger.Error("Failed to build image upstream request", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Proxy error"))
		return
	}
	req.Header.Set("Authorization", "Client-ID "+s.cfg.ImageAccessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.client.Do(req)
	if err != nil {
		trackUpstream("image", 0)
		s.logger.Warn("Image upstream unreachable", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Proxy error"))
		return
	}
	defer resp.Body.Close()
	trackUpstream("image", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("Image upstream error", zap.Int("status", resp.StatusCode))
		c.JSON(resp.StatusCode, errorBody("Upstream error"))
		return
	}

	var photo randomPhoto
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		s.logger.Warn("Image upstream returned invalid JSON", zap.Error(err))
		c.JSON(http.StatusBadGateway, errorBody("Proxy error"))
		return
	}
	if photo.URLs.Raw == "" {
		c.JSON(http.StatusBadGateway, errorBody("No image URL"))
		return
	}

	c.Header("Cache-Control", "private, max-age=0")
	c.JSON(http.StatusOK, gin.H{"url": sizedImageURL(photo.URLs.Raw, s.cfg.ImageWidth)})
}

func sizedImageURL(raw string, width int) string {
	sep := "&"
	if !strings.Contains(raw, "?") {
		sep = "?"
	}
	return fmt.Sprintf("%s%sw=%d&fit=crop&q=80", raw, sep, width)
}
