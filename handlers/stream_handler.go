package handlers

import (
	"io"
	"net/http"

	"motion-monitor/be/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreamHandler struct {
	mjpegService *services.MJPEGService
	logger       *zap.Logger
}

func NewStreamHandler(mjpegService *services.MJPEGService, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		mjpegService: mjpegService,
		logger:       logger.With(zap.String("component", "mjpeg")),
	}
}

// GetVideoFeed relays the camera's multipart JPEG stream as-is. It knows
// nothing about the detection status.
func (h *StreamHandler) GetVideoFeed(c *gin.Context) {
	reader, contentType, err := h.mjpegService.Open(c.Request.Context())
	if err != nil {
		h.logger.Warn("Failed to open frame source", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to open video stream: " + err.Error()})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	buffer := make([]byte, 8192)

	c.Stream(func(w io.Writer) bool {
		n, err := reader.Read(buffer)
		if n > 0 {
			if _, writeErr := w.Write(buffer[:n]); writeErr != nil {
				h.logger.Debug("Viewer went away", zap.Error(writeErr))
				return false
			}
		}
		if err == io.EOF {
			h.logger.Info("Stream ended")
			return false
		}
		return err == nil
	})
}
