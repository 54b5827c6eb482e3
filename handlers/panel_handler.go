package handlers

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"time"

	"motion-monitor/be/models"
	"motion-monitor/be/realtime"
	"motion-monitor/be/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates returns the page templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

const (
	StatusStreamPath = "/api/v1/status/ws"
	readTimeout      = 5 * time.Second
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the panel is read-only and public, same as the page itself
	CheckOrigin: func(r *http.Request) bool { return true },
}

type PanelHandler struct {
	source   realtime.Source
	path     string
	loc      *time.Location
	videoURL string
	logger   *zap.Logger
}

func NewPanelHandler(source realtime.Source, path string, loc *time.Location, videoURL string, logger *zap.Logger) *PanelHandler {
	return &PanelHandler{
		source:   source,
		path:     path,
		loc:      loc,
		videoURL: videoURL,
		logger:   logger.With(zap.String("component", "panel")),
	}
}

func (h *PanelHandler) viewerLocation(c *gin.Context) *time.Location {
	return services.ViewerLocation(c.Query("tz"), h.loc)
}

func (h *PanelHandler) currentStatus(c *gin.Context) (models.DetectionStatus, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readTimeout)
	defer cancel()

	snap, err := realtime.ReadOnce(ctx, h.source, h.path)
	if err != nil {
		return models.DefaultDetectionStatus(), err
	}
	return models.ParseSnapshot(snap.Value), nil
}

// Index renders the page with whatever status is published right now; the
// page script then keeps it live over the websocket.
func (h *PanelHandler) Index(c *gin.Context) {
	status, err := h.currentStatus(c)
	if err != nil {
		h.logger.Warn("Failed to read status for page", zap.Error(err))
	}

	c.HTML(http.StatusOK, "panel.html", gin.H{
		"View":       services.RenderPanel(status, h.viewerLocation(c)),
		"VideoURL":   h.videoURL,
		"StreamPath": StatusStreamPath,
	})
}

func (h *PanelHandler) GetStatus(c *gin.Context) {
	status, err := h.currentStatus(c)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read status: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetView returns the rendered panel for the viewer's timezone.
func (h *PanelHandler) GetView(c *gin.Context) {
	status, err := h.currentStatus(c)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read status: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, services.RenderPanel(status, h.viewerLocation(c)))
}

// StatusWebSocket mounts one panel for the lifetime of the connection and
// pushes every rendered view to the browser.
func (h *PanelHandler) StatusWebSocket(c *gin.Context) {
	loc := h.viewerLocation(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	panel := services.NewPanel(h.source, h.path, loc, h.logger)
	if err := panel.Mount(ctx); err != nil {
		h.logger.Warn("Failed to mount panel", zap.Error(err))
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.WriteJSON(gin.H{"error": "status unavailable"})
		return
	}
	defer panel.Unmount()

	// the browser never sends anything; reading only notices the close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-panel.Updates():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(view); err != nil {
				h.logger.Debug("WebSocket write failed", zap.String("panel_id", panel.ID), zap.Error(err))
				return
			}
		}
	}
}

// StatusEvents is the Server-Sent Events flavour of StatusWebSocket.
func (h *PanelHandler) StatusEvents(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	panel := services.NewPanel(h.source, h.path, h.viewerLocation(c), h.logger)
	if err := panel.Mount(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to subscribe: " + err.Error()})
		return
	}
	defer panel.Unmount()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case view, ok := <-panel.Updates():
			if !ok {
				return false
			}
			c.SSEvent("status", view)
			return true
		}
	})
}
