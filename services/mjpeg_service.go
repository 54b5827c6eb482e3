package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultMJPEGContentType = "multipart/x-mixed-replace; boundary=frame"
	ffmpegMJPEGContentType  = "multipart/x-mixed-replace; boundary=ffmpeg"
)

var ErrUnsupportedSource = errors.New("unsupported frame source")

// MJPEGService relays the camera's continuous multipart JPEG stream. Every
// viewer gets its own upstream connection; nothing is shared or buffered.
type MJPEGService struct {
	sourceURL string
	client    *resty.Client
	logger    *zap.Logger
	active    int64
}

func NewMJPEGService(sourceURL string, logger *zap.Logger) *MJPEGService {
	return &MJPEGService{
		sourceURL: sourceURL,
		client:    resty.New(),
		logger:    logger.With(zap.String("component", "mjpeg")),
	}
}

// Open connects to the frame source and returns the raw multipart stream and
// its content type. Closing the reader releases the upstream connection.
func (s *MJPEGService) Open(ctx context.Context) (io.ReadCloser, string, error) {
	u, err := url.Parse(s.sourceURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid frame source %q: %w", s.sourceURL, err)
	}

	switch u.Scheme {
	case "http", "https":
		return s.openHTTP(ctx)
	case "rtsp", "rtsps":
		return s.openRTSP(ctx)
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedSource, u.Scheme)
	}
}

func (s *MJPEGService) openHTTP(ctx context.Context) (io.ReadCloser, string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(s.sourceURL)
	if err != nil {
		return nil, "", fmt.Errorf("error connecting to frame source: %w", err)
	}

	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		body.Close()
		return nil, "", fmt.Errorf("frame source returned status %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = DefaultMJPEGContentType
	}

	s.logger.Info("Stream started", zap.String("source", s.sourceURL))
	return s.track(&mjpegReader{reader: body}), contentType, nil
}

func (s *MJPEGService) openRTSP(ctx context.Context) (io.ReadCloser, string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, "", fmt.Errorf("ffmpeg not found, required for RTSP sources: %w", err)
	}

	// mpjpeg muxes JPEG frames into multipart/x-mixed-replace with boundary "ffmpeg"
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-rtsp_transport", "tcp",
		"-i", s.sourceURL,
		"-vf", "fps=15,scale=1280:720",
		"-q:v", "5",
		"-f", "mpjpeg",
		"-loglevel", "error",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, "", fmt.Errorf("error creating stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, "", fmt.Errorf("error starting FFmpeg: %w", err)
	}

	s.logger.Info("Stream started", zap.String("source", s.sourceURL), zap.Int("pid", cmd.Process.Pid))
	return s.track(&mjpegReader{reader: stdout, cmd: cmd}), ffmpegMJPEGContentType, nil
}

func (s *MJPEGService) track(r *mjpegReader) io.ReadCloser {
	atomic.AddInt64(&s.active, 1)
	r.onClose = func() {
		atomic.AddInt64(&s.active, -1)
		s.logger.Info("Stream stopped", zap.String("source", s.sourceURL))
	}
	return r
}

// ActiveStreams is the number of open relays.
func (s *MJPEGService) ActiveStreams() int64 {
	return atomic.LoadInt64(&s.active)
}

// mjpegReader wraps the upstream body and makes sure FFmpeg is stopped.
type mjpegReader struct {
	reader  io.ReadCloser
	cmd     *exec.Cmd
	onClose func()
	once    sync.Once
}

func (r *mjpegReader) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

func (r *mjpegReader) Close() error {
	var err error
	r.once.Do(func() {
		err = r.reader.Close()
		if r.cmd != nil && r.cmd.Process != nil {
			r.cmd.Process.Kill()
			r.cmd.Wait()
		}
		if r.onClose != nil {
			r.onClose()
		}
	})
	return err
}
