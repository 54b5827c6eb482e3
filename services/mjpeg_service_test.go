package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testFrame = "--frame\r\nContent-Type: image/jpeg\r\n\r\n\xff\xd8\xff\xd9\r\n"

func TestMJPEGService_RelaysHTTPSource(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", DefaultMJPEGContentType)
		io.WriteString(w, testFrame)
		io.WriteString(w, testFrame)
	}))
	defer upstream.Close()

	svc := NewMJPEGService(upstream.URL+"/video_feed", zap.NewNop())

	reader, contentType, err := svc.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultMJPEGContentType, contentType)
	assert.Equal(t, int64(1), svc.ActiveStreams())

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, testFrame+testFrame, string(body))

	require.NoError(t, reader.Close())
	assert.NoError(t, reader.Close())
	assert.Equal(t, int64(0), svc.ActiveStreams())
}

func TestMJPEGService_DefaultsContentType(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.Write([]byte(testFrame))
	}))
	defer upstream.Close()

	reader, contentType, err := NewMJPEGService(upstream.URL, zap.NewNop()).Open(context.Background())
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, DefaultMJPEGContentType, contentType)
}

func TestMJPEGService_UpstreamErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera not detected", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	svc := NewMJPEGService(upstream.URL, zap.NewNop())

	_, _, err := svc.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int64(0), svc.ActiveStreams())
}

func TestMJPEGService_UnsupportedScheme(t *testing.T) {
	svc := NewMJPEGService("ftp://camera.local/feed", zap.NewNop())

	_, _, err := svc.Open(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
