package models

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// DetectionStatus mirrors the published status record. Timestamp is epoch
// milliseconds and stays nil until the publisher has written at least once.
type DetectionStatus struct {
	MotionDetected bool   `json:"motion_detected"`
	HumansPresent  bool   `json:"humans_present"`
	Timestamp      *int64 `json:"timestamp"`
}

func DefaultDetectionStatus() DetectionStatus {
	return DetectionStatus{}
}

// UpdatedAt returns the timestamp as a time.Time; ok is false when no update
// has been recorded.
func (s DetectionStatus) UpdatedAt() (t time.Time, ok bool) {
	if s.Timestamp == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.Timestamp), true
}

type wireStatus struct {
	MotionDetected bool         `json:"motion_detected"`
	HumansPresent  bool         `json:"humans_present"`
	Timestamp      *json.Number `json:"timestamp"`
}

// ParseSnapshot turns a raw record value into a DetectionStatus. Empty, null
// and undecodable values all produce the default record. Fields missing from
// a partial record read as their defaults.
func ParseSnapshot(raw []byte) DetectionStatus {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return DefaultDetectionStatus()
	}

	var w wireStatus
	if err := json.Unmarshal(raw, &w); err != nil {
		return DefaultDetectionStatus()
	}

	status := DetectionStatus{
		MotionDetected: w.MotionDetected,
		HumansPresent:  w.HumansPresent,
	}
	if w.Timestamp != nil {
		if ms, ok := parseMillis(*w.Timestamp); ok {
			status.Timestamp = &ms
		}
	}
	return status
}

func parseMillis(n json.Number) (int64, bool) {
	if ms, err := n.Int64(); err == nil {
		return ms, true
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
