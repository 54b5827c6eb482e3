package models

import (
	"time"
)

// DetectionEvent is one status record written on behalf of the publisher.
type DetectionEvent struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	MotionDetected bool      `json:"motion_detected" gorm:"not null"`
	HumansPresent  bool      `json:"humans_present" gorm:"not null"`
	Timestamp      int64     `json:"timestamp" gorm:"not null;index"`
	Source         string    `json:"source" gorm:"not null;default:http"` // http, mqtt
	CreatedAt      time.Time `json:"created_at"`
}

func (e DetectionEvent) Status() DetectionStatus {
	ts := e.Timestamp
	return DetectionStatus{
		MotionDetected: e.MotionDetected,
		HumansPresent:  e.HumansPresent,
		Timestamp:      &ts,
	}
}
