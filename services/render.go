package services

import (
	"time"

	"motion-monitor/be/models"
)

// LastUpdatedLayout matches the en-US toLocaleString shape browsers show.
const LastUpdatedLayout = "1/2/2006, 3:04:05 PM"

type IndicatorTone string

const (
	TonePositive IndicatorTone = "positive"
	ToneNegative IndicatorTone = "negative"
)

type Indicator struct {
	Label string        `json:"label"`
	Text  string        `json:"text"`
	Tone  IndicatorTone `json:"tone"`
	Class string        `json:"class"`
}

// PanelView is everything the page needs to draw the status panel.
type PanelView struct {
	Motion      Indicator              `json:"motion"`
	Humans      Indicator              `json:"humans"`
	LastUpdated string                 `json:"last_updated,omitempty"`
	Status      models.DetectionStatus `json:"status"`
}

func (v PanelView) HasTimestamp() bool {
	return v.LastUpdated != ""
}

// RenderPanel is a pure function of the status and the viewer's location.
func RenderPanel(status models.DetectionStatus, loc *time.Location) PanelView {
	if loc == nil {
		loc = time.Local
	}

	view := PanelView{
		Motion: indicator("Motion Status", status.MotionDetected, "Detected", "No Motion"),
		Humans: indicator("Human Presence", status.HumansPresent, "Detected", "No Humans"),
		Status: status,
	}
	if at, ok := status.UpdatedAt(); ok {
		view.LastUpdated = at.In(loc).Format(LastUpdatedLayout)
	}
	return view
}

func indicator(label string, on bool, onText, offText string) Indicator {
	if on {
		return Indicator{Label: label, Text: onText, Tone: TonePositive, Class: "text-green-500"}
	}
	return Indicator{Label: label, Text: offText, Tone: ToneNegative, Class: "text-red-500"}
}

// ViewerLocation resolves an IANA zone name sent by the viewer, falling back
// to def when it is empty or unknown.
func ViewerLocation(name string, def *time.Location) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if def == nil {
		return time.Local
	}
	return def
}
