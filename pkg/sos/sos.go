// Package sos holds the decision logic mapping inReach IPC message
// codes onto the emergency lifecycle of an asset. Decide is a pure
// function; applying its outcome to the stored asset is the tracker's
// job.
package sos

import (
	"time"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
)

// IPC message codes as delivered by the upstream push. The enumeration
// is closed: codes outside the table fall through to the default rule.
const (
	CodePositionReport = 0
	CodeFreeText       = 2
	CodeCannedText     = 3
	CodeQuickText      = 3099
	CodeDeclareSOS     = 4
	CodeConfirmSOS     = 6
	CodeCancelSOS      = 7
	CodeReferencePoint = 8
	CodeTrackStart     = 10
	CodeTrackInterval  = 11
	CodeTrackStop      = 12
)

// Decision is the outcome of running one inbound event through the
// lifecycle table.
type Decision struct {
	ActiveSOS bool

	// DeclaredAt is non-zero only for a declare transition. A confirm
	// (code 6) must leave the original declare time untouched so that
	// an acknowledgement computed against it stays valid.
	DeclaredAt time.Time

	// CancelledAt is non-zero only for a cancel transition.
	CancelledAt time.Time

	Timeline model.TimelineEntry

	// Message is non-nil when the event carries text that belongs in
	// the message log.
	Message *model.MessageEntry
}

// Decide maps (current SOS flag, message code, event time, free text)
// to the new SOS fields, the timeline entry and an optional message
// log entry. Events are interpreted in processing order; the event
// timestamps are not trusted for ordering.
func Decide(active bool, code int, eventTime time.Time, text string) Decision {
	d := Decision{
		ActiveSOS: active,
		Timeline: model.TimelineEntry{
			Code:      code,
			Timestamp: eventTime,
		},
	}

	switch code {
	case CodePositionReport:
		d.Timeline.Type = model.TimelinePositionReport

	case CodeFreeText, CodeCannedText, CodeQuickText:
		d.Timeline.Type = model.TimelineInboundMessage
		d.Timeline.Text = text
		d.Message = inboundMessage(text, eventTime, active)

	case CodeDeclareSOS:
		d.ActiveSOS = true
		d.DeclaredAt = eventTime
		d.Timeline.Type = model.TimelineSOSDeclare
		d.Timeline.Text = text
		if text != "" {
			d.Message = inboundMessage(text, eventTime, true)
		}

	case CodeConfirmSOS:
		// The emergency stays active; the declare time is preserved.
		d.Timeline.Type = model.TimelineSOSUpdate
		d.Timeline.Text = text
		if text != "" {
			d.Message = inboundMessage(text, eventTime, d.ActiveSOS)
		}

	case CodeCancelSOS:
		d.ActiveSOS = false
		d.CancelledAt = eventTime
		d.Timeline.Type = model.TimelineSOSCancel
		d.Timeline.Text = text

	case CodeReferencePoint:
		d.Timeline.Type = model.TimelineReferencePoint

	case CodeTrackStart:
		d.Timeline.Type = model.TimelineTrackStart

	case CodeTrackInterval:
		d.Timeline.Type = model.TimelineTrackInterval

	case CodeTrackStop:
		d.Timeline.Type = model.TimelineTrackStop

	default:
		d.Timeline.Type = model.TimelineUnknown
		if text != "" {
			d.Timeline.Text = text
			d.Message = inboundMessage(text, eventTime, active)
		}
	}

	return d
}

func inboundMessage(text string, at time.Time, isSOS bool) *model.MessageEntry {
	return &model.MessageEntry{
		Direction: model.DirectionInbound,
		Text:      text,
		Timestamp: at,
		IsSOS:     isSOS,
	}
}
