package sos_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/sos"
)

var eventTime = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func TestDecideTimelineTypes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want model.TimelineEntryType
	}{
		{"position report", sos.CodePositionReport, model.TimelinePositionReport},
		{"free text", sos.CodeFreeText, model.TimelineInboundMessage},
		{"canned text", sos.CodeCannedText, model.TimelineInboundMessage},
		{"quick text", sos.CodeQuickText, model.TimelineInboundMessage},
		{"declare", sos.CodeDeclareSOS, model.TimelineSOSDeclare},
		{"confirm", sos.CodeConfirmSOS, model.TimelineSOSUpdate},
		{"cancel", sos.CodeCancelSOS, model.TimelineSOSCancel},
		{"reference point", sos.CodeReferencePoint, model.TimelineReferencePoint},
		{"track start", sos.CodeTrackStart, model.TimelineTrackStart},
		{"track interval", sos.CodeTrackInterval, model.TimelineTrackInterval},
		{"track stop", sos.CodeTrackStop, model.TimelineTrackStop},
		{"unspecified code", 42, model.TimelineUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sos.Decide(false, tt.code, eventTime, "")
			assert.Equal(t, tt.want, d.Timeline.Type)
			assert.Equal(t, tt.code, d.Timeline.Code)
			assert.Equal(t, eventTime, d.Timeline.Timestamp)
		})
	}
}

func TestDecideDeclareActivatesSOS(t *testing.T) {
	d := sos.Decide(false, sos.CodeDeclareSOS, eventTime, "")

	assert.True(t, d.ActiveSOS)
	assert.Equal(t, eventTime, d.DeclaredAt)
	assert.True(t, d.CancelledAt.IsZero())
}

func TestDecideConfirmKeepsSOSAndDeclareTime(t *testing.T) {
	d := sos.Decide(true, sos.CodeConfirmSOS, eventTime, "")

	assert.True(t, d.ActiveSOS)
	// The original declare time must stay valid for operator
	// acknowledgements, a confirm never carries one.
	assert.True(t, d.DeclaredAt.IsZero())
}

func TestDecideCancelClearsSOS(t *testing.T) {
	d := sos.Decide(true, sos.CodeCancelSOS, eventTime, "")

	assert.False(t, d.ActiveSOS)
	assert.Equal(t, eventTime, d.CancelledAt)
	assert.True(t, d.DeclaredAt.IsZero())
}

func TestDecideRedeclareIsIdempotent(t *testing.T) {
	d := sos.Decide(true, sos.CodeDeclareSOS, eventTime, "")

	assert.True(t, d.ActiveSOS)
	assert.Equal(t, eventTime, d.DeclaredAt)
}

func TestDecideTextCodesAppendInboundMessage(t *testing.T) {
	for _, code := range []int{sos.CodeFreeText, sos.CodeCannedText, sos.CodeQuickText} {
		d := sos.Decide(false, code, eventTime, "all good")

		require.NotNil(t, d.Message)
		assert.Equal(t, model.DirectionInbound, d.Message.Direction)
		assert.Equal(t, "all good", d.Message.Text)
		assert.False(t, d.Message.IsSOS)
		assert.False(t, d.ActiveSOS)
	}
}

func TestDecideTextDuringActiveSOSIsFlagged(t *testing.T) {
	d := sos.Decide(true, sos.CodeFreeText, eventTime, "we are on the ridge")

	require.NotNil(t, d.Message)
	assert.True(t, d.Message.IsSOS)
	assert.True(t, d.ActiveSOS)
}

func TestDecideDeclareWithTextAppendsSOSMessage(t *testing.T) {
	d := sos.Decide(false, sos.CodeDeclareSOS, eventTime, "help")

	require.NotNil(t, d.Message)
	assert.Equal(t, "help", d.Message.Text)
	assert.True(t, d.Message.IsSOS)
}

func TestDecideUnknownCodeWithTextBecomesMessage(t *testing.T) {
	d := sos.Decide(false, 77, eventTime, "odd payload")

	assert.Equal(t, model.TimelineUnknown, d.Timeline.Type)
	require.NotNil(t, d.Message)
	assert.Equal(t, "odd payload", d.Message.Text)
}

func TestDecideUnknownCodeWithoutTextHasNoMessage(t *testing.T) {
	d := sos.Decide(false, 77, eventTime, "")

	assert.Equal(t, model.TimelineUnknown, d.Timeline.Type)
	assert.Nil(t, d.Message)
}

func TestDecidePositionReportHasNoSideEffects(t *testing.T) {
	d := sos.Decide(true, sos.CodePositionReport, eventTime, "")

	assert.True(t, d.ActiveSOS)
	assert.Nil(t, d.Message)
	assert.True(t, d.DeclaredAt.IsZero())
	assert.True(t, d.CancelledAt.IsZero())
}
