package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var receivedAt = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func TestNormalizeDeviceIDSpellings(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"uppercase IMEI", `{"IMEI": "300234010961140"}`, "300234010961140"},
		{"lowercase imei", `{"imei": "300234010961140"}`, "300234010961140"},
		{"mixed case Imei", `{"Imei": "300234010961140"}`, "300234010961140"},
		{"DeviceIMEI", `{"DeviceIMEI": "300234010961140"}`, "300234010961140"},
		{"DeviceId", `{"DeviceId": "300234010961140"}`, "300234010961140"},
		{"nested Device.IMEI", `{"Device": {"IMEI": "300234010961140"}}`, "300234010961140"},
		{"nested device.imei", `{"device": {"imei": "300234010961140"}}`, "300234010961140"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(json.RawMessage(tt.payload), receivedAt)
			assert.Equal(t, tt.want, ev.DeviceID)
			assert.False(t, ev.SyntheticID)
		})
	}
}

func TestNormalizeMissingDeviceIDFallsBackToSentinel(t *testing.T) {
	ev := Normalize(json.RawMessage(`{"MessageCode": 0}`), receivedAt)

	assert.Equal(t, SentinelDeviceID, ev.DeviceID)
	assert.True(t, ev.SyntheticID)
}

func TestNormalizeAllMissingIDsResolveToSameSentinel(t *testing.T) {
	a := Normalize(json.RawMessage(`{"MessageCode": 0}`), receivedAt)
	b := Normalize(json.RawMessage(`{"FreeText": "hi"}`), receivedAt)

	assert.Equal(t, a.DeviceID, b.DeviceID)
}

func TestNormalizeEventTime(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    time.Time
	}{
		{
			"valid epoch millis",
			`{"TimeStamp": 1323784607213}`,
			time.UnixMilli(1323784607213).UTC(),
		},
		{
			"legacy date envelope",
			`{"TimeStamp": "/Date(1323784607213)/"}`,
			time.UnixMilli(1323784607213).UTC(),
		},
		{
			"lowercase key",
			`{"timestamp": 1323784607213}`,
			time.UnixMilli(1323784607213).UTC(),
		},
		{"zero placeholder", `{"TimeStamp": 0}`, receivedAt},
		{"negative MinValue encoding", `{"TimeStamp": -62135596800000}`, receivedAt},
		{"pre-2000 placeholder", `{"TimeStamp": 1}`, receivedAt},
		{"missing", `{}`, receivedAt},
		{"non-numeric", `{"TimeStamp": "soon"}`, receivedAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(json.RawMessage(tt.payload), receivedAt)
			assert.Equal(t, tt.want, ev.EventTime)
		})
	}
}

func TestNormalizePositionSpellings(t *testing.T) {
	for _, key := range []string{"Point", "point", "Position", "position"} {
		payload := `{"IMEI": "x", "` + key + `": {"Latitude": 32.08, "Longitude": 34.78}}`
		ev := Normalize(json.RawMessage(payload), receivedAt)

		require.NotNil(t, ev.Position, key)
		assert.Equal(t, 32.08, ev.Position.Latitude)
		assert.Equal(t, 34.78, ev.Position.Longitude)
	}
}

func TestNormalizePositionPassthroughFields(t *testing.T) {
	payload := `{"Point": {"Latitude": 32.08, "Longitude": 34.78,
		"Altitude": 120.5, "Speed": 4.2, "Course": 270, "GPSFix": 2}}`
	ev := Normalize(json.RawMessage(payload), receivedAt)

	require.NotNil(t, ev.Position)
	assert.Equal(t, 120.5, ev.Position.Altitude)
	assert.Equal(t, 4.2, ev.Position.Speed)
	assert.Equal(t, 270.0, ev.Position.Course)
	assert.Equal(t, 2, ev.Position.GPSFix)
}

func TestNormalizePositionRejected(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"null island", `{"Point": {"Latitude": 0, "Longitude": 0}}`},
		{"missing longitude", `{"Point": {"Latitude": 32.08}}`},
		{"missing latitude", `{"Point": {"Longitude": 34.78}}`},
		{"non-numeric", `{"Point": {"Latitude": "here", "Longitude": "there"}}`},
		{"no point object", `{"Point": 17}`},
		{"absent", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(json.RawMessage(tt.payload), receivedAt)
			assert.Nil(t, ev.Position)
		})
	}
}

func TestNormalizeMessageCodeAndText(t *testing.T) {
	ev := Normalize(json.RawMessage(`{"MessageCode": 4, "FreeText": "help"}`), receivedAt)
	assert.Equal(t, 4, ev.MessageCode)
	assert.Equal(t, "help", ev.FreeText)

	ev = Normalize(json.RawMessage(`{"messageCode": 3099, "Message": "ok"}`), receivedAt)
	assert.Equal(t, 3099, ev.MessageCode)
	assert.Equal(t, "ok", ev.FreeText)
}

func TestNormalizeIsTotal(t *testing.T) {
	// Undecodable payloads degrade to defaults instead of being dropped.
	ev := Normalize(json.RawMessage(`not json at all`), receivedAt)

	assert.Equal(t, SentinelDeviceID, ev.DeviceID)
	assert.True(t, ev.SyntheticID)
	assert.Equal(t, receivedAt, ev.EventTime)
	assert.Equal(t, 0, ev.MessageCode)
	assert.Nil(t, ev.Position)
	assert.Equal(t, `not json at all`, ev.RawPayload)
}

func TestNormalizeKeepsRawPayload(t *testing.T) {
	raw := `{"IMEI": "300234010961140", "MessageCode": 0}`
	ev := Normalize(json.RawMessage(raw), receivedAt)

	assert.Equal(t, raw, ev.RawPayload)
}
