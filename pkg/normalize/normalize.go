// Package normalize turns raw upstream push payloads into canonical
// inbound events. The upstream delivers at least once across several
// historically incompatible schema revisions, so normalization is
// total: a malformed field degrades to a safe default, it never drops
// the event.
package normalize

import (
	"encoding/json"
	"time"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
	log "github.com/sirupsen/logrus"
)

// SentinelDeviceID is the fallback asset identifier for events whose
// payload carries no resolvable device identifier. All such events of
// a batch end up on the same sentinel asset.
const SentinelDeviceID = "VIRTUAL-TEST"

// Timestamps before this cutoff are placeholder encodings of a zero or
// MinValue date emitted by some upstream revisions for test events.
var minValidEventTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Ordered extraction rules. The first path that resolves wins; the
// spellings cover the known schema generations, including nested
// Device sub-objects.
var (
	deviceIDPaths = []fieldPath{
		{"IMEI"},
		{"imei"},
		{"Imei"},
		{"DeviceIMEI"},
		{"DeviceId"},
		{"deviceId"},
		{"Device", "IMEI"},
		{"Device", "Id"},
		{"device", "imei"},
	}

	eventTimePaths = []fieldPath{
		{"TimeStamp"},
		{"Timestamp"},
		{"timeStamp"},
		{"timestamp"},
	}

	messageCodePaths = []fieldPath{
		{"MessageCode"},
		{"messageCode"},
		{"Code"},
		{"code"},
	}

	freeTextPaths = []fieldPath{
		{"FreeText"},
		{"freeText"},
		{"Message"},
		{"message"},
	}

	positionPaths = []fieldPath{
		{"Point"},
		{"point"},
		{"Position"},
		{"position"},
	}

	latitudePaths  = []fieldPath{{"Latitude"}, {"latitude"}}
	longitudePaths = []fieldPath{{"Longitude"}, {"longitude"}}
	altitudePaths  = []fieldPath{{"Altitude"}, {"altitude"}}
	speedPaths     = []fieldPath{{"Speed"}, {"speed"}}
	coursePaths    = []fieldPath{{"Course"}, {"course"}}
	gpsFixPaths    = []fieldPath{{"GPSFix"}, {"gpsFix"}, {"gpsfix"}}
)

// Normalize converts one raw upstream event into its canonical form.
// receivedAt is the ingestion wall-clock time, used whenever the
// payload timestamp is missing or a known placeholder.
func Normalize(raw json.RawMessage, receivedAt time.Time) model.InboundEvent {
	ev := model.InboundEvent{
		DeviceID:   SentinelDeviceID,
		EventTime:  receivedAt,
		RawPayload: string(raw),
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.WithField("error", err.Error()).Debug("normalize: undecodable payload, using defaults")
		ev.SyntheticID = true
		return ev
	}
	v := payloadView(decoded)

	if id, ok := v.stringField(deviceIDPaths); ok {
		ev.DeviceID = id
	} else {
		ev.SyntheticID = true
		log.WithField("payload", string(raw)).Debug("normalize: no device identifier, attributing to sentinel asset")
	}

	ev.EventTime = resolveEventTime(v, receivedAt)

	if code, ok := v.numberField(messageCodePaths); ok {
		ev.MessageCode = int(code)
	}

	if text, ok := v.stringField(freeTextPaths); ok {
		ev.FreeText = text
	}

	ev.Position = resolvePosition(v, ev.EventTime)

	return ev
}

func resolveEventTime(v payloadView, receivedAt time.Time) time.Time {
	ms, ok := v.numberField(eventTimePaths)
	if !ok || ms <= 0 {
		return receivedAt
	}
	t := time.UnixMilli(int64(ms)).UTC()
	if t.Before(minValidEventTime) {
		return receivedAt
	}
	return t
}

func resolvePosition(v payloadView, at time.Time) *model.PositionSample {
	point, ok := v.objectField(positionPaths)
	if !ok {
		return nil
	}

	lat, latOK := point.numberField(latitudePaths)
	lon, lonOK := point.numberField(longitudePaths)
	if !latOK || !lonOK {
		return nil
	}
	// Null-island means "no fix" upstream.
	if lat == 0 && lon == 0 {
		return nil
	}

	p := &model.PositionSample{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: at,
	}
	if alt, ok := point.numberField(altitudePaths); ok {
		p.Altitude = alt
	}
	if speed, ok := point.numberField(speedPaths); ok {
		p.Speed = speed
	}
	if course, ok := point.numberField(coursePaths); ok {
		p.Course = course
	}
	if fix, ok := point.numberField(gpsFixPaths); ok {
		p.GPSFix = int(fix)
	}

	return p
}
