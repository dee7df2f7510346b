package model

import "time"

// AssetStatus reflects the incident lifecycle of a tracked unit. Closing
// an asset keeps its full history, it only stops showing up as open.
type AssetStatus string

const (
	AssetStatusOpen   AssetStatus = "open"
	AssetStatusClosed AssetStatus = "closed"
)

// MessageDirection tells apart field-originated and operator-originated
// messages in the message log.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// TimelineEntryType is the tagged variant of a timeline entry.
type TimelineEntryType string

const (
	TimelinePositionReport TimelineEntryType = "position-report"
	TimelineSOSDeclare     TimelineEntryType = "sos-declare"
	TimelineSOSUpdate      TimelineEntryType = "sos-update"
	TimelineSOSCancel      TimelineEntryType = "sos-cancel"
	TimelineSOSAck         TimelineEntryType = "sos-ack"
	TimelineReferencePoint TimelineEntryType = "reference-point"
	TimelineTrackStart     TimelineEntryType = "track-start"
	TimelineTrackInterval  TimelineEntryType = "track-interval"
	TimelineTrackStop      TimelineEntryType = "track-stop"
	TimelineInboundMessage TimelineEntryType = "inbound-message"
	TimelineUnknown        TimelineEntryType = "unknown"
)

// PositionSample is a single GPS fix reported by the device.
type PositionSample struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Speed     float64
	Course    float64
	GPSFix    int
	Timestamp time.Time
}

// MessageEntry is one entry of the per-asset message log.
type MessageEntry struct {
	ID        int64
	Direction MessageDirection
	Text      string
	Timestamp time.Time
	IsSOS     bool
}

// TimelineEntry is one entry of the per-asset SOS/event timeline.
type TimelineEntry struct {
	Type      TimelineEntryType
	Code      int
	Timestamp time.Time
	Text      string
}

// Asset is the canonical state of one physical tracked unit. It is the
// model of the persistency layer, keyed by the externally assigned
// device identifier (IMEI for inReach units).
type Asset struct {
	ID        string
	Label     string
	Status    AssetStatus
	ActiveSOS bool

	LastPosition *PositionSample

	LastPositionAt  time.Time
	LastMessageAt   time.Time
	LastEventAt     time.Time
	LastSOSEventAt  time.Time
	LastSOSAckAt    time.Time
	LastSOSCancelAt time.Time
	ClosedAt        time.Time

	Positions Log[PositionSample]
	Messages  Log[MessageEntry]
	Timeline  []TimelineEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAsset returns a fresh open asset with bounded logs of the given
// retention capacity. The label defaults to the identifier until an
// operator renames it.
func NewAsset(id string, retention int) *Asset {
	return &Asset{
		ID:        id,
		Label:     id,
		Status:    AssetStatusOpen,
		Positions: NewLog[PositionSample](retention),
		Messages:  NewLog[MessageEntry](retention),
		Timeline:  make([]TimelineEntry, 0),
	}
}

// Clone returns a deep copy so that callers can mutate freely without
// aliasing the stored state.
func (a *Asset) Clone() *Asset {
	out := *a
	if a.LastPosition != nil {
		p := *a.LastPosition
		out.LastPosition = &p
	}
	out.Positions = a.Positions.Clone()
	out.Messages = a.Messages.Clone()
	out.Timeline = make([]TimelineEntry, len(a.Timeline))
	copy(out.Timeline, a.Timeline)
	return &out
}
