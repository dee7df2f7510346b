package model

import "time"

// InboundEvent is the canonical, transient form of one upstream push
// event after normalization. It carries the payload fields verbatim;
// interpretation of the message code is left to the SOS lifecycle
// logic.
type InboundEvent struct {
	DeviceID    string
	EventTime   time.Time
	MessageCode int
	FreeText    string
	Position    *PositionSample

	// RawPayload keeps the original upstream JSON for auditing.
	RawPayload string

	// SyntheticID is set when no device identifier could be resolved
	// and the event was attributed to the sentinel asset.
	SyntheticID bool
}

// Event is the persisted ingestion audit record of one processed
// inbound event.
type Event struct {
	ID          int32
	DeviceID    string
	MessageCode int
	Timestamp   time.Time
	ReceivedAt  time.Time
	Details     string

	CreatedAt time.Time
	UpdatedAt time.Time
}
