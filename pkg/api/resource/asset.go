package resource

import (
	"fmt"
	"sort"
	"time"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
)

type PositionResource struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Course    float64   `json:"course,omitempty"`
	GPSFix    int       `json:"gpsFix,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageResource struct {
	Direction string    `json:"direction"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsSOS     bool      `json:"isSos"`
}

type TimelineEntryResource struct {
	Type      string    `json:"type"`
	Code      int       `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text,omitempty"`
}

type AssetResource struct {
	ID              string            `json:"id"`
	Label           string            `json:"label"`
	Status          string            `json:"status"`
	ActiveSOS       bool              `json:"isActiveSos"`
	LastPosition    *PositionResource `json:"lastPosition,omitempty"`
	LastPositionAt  *time.Time        `json:"lastPositionAt,omitempty"`
	LastMessageAt   *time.Time        `json:"lastMessageAt,omitempty"`
	LastEventAt     *time.Time        `json:"lastEventAt,omitempty"`
	LastSOSEventAt  *time.Time        `json:"lastSosEventAt,omitempty"`
	LastSOSAckAt    *time.Time        `json:"lastSosAckAt,omitempty"`
	LastSOSCancelAt *time.Time        `json:"lastSosCancelAt,omitempty"`
	ClosedAt        *time.Time        `json:"closedAt,omitempty"`
	CreatedAt       *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time        `json:"updatedAt,omitempty"`
}

type AssetListResource struct {
	Members []*AssetResource `json:"members"`
}

type AssetDetailResource struct {
	Asset     *AssetResource           `json:"asset"`
	Positions []*PositionResource      `json:"positions"`
	Messages  []*MessageResource       `json:"messages"`
	Timeline  []*TimelineEntryResource `json:"sosTimeline"`
}

func NewAsset(m *model.Asset) (out *AssetResource) {
	out = &AssetResource{
		ID:        m.ID,
		Label:     m.Label,
		Status:    string(m.Status),
		ActiveSOS: m.ActiveSOS,
	}

	if m.LastPosition != nil {
		out.LastPosition = newPosition(m.LastPosition)
	}
	out.LastPositionAt = optTime(m.LastPositionAt)
	out.LastMessageAt = optTime(m.LastMessageAt)
	out.LastEventAt = optTime(m.LastEventAt)
	out.LastSOSEventAt = optTime(m.LastSOSEventAt)
	out.LastSOSAckAt = optTime(m.LastSOSAckAt)
	out.LastSOSCancelAt = optTime(m.LastSOSCancelAt)
	out.ClosedAt = optTime(m.ClosedAt)
	out.CreatedAt = optTime(m.CreatedAt)
	out.UpdatedAt = optTime(m.UpdatedAt)

	return // out
}

func NewAssetList(m map[string]model.Asset) (out *AssetListResource) {
	out = &AssetListResource{
		Members: make([]*AssetResource, 0),
	}

	for _, elem := range m {
		e := elem
		out.Members = append(out.Members, NewAsset(&e))
	}

	// Default sort by ID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].ID < out.Members[j].ID
	})

	return // out
}

func NewAssetDetail(m *model.Asset) (out *AssetDetailResource) {
	out = &AssetDetailResource{
		Asset:     NewAsset(m),
		Positions: make([]*PositionResource, 0),
		Messages:  make([]*MessageResource, 0),
		Timeline:  make([]*TimelineEntryResource, 0),
	}

	for _, p := range m.Positions.All() {
		pp := p
		out.Positions = append(out.Positions, newPosition(&pp))
	}
	for _, e := range m.Messages.All() {
		out.Messages = append(out.Messages, &MessageResource{
			Direction: string(e.Direction),
			Text:      e.Text,
			Timestamp: e.Timestamp,
			IsSOS:     e.IsSOS,
		})
	}
	for _, e := range m.Timeline {
		out.Timeline = append(out.Timeline, &TimelineEntryResource{
			Type:      string(e.Type),
			Code:      e.Code,
			Timestamp: e.Timestamp,
			Text:      e.Text,
		})
	}

	return // out
}

func newPosition(p *model.PositionSample) *PositionResource {
	return &PositionResource{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Altitude:  p.Altitude,
		Speed:     p.Speed,
		Course:    p.Course,
		GPSFix:    p.GPSFix,
		Timestamp: p.Timestamp,
	}
}

func optTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	out := t.Round(time.Second)
	return &out
}

// OutboundMessageResource is the operator request to send a message to
// an asset.
type OutboundMessageResource struct {
	Text  string `json:"text"`
	IsSOS bool   `json:"isSos"`
}

func ValidateOutboundMessage(r *OutboundMessageResource) error {
	if r.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}
