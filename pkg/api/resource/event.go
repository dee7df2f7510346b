package resource

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
)

type EventResource struct {
	ID          int32       `json:"id"`
	DeviceID    string      `json:"deviceId"`
	MessageCode int         `json:"messageCode"`
	Timestamp   time.Time   `json:"timestamp"`
	ReceivedAt  time.Time   `json:"receivedAt"`
	Details     interface{} `json:"details"`
}

type EventListResource struct {
	Members []*EventResource `json:"members"`
}

func NewEvent(m *model.Event) (out *EventResource) {
	out = &EventResource{
		ID:          m.ID,
		DeviceID:    m.DeviceID,
		MessageCode: m.MessageCode,
		Timestamp:   m.Timestamp,
		ReceivedAt:  m.ReceivedAt,
	}

	var details interface{}
	if err := json.Unmarshal([]byte(m.Details), &details); err == nil {
		out.Details = details
	}

	return // out
}

func NewEventList(m map[int32]model.Event) (out *EventListResource) {
	out = &EventListResource{
		Members: make([]*EventResource, 0),
	}

	for _, elem := range m {
		e := elem
		out.Members = append(out.Members, NewEvent(&e))
	}

	// Default sort by ID
	sort.Slice(out.Members, func(i, j int) bool {
		return out.Members[i].ID < out.Members[j].ID
	})

	return // out
}
