package resource

// RealtimeEventResource wraps one applied tracker event for the
// websocket feed.
type RealtimeEventResource struct {
	DeviceID string      `json:"deviceId"`
	Event    interface{} `json:"event"`
}

func NewRealtimeEvent(deviceID string, event interface{}) *RealtimeEventResource {
	return &RealtimeEventResource{
		DeviceID: deviceID,
		Event:    event,
	}
}
