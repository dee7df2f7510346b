package api

import (
	"encoding/json"
	"strings"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/api/resource"
)

// realtimeEventsHandler upgrades the request to a websocket and relays
// every applied tracker event published on NATS to the operator UI.
func (h *Handler) realtimeEventsHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, _, _, err := ws.UpgradeHTTP(c.Request(), c.Response())
		if err != nil {
			log.Error("api: failed to upgrade to websocket: ", err)
			return nil
		}
		defer conn.Close()

		closedCh := make(chan struct{})

		sub, err := h.nc.Subscribe("garminecc.tracker.v1.events.*", func(msg *nats.Msg) {
			// Get the device identifier from the NATS subject
			deviceID := strings.TrimPrefix(msg.Subject, "garminecc.tracker.v1.events.")

			// Parse the message and send it
			var data interface{}
			if err := json.Unmarshal(msg.Data, &data); err == nil {
				event := resource.NewRealtimeEvent(deviceID, data)
				out, _ := json.Marshal(event)
				if err := wsutil.WriteServerMessage(conn, ws.OpText, out); err != nil {
					log.Error("api: failed to send realtime event: ", err)
					select {
					case closedCh <- struct{}{}:
					default:
					}
				}
			}
		})
		if err != nil {
			log.Error("api: failed to subscribe to tracker events: ", err)
			return nil
		}
		defer sub.Unsubscribe()

		<-closedCh

		return nil
	}
}
