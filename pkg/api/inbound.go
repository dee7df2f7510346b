package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/normalize"
)

// inboundEnvelope is the IPC push envelope. Some upstream revisions
// post a bare event array instead, both are accepted.
type inboundEnvelope struct {
	Version string            `json:"Version"`
	Events  []json.RawMessage `json:"Events"`
}

type inboundResultResource struct {
	Processed int `json:"processed"`
}

// handleInboundPush ingests a batch of upstream events. Malformed
// fields degrade to safe defaults instead of failing the batch; only
// an internal storage failure is reported back so the deliverer can
// retry the batch.
func (h *Handler) handleInboundPush(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, err)
	}

	events := decodeInboundBatch(body)
	receivedAt := time.Now().UTC()

	processed := 0
	for _, raw := range events {
		ev := normalize.Normalize(raw, receivedAt)
		if err := h.tracker.Apply(ev); err != nil {
			log.WithFields(log.Fields{
				"deviceId": ev.DeviceID,
				"error":    err.Error(),
			}).Error("api: failed to apply inbound event")
			return c.JSON(http.StatusInternalServerError, err)
		}
		processed++
	}

	return c.JSON(http.StatusOK, inboundResultResource{Processed: processed})
}

func decodeInboundBatch(body []byte) []json.RawMessage {
	envelope := inboundEnvelope{}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Events != nil {
		return envelope.Events
	}

	batch := make([]json.RawMessage, 0)
	if err := json.Unmarshal(body, &batch); err == nil {
		return batch
	}

	// A single bare event object is processed as a batch of one.
	if len(body) > 0 {
		return []json.RawMessage{json.RawMessage(body)}
	}
	return nil
}
