package tracker

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/gateway"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
)

const (
	outboundOpSend = "send"
	outboundOpAck  = "ack"
)

type outboundJob struct {
	op       string
	deviceID string
	text     string
	resultCh chan error
}

// SendMessage records an operator-originated message and dispatches it
// through the outbound gateway. The message log entry records intent
// and is written before the gateway is attempted; it is never rolled
// back when delivery fails.
func (t *Tracker) SendMessage(ctx context.Context, deviceID, text string, isSOS bool) error {
	l := t.lockFor(deviceID)
	l.Lock()

	a, err := t.loadOrNew(deviceID)
	if err != nil {
		l.Unlock()
		return err
	}

	entry := model.MessageEntry{
		Direction: model.DirectionOutbound,
		Text:      text,
		Timestamp: t.now().UTC(),
		IsSOS:     isSOS,
	}
	a.Messages.Append(entry)
	a.LastMessageAt = entry.Timestamp

	if err := t.store.Assets().Save(a); err != nil {
		l.Unlock()
		return err
	}
	l.Unlock()

	return t.dispatch(ctx, &outboundJob{
		op:       outboundOpSend,
		deviceID: deviceID,
		text:     text,
		resultCh: make(chan error, 1),
	})
}

// AcknowledgeSOS records an operator acknowledgement and forwards it to
// the gateway. Acknowledging does not clear the active SOS flag; only
// an explicit cancel from the device does. A gateway reply saying a
// third-party emergency provider owns the incident counts as success.
func (t *Tracker) AcknowledgeSOS(ctx context.Context, deviceID string) error {
	l := t.lockFor(deviceID)
	l.Lock()

	a, err := t.store.Assets().FindByID(deviceID)
	if err != nil {
		l.Unlock()
		return err
	}

	now := t.now().UTC()
	a.LastSOSAckAt = now
	a.Timeline = append(a.Timeline, model.TimelineEntry{
		Type:      model.TimelineSOSAck,
		Timestamp: now,
	})

	if err := t.store.Assets().Save(a); err != nil {
		l.Unlock()
		return err
	}
	l.Unlock()

	err = t.dispatch(ctx, &outboundJob{
		op:       outboundOpAck,
		deviceID: deviceID,
		resultCh: make(chan error, 1),
	})
	if gateway.IsNotAuthoritative(err) {
		log.WithField("deviceId", deviceID).Info("tracker: SOS acknowledgement owned by third-party provider, treating as success")
		return nil
	}
	return err
}

// dispatch queues a gateway call and waits for its outcome. Queueing
// keeps gateway latency off the ingestion path; only the operator
// request waits.
func (t *Tracker) dispatch(ctx context.Context, job *outboundJob) error {
	select {
	case t.outboundCh <- job:
	case <-t.quitCh:
		return gateway.NewError(gateway.ErrCodeSendFailed, "tracker stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) outboundWorker() {
	for {
		select {
		case job := <-t.outboundCh:
			job.resultCh <- t.runOutbound(job)
		case <-t.quitCh:
			return
		}
	}
}

func (t *Tracker) runOutbound(job *outboundJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch job.op {
	case outboundOpAck:
		return t.gw.AcknowledgeSOS(ctx, job.deviceID)
	default:
		return t.gw.Send(ctx, job.deviceID, job.text)
	}
}
