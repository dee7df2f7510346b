// Package natsio implements the outbound gateway over a NATS
// request/reply bridge. The actual uplink provider sits behind the
// bridge subjects; this package only speaks the reply envelope.
package natsio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	nats "github.com/nats-io/nats.go"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/gateway"
)

// Config holds the connection settings of the NATS outbound bridge.
type Config struct {
	BaseSubject    string
	DefaultTimeout time.Duration
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() *Config {
	return &Config{
		BaseSubject:    "garminecc.gateway.v1",
		DefaultTimeout: 16 * time.Second,
	}
}

type natsGateway struct {
	cfg *Config
	nc  *nats.Conn
}

// New creates a gateway implementation on top of an established NATS
// connection.
func New(nc *nats.Conn, cfg *Config) gateway.Interface {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &natsGateway{
		cfg: cfg,
		nc:  nc,
	}
}

type sendRequest struct {
	DeviceID string `json:"deviceId"`
	Text     string `json:"text,omitempty"`
}

type sendReply struct {
	Status       string      `json:"status"`
	ErrorReason  string      `json:"errorReason,omitempty"`
	ErrorDetails interface{} `json:"errorDetails,omitempty"`
}

const replyStatusSuccess = "SUCCESS"

func (g *natsGateway) Send(ctx context.Context, deviceID, text string) error {
	return g.request(ctx, "send", sendRequest{DeviceID: deviceID, Text: text})
}

func (g *natsGateway) AcknowledgeSOS(ctx context.Context, deviceID string) error {
	return g.request(ctx, "ack", sendRequest{DeviceID: deviceID})
}

func (g *natsGateway) request(ctx context.Context, op string, req sendRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return gateway.NewError(gateway.ErrCodeSendFailed, err.Error())
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.DefaultTimeout)
		defer cancel()
	}

	subj := fmt.Sprintf("%s.target.%s.%s", g.cfg.BaseSubject, req.DeviceID, op)
	msg, err := g.nc.RequestWithContext(ctx, subj, data)
	if err != nil {
		if err == context.DeadlineExceeded {
			return gateway.NewError(gateway.ErrCodeTimeout, nil)
		}
		return gateway.NewError(gateway.ErrCodeSendFailed, err.Error())
	}

	rep := sendReply{}
	if err := json.Unmarshal(msg.Data, &rep); err != nil {
		return gateway.NewError(gateway.ErrCodeSendFailed, err.Error())
	}
	if rep.Status != replyStatusSuccess {
		return gateway.NewError(rep.ErrorReason, rep.ErrorDetails)
	}

	return nil
}
