// Package tracker owns the canonical per-asset state. All mutation
// goes through it: inbound events via Apply, operator actions via the
// outbound recorder. Mutations against one asset are serialized; the
// SOS lifecycle decision always sees the true prior state.
package tracker

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	nats "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/gateway"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/sos"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"
)

// DefaultRetention is the per-asset capacity of the position and
// message logs.
const DefaultRetention = 500

// Tracker reconciles inbound events and operator actions into asset
// state.
type Tracker struct {
	nc        *nats.Conn
	store     storage.Interface
	gw        gateway.Interface
	retention int

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	outboundCh chan *outboundJob
	quitCh     chan struct{}

	now func() time.Time
}

// New creates a tracker on top of the given storage and outbound
// gateway. nc may be nil when no realtime event feed is wanted.
func New(nc *nats.Conn, store storage.Interface, gw gateway.Interface, retention int) *Tracker {
	if retention <= 0 {
		retention = DefaultRetention
	}

	t := &Tracker{
		nc:         nc,
		store:      store,
		gw:         gw,
		retention:  retention,
		locks:      make(map[string]*sync.Mutex),
		outboundCh: make(chan *outboundJob, 64),
		quitCh:     make(chan struct{}),
		now:        time.Now,
	}

	go t.outboundWorker()

	return t
}

// Stop terminates the outbound dispatch worker.
func (t *Tracker) Stop() {
	close(t.quitCh)
}

// lockFor returns the critical-section mutex of one asset. Different
// assets proceed fully in parallel.
func (t *Tracker) lockFor(id string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	return l
}

// loadOrNew returns a private copy of the stored asset, or a fresh one
// if the identifier is unknown. Callers hold the asset lock.
func (t *Tracker) loadOrNew(id string) (*model.Asset, error) {
	m, err := t.store.Assets().FindByID(id)
	if err == storage.ErrNotFound {
		return model.NewAsset(id, t.retention), nil
	} else if err != nil {
		return nil, err
	}
	return m, nil
}

// GetOrCreate returns the asset with the given identifier, creating it
// with defaults when unknown. Repeated calls return the same logical
// asset.
func (t *Tracker) GetOrCreate(id string) (*model.Asset, error) {
	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	m, err := t.store.Assets().FindByID(id)
	if err == nil {
		return m, nil
	} else if err != storage.ErrNotFound {
		return nil, err
	}

	m = model.NewAsset(id, t.retention)
	if err := t.store.Assets().Save(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the asset or storage.ErrNotFound.
func (t *Tracker) Get(id string) (*model.Asset, error) {
	return t.store.Assets().FindByID(id)
}

// List returns all known assets.
func (t *Tracker) List() (map[string]model.Asset, error) {
	return t.store.Assets().FetchAll()
}

// Apply threads one normalized inbound event through the SOS lifecycle
// and the per-asset logs as a single atomic operation. The mutation
// happens on a private copy and becomes visible only through the final
// save, so a failure partway leaves the stored asset untouched.
func (t *Tracker) Apply(ev model.InboundEvent) error {
	l := t.lockFor(ev.DeviceID)
	l.Lock()
	defer l.Unlock()

	a, err := t.loadOrNew(ev.DeviceID)
	if err != nil {
		return err
	}

	a.LastEventAt = ev.EventTime

	if ev.Position != nil {
		p := *ev.Position
		a.Positions.Append(p)
		a.LastPosition = &p
		a.LastPositionAt = p.Timestamp
	}

	d := sos.Decide(a.ActiveSOS, ev.MessageCode, ev.EventTime, ev.FreeText)
	a.ActiveSOS = d.ActiveSOS
	if !d.DeclaredAt.IsZero() {
		a.LastSOSEventAt = d.DeclaredAt
	}
	if !d.CancelledAt.IsZero() {
		a.LastSOSCancelAt = d.CancelledAt
	}
	if d.Message != nil {
		a.Messages.Append(*d.Message)
		a.LastMessageAt = d.Message.Timestamp
	}
	a.Timeline = append(a.Timeline, d.Timeline)

	if err := t.store.Assets().Save(a); err != nil {
		return err
	}

	t.recordAuditEvent(ev)
	t.publishApplied(a, &d.Timeline)

	return nil
}

// Close marks the asset's incident as closed. All history is retained.
func (t *Tracker) Close(id string) error {
	l := t.lockFor(id)
	l.Lock()
	defer l.Unlock()

	a, err := t.store.Assets().FindByID(id)
	if err != nil {
		return err
	}

	a.Status = model.AssetStatusClosed
	a.ClosedAt = t.now().UTC()

	return t.store.Assets().Save(a)
}

// recordAuditEvent persists the ingestion audit trail. Auditing must
// not fail the already-saved state transition.
func (t *Tracker) recordAuditEvent(ev model.InboundEvent) {
	m := model.Event{
		DeviceID:    ev.DeviceID,
		MessageCode: ev.MessageCode,
		Timestamp:   ev.EventTime,
		ReceivedAt:  t.now().Round(time.Second).UTC(),
		Details:     ev.RawPayload,
	}
	if err := t.store.Events().Create(&m); err != nil {
		log.Error("tracker: failed to record audit event: ", err.Error())
	}
}

type appliedEvent struct {
	DeviceID    string    `json:"deviceId"`
	Type        string    `json:"type"`
	MessageCode int       `json:"messageCode"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveSOS   bool      `json:"isActiveSos"`
	Text        string    `json:"text,omitempty"`
}

// publishApplied feeds the realtime operator dashboards. Best effort;
// a missing or broken NATS connection never fails ingestion.
func (t *Tracker) publishApplied(a *model.Asset, entry *model.TimelineEntry) {
	if t.nc == nil {
		return
	}

	data, err := json.Marshal(appliedEvent{
		DeviceID:    a.ID,
		Type:        string(entry.Type),
		MessageCode: entry.Code,
		Timestamp:   entry.Timestamp,
		ActiveSOS:   a.ActiveSOS,
		Text:        entry.Text,
	})
	if err != nil {
		return
	}

	subj := fmt.Sprintf("garminecc.tracker.v1.events.%s", a.ID)
	if err := t.nc.Publish(subj, data); err != nil {
		log.Error("tracker: failed to publish applied event: ", err.Error())
	}
}
