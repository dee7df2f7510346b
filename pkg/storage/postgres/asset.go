package postgres

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/model"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"
)

func newAssetStore(db *sqlx.DB, retention int) *assetStore {
	return &assetStore{
		db:        db,
		retention: retention,
	}
}

type assetStore struct {
	db        *sqlx.DB
	retention int
}

type sqlDataAsset struct {
	ID              string          `db:"id"`
	Label           string          `db:"label"`
	Status          string          `db:"status"`
	ActiveSOS       bool            `db:"active_sos"`
	LastLatitude    sql.NullFloat64 `db:"last_latitude"`
	LastLongitude   sql.NullFloat64 `db:"last_longitude"`
	LastAltitude    sql.NullFloat64 `db:"last_altitude"`
	LastSpeed       sql.NullFloat64 `db:"last_speed"`
	LastCourse      sql.NullFloat64 `db:"last_course"`
	LastGPSFix      sql.NullInt64   `db:"last_gps_fix"`
	LastPositionAt  sql.NullTime    `db:"last_position_at"`
	LastMessageAt   sql.NullTime    `db:"last_message_at"`
	LastEventAt     sql.NullTime    `db:"last_event_at"`
	LastSOSEventAt  sql.NullTime    `db:"last_sos_event_at"`
	LastSOSAckAt    sql.NullTime    `db:"last_sos_ack_at"`
	LastSOSCancelAt sql.NullTime    `db:"last_sos_cancel_at"`
	ClosedAt        sql.NullTime    `db:"closed_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

type sqlDataPosition struct {
	AssetID   string    `db:"asset_id"`
	Seq       int       `db:"seq"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	Altitude  float64   `db:"altitude"`
	Speed     float64   `db:"speed"`
	Course    float64   `db:"course"`
	GPSFix    int       `db:"gps_fix"`
	Timestamp time.Time `db:"timestamp"`
}

type sqlDataMessage struct {
	AssetID   string    `db:"asset_id"`
	Seq       int       `db:"seq"`
	Direction string    `db:"direction"`
	Text      string    `db:"text"`
	Timestamp time.Time `db:"timestamp"`
	IsSOS     bool      `db:"is_sos"`
}

type sqlDataTimeline struct {
	AssetID   string    `db:"asset_id"`
	Seq       int       `db:"seq"`
	Type      string    `db:"type"`
	Code      int       `db:"code"`
	Timestamp time.Time `db:"timestamp"`
	Text      string    `db:"text"`
}

func (d *sqlDataAsset) Scan(m *model.Asset) error {
	var createdAt, updatedAt = m.CreatedAt, m.UpdatedAt

	if m.CreatedAt.IsZero() {
		createdAt = time.Now().Round(time.Second).UTC()
	}

	if m.UpdatedAt.IsZero() {
		updatedAt = time.Now().Round(time.Second).UTC()
	}

	d.ID = m.ID
	d.Label = m.Label
	d.Status = string(m.Status)
	d.ActiveSOS = m.ActiveSOS
	if p := m.LastPosition; p != nil {
		d.LastLatitude = sql.NullFloat64{Float64: p.Latitude, Valid: true}
		d.LastLongitude = sql.NullFloat64{Float64: p.Longitude, Valid: true}
		d.LastAltitude = sql.NullFloat64{Float64: p.Altitude, Valid: true}
		d.LastSpeed = sql.NullFloat64{Float64: p.Speed, Valid: true}
		d.LastCourse = sql.NullFloat64{Float64: p.Course, Valid: true}
		d.LastGPSFix = sql.NullInt64{Int64: int64(p.GPSFix), Valid: true}
	}
	d.LastPositionAt = nullTime(m.LastPositionAt)
	d.LastMessageAt = nullTime(m.LastMessageAt)
	d.LastEventAt = nullTime(m.LastEventAt)
	d.LastSOSEventAt = nullTime(m.LastSOSEventAt)
	d.LastSOSAckAt = nullTime(m.LastSOSAckAt)
	d.LastSOSCancelAt = nullTime(m.LastSOSCancelAt)
	d.ClosedAt = nullTime(m.ClosedAt)
	d.CreatedAt = createdAt
	d.UpdatedAt = updatedAt

	return nil
}

func (d *sqlDataAsset) Model(retention int) (*model.Asset, error) {
	m := model.NewAsset(d.ID, retention)
	m.Label = d.Label
	m.Status = model.AssetStatus(d.Status)
	m.ActiveSOS = d.ActiveSOS
	if d.LastLatitude.Valid && d.LastLongitude.Valid {
		m.LastPosition = &model.PositionSample{
			Latitude:  d.LastLatitude.Float64,
			Longitude: d.LastLongitude.Float64,
			Altitude:  d.LastAltitude.Float64,
			Speed:     d.LastSpeed.Float64,
			Course:    d.LastCourse.Float64,
			GPSFix:    int(d.LastGPSFix.Int64),
			Timestamp: d.LastPositionAt.Time,
		}
	}
	m.LastPositionAt = d.LastPositionAt.Time
	m.LastMessageAt = d.LastMessageAt.Time
	m.LastEventAt = d.LastEventAt.Time
	m.LastSOSEventAt = d.LastSOSEventAt.Time
	m.LastSOSAckAt = d.LastSOSAckAt.Time
	m.LastSOSCancelAt = d.LastSOSCancelAt.Time
	m.ClosedAt = d.ClosedAt.Time
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt

	return m, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (s *assetStore) FetchAll() (map[string]model.Asset, error) {
	rows := make([]sqlDataAsset, 0)
	models := make(map[string]model.Asset)

	query := "SELECT * FROM assets"
	if err := s.db.Select(&rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to fetch all assets")
	}

	for _, d := range rows {
		m, err := d.Model(s.retention)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert SQL data to asset model")
		}
		if err := s.loadLogs(m); err != nil {
			return nil, err
		}

		models[d.ID] = *m
	}

	return models, nil
}

func (s *assetStore) FindByID(id string) (*model.Asset, error) {
	d := sqlDataAsset{}
	query := "SELECT * FROM assets WHERE id=$1"
	if err := s.db.Get(&d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find asset")
	}

	m, err := d.Model(s.retention)
	if err != nil {
		return nil, err
	}
	if err := s.loadLogs(m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *assetStore) loadLogs(m *model.Asset) error {
	positions := make([]sqlDataPosition, 0)
	query := "SELECT * FROM asset_positions WHERE asset_id=$1 ORDER BY seq"
	if err := s.db.Select(&positions, query, m.ID); err != nil {
		return errors.Wrap(err, "failed to fetch asset positions")
	}
	for _, d := range positions {
		m.Positions.Append(model.PositionSample{
			Latitude:  d.Latitude,
			Longitude: d.Longitude,
			Altitude:  d.Altitude,
			Speed:     d.Speed,
			Course:    d.Course,
			GPSFix:    d.GPSFix,
			Timestamp: d.Timestamp,
		})
	}

	messages := make([]sqlDataMessage, 0)
	query = "SELECT * FROM asset_messages WHERE asset_id=$1 ORDER BY seq"
	if err := s.db.Select(&messages, query, m.ID); err != nil {
		return errors.Wrap(err, "failed to fetch asset messages")
	}
	for _, d := range messages {
		m.Messages.Append(model.MessageEntry{
			ID:        int64(d.Seq),
			Direction: model.MessageDirection(d.Direction),
			Text:      d.Text,
			Timestamp: d.Timestamp,
			IsSOS:     d.IsSOS,
		})
	}

	timeline := make([]sqlDataTimeline, 0)
	query = "SELECT * FROM asset_timeline WHERE asset_id=$1 ORDER BY seq"
	if err := s.db.Select(&timeline, query, m.ID); err != nil {
		return errors.Wrap(err, "failed to fetch asset timeline")
	}
	for _, d := range timeline {
		m.Timeline = append(m.Timeline, model.TimelineEntry{
			Type:      model.TimelineEntryType(d.Type),
			Code:      d.Code,
			Timestamp: d.Timestamp,
			Text:      d.Text,
		})
	}

	return nil
}

func (s *assetStore) Save(m *model.Asset) error {
	d := sqlDataAsset{}
	if err := d.Scan(m); err != nil {
		return errors.Wrap(err, "failed to convert asset model to SQL data")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "failed to begin asset save")
	}
	defer tx.Rollback()

	query := `INSERT INTO assets (id, label, status, active_sos,
			last_latitude, last_longitude, last_altitude, last_speed,
			last_course, last_gps_fix, last_position_at, last_message_at,
			last_event_at, last_sos_event_at, last_sos_ack_at,
			last_sos_cancel_at, closed_at, created_at, updated_at)
		VALUES (:id, :label, :status, :active_sos,
			:last_latitude, :last_longitude, :last_altitude, :last_speed,
			:last_course, :last_gps_fix, :last_position_at, :last_message_at,
			:last_event_at, :last_sos_event_at, :last_sos_ack_at,
			:last_sos_cancel_at, :closed_at, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			label=EXCLUDED.label, status=EXCLUDED.status,
			active_sos=EXCLUDED.active_sos,
			last_latitude=EXCLUDED.last_latitude,
			last_longitude=EXCLUDED.last_longitude,
			last_altitude=EXCLUDED.last_altitude,
			last_speed=EXCLUDED.last_speed,
			last_course=EXCLUDED.last_course,
			last_gps_fix=EXCLUDED.last_gps_fix,
			last_position_at=EXCLUDED.last_position_at,
			last_message_at=EXCLUDED.last_message_at,
			last_event_at=EXCLUDED.last_event_at,
			last_sos_event_at=EXCLUDED.last_sos_event_at,
			last_sos_ack_at=EXCLUDED.last_sos_ack_at,
			last_sos_cancel_at=EXCLUDED.last_sos_cancel_at,
			closed_at=EXCLUDED.closed_at,
			updated_at=EXCLUDED.updated_at`
	if _, err := tx.NamedExec(query, d); err != nil {
		return errors.Wrap(err, "failed to upsert asset")
	}

	// The bounded logs are small by construction, rewriting them keeps
	// the save a single atomic statement sequence.
	for _, table := range []string{"asset_positions", "asset_messages", "asset_timeline"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE asset_id=$1", m.ID); err != nil {
			return errors.Wrap(err, "failed to clear asset log rows")
		}
	}

	for i, p := range m.Positions.All() {
		if _, err := tx.Exec(
			`INSERT INTO asset_positions (asset_id, seq, latitude, longitude, altitude, speed, course, gps_fix, timestamp)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			m.ID, i, p.Latitude, p.Longitude, p.Altitude, p.Speed, p.Course, p.GPSFix, p.Timestamp); err != nil {
			return errors.Wrap(err, "failed to insert asset position")
		}
	}

	for i, e := range m.Messages.All() {
		if _, err := tx.Exec(
			`INSERT INTO asset_messages (asset_id, seq, direction, text, timestamp, is_sos)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, i, string(e.Direction), e.Text, e.Timestamp, e.IsSOS); err != nil {
			return errors.Wrap(err, "failed to insert asset message")
		}
	}

	for i, e := range m.Timeline {
		if _, err := tx.Exec(
			`INSERT INTO asset_timeline (asset_id, seq, type, code, timestamp, text)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, i, string(e.Type), e.Code, e.Timestamp, e.Text); err != nil {
			return errors.Wrap(err, "failed to insert asset timeline entry")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit asset save")
	}

	return nil
}
