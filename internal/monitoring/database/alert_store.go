package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/halcyonsec/watchpost/internal/monitoring/model"
)

// AlertStore archives alert records in the security_alerts table. It
// implements service.AlertArchive; writes are upserts keyed by alert id so
// lifecycle transitions simply overwrite the row.
type AlertStore struct {
	DB *Database
}

func NewAlertStore(db *Database) *AlertStore { return &AlertStore{DB: db} }

// Schema for reference; migrations live with the deployment, not here.
//
//	CREATE TABLE security_alerts (
//	    alert_id          text PRIMARY KEY,
//	    rule_id           text NOT NULL,
//	    severity          text NOT NULL,
//	    title             text NOT NULL,
//	    description       text NOT NULL DEFAULT '',
//	    metric            text NOT NULL,
//	    current_value     double precision NOT NULL,
//	    threshold_value   double precision NOT NULL,
//	    fired_at          timestamptz NOT NULL,
//	    status            text NOT NULL,
//	    channels_notified jsonb NOT NULL DEFAULT '[]',
//	    acknowledged_by   text,
//	    acknowledged_at   timestamptz,
//	    resolved_at       timestamptz,
//	    resolution_notes  text,
//	    rule_cooldown     interval,
//	    metadata          jsonb NOT NULL DEFAULT '{}'
//	);

// SaveAlert upserts one alert record.
func (s *AlertStore) SaveAlert(ctx context.Context, a *model.SecurityAlert) error {
	if s.DB == nil {
		return nil
	}
	channelsJSON, _ := json.Marshal(a.ChannelsNotified)
	metadataJSON, _ := json.Marshal(a.Metadata)

	const q = `
	INSERT INTO security_alerts (
		alert_id, rule_id, severity, title, description, metric,
		current_value, threshold_value, fired_at, status, channels_notified,
		acknowledged_by, acknowledged_at, resolved_at, resolution_notes, metadata
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12,$13,$14,$15,$16::jsonb)
	ON CONFLICT (alert_id) DO UPDATE SET
		status = EXCLUDED.status,
		channels_notified = EXCLUDED.channels_notified,
		acknowledged_by = EXCLUDED.acknowledged_by,
		acknowledged_at = EXCLUDED.acknowledged_at,
		resolved_at = EXCLUDED.resolved_at,
		resolution_notes = EXCLUDED.resolution_notes,
		metadata = EXCLUDED.metadata
	`
	_, err := s.DB.ExecContext(ctx, q,
		a.AlertID, a.RuleID, string(a.Severity), a.Title, a.Description, string(a.Metric),
		a.CurrentValue, a.ThresholdValue, a.Timestamp, string(a.Status), string(channelsJSON),
		nullString(a.AcknowledgedBy), nullTime(a.AcknowledgedAt), nullTime(a.ResolvedAt),
		nullString(a.ResolutionNotes), string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

// SaveRuleCooldown records a rule's cooldown window alongside its latest
// alert, stored as a Postgres interval.
func (s *AlertStore) SaveRuleCooldown(ctx context.Context, alertID string, cooldown time.Duration) error {
	if s.DB == nil {
		return nil
	}
	const q = `UPDATE security_alerts SET rule_cooldown = $2 WHERE alert_id = $1`
	_, err := s.DB.ExecContext(ctx, q, alertID, DurationToInterval(cooldown))
	if err != nil {
		return fmt.Errorf("save rule cooldown: %w", err)
	}
	return nil
}

// QueryHistory scans archived alerts inside [start, end], optionally
// filtered by severity, oldest first. Zero times mean unbounded.
func (s *AlertStore) QueryHistory(ctx context.Context, start, end time.Time, severity model.Severity) ([]*model.SecurityAlert, error) {
	if s.DB == nil {
		return nil, nil
	}
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	if end.IsZero() {
		end = time.Now().Add(24 * time.Hour)
	}
	const q = `
	SELECT alert_id, rule_id, severity, title, description, metric,
	       current_value, threshold_value, fired_at, status, channels_notified::text,
	       acknowledged_by, acknowledged_at, resolved_at, resolution_notes, metadata::text
	FROM security_alerts
	WHERE fired_at >= $1 AND fired_at <= $2 AND ($3 = '' OR severity = $3)
	ORDER BY fired_at ASC
	`
	rows, err := s.DB.QueryContext(ctx, q, start, end, string(severity))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []*model.SecurityAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAlert(rows *sql.Rows) (*model.SecurityAlert, error) {
	var a model.SecurityAlert
	var severity, metric, status, channelsRaw, metadataRaw string
	var ackBy, notes sql.NullString
	var ackAt, resolvedAt sql.NullTime
	if err := rows.Scan(&a.AlertID, &a.RuleID, &severity, &a.Title, &a.Description, &metric,
		&a.CurrentValue, &a.ThresholdValue, &a.Timestamp, &status, &channelsRaw,
		&ackBy, &ackAt, &resolvedAt, &notes, &metadataRaw); err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	a.Severity = model.Severity(severity)
	a.Metric = model.Metric(metric)
	a.Status = model.AlertStatus(status)
	_ = json.Unmarshal([]byte(channelsRaw), &a.ChannelsNotified)
	_ = json.Unmarshal([]byte(metadataRaw), &a.Metadata)
	if ackBy.Valid {
		a.AcknowledgedBy = ackBy.String
	}
	if ackAt.Valid {
		t := ackAt.Time
		a.AcknowledgedAt = &t
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		a.ResolvedAt = &t
	}
	if notes.Valid {
		a.ResolutionNotes = notes.String
	}
	return &a, nil
}

// DurationToInterval converts a Go duration to a Postgres interval value.
func DurationToInterval(d time.Duration) pgtype.Interval {
	days := int32(d / (24 * time.Hour))
	rem := d % (24 * time.Hour)
	return pgtype.Interval{
		Days:         days,
		Microseconds: rem.Microseconds(),
		Valid:        true,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
