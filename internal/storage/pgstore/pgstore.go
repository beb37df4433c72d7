// Package pgstore provides a PostgreSQL implementation of storage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/audit"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/triage"
)

var tracer = otel.Tracer("github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/storage/pgstore")

//go:embed schema.sql
var schema string

// Store persists alerts, incidents, and the audit trail in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool stays owned by
// the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const alertColumns = `id, external_id, source, category, severity, title, description,
	entity_user, entity_ip, entity_device, entity_location, ts, raw_payload, created_at`

// entityColumns whitelists the column per entity type so no query ever
// interpolates caller input into SQL.
var entityColumns = map[alert.EntityType]string{
	alert.EntityUser:     "entity_user",
	alert.EntityIP:       "entity_ip",
	alert.EntityDevice:   "entity_device",
	alert.EntityLocation: "entity_location",
}

// InsertAlert inserts one alert row.
func (s *Store) InsertAlert(ctx context.Context, a *alert.Alert) error {
	ctx, span := s.startSpan(ctx, "pgstore.InsertAlert", "INSERT")
	defer span.End()

	query := `INSERT INTO alerts (` + alertColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := s.pool.Exec(ctx, query,
		a.ID, a.ExternalID, a.Source, a.Category, string(a.Severity), a.Title,
		nullable(a.Description), nullable(a.EntityUser), nullable(a.EntityIP),
		nullable(a.EntityDevice), nullable(a.EntityLocation),
		nullableTime(a.Timestamp), nullable(a.RawPayload), a.CreatedAt,
	)
	if err != nil {
		return s.fail(span, fmt.Errorf("insert alert: %w", err))
	}
	return nil
}

// AlertByID retrieves one alert.
func (s *Store) AlertByID(ctx context.Context, id string) (*alert.Alert, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.AlertByID", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	return a, a != nil, nil
}

// AlertByExternalID retrieves one alert by its source-assigned identifier.
func (s *Store) AlertByExternalID(ctx context.Context, externalID string) (*alert.Alert, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.AlertByExternalID", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE external_id = $1`
	a, err := scanAlert(s.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	return a, a != nil, nil
}

// AlertsByIDs returns the named alerts preserving the given ID order.
func (s *Store) AlertsByIDs(ctx context.Context, ids []string) ([]*alert.Alert, error) {
	ctx, span := s.startSpan(ctx, "pgstore.AlertsByIDs", "SELECT")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = ANY($1)`
	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query alerts: %w", err))
	}
	fetched, err := collectAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}

	byID := make(map[string]*alert.Alert, len(fetched))
	for _, a := range fetched {
		byID[a.ID] = a
	}
	out := make([]*alert.Alert, 0, len(ids))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ListAlerts returns alerts matching the filter, newest timestamp first.
func (s *Store) ListAlerts(ctx context.Context, f storage.AlertFilter) ([]*alert.Alert, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListAlerts", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE TRUE`
	var args []any
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if f.Source != "" {
		args = append(args, "%"+f.Source+"%")
		query += fmt.Sprintf(" AND source ILIKE $%d", len(args))
	}
	query += " ORDER BY ts DESC NULLS LAST, created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query alerts: %w", err))
	}
	out, err := collectAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return out, nil
}

// AllAlerts returns the full population in insertion order.
func (s *Store) AllAlerts(ctx context.Context) ([]*alert.Alert, error) {
	ctx, span := s.startSpan(ctx, "pgstore.AllAlerts", "SELECT")
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query alerts: %w", err))
	}
	out, err := collectAlerts(rows)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return out, nil
}

// CountAlertsByEntity counts stored alerts carrying exactly value for the
// given entity type.
func (s *Store) CountAlertsByEntity(ctx context.Context, typ alert.EntityType, value string) (int, error) {
	ctx, span := s.startSpan(ctx, "pgstore.CountAlertsByEntity", "SELECT")
	defer span.End()

	column, ok := entityColumns[typ]
	if !ok {
		return 0, s.fail(span, fmt.Errorf("unknown entity type %q", typ))
	}

	var count int
	query := `SELECT count(*) FROM alerts WHERE ` + column + ` = $1`
	if err := s.pool.QueryRow(ctx, query, value).Scan(&count); err != nil {
		return 0, s.fail(span, fmt.Errorf("count by %s: %w", column, err))
	}
	return count, nil
}

// CountDistinctUsersForIP counts distinct non-null users seen with the IP.
func (s *Store) CountDistinctUsersForIP(ctx context.Context, ip string) (int, error) {
	ctx, span := s.startSpan(ctx, "pgstore.CountDistinctUsersForIP", "SELECT")
	defer span.End()

	var count int
	query := `SELECT count(DISTINCT entity_user) FROM alerts
		WHERE entity_ip = $1 AND entity_user IS NOT NULL`
	if err := s.pool.QueryRow(ctx, query, ip).Scan(&count); err != nil {
		return 0, s.fail(span, fmt.Errorf("count users for ip: %w", err))
	}
	return count, nil
}

const incidentColumns = `id, title, status, priority_score, score_explanation,
	related_users, related_ips, related_devices, related_locations,
	notes, evidence, created_at, updated_at`

// PutIncident upserts the incident row and rewrites its membership in order.
func (s *Store) PutIncident(ctx context.Context, inc *incident.Incident) error {
	ctx, span := s.startSpan(ctx, "pgstore.PutIncident", "UPSERT")
	defer span.End()

	var explanation []byte
	if inc.Explanation != nil {
		var err error
		explanation, err = json.Marshal(inc.Explanation)
		if err != nil {
			return s.fail(span, fmt.Errorf("marshal explanation: %w", err))
		}
	}
	users, _ := json.Marshal(emptyNotNil(inc.Entities.Users))
	ips, _ := json.Marshal(emptyNotNil(inc.Entities.IPs))
	devices, _ := json.Marshal(emptyNotNil(inc.Entities.Devices))
	locations, _ := json.Marshal(emptyNotNil(inc.Entities.Locations))

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.fail(span, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	query := `INSERT INTO incidents (` + incidentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (id) DO UPDATE SET
			title             = EXCLUDED.title,
			status            = EXCLUDED.status,
			priority_score    = EXCLUDED.priority_score,
			score_explanation = EXCLUDED.score_explanation,
			related_users     = EXCLUDED.related_users,
			related_ips       = EXCLUDED.related_ips,
			related_devices   = EXCLUDED.related_devices,
			related_locations = EXCLUDED.related_locations,
			notes             = EXCLUDED.notes,
			evidence          = EXCLUDED.evidence,
			updated_at        = EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, query,
		inc.ID, inc.Title, string(inc.Status), inc.PriorityScore, explanation,
		users, ips, devices, locations,
		nullable(inc.Notes), nullable(inc.Evidence), inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return s.fail(span, fmt.Errorf("upsert incident: %w", err))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM incident_alerts WHERE incident_id = $1`, inc.ID); err != nil {
		return s.fail(span, fmt.Errorf("clear membership: %w", err))
	}
	for i, alertID := range inc.AlertIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO incident_alerts (incident_id, alert_id, position) VALUES ($1, $2, $3)`,
			inc.ID, alertID, i,
		)
		if err != nil {
			return s.fail(span, fmt.Errorf("insert membership %s: %w", alertID, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return s.fail(span, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// IncidentByID retrieves one incident with its membership.
func (s *Store) IncidentByID(ctx context.Context, id string) (*incident.Incident, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.IncidentByID", "SELECT")
	defer span.End()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`
	inc, err := scanIncident(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if inc == nil {
		return nil, false, nil
	}
	if err := s.loadMembership(ctx, inc); err != nil {
		return nil, false, s.fail(span, err)
	}
	return inc, true, nil
}

// ListIncidents returns incidents matching the filter, highest priority first.
func (s *Store) ListIncidents(ctx context.Context, f storage.IncidentFilter) ([]*incident.Incident, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListIncidents", "SELECT")
	defer span.End()

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE TRUE`
	var args []any
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		query += fmt.Sprintf(" AND status = ANY($%d)", len(args))
	}
	if f.MinPriority != nil {
		args = append(args, *f.MinPriority)
		query += fmt.Sprintf(" AND priority_score >= $%d", len(args))
	}
	query += " ORDER BY priority_score DESC, created_at"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query incidents: %w", err))
	}
	var out []*incident.Incident
	for rows.Next() {
		inc, err := scanIncidentRow(rows)
		if err != nil {
			rows.Close()
			return nil, s.fail(span, err)
		}
		out = append(out, inc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, fmt.Errorf("iterate incidents: %w", err))
	}

	for _, inc := range out {
		if err := s.loadMembership(ctx, inc); err != nil {
			return nil, s.fail(span, err)
		}
	}
	return out, nil
}

// FirstIncidentForAlert returns the earliest-created incident containing the
// alert, if any.
func (s *Store) FirstIncidentForAlert(ctx context.Context, alertID string) (*incident.Incident, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.FirstIncidentForAlert", "SELECT")
	defer span.End()

	query := `SELECT ` + prefixedIncidentColumns("i") + `
		FROM incidents i
		JOIN incident_alerts ia ON ia.incident_id = i.id
		WHERE ia.alert_id = $1
		ORDER BY i.created_at, i.id
		LIMIT 1`

	inc, err := scanIncident(s.pool.QueryRow(ctx, query, alertID))
	if err != nil {
		return nil, false, s.fail(span, err)
	}
	if inc == nil {
		return nil, false, nil
	}
	if err := s.loadMembership(ctx, inc); err != nil {
		return nil, false, s.fail(span, err)
	}
	return inc, true, nil
}

// DeleteAllIncidents discards every incident; membership rows cascade.
func (s *Store) DeleteAllIncidents(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "pgstore.DeleteAllIncidents", "DELETE")
	defer span.End()

	if _, err := s.pool.Exec(ctx, `DELETE FROM incidents`); err != nil {
		return s.fail(span, fmt.Errorf("delete incidents: %w", err))
	}
	return nil
}

// AppendAudit inserts one audit trail row.
func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	ctx, span := s.startSpan(ctx, "pgstore.AppendAudit", "INSERT")
	defer span.End()

	details, err := marshalJSON(e.Details)
	if err != nil {
		return s.fail(span, fmt.Errorf("marshal details: %w", err))
	}
	actor := e.Actor
	if actor == "" {
		actor = "analyst"
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, action, entity_type, entity_id, details, actor, client_ip, ts)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Action, e.EntityType, e.EntityID, details, actor, nullable(e.ClientIP), e.Timestamp,
	)
	if err != nil {
		return s.fail(span, fmt.Errorf("insert audit entry: %w", err))
	}
	return nil
}

// ListAudit returns audit entries matching the filter, newest first.
func (s *Store) ListAudit(ctx context.Context, f storage.AuditFilter) ([]*audit.Entry, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListAudit", "SELECT")
	defer span.End()

	query := `SELECT id, action, entity_type, entity_id, details, actor, client_ip, ts
		FROM audit_log WHERE TRUE`
	var args []any
	if f.Action != "" {
		args = append(args, f.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	query += " ORDER BY ts DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("query audit log: %w", err))
	}
	defer rows.Close()

	var out []*audit.Entry
	for rows.Next() {
		var (
			e        audit.Entry
			details  []byte
			clientIP *string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &details, &e.Actor, &clientIP, &e.Timestamp); err != nil {
			return nil, s.fail(span, fmt.Errorf("scan audit entry: %w", err))
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, s.fail(span, fmt.Errorf("unmarshal details: %w", err))
			}
		}
		if clientIP != nil {
			e.ClientIP = *clientIP
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, fmt.Errorf("iterate audit log: %w", err))
	}
	return out, nil
}

// Stats computes the dashboard counters.
func (s *Store) Stats(ctx context.Context, criticalCutoff float64) (*storage.Stats, error) {
	ctx, span := s.startSpan(ctx, "pgstore.Stats", "SELECT")
	defer span.End()

	var stats storage.Stats
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM alerts`).Scan(&stats.TotalAlerts); err != nil {
		return nil, s.fail(span, fmt.Errorf("count alerts: %w", err))
	}
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM incidents`).Scan(&stats.TotalIncidents); err != nil {
		return nil, s.fail(span, fmt.Errorf("count incidents: %w", err))
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM incidents WHERE priority_score >= $1`, criticalCutoff,
	).Scan(&stats.CriticalIncidents); err != nil {
		return nil, s.fail(span, fmt.Errorf("count critical incidents: %w", err))
	}

	rows, err := s.pool.Query(ctx, `SELECT status, count(*) FROM incidents GROUP BY status`)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("count by status: %w", err))
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, s.fail(span, fmt.Errorf("scan status count: %w", err))
		}
		switch incident.Status(status) {
		case incident.StatusNew:
			stats.NewIncidents = count
		case incident.StatusInvestigating:
			stats.InvestigatingIncidents = count
		case incident.StatusContained:
			stats.ContainedIncidents = count
		case incident.StatusClosed:
			stats.ClosedIncidents = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(span, fmt.Errorf("iterate status counts: %w", err))
	}
	return &stats, nil
}

func (s *Store) loadMembership(ctx context.Context, inc *incident.Incident) error {
	rows, err := s.pool.Query(ctx,
		`SELECT alert_id FROM incident_alerts WHERE incident_id = $1 ORDER BY position`,
		inc.ID,
	)
	if err != nil {
		return fmt.Errorf("query membership: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan membership: %w", err)
		}
		inc.AlertIDs = append(inc.AlertIDs, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate membership: %w", err)
	}
	return nil
}

func (s *Store) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func (s *Store) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// scanAlert scans a single alert row. Returns (nil, nil) when no row matched.
func scanAlert(row pgx.Row) (*alert.Alert, error) {
	a, err := scanAlertFields(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	return a, nil
}

func collectAlerts(rows pgx.Rows) ([]*alert.Alert, error) {
	defer rows.Close()
	var out []*alert.Alert
	for rows.Next() {
		a, err := scanAlertFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

func scanAlertFields(row pgx.Row) (*alert.Alert, error) {
	var (
		a                                      alert.Alert
		severity                               string
		description, user, ip, device, loc, rp *string
		ts                                     *time.Time
	)
	err := row.Scan(
		&a.ID, &a.ExternalID, &a.Source, &a.Category, &severity, &a.Title, &description,
		&user, &ip, &device, &loc, &ts, &rp, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Severity = alert.Severity(severity)
	a.Description = deref(description)
	a.EntityUser = deref(user)
	a.EntityIP = deref(ip)
	a.EntityDevice = deref(device)
	a.EntityLocation = deref(loc)
	a.RawPayload = deref(rp)
	if ts != nil {
		a.Timestamp = *ts
	}
	return &a, nil
}

// scanIncident scans a single incident row without membership.
// Returns (nil, nil) when no row matched.
func scanIncident(row pgx.Row) (*incident.Incident, error) {
	inc, err := scanIncidentRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return inc, nil
}

func scanIncidentRow(row pgx.Row) (*incident.Incident, error) {
	var (
		inc                            incident.Incident
		status                         string
		explanation                    []byte
		users, ips, devices, locations []byte
		notes, evidence                *string
	)
	err := row.Scan(
		&inc.ID, &inc.Title, &status, &inc.PriorityScore, &explanation,
		&users, &ips, &devices, &locations,
		&notes, &evidence, &inc.CreatedAt, &inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inc.Status = incident.Status(status)
	inc.Notes = deref(notes)
	inc.Evidence = deref(evidence)

	if len(explanation) > 0 {
		var expl triage.Explanation
		if err := json.Unmarshal(explanation, &expl); err != nil {
			return nil, fmt.Errorf("unmarshal explanation: %w", err)
		}
		inc.Explanation = &expl
	}
	for _, pair := range []struct {
		raw []byte
		dst *[]string
	}{
		{users, &inc.Entities.Users},
		{ips, &inc.Entities.IPs},
		{devices, &inc.Entities.Devices},
		{locations, &inc.Entities.Locations},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
				return nil, fmt.Errorf("unmarshal entity set: %w", err)
			}
		}
	}
	return &inc, nil
}

func prefixedIncidentColumns(prefix string) string {
	return prefix + `.id, ` + prefix + `.title, ` + prefix + `.status, ` + prefix + `.priority_score, ` +
		prefix + `.score_explanation, ` + prefix + `.related_users, ` + prefix + `.related_ips, ` +
		prefix + `.related_devices, ` + prefix + `.related_locations, ` + prefix + `.notes, ` +
		prefix + `.evidence, ` + prefix + `.created_at, ` + prefix + `.updated_at`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func emptyNotNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
