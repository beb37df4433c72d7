package correlation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/alert"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/incident"
	"github.com/ErhardSzanto/Security-Incident-Triage-Dashboard-for-M365-Alerts/internal/triage"
)

// Engine clusters batches of new alerts into incidents. It holds no mutable
// state of its own; callers must not run two Correlate calls concurrently
// against the same store (see Service).
type Engine struct {
	store   Store
	scorer  *triage.Scorer
	cfg     Config
	logger  log.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewEngine creates a correlation engine. metrics may be nil.
func NewEngine(store Store, scorer *triage.Scorer, cfg Config, logger log.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		store:   store,
		scorer:  scorer,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Correlate clusters a batch of new alerts, in their given order, against the
// full alert population. Each incident it returns was either created for a
// group with no prior incident or extended with the group's new alerts, and
// carries a title, entity snapshot, and score recomputed over its complete
// resulting membership.
func (e *Engine) Correlate(ctx context.Context, batch []*alert.Alert) ([]*incident.Incident, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	stored, err := e.store.AllAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alert population: %w", err)
	}

	// The population is stored alerts followed by batch alerts, deduplicated
	// by ID: ingestion persists the batch before correlating, so the stored
	// set usually already contains it.
	population := make([]*alert.Alert, 0, len(stored)+len(batch))
	byID := make(map[string]*alert.Alert, len(stored)+len(batch))
	for _, a := range stored {
		if _, ok := byID[a.ID]; ok {
			continue
		}
		byID[a.ID] = a
		population = append(population, a)
	}
	for _, a := range batch {
		if _, ok := byID[a.ID]; ok {
			continue
		}
		byID[a.ID] = a
		population = append(population, a)
	}

	inBatch := make(map[string]bool, len(batch))
	for _, a := range batch {
		inBatch[a.ID] = true
	}

	assigned := make(map[string]bool, len(batch))
	var incidents []*incident.Incident

	for _, cur := range batch {
		if assigned[cur.ID] {
			continue
		}

		related := e.relatedAlerts(cur, population)

		// First related alert with an incident wins the merge, even when
		// others belong to different incidents.
		var target *incident.Incident
		for _, r := range related {
			inc, ok, err := e.store.FirstIncidentForAlert(ctx, r.ID)
			if err != nil {
				return nil, fmt.Errorf("incident lookup for alert %s: %w", r.ID, err)
			}
			if ok {
				target = inc
				break
			}
		}

		// The group is the current alert plus related batch alerts not yet
		// assigned. Related stored alerts only steer the merge target; they
		// are already incident members.
		group := []*alert.Alert{cur}
		inGroup := map[string]bool{cur.ID: true}
		for _, r := range related {
			if inBatch[r.ID] && !assigned[r.ID] && !inGroup[r.ID] {
				group = append(group, r)
				inGroup[r.ID] = true
			}
		}

		inc, created, err := e.applyGroup(ctx, group, target, byID)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, inc)
		e.metrics.IncIncident(created)

		for id := range inGroup {
			assigned[id] = true
		}
	}

	e.logger.Info(ctx, "correlation batch done",
		"batch_size", len(batch),
		"population", len(population),
		"incidents", len(incidents),
	)

	return incidents, nil
}

// Recorrelate discards every incident and replays the whole stored alert
// population through Correlate, ordered ascending by timestamp with untimed
// alerts first. This is a full rebuild, never incremental.
func (e *Engine) Recorrelate(ctx context.Context) ([]*incident.Incident, error) {
	if err := e.store.DeleteAllIncidents(ctx); err != nil {
		return nil, fmt.Errorf("discard incidents: %w", err)
	}

	all, err := e.store.AllAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alert population: %w", err)
	}

	// Zero timestamps sort before everything else, so untimed alerts lead.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})

	return e.Correlate(ctx, all)
}

// relatedAlerts returns every other alert in the population that passes the
// time window and meets the overlap threshold, in population order.
func (e *Engine) relatedAlerts(cur *alert.Alert, population []*alert.Alert) []*alert.Alert {
	window := e.cfg.Window()
	var related []*alert.Alert
	for _, other := range population {
		if other.ID == cur.ID {
			continue
		}
		if !WithinWindow(cur, other, window) {
			continue
		}
		if EntityOverlap(cur, other) >= e.cfg.OverlapThreshold {
			related = append(related, other)
		}
	}
	return related
}

// applyGroup creates a new incident for the group or appends the group to the
// merge target, then recomputes entities, title, and score over the full
// resulting membership and persists the incident.
func (e *Engine) applyGroup(ctx context.Context, group []*alert.Alert, target *incident.Incident, byID map[string]*alert.Alert) (*incident.Incident, bool, error) {
	now := e.now().UTC()

	var inc *incident.Incident
	var members []*alert.Alert
	created := target == nil

	if target != nil {
		inc = target
		for _, id := range inc.AlertIDs {
			if a, ok := byID[id]; ok {
				members = append(members, a)
			}
		}
		for _, a := range group {
			if inc.HasAlert(a.ID) {
				continue
			}
			inc.AlertIDs = append(inc.AlertIDs, a.ID)
			members = append(members, a)
		}
	} else {
		inc = &incident.Incident{
			ID:        ulid.Make().String(),
			Status:    incident.StatusNew,
			CreatedAt: now,
		}
		for _, a := range group {
			inc.AlertIDs = append(inc.AlertIDs, a.ID)
		}
		members = group
	}

	ents := alert.CollectEntities(members)
	inc.Entities = ents
	inc.Title = GenerateTitle(members)

	score, explanation, err := e.scorer.Score(ctx, members, ents)
	if err != nil {
		return nil, false, fmt.Errorf("score incident %s: %w", inc.ID, err)
	}
	inc.PriorityScore = score
	inc.Explanation = explanation
	inc.UpdatedAt = now

	if err := e.store.PutIncident(ctx, inc); err != nil {
		return nil, false, fmt.Errorf("persist incident %s: %w", inc.ID, err)
	}

	e.metrics.ObserveScore(score)

	return inc, created, nil
}
