// Package deletion fans a deletion intent out to every matching datastore
// rule and records one outcome per rule.
package deletion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sungwon/erasure-bridge/internal/audit"
	"github.com/sungwon/erasure-bridge/internal/catalog"
	"github.com/sungwon/erasure-bridge/internal/datastore"
	"github.com/sungwon/erasure-bridge/internal/logger"
	"github.com/sungwon/erasure-bridge/internal/metrics"
	"github.com/sungwon/erasure-bridge/internal/notification"
	"github.com/sungwon/erasure-bridge/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Deleter removes a single datastore entry.
type Deleter interface {
	DeleteEntry(ctx context.Context, apiKey string, req datastore.DeleteRequest) error
}

// Recorder persists per-rule outcomes.
type Recorder interface {
	RecordSuccess(ctx context.Context, gameID uuid.UUID, userID string, ruleIDs []uuid.UUID) (storage.History, error)
	RecordFailure(ctx context.Context, f audit.Failure) (storage.ErrorLog, error)
}

// Outcome is the result of one (game, rule) unit. Exactly one of History and
// Err is set. RuleID is uuid.Nil when the game's rules could not be loaded.
type Outcome struct {
	GameID     uuid.UUID
	UniverseID string
	RuleID     uuid.UUID
	Request    datastore.DeleteRequest
	History    *storage.History
	Err        error
}

// Succeeded reports whether the unit completed and was recorded.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Report collects the outcomes of a dispatch. Skipped lists universe ids
// that matched no known game.
type Report struct {
	Outcomes []Outcome
	Skipped  []string
}

// Counts returns the number of succeeded and failed outcomes.
func (r Report) Counts() (succeeded, failed int) {
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// Dispatcher resolves intents against the catalog and runs the deletions.
type Dispatcher struct {
	catalog  catalog.Catalog
	deleter  Deleter
	recorder Recorder
	workers  int
}

// NewDispatcher creates a Dispatcher. workers bounds the number of units run
// at once; values below 2 run units sequentially in intent order.
func NewDispatcher(cat catalog.Catalog, deleter Deleter, recorder Recorder, workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{catalog: cat, deleter: deleter, recorder: recorder, workers: workers}
}

type unit struct {
	game catalog.Game
	rule catalog.Rule
}

// Dispatch deletes the intent's user from every rule of every known game it
// names. Per-rule failures are recorded and never stop the walk. The only
// error returned is a failure to list games.
func (d *Dispatcher) Dispatch(ctx context.Context, intent notification.Intent) (Report, error) {
	log := logger.FromContext(ctx)

	games, err := d.catalog.Games(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load games: %w", err)
	}

	var report Report
	var units []unit
	for _, universeID := range intent.UniverseIDs {
		game, ok := catalog.FindByUniverseID(games, universeID)
		if !ok {
			log.Debug().Str("universe_id", universeID).Msg("no game registered for universe, skipping")
			report.Skipped = append(report.Skipped, universeID)
			continue
		}

		rules, err := d.catalog.Rules(ctx, game.ID)
		if err != nil {
			err = fmt.Errorf("load rules: %w", err)
			d.recordFailure(ctx, game, err)
			report.Outcomes = append(report.Outcomes, Outcome{GameID: game.ID, UniverseID: game.UniverseID, Err: err})
			continue
		}
		for _, rule := range rules {
			units = append(units, unit{game: game, rule: rule})
		}
	}

	results := make([]Outcome, len(units))
	if d.workers == 1 {
		for i, u := range units {
			results[i] = d.run(ctx, u, intent.UserID)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.workers)
		for i, u := range units {
			g.Go(func() error {
				results[i] = d.run(ctx, u, intent.UserID)
				return nil
			})
		}
		_ = g.Wait()
	}
	report.Outcomes = append(report.Outcomes, results...)

	succeeded, failed := report.Counts()
	log.Info().
		Str("user_id", intent.UserID).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("skipped", len(report.Skipped)).
		Msg("deletion request dispatched")
	return report, nil
}

func (d *Dispatcher) run(ctx context.Context, u unit, userID string) Outcome {
	log := logger.FromContext(ctx)

	scope := u.rule.Scope
	if scope == "" {
		scope = datastore.DefaultScope
	}
	req := datastore.DeleteRequest{
		UniverseID:    u.game.UniverseID,
		DatastoreName: Substitute(u.rule.DatastoreName, userID),
		Scope:         scope,
		EntryKey:      Substitute(u.rule.KeyPattern, userID),
	}
	out := Outcome{GameID: u.game.ID, UniverseID: u.game.UniverseID, RuleID: u.rule.ID, Request: req}

	log.Debug().
		Str("universe_id", req.UniverseID).
		Str("datastore", req.DatastoreName).
		Str("scope", req.Scope).
		Str("entry_key", req.EntryKey).
		Msg("deleting datastore entry")

	err := d.deleter.DeleteEntry(ctx, u.game.APIKey, req)
	if err == nil {
		var h storage.History
		h, err = d.recorder.RecordSuccess(ctx, u.game.ID, userID, []uuid.UUID{u.rule.ID})
		if err == nil {
			metrics.RuleDeletionsTotal.WithLabelValues("success").Inc()
			out.History = &h
			return out
		}
	}

	metrics.RuleDeletionsTotal.WithLabelValues(failureResult(err)).Inc()
	d.recordFailure(ctx, u.game, err)
	out.Err = err
	return out
}

// failureResult labels a failed unit by whether repeating it could succeed.
func failureResult(err error) string {
	if datastore.IsPermanent(err) {
		return "permanent_failure"
	}
	return "transient_failure"
}

// recordFailure writes the error log. A failed write has already been logged
// by the recorder, so it is not propagated.
func (d *Dispatcher) recordFailure(ctx context.Context, game catalog.Game, err error) {
	_, _ = d.recorder.RecordFailure(ctx, audit.Failure{
		GameLabel:  game.Label,
		UniverseID: game.UniverseID,
		Err:        err,
	})
}
