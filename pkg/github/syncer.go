package github

import (
	"github.com/sirupsen/logrus"

	"teamops/pkg/teams"
)

// TeamResult is the outcome of syncing one team configuration
type TeamResult struct {
	Team string
	Plan *SyncPlan
	Err  error
}

// SyncResult collects the per-team outcomes of a sync run
type SyncResult struct {
	Results []TeamResult
}

// Failed returns the results of teams whose sync did not fully succeed
func (r *SyncResult) Failed() []TeamResult {
	var failed []TeamResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// HasFailures reports whether any team failed to sync
func (r *SyncResult) HasFailures() bool {
	return len(r.Failed()) > 0
}

// Syncer drives reconciliation over team configurations. In dry-run mode it
// plans but never applies.
type Syncer struct {
	rec    *Reconciler
	log    *logrus.Logger
	dryRun bool
}

// NewSyncer creates a syncer over the given API
func NewSyncer(api TeamAPI, log *logrus.Logger, dryRun bool) *Syncer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Syncer{
		rec:    NewReconciler(api),
		log:    log,
		dryRun: dryRun,
	}
}

// Sync reconciles a single team configuration against live state
func (s *Syncer) Sync(cfg *teams.Config) TeamResult {
	log := s.log.WithField("team", cfg.Name)

	plan, err := s.rec.Plan(cfg)
	if err != nil {
		log.WithError(err).Error("failed to plan team sync")
		return TeamResult{Team: cfg.Name, Err: err}
	}

	for _, note := range plan.Skipped {
		log.WithFields(logrus.Fields{
			"resource": note.Resource,
			"reason":   note.Reason,
		}).Warn("skipping resource")
	}

	if plan.IsEmpty() {
		log.Debug("team already in sync")
		return TeamResult{Team: cfg.Name, Plan: plan}
	}

	if s.dryRun {
		log.WithField("changes", plan.ChangeCount()).Info("dry run: changes planned but not applied")
		return TeamResult{Team: cfg.Name, Plan: plan}
	}

	if err := s.rec.Apply(plan); err != nil {
		log.WithError(err).Error("failed to apply team sync")
		return TeamResult{Team: cfg.Name, Plan: plan, Err: err}
	}

	log.WithField("changes", plan.ChangeCount()).Info("team synced")
	return TeamResult{Team: cfg.Name, Plan: plan}
}

// SyncAll reconciles every configuration in turn. A failing team does not
// block the others.
func (s *Syncer) SyncAll(cfgs []*teams.Config) *SyncResult {
	result := &SyncResult{}
	for _, cfg := range cfgs {
		result.Results = append(result.Results, s.Sync(cfg))
	}
	return result
}
