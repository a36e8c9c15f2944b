package harden

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/macharden/macharden/internal/logger"
)

type ActionPlanner interface {
	Plan(ctx context.Context, rule Rule) ([]ActionSpec, error)
}

// Event is handed to the Reporter once per executed (or, in dry-run mode,
// planned) action, and once for a rule that failed before producing actions.
type Event struct {
	RunID  string
	RuleID string
	Action *ActionSpec
	Result *Result
	Err    error
	DryRun bool
}

type Reporter interface {
	Report(ev Event)
}

type Runner struct {
	config   RunnerConfig
	planner  ActionPlanner
	executor Executor
	reporter Reporter
}

func NewRunner(config RunnerConfig, planner ActionPlanner, executor Executor, reporter Reporter) *Runner {
	return &Runner{
		config:   config,
		planner:  planner,
		executor: executor,
		reporter: reporter,
	}
}

// Run executes rules strictly in order. A failing rule is reported and the run
// continues with the next one unless FailFast is set. Within a rule, a failed
// action skips the actions of later steps.
func (r *Runner) Run(ctx context.Context, rules []Rule) Summary {
	summary := Summary{RunID: uuid.NewString()}
	log := logger.WithFields(logrus.Fields{"run": summary.RunID})
	log.Infof("starting run over %d rule(s)", len(rules))

	for _, rule := range rules {
		if ctx.Err() != nil {
			log.Warnf("run interrupted before rule %s: %v", rule.ID, ctx.Err())
			break
		}
		summary.Rules++
		ok := r.runRule(ctx, summary.RunID, rule, &summary)
		if !ok {
			summary.Failed = append(summary.Failed, rule.ID)
			if r.config.FailFast {
				log.Warnf("stopping after failed rule %s", rule.ID)
				break
			}
		}
	}

	log.WithFields(logrus.Fields{
		"rules":     summary.Rules,
		"actions":   summary.Actions,
		"corrected": summary.Corrected,
		"notices":   summary.Notices,
		"failures":  summary.Failures,
	}).Info("run finished")
	return summary
}

func (r *Runner) runRule(ctx context.Context, runID string, rule Rule, summary *Summary) bool {
	log := logger.WithFields(logrus.Fields{"run": runID, "rule": rule.ID})

	specs, err := r.planner.Plan(ctx, rule)
	if err != nil {
		log.Errorf("planning failed: %v", err)
		summary.Failures++
		r.report(Event{RunID: runID, RuleID: rule.ID, Err: err})
		return false
	}
	if len(specs) == 0 {
		log.Info("nothing to do")
		return true
	}

	ok := true
	failedStep := -1
	for i := range specs {
		spec := specs[i]
		if failedStep >= 0 && spec.Step > failedStep {
			log.WithField("action", spec.ID).Warnf("skipped: step %d failed", failedStep)
			continue
		}
		summary.Actions++

		if r.config.DryRun {
			r.report(Event{RunID: runID, RuleID: rule.ID, Action: &spec, DryRun: true})
			continue
		}

		result, err := r.executor.Run(ctx, spec)
		switch {
		case err != nil:
			log.WithField("action", spec.ID).Errorf("action failed: %v", err)
			summary.Failures++
			ok = false
			if failedStep < 0 {
				failedStep = spec.Step
			}
		case spec.Notice:
			summary.Notices++
		default:
			summary.Corrected++
		}
		r.report(Event{RunID: runID, RuleID: rule.ID, Action: &spec, Result: result, Err: err})

		if err != nil && r.config.FailFast {
			break
		}
	}
	return ok
}

func (r *Runner) report(ev Event) {
	if r.reporter != nil {
		r.reporter.Report(ev)
	}
}
