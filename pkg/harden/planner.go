package harden

import (
	"context"
	"fmt"
	"strings"

	"github.com/macharden/macharden/internal/logger"
)

var (
	DefaultElevation     = []string{"sudo"}
	DefaultEditor        = []string{"/usr/bin/sed", "-i", ""}
	DefaultNoticeProgram = "echo"
)

const noActionRequired = "No action required on this system."

// Planner turns catalog rules into the ActionSpecs to run now, based on the
// current state of the machine.
type Planner struct {
	config PlannerConfig
	probe  Prober
	users  EntityEnumerator
}

func NewPlanner(config PlannerConfig, probe Prober, users EntityEnumerator) *Planner {
	if config.Elevation == nil {
		config.Elevation = DefaultElevation
	}
	if len(config.Editor) == 0 {
		config.Editor = DefaultEditor
	}
	if config.NoticeProgram == "" {
		config.NoticeProgram = DefaultNoticeProgram
	}
	return &Planner{
		config: config,
		probe:  probe,
		users:  users,
	}
}

// Plan evaluates every step of rule in order and concatenates their actions,
// each tagged with the index of its step.
func (p *Planner) Plan(ctx context.Context, rule Rule) ([]ActionSpec, error) {
	var specs []ActionSpec
	for i, step := range rule.AllSteps() {
		stepSpecs, err := p.planStep(ctx, rule, step)
		if err != nil {
			return nil, err
		}
		logger.Debugf("rule %s step %d (%s): %d action(s)", rule.ID, i, step.Kind, len(stepSpecs))
		for j := range stepSpecs {
			stepSpecs[j].Step = i
		}
		specs = append(specs, stepSpecs...)
	}
	return specs, nil
}

func (p *Planner) planStep(ctx context.Context, rule Rule, step Step) ([]ActionSpec, error) {
	switch step.Kind {
	case KindStatic:
		if step.Command == nil {
			return nil, invalidStep(rule, step, "static step without command")
		}
		return []ActionSpec{p.build(rule, step, *step.Command, "")}, nil
	case KindPerEntity:
		return p.planPerEntity(ctx, rule, step)
	case KindBranch:
		return p.planBranch(ctx, rule, step)
	case KindLinePatch:
		return p.planPatch(rule, step)
	default:
		return nil, invalidStep(rule, step, fmt.Sprintf("unknown step kind %q", step.Kind))
	}
}

func (p *Planner) planPerEntity(ctx context.Context, rule Rule, step Step) ([]ActionSpec, error) {
	if step.ForEach == nil || len(step.Commands) == 0 {
		return nil, invalidStep(rule, step, "per_entity step needs for_each and commands")
	}
	if len(p.config.Elevation) == 0 {
		for _, cmd := range step.Commands {
			if cmd.Elevate && cmd.AsEntity {
				return nil, NewHardenError(ErrorTypeInvalidRule, "command runs as each entity but no elevation is configured", rule.ID).
					WithContext("action", actionID(rule, step, cmd.ID))
			}
		}
	}

	var enumerator EntityEnumerator
	switch step.ForEach.Source {
	case SourceUsers:
		enumerator = p.users
	case SourceCommand:
		enumerator = NewCommandEnumerator(p.probe, step.ForEach.Program, step.ForEach.Args)
	default:
		return nil, invalidStep(rule, step, fmt.Sprintf("unknown entity source %q", step.ForEach.Source))
	}

	entities, err := enumerator.List(ctx)
	if err != nil {
		return nil, err
	}

	specs := make([]ActionSpec, 0, len(entities)*len(step.Commands))
	for _, entity := range entities {
		for _, cmd := range step.Commands {
			specs = append(specs, p.build(rule, step, cmd, entity))
		}
	}
	return specs, nil
}

func (p *Planner) planBranch(ctx context.Context, rule Rule, step Step) ([]ActionSpec, error) {
	if step.Fact == nil {
		return nil, invalidStep(rule, step, "branch step without fact")
	}

	var (
		value  string
		exists bool
	)
	switch step.Fact.Kind {
	case FactCommandOutput:
		out, err := p.probe.CommandOutput(ctx, step.Fact.Program, step.Fact.Args...)
		if err != nil {
			return nil, err
		}
		value = strings.TrimSpace(out)
	case FactFileExists:
		exists = p.probe.FileExists(step.Fact.Path)
	default:
		return nil, invalidStep(rule, step, fmt.Sprintf("unknown fact kind %q", step.Fact.Kind))
	}

	arm := SelectBranch(step.Branches, step.Default, value, exists)
	logger.Debugf("rule %s: fact %q exists=%t selected %+v", rule.ID, value, exists, arm)

	if arm.Command != nil {
		return []ActionSpec{p.build(rule, withID(step, arm.ID), *arm.Command, "")}, nil
	}
	msg := arm.Notice
	if msg == "" {
		msg = noActionRequired
	}
	return []ActionSpec{p.notice(actionID(rule, step, arm.ID), summary(rule, step), msg)}, nil
}

// SelectBranch returns the first arm matching the observed fact, then def, then
// an empty arm (a generic notice). It never fails.
func SelectBranch(arms []Branch, def *Branch, value string, exists bool) Branch {
	for _, arm := range arms {
		switch {
		case arm.Exists != nil:
			if *arm.Exists == exists {
				return arm
			}
		case arm.Contains != "":
			if strings.Contains(value, arm.Contains) {
				return arm
			}
		}
	}
	if def != nil {
		return *def
	}
	return Branch{}
}

func (p *Planner) planPatch(rule Rule, step Step) ([]ActionSpec, error) {
	patch := step.Patch
	if patch == nil {
		return nil, invalidStep(rule, step, "line_patch step without patch")
	}

	id := actionID(rule, step, "")
	desc := summary(rule, step)

	current, found, err := p.probe.MatchingLine(patch.Path, patch.Match)
	if err != nil {
		return nil, err
	}
	if !found {
		return []ActionSpec{p.notice(id, desc, fmt.Sprintf("Target line (%s) not found in %s.", patch.Match, patch.Path))}, nil
	}

	line := strings.TrimSuffix(current, "\r")
	eol := current[len(line):]
	updated, changed := NewLine(line, *patch)
	if !changed {
		return []ActionSpec{p.notice(id, desc, fmt.Sprintf("%s is already compliant.", patch.Path))}, nil
	}

	argv := append([]string{}, p.config.Elevation...)
	argv = append(argv, p.config.Editor...)
	argv = append(argv, SubstitutionExpr(current, updated+eol), patch.Path)
	return []ActionSpec{{
		ID:        id,
		Summary:   desc,
		Program:   argv[0],
		FixedArgs: argv[1:],
	}}, nil
}

func (p *Planner) build(rule Rule, step Step, cmd Command, entity string) ActionSpec {
	var argv []string
	if cmd.Elevate {
		argv = append(argv, p.config.Elevation...)
		if cmd.AsEntity && entity != "" {
			argv = append(argv, "-u", entity)
		}
	}
	argv = append(argv, cmd.Program)
	for _, arg := range cmd.Args {
		argv = append(argv, strings.ReplaceAll(arg, EntityPlaceholder, entity))
	}

	spec := ActionSpec{
		ID:         actionID(rule, step, cmd.ID),
		Summary:    summary(rule, step),
		Program:    argv[0],
		FixedArgs:  argv[1:],
		NeedsInput: cmd.Interactive,
	}
	if cmd.Resolve != nil {
		spec.Resolver = p.resolver(*cmd.Resolve)
	}
	return spec
}

func (p *Planner) resolver(rs ResolverSpec) ArgResolver {
	if len(rs.Command) > 0 {
		return CommandLinesResolver{Probe: p.probe, Program: rs.Command[0], Args: rs.Command[1:]}
	}
	return HomePathResolver{Suffix: rs.HomePath}
}

func (p *Planner) notice(id, desc, msg string) ActionSpec {
	return ActionSpec{
		ID:        id,
		Summary:   desc,
		Program:   p.config.NoticeProgram,
		FixedArgs: []string{msg},
		Notice:    true,
	}
}

func actionID(rule Rule, step Step, override string) string {
	switch {
	case override != "":
		return override
	case step.ID != "":
		return step.ID
	}
	return rule.ID
}

func summary(rule Rule, step Step) string {
	if step.Summary != "" {
		return step.Summary
	}
	return rule.Summary
}

func withID(step Step, id string) Step {
	if id != "" {
		step.ID = id
	}
	return step
}

func invalidStep(rule Rule, step Step, msg string) error {
	return NewHardenError(ErrorTypeInvalidRule, msg, rule.ID).WithContext("kind", step.Kind)
}
