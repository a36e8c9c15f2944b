package harden

type Kind string

const (
	KindStatic    Kind = "static"
	KindPerEntity Kind = "per_entity"
	KindBranch    Kind = "branch"
	KindLinePatch Kind = "line_patch"
)

// EntityPlaceholder is replaced by the entity name in per-entity arguments.
const EntityPlaceholder = "{{entity}}"

// Rule is one catalog entry. Simple rules carry a single inline step; rules
// that combine shapes list them in Steps and run them in order.
type Rule struct {
	ID       string `yaml:"id" validate:"required"`
	Summary  string `yaml:"summary" validate:"required"`
	StepBody `yaml:",inline"`
	Steps    []Step `yaml:"steps,omitempty" validate:"dive"`
}

func (r Rule) AllSteps() []Step {
	if len(r.Steps) > 0 {
		return r.Steps
	}
	return []Step{{StepBody: r.StepBody}}
}

// Step is one stage of a composite rule. ID and Summary override the rule's.
type Step struct {
	ID       string `yaml:"id,omitempty"`
	Summary  string `yaml:"summary,omitempty"`
	StepBody `yaml:",inline"`
}

// StepBody holds the shape of a step. Kind selects which fields apply.
type StepBody struct {
	Kind Kind `yaml:"kind,omitempty" validate:"omitempty,oneof=static per_entity branch line_patch"`

	// static
	Command *Command `yaml:"command,omitempty"`

	// per_entity
	ForEach  *EntitySource `yaml:"for_each,omitempty"`
	Commands []Command     `yaml:"commands,omitempty" validate:"dive"`

	// branch
	Fact     *FactProbe `yaml:"fact,omitempty"`
	Branches []Branch   `yaml:"branches,omitempty" validate:"dive"`
	Default  *Branch    `yaml:"default,omitempty"`

	// line_patch
	Patch *Patch `yaml:"patch,omitempty"`
}

type Command struct {
	ID      string   `yaml:"id,omitempty"`
	Program string   `yaml:"program" validate:"required"`
	Args    []string `yaml:"args,omitempty"`
	// Elevate prefixes the configured elevation command.
	Elevate bool `yaml:"elevate,omitempty"`
	// AsEntity runs the command as the current entity (elevation -u <entity>).
	AsEntity    bool          `yaml:"as_entity,omitempty"`
	Interactive bool          `yaml:"interactive,omitempty"`
	Resolve     *ResolverSpec `yaml:"resolve,omitempty"`
}

type ResolverSpec struct {
	HomePath string   `yaml:"home_path,omitempty"`
	Command  []string `yaml:"command,omitempty"`
}

const (
	SourceUsers   = "users"
	SourceCommand = "command"
)

type EntitySource struct {
	Source  string   `yaml:"source" validate:"required,oneof=users command"`
	Program string   `yaml:"program,omitempty" validate:"required_if=Source command"`
	Args    []string `yaml:"args,omitempty"`
}

const (
	FactCommandOutput = "command_output"
	FactFileExists    = "file_exists"
)

type FactProbe struct {
	Kind    string   `yaml:"kind" validate:"required,oneof=command_output file_exists"`
	Program string   `yaml:"program,omitempty" validate:"required_if=Kind command_output"`
	Args    []string `yaml:"args,omitempty"`
	Path    string   `yaml:"path,omitempty" validate:"required_if=Kind file_exists"`
}

// Branch is one arm of a branch step. Contains matches command output, Exists
// matches file existence. The arm yields Command, or a notice when Command is
// nil.
type Branch struct {
	ID       string   `yaml:"id,omitempty"`
	Contains string   `yaml:"contains,omitempty"`
	Exists   *bool    `yaml:"exists,omitempty"`
	Command  *Command `yaml:"command,omitempty"`
	Notice   string   `yaml:"notice,omitempty"`
}
