package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/macharden/macharden/pkg/harden"
)

//go:embed rules.yaml
var DefaultRules []byte

// Catalog is the ordered set of hardening rules.
type Catalog struct {
	Version string        `yaml:"version"`
	Rules   []harden.Rule `yaml:"rules" validate:"required,min=1,dive"`

	index map[string]int
}

// Load reads the catalog at filePath, or the embedded catalog when filePath
// is empty.
func Load(filePath string) (*Catalog, error) {
	var data []byte

	if filePath == "" {
		data = DefaultRules
	} else {
		var err error
		// #nosec G304 - user-specified catalog path
		data, err = os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}
	}

	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the shape of every step, and builds the id
// index.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("rules validation failed: %w", err)
	}

	c.index = make(map[string]int, len(c.Rules))
	for i, rule := range c.Rules {
		if _, dup := c.index[rule.ID]; dup {
			return invalid(rule.ID, "duplicate rule id")
		}
		c.index[rule.ID] = i

		if len(rule.Steps) > 0 && rule.Kind != "" {
			return invalid(rule.ID, "rule has both an inline step and steps")
		}
		for n, step := range rule.AllSteps() {
			if err := checkStep(step); err != nil {
				return invalid(rule.ID, fmt.Sprintf("step %d: %v", n, err))
			}
		}
	}
	return nil
}

func (c *Catalog) Len() int {
	return len(c.Rules)
}

// IDs returns rule ids in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Rules))
	for i, rule := range c.Rules {
		ids[i] = rule.ID
	}
	return ids
}

func (c *Catalog) Get(id string) (harden.Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return harden.Rule{}, false
	}
	return c.Rules[i], true
}

// Select returns the rules named by ids in catalog order. An empty ids
// selects the whole catalog. Unknown ids are reported together.
func (c *Catalog) Select(ids []string) ([]harden.Rule, error) {
	if len(ids) == 0 {
		return c.Rules, nil
	}

	want := make(map[string]bool, len(ids))
	var unknown []string
	for _, id := range ids {
		if _, ok := c.index[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		want[id] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, harden.NewHardenError(harden.ErrorTypeInvalidRule, "unknown rule id", "").
			WithContext("ids", unknown)
	}

	rules := make([]harden.Rule, 0, len(want))
	for _, rule := range c.Rules {
		if want[rule.ID] {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func checkStep(step harden.Step) error {
	switch step.Kind {
	case harden.KindStatic:
		if step.Command == nil {
			return fmt.Errorf("static step needs command")
		}
	case harden.KindPerEntity:
		if step.ForEach == nil || len(step.Commands) == 0 {
			return fmt.Errorf("per_entity step needs for_each and commands")
		}
	case harden.KindBranch:
		return checkBranch(step)
	case harden.KindLinePatch:
		return checkPatch(step.Patch)
	case "":
		return fmt.Errorf("missing kind")
	default:
		return fmt.Errorf("unknown kind %q", step.Kind)
	}
	return nil
}

func checkBranch(step harden.Step) error {
	if step.Fact == nil || len(step.Branches) == 0 {
		return fmt.Errorf("branch step needs fact and branches")
	}
	for i, arm := range step.Branches {
		switch step.Fact.Kind {
		case harden.FactCommandOutput:
			if arm.Contains == "" || arm.Exists != nil {
				return fmt.Errorf("arm %d: command_output arms match on contains", i)
			}
		case harden.FactFileExists:
			if arm.Exists == nil || arm.Contains != "" {
				return fmt.Errorf("arm %d: file_exists arms match on exists", i)
			}
		}
		if arm.Command != nil && arm.Notice != "" {
			return fmt.Errorf("arm %d: command and notice are exclusive", i)
		}
	}
	if step.Default != nil && (step.Default.Contains != "" || step.Default.Exists != nil) {
		return fmt.Errorf("default arm cannot match")
	}
	return nil
}

func checkPatch(p *harden.Patch) error {
	if p == nil {
		return fmt.Errorf("line_patch step needs patch")
	}
	if (p.Match.Prefix == "") == (p.Match.Contains == "") {
		return fmt.Errorf("patch match needs exactly one of prefix or contains")
	}
	switch p.Mode {
	case harden.PatchReplace:
		if p.Line == "" {
			return fmt.Errorf("replace patch needs line")
		}
	case harden.PatchTokens:
		if len(p.Tokens) == 0 {
			return fmt.Errorf("tokens patch needs tokens")
		}
	}
	return nil
}

func invalid(ruleID, msg string) error {
	return harden.NewHardenError(harden.ErrorTypeInvalidRule, msg, ruleID)
}
