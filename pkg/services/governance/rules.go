package governance

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/models/domain"
)

//go:embed rules.yaml
var defaultRules []byte

const defaultCategory = "default"

// Rules is the declarative table behind the risk scorer and the compliance overlay.
type Rules struct {
	Categories map[string]Category `yaml:"categories"`
	Modifiers  []Modifier          `yaml:"modifiers"`
	Compliance []ComplianceRule    `yaml:"compliance"`
}

type Category struct {
	Base   int                `yaml:"base"`
	Effort map[string]float64 `yaml:"effort"`
}

// Modifier adds Delta to the risk score when any of its conditions holds.
type Modifier struct {
	ID            string              `yaml:"id"`
	Keywords      []string            `yaml:"keywords"`
	ResourceTypes []string            `yaml:"resource_types"`
	Tags          map[string][]string `yaml:"tags"`
	CostAbove     float64             `yaml:"cost_above"`
	Delta         int                 `yaml:"delta"`
	Controls      []string            `yaml:"controls"`
	Requirements  []string            `yaml:"requirements"`
}

// ComplianceRule flags recommendations whose text or resource type touches a regulated control.
type ComplianceRule struct {
	ID            string          `yaml:"id"`
	Framework     string          `yaml:"framework"`
	Keywords      []string        `yaml:"keywords"`
	ResourceTypes []string        `yaml:"resource_types"`
	Severity      domain.Severity `yaml:"severity"`
	Controls      []string        `yaml:"controls"`
	Requirement   string          `yaml:"requirement"`
	Warning       string          `yaml:"warning"`
}

// DefaultRules returns the built-in rule table.
func DefaultRules() Rules {
	rules, err := ParseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded governance rules: %v", err))
	}
	return rules
}

// LoadRules reads a rule table from path. An empty path yields the built-in table.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read governance rules: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, apperr.InvalidArgument("governance.rules", "failed to parse rules: %v", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) Validate() error {
	for name, c := range r.Categories {
		if c.Base < 1 || c.Base > 10 {
			return apperr.InvalidArgument("governance.rules", "category %s: base score %d outside [1, 10]", name, c.Base)
		}
	}

	seen := make(map[string]struct{})
	for _, m := range r.Modifiers {
		if m.ID == "" {
			return apperr.InvalidArgument("governance.rules", "modifier without id")
		}
		if _, dup := seen[m.ID]; dup {
			return apperr.InvalidArgument("governance.rules", "duplicate rule id %s", m.ID)
		}
		seen[m.ID] = struct{}{}
		if len(m.Keywords) == 0 && len(m.ResourceTypes) == 0 && len(m.Tags) == 0 && m.CostAbove <= 0 {
			return apperr.InvalidArgument("governance.rules", "modifier %s has no condition", m.ID)
		}
	}

	for _, c := range r.Compliance {
		if c.ID == "" || c.Framework == "" {
			return apperr.InvalidArgument("governance.rules", "compliance rule needs an id and a framework")
		}
		if _, dup := seen[c.ID]; dup {
			return apperr.InvalidArgument("governance.rules", "duplicate rule id %s", c.ID)
		}
		seen[c.ID] = struct{}{}
		if len(c.Keywords) == 0 && len(c.ResourceTypes) == 0 {
			return apperr.InvalidArgument("governance.rules", "compliance rule %s has no condition", c.ID)
		}
	}
	return nil
}

// Frameworks lists the distinct frameworks named by the compliance rules, in rule order.
func (r Rules) Frameworks() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range r.Compliance {
		if _, ok := seen[c.Framework]; ok {
			continue
		}
		seen[c.Framework] = struct{}{}
		out = append(out, c.Framework)
	}
	return out
}

func (r Rules) category(name string) Category {
	if c, ok := r.Categories[name]; ok {
		return c
	}
	for k, c := range r.Categories {
		if strings.EqualFold(k, name) {
			return c
		}
	}
	if c, ok := r.Categories[defaultCategory]; ok {
		return c
	}
	return Category{Base: 3}
}

func (m Modifier) matches(rec domain.Recommendation, text string) bool {
	if m.CostAbove > 0 && rec.PotentialSavings > m.CostAbove {
		return true
	}
	return containsAny(text, m.Keywords) || typeIn(rec.ResourceType, m.ResourceTypes) || tagsMatch(rec.Tags, m.Tags)
}

func (c ComplianceRule) matches(rec domain.Recommendation, text string) bool {
	return containsAny(text, c.Keywords) || typeIn(rec.ResourceType, c.ResourceTypes)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func typeIn(resourceType string, types []string) bool {
	if resourceType == "" {
		return false
	}
	for _, t := range types {
		if strings.EqualFold(t, resourceType) {
			return true
		}
	}
	return false
}

func tagsMatch(tags map[string]string, want map[string][]string) bool {
	for key, value := range tags {
		for wantKey, values := range want {
			if !strings.EqualFold(key, wantKey) {
				continue
			}
			for _, v := range values {
				if strings.EqualFold(strings.TrimSpace(value), v) {
					return true
				}
			}
		}
	}
	return false
}
