package zone

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnresolvedZone names the catch-all bucket for tables no rule matches.
const UnresolvedZone = "General"

// Rule maps a numeric range and/or a literal set of table ids to a zone.
// A rule without a range (Max == 0) only matches its literals.
type Rule struct {
	Zone     string   `yaml:"zone"`
	TopicID  int      `yaml:"topic_id"`
	Min      int      `yaml:"min"`
	Max      int      `yaml:"max"`
	Literals []string `yaml:"literals"`
}

func (r Rule) matches(raw string, num int, numeric bool) bool {
	if numeric && r.Max > 0 && num >= r.Min && num <= r.Max {
		return true
	}
	for _, lit := range r.Literals {
		if strings.TrimSpace(lit) == raw {
			return true
		}
	}
	return false
}

type Result struct {
	Zone     string `bson:"zone" json:"zone"`
	TopicID  int    `bson:"topic_id" json:"topic_id"`
	Resolved bool   `bson:"resolved" json:"resolved"`
}

type Resolver struct {
	rules []Rule
}

// NewResolver keeps rules in the given order; the first match wins.
func NewResolver(rules []Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Resolver{rules: cp}
}

// DefaultRules is the lounge floor plan.
func DefaultRules() []Rule {
	return []Rule{
		{Zone: "1 Зона", TopicID: 2, Min: 1, Max: 16, Literals: []string{"101", "102", "103"}},
		{Zone: "2 Зона", TopicID: 3, Min: 17, Max: 32, Literals: []string{"104", "105"}},
		{Zone: "2 Этаж", TopicID: 5, Min: 33, Max: 47, Literals: []string{"201", "777"}},
	}
}

func (r *Resolver) Resolve(table string) Result {
	raw := strings.TrimSpace(table)
	num, err := strconv.Atoi(raw)
	numeric := err == nil

	for _, rule := range r.rules {
		if rule.matches(raw, num, numeric) {
			return Result{Zone: rule.Zone, TopicID: rule.TopicID, Resolved: true}
		}
	}
	return Result{Zone: UnresolvedZone}
}

func (r *Resolver) Rules() []Rule {
	cp := make([]Rule, len(r.rules))
	copy(cp, r.rules)
	return cp
}

type rulesFile struct {
	Zones []Rule `yaml:"zones"`
}

// LoadRules reads a YAML file shaped as {zones: [{zone, topic_id, min, max, literals}]}.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read zones file: %w", err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("cannot parse zones file: %w", err)
	}
	for i, rule := range f.Zones {
		if strings.TrimSpace(rule.Zone) == "" {
			return nil, fmt.Errorf("zones[%d]: zone name is required", i)
		}
		if rule.Max > 0 && rule.Min > rule.Max {
			return nil, fmt.Errorf("zones[%d]: min %d greater than max %d", i, rule.Min, rule.Max)
		}
	}
	return f.Zones, nil
}
