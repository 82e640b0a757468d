package dataset

import (
	"fmt"
	"math"
)

// CleaningRule validates one record; a non-nil error rejects the row.
type CleaningRule interface {
	Apply(*Record) error
	Name() string
}

// Issue records why a row was rejected.
type Issue struct {
	Rule    string `json:"rule"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// CleaningStats summarizes one Clean pass.
type CleaningStats struct {
	TotalProcessed int              `json:"total_processed"`
	Passed         int              `json:"passed"`
	Rejected       int              `json:"rejected"`
	Issues         map[string]int64 `json:"issues"`
}

type Cleaner struct {
	rules []CleaningRule
	stats CleaningStats
}

// NewCleaner builds a cleaner with the default rules for house records.
func NewCleaner() *Cleaner {
	cleaner := &Cleaner{
		stats: CleaningStats{Issues: make(map[string]int64)},
	}
	cleaner.AddRule(&missingValueRule{})
	cleaner.AddRule(&targetRule{})
	cleaner.AddRule(newDuplicateRule())
	return cleaner
}

func (c *Cleaner) AddRule(rule CleaningRule) {
	c.rules = append(c.rules, rule)
}

// Clean applies every rule to every record and returns the rows that
// passed, plus one issue per rejection.
func (c *Cleaner) Clean(records []Record) ([]Record, []Issue) {
	var cleaned []Record
	var issues []Issue

	for i := range records {
		c.stats.TotalProcessed++
		rejected := false
		for _, rule := range c.rules {
			if err := rule.Apply(&records[i]); err != nil {
				issues = append(issues, Issue{Rule: rule.Name(), Row: i + 1, Message: err.Error()})
				c.stats.Issues[rule.Name()]++
				rejected = true
				break
			}
		}
		if rejected {
			c.stats.Rejected++
			continue
		}
		c.stats.Passed++
		cleaned = append(cleaned, records[i])
	}
	return cleaned, issues
}

func (c *Cleaner) Stats() CleaningStats { return c.stats }

type missingValueRule struct{}

func (r *missingValueRule) Name() string { return "missing_value" }

func (r *missingValueRule) Apply(record *Record) error {
	for name, value := range record.Numeric {
		if math.IsNaN(value) {
			return fmt.Errorf("numeric field %s is missing or not a number", name)
		}
	}
	for name, value := range record.Categorical {
		if value == "" {
			return fmt.Errorf("categorical field %s is empty", name)
		}
	}
	return nil
}

type targetRule struct{}

func (r *targetRule) Name() string { return "target_value" }

func (r *targetRule) Apply(record *Record) error {
	if !record.HasTarget {
		return nil
	}
	if math.IsNaN(record.Target) {
		return fmt.Errorf("target is missing")
	}
	if record.Target <= 0 {
		return fmt.Errorf("target must be positive, got %g", record.Target)
	}
	return nil
}

type duplicateRule struct {
	seen map[string]bool
}

func newDuplicateRule() *duplicateRule {
	return &duplicateRule{seen: make(map[string]bool)}
}

func (r *duplicateRule) Name() string { return "duplicate_row" }

func (r *duplicateRule) Apply(record *Record) error {
	key := record.Key()
	if r.seen[key] {
		return fmt.Errorf("duplicate of an earlier row")
	}
	r.seen[key] = true
	return nil
}
