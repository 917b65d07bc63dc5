package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rocketlaunchr/dataframe-go"
)

// CleaningRule checks one row. A non-nil error rejects the row.
type CleaningRule interface {
	Name() string
	Check(columns, cells []string) error
}

// QualityIssue is one rejected row.
type QualityIssue struct {
	Row     int    `json:"row"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type CleaningStats struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Rejected int            `json:"rejected"`
	Issues   map[string]int `json:"issues"`
}

type Cleaner struct {
	rules []CleaningRule
}

func NewCleaner(rules ...CleaningRule) *Cleaner {
	return &Cleaner{rules: rules}
}

// DefaultRules rejects rows with missing or non-numeric cells, labels outside
// {0,1}, negative values in the given columns, and exact duplicates.
func DefaultRules(label string, nonNegative ...string) []CleaningRule {
	return []CleaningRule{
		MissingValueRule{},
		NumericRule{},
		NewLabelRule(label, 0, 1),
		NonNegativeRule{Columns: nonNegative},
		NewDuplicateRule(),
	}
}

func (c *Cleaner) AddRule(rule CleaningRule) {
	c.rules = append(c.rules, rule)
}

// Clean runs every rule over df and returns the indexes of rows that passed,
// in order. The first failing rule decides the issue recorded for a row.
func (c *Cleaner) Clean(df *dataframe.DataFrame) ([]int, CleaningStats, []QualityIssue, error) {
	stats := CleaningStats{Issues: make(map[string]int)}
	if df == nil {
		return nil, stats, nil, errors.New("dataset: nil dataframe")
	}
	for _, rule := range c.rules {
		if r, ok := rule.(interface{ Reset() }); ok {
			r.Reset()
		}
	}

	columns := df.Names()
	n := df.NRows()
	kept := make([]int, 0, n)
	var issues []QualityIssue
	cells := make([]string, len(columns))
	for row := 0; row < n; row++ {
		stats.Total++
		for i, s := range df.Series {
			if s.Value(row) == nil {
				cells[i] = ""
			} else {
				cells[i] = s.ValueString(row)
			}
		}

		rejected := false
		for _, rule := range c.rules {
			if err := rule.Check(columns, cells); err != nil {
				issues = append(issues, QualityIssue{Row: row, Rule: rule.Name(), Message: err.Error()})
				stats.Issues[rule.Name()]++
				rejected = true
				break
			}
		}
		if rejected {
			stats.Rejected++
			continue
		}
		stats.Passed++
		kept = append(kept, row)
	}
	return kept, stats, issues, nil
}

type MissingValueRule struct{}

func (MissingValueRule) Name() string { return "missing_value" }

func (MissingValueRule) Check(columns, cells []string) error {
	for i, cell := range cells {
		if s := strings.TrimSpace(cell); s == "" || strings.EqualFold(s, "nan") {
			return fmt.Errorf("column %s is empty", columns[i])
		}
	}
	return nil
}

type NumericRule struct{}

func (NumericRule) Name() string { return "non_numeric" }

func (NumericRule) Check(columns, cells []string) error {
	for i, cell := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return fmt.Errorf("column %s: %q is not a number", columns[i], cell)
		}
		if math.IsInf(v, 0) {
			return fmt.Errorf("column %s is infinite", columns[i])
		}
	}
	return nil
}

type LabelRule struct {
	Column  string
	allowed map[float64]bool
}

func NewLabelRule(column string, allowed ...float64) *LabelRule {
	r := &LabelRule{Column: column, allowed: make(map[float64]bool, len(allowed))}
	for _, v := range allowed {
		r.allowed[v] = true
	}
	return r
}

func (r *LabelRule) Name() string { return "label" }

func (r *LabelRule) Check(columns, cells []string) error {
	i := indexOf(columns, r.Column)
	if i < 0 {
		return fmt.Errorf("label column %s not found", r.Column)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cells[i]), 64)
	if err != nil || !r.allowed[v] {
		return fmt.Errorf("label %q not allowed", cells[i])
	}
	return nil
}

type NonNegativeRule struct {
	Columns []string
}

func (r NonNegativeRule) Name() string { return "negative_value" }

func (r NonNegativeRule) Check(columns, cells []string) error {
	for _, name := range r.Columns {
		i := indexOf(columns, name)
		if i < 0 {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(cells[i]), 64); err == nil && v < 0 {
			return fmt.Errorf("column %s is negative: %v", name, v)
		}
	}
	return nil
}

// DuplicateRule rejects a row identical to one seen earlier in the same run.
// The zero value is ready to use.
type DuplicateRule struct {
	seen map[string]struct{}
}

func NewDuplicateRule() *DuplicateRule {
	return &DuplicateRule{seen: make(map[string]struct{})}
}

func (r *DuplicateRule) Name() string { return "duplicate" }

func (r *DuplicateRule) Reset() {
	r.seen = make(map[string]struct{})
}

func (r *DuplicateRule) Check(columns, cells []string) error {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	key := strings.Join(cells, "\x1f")
	if _, ok := r.seen[key]; ok {
		return errors.New("duplicate row")
	}
	r.seen[key] = struct{}{}
	return nil
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
