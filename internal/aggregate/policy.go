package aggregate

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Default metric-name patterns whose values describe the run rather
// than accumulate across it: machine core counts, wall-clock
// timestamps, and percentage-valued metrics.
var defaultNoAccumulate = []string{
	`^cores$`,
	`^time$`,
	`^start_time$`,
	`_pc$`,
}

// Metric names the summary omits from its totals table because they
// are bookkeeping rather than analysis results.
var defaultSummarySkip = []string{
	"cores",
	"time",
	"start_time",
}

// Policy decides which metrics accumulate additively and which are
// descriptive (last value wins), plus which keys the run summary
// omits. The zero Policy is not usable; construct via DefaultPolicy
// or LoadPolicy.
type Policy struct {
	noAccumulate []*regexp.Regexp
	summarySkip  map[string]bool
}

// policyFile is the on-disk YAML shape.
type policyFile struct {
	NoAccumulate []string `yaml:"no_accumulate"`
	SummarySkip  []string `yaml:"summary_skip"`
}

// DefaultPolicy returns the built-in accumulation policy.
func DefaultPolicy() *Policy {
	p, err := newPolicy(defaultNoAccumulate, defaultSummarySkip)
	if err != nil {
		panic(fmt.Sprintf("built-in policy patterns: %v", err))
	}
	return p
}

// LoadPolicy reads a YAML policy file. Either list may be omitted;
// an omitted list falls back to the built-in default.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if pf.NoAccumulate == nil {
		pf.NoAccumulate = defaultNoAccumulate
	}
	if pf.SummarySkip == nil {
		pf.SummarySkip = defaultSummarySkip
	}
	p, err := newPolicy(pf.NoAccumulate, pf.SummarySkip)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return p, nil
}

func newPolicy(noAccumulate, summarySkip []string) (*Policy, error) {
	p := &Policy{summarySkip: make(map[string]bool, len(summarySkip))}
	for _, pat := range noAccumulate {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pat, err)
		}
		p.noAccumulate = append(p.noAccumulate, re)
	}
	for _, name := range summarySkip {
		p.summarySkip[name] = true
	}
	return p, nil
}

// Additive reports whether the named metric sums across artifacts.
// Non-additive metrics keep the last folded value.
func (p *Policy) Additive(name string) bool {
	for _, re := range p.noAccumulate {
		if re.MatchString(name) {
			return false
		}
	}
	return true
}

// SummarySkips reports whether the summary's totals table omits the
// named metric.
func (p *Policy) SummarySkips(name string) bool {
	return p.summarySkip[name]
}
