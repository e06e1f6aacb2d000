// Package rules holds the line build rule catalog and the engine that runs it.
package rules

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/analyzer"
)

// Scope says whether a rule inspects one step at a time or the whole build
type Scope string

const (
	ScopeStep  Scope = "step"
	ScopeBuild Scope = "build"
)

// Rule is one registered check. Checks are pure functions of the build and
// never depend on other rules, so the catalog may run in any order.
type Rule struct {
	ID          string
	Severity    domain.Severity
	Scope       Scope
	Description string

	checkBuild func(c *evalContext) []domain.Issue
	checkStep  func(c *evalContext, s *domain.Step) []domain.Issue
}

// Info returns the public description of the rule
func (r Rule) Info() domain.RuleInfo {
	return domain.RuleInfo{
		ID:          r.ID,
		Severity:    r.Severity,
		Scope:       string(r.Scope),
		Description: r.Description,
	}
}

func (r Rule) run(c *evalContext) []domain.Issue {
	var issues []domain.Issue
	switch r.Scope {
	case ScopeStep:
		for i := range c.build.Steps {
			issues = append(issues, r.checkStep(c, &c.build.Steps[i])...)
		}
	default:
		issues = r.checkBuild(c)
	}
	for i := range issues {
		issues[i].RuleID = r.ID
		issues[i].Severity = r.Severity
	}
	return issues
}

func stepRule(id string, sev domain.Severity, desc string, fn func(c *evalContext, s *domain.Step) []domain.Issue) Rule {
	return Rule{ID: id, Severity: sev, Scope: ScopeStep, Description: desc, checkStep: fn}
}

func buildRule(id string, sev domain.Severity, desc string, fn func(c *evalContext) []domain.Issue) Rule {
	return Rule{ID: id, Severity: sev, Scope: ScopeBuild, Description: desc, checkBuild: fn}
}

// evalContext is the read-only state shared by every rule during one validation
type evalContext struct {
	build *domain.Build
	bom   []domain.BOMItem
	graph *analyzer.StepGraph
}

func newEvalContext(build *domain.Build, bom []domain.BOMItem) *evalContext {
	return &evalContext{
		build: build,
		bom:   bom,
		graph: analyzer.NewStepGraph(build.Steps),
	}
}

func stepIssue(s *domain.Step, fieldPath, format string, args ...interface{}) domain.Issue {
	return domain.Issue{
		StepID:    s.ID,
		FieldPath: fieldPath,
		Message:   fmt.Sprintf(format, args...),
	}
}

func buildIssue(fieldPath, format string, args ...interface{}) domain.Issue {
	return domain.Issue{
		FieldPath: fieldPath,
		Message:   fmt.Sprintf(format, args...),
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

var catalog = []Rule{
	ruleH1, ruleH2, ruleH3, ruleH4, ruleH5, ruleH6, ruleH7, ruleH8, ruleH9,
	ruleH15, ruleH16, ruleH17, ruleH18, ruleH19, ruleH20, ruleH21, ruleH22,
	ruleH23, ruleH24, ruleH25, ruleH26, ruleH27,
	ruleC1, ruleC2, ruleC3, ruleC4,
	ruleS1, ruleS2, ruleS3,
}

// Rules returns the registered rules in catalog order
func Rules() []Rule {
	return append([]Rule(nil), catalog...)
}

// Catalog describes every registered rule
func Catalog() []domain.RuleInfo {
	out := make([]domain.RuleInfo, 0, len(catalog))
	for _, r := range catalog {
		out = append(out, r.Info())
	}
	return out
}

// Lookup finds a rule by id
func Lookup(id string) (Rule, bool) {
	for _, r := range catalog {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
