package rules

import (
	"sort"

	"github.com/ludo-technologies/linecheck/domain"
	"golang.org/x/sync/errgroup"
)

// Options tunes a validation run
type Options struct {
	// BOM enables the coverage rule when non-empty
	BOM []domain.BOMItem
	// Parallel evaluates rules concurrently; the reported order is unchanged
	Parallel bool
	// MaxWorkers bounds concurrent rule evaluation; zero means unbounded
	MaxWorkers int
	// Rules restricts evaluation to the given rule ids; empty means all
	Rules []string
}

// ValidateBuild runs the rule catalog over a build. It never fails: a broken
// build is reported through HardErrors. Valid is true iff HardErrors is empty.
func ValidateBuild(build *domain.Build, opts Options) domain.ValidationResult {
	if build == nil {
		build = &domain.Build{}
	}
	ctx := newEvalContext(build, opts.BOM)
	selected := selectRules(opts.Rules)

	perRule := make([][]domain.Issue, len(selected))
	if opts.Parallel && len(selected) > 1 {
		var g errgroup.Group
		if opts.MaxWorkers > 0 {
			g.SetLimit(opts.MaxWorkers)
		}
		for i, r := range selected {
			i, r := i, r
			g.Go(func() error {
				perRule[i] = r.run(ctx)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, r := range selected {
			perRule[i] = r.run(ctx)
		}
	}

	var all []domain.Issue
	for _, issues := range perRule {
		all = append(all, issues...)
	}
	SortIssues(all, build)

	result := domain.ValidationResult{
		HardErrors: []domain.Issue{},
		Warnings:   []domain.Issue{},
	}
	for _, is := range all {
		if is.Severity == domain.SeverityHard {
			result.HardErrors = append(result.HardErrors, is)
		} else {
			result.Warnings = append(result.Warnings, is)
		}
	}
	result.Valid = len(result.HardErrors) == 0
	return result
}

func selectRules(ids []string) []Rule {
	if len(ids) == 0 {
		return catalog
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Rule
	for _, r := range catalog {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

// SortIssues puts issues in canonical order: severity rank, rule id, step
// orderIndex with step-less issues first, step id, field path, message.
func SortIssues(issues []domain.Issue, build *domain.Build) {
	orderOf := make(map[string]int, len(build.Steps))
	for _, s := range build.Steps {
		if _, ok := orderOf[s.ID]; !ok {
			orderOf[s.ID] = s.OrderIndex
		}
	}

	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra < rb
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		aStepless, bStepless := a.StepID == "", b.StepID == ""
		if aStepless != bStepless {
			return aStepless
		}
		if !aStepless {
			if oa, ob := orderOf[a.StepID], orderOf[b.StepID]; oa != ob {
				return oa < ob
			}
			if a.StepID != b.StepID {
				return a.StepID < b.StepID
			}
		}
		if a.FieldPath != b.FieldPath {
			return a.FieldPath < b.FieldPath
		}
		return a.Message < b.Message
	})
}
