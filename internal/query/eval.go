package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// LabelWidth is the default maximum label length in runes
const LabelWidth = 96

// MatchesWhere reports whether the step satisfies every clause. Clauses
// naming unknown fields never match.
func MatchesWhere(clauses []domain.Clause, build *domain.Build, step *domain.Step) bool {
	for _, c := range clauses {
		if !matchClause(c, build, step) {
			return false
		}
	}
	return true
}

func matchClause(c domain.Clause, build *domain.Build, step *domain.Step) bool {
	f, ok := LookupField(c.Field)
	if !ok {
		return false
	}
	values := f.Resolve(build, step)

	switch c.Op {
	case domain.OpExists:
		return len(values) > 0
	case domain.OpEquals, domain.OpIn:
		for _, v := range values {
			for _, want := range c.Values {
				if v.Equal(want) {
					return true
				}
			}
		}
		return false
	case domain.OpNotEquals:
		if len(c.Values) == 0 {
			return false
		}
		for _, v := range values {
			if !v.Equal(c.Values[0]) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// MatchingSteps returns the ids of the build's steps that satisfy the clauses, in document order
func MatchingSteps(clauses []domain.Clause, build *domain.Build) []string {
	var ids []string
	for i := range build.Steps {
		if MatchesWhere(clauses, build, &build.Steps[i]) {
			ids = append(ids, build.Steps[i].ID)
		}
	}
	return ids
}

// Options tunes RunQuery
type Options struct {
	// LabelWidth caps labels in runes; zero means LabelWidth
	LabelWidth int
}

// RunQuery evaluates the clauses over every step of every build. Rows are
// sorted by (itemId, version, buildId, orderIndex, stepId).
func RunQuery(builds []*domain.Build, clauses []domain.Clause, opts Options) []domain.QueryMatch {
	width := opts.LabelWidth
	if width <= 0 {
		width = LabelWidth
	}

	matches := []domain.QueryMatch{}
	for _, b := range builds {
		if b == nil {
			continue
		}
		for i := range b.Steps {
			s := &b.Steps[i]
			if !MatchesWhere(clauses, b, s) {
				continue
			}
			matches = append(matches, domain.QueryMatch{
				BuildID:    b.ID,
				ItemID:     b.ItemID,
				Version:    b.Version,
				Status:     b.Status,
				StepID:     s.ID,
				OrderIndex: s.OrderIndex,
				Label:      Truncate(Label(s), width),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if a.BuildID != b.BuildID {
			return a.BuildID < b.BuildID
		}
		if a.OrderIndex != b.OrderIndex {
			return a.OrderIndex < b.OrderIndex
		}
		return a.StepID < b.StepID
	})
	return matches
}

// Label returns the step's instruction or, when it has none, a summary of
// its family, technique, target, equipment and time.
func Label(s *domain.Step) string {
	if text := strings.Join(strings.Fields(s.Instruction), " "); text != "" {
		return text
	}

	head := string(s.Action.Family)
	if s.Action.TechniqueID != "" {
		head += "(" + s.Action.TechniqueID + ")"
	}
	parts := []string{head}
	if s.Target != nil {
		switch {
		case s.Target.Name != "":
			parts = append(parts, s.Target.Name)
		case s.Target.BOMComponentID != "":
			parts = append(parts, s.Target.BOMComponentID)
		}
	}
	if s.Equipment != nil && s.Equipment.ApplianceID != "" {
		parts = append(parts, "@"+s.Equipment.ApplianceID)
	}
	if s.Time != nil {
		parts = append(parts, fmt.Sprintf("%gs", s.Time.DurationSeconds))
	}
	return strings.Join(parts, " ")
}

// Truncate shortens s to at most width runes, ending in an ellipsis when cut
func Truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
