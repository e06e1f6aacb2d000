package rules

import (
	"fmt"

	"github.com/ludo-technologies/linecheck/domain"
)

var ruleC1 = buildRule("C1", domain.SeverityHard, "requiresBuilds must not reference the build itself or repeat an itemId",
	func(c *evalContext) []domain.Issue {
		seen := make(map[string]bool)
		var issues []domain.Issue
		for i, dep := range c.build.RequiresBuilds {
			path := fmt.Sprintf("requiresBuilds[%d].itemId", i)
			if dep.ItemID == c.build.ItemID && dep.ItemID != "" {
				issues = append(issues, buildIssue(path, "build %s lists its own itemId %q in requiresBuilds", c.build.ID, dep.ItemID))
			}
			if seen[dep.ItemID] {
				issues = append(issues, buildIssue(path, "requiresBuilds lists itemId %q more than once", dep.ItemID))
			}
			seen[dep.ItemID] = true
		}
		return issues
	})

func assemblyRefs(s *domain.Step, fn func(path string, ref domain.AssemblyRef)) {
	for i, r := range s.Consumes {
		fn(fmt.Sprintf("consumes[%d]", i), r)
	}
	for i, r := range s.Produces {
		fn(fmt.Sprintf("produces[%d]", i), r)
	}
}

var ruleC2 = stepRule("C2", domain.SeverityHard, "external_build references must name an itemId declared in requiresBuilds",
	func(c *evalContext, s *domain.Step) []domain.Issue {
		declared := make(map[string]bool, len(c.build.RequiresBuilds))
		for _, dep := range c.build.RequiresBuilds {
			declared[dep.ItemID] = true
		}
		var issues []domain.Issue
		assemblyRefs(s, func(path string, ref domain.AssemblyRef) {
			if ref.Type != domain.AssemblyRefExternalBuild {
				return
			}
			switch {
			case blank(ref.ItemID):
				issues = append(issues, stepIssue(s, path+".itemId", "step %s has an external_build reference without itemId", s.ID))
			case !declared[ref.ItemID]:
				issues = append(issues, stepIssue(s, path+".itemId",
					"step %s references external build %q which is not declared in requiresBuilds", s.ID, ref.ItemID))
			}
		})
		return issues
	})

var ruleC3 = stepRule("C3", domain.SeverityHard, "in_build references must resolve to a declared artifact",
	func(c *evalContext, s *domain.Step) []domain.Issue {
		declared := make(map[string]bool, len(c.build.Artifacts))
		for _, a := range c.build.Artifacts {
			declared[a.ID] = true
		}
		var issues []domain.Issue
		assemblyRefs(s, func(path string, ref domain.AssemblyRef) {
			if ref.Type != domain.AssemblyRefInBuild || declared[ref.ArtifactID] {
				return
			}
			issues = append(issues, stepIssue(s, path+".artifactId",
				"step %s references artifact %q which is not declared in artifacts", s.ID, ref.ArtifactID))
		})
		return issues
	})

var ruleC4 = buildRule("C4", domain.SeverityHard, "artifact ids must be unique",
	func(c *evalContext) []domain.Issue {
		seen := make(map[string]bool)
		var issues []domain.Issue
		for i, a := range c.build.Artifacts {
			if seen[a.ID] {
				issues = append(issues, buildIssue(fmt.Sprintf("artifacts[%d].id", i), "duplicate artifact id %q", a.ID))
				continue
			}
			seen[a.ID] = true
		}
		return issues
	})
