package rules

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/analyzer"
)

// bomNameLimit caps how many uncovered BOM lines are named in the H27 message
const bomNameLimit = 10

var ruleH2 = buildRule("H2", domain.SeverityHard, "orderIndex must be unique within a track (or the default scope)",
	func(c *evalContext) []domain.Issue {
		type key struct {
			track string
			order int
		}
		counts := make(map[key]int)
		for _, s := range c.build.Steps {
			counts[key{s.TrackID, s.OrderIndex}]++
		}
		var issues []domain.Issue
		for i := range c.build.Steps {
			s := &c.build.Steps[i]
			n := counts[key{s.TrackID, s.OrderIndex}]
			if n < 2 {
				continue
			}
			scope := "the default scope"
			if s.TrackID != "" {
				scope = fmt.Sprintf("track %q", s.TrackID)
			}
			issues = append(issues, stepIssue(s, "orderIndex", "orderIndex %d is shared by %d steps in %s", s.OrderIndex, n, scope))
		}
		return issues
	})

var ruleH3 = buildRule("H3", domain.SeverityHard, "step ids must be unique",
	func(c *evalContext) []domain.Issue {
		seen := make(map[string]bool)
		var issues []domain.Issue
		for i, s := range c.build.Steps {
			if seen[s.ID] {
				issues = append(issues, domain.Issue{
					StepID:    s.ID,
					FieldPath: fmt.Sprintf("steps[%d].id", i),
					Message:   fmt.Sprintf("duplicate step id %q", s.ID),
				})
				continue
			}
			seen[s.ID] = true
		}
		return issues
	})

var ruleH6 = buildRule("H6", domain.SeverityHard, "published builds must have at least one step",
	func(c *evalContext) []domain.Issue {
		if c.build.Status != domain.BuildStatusPublished || len(c.build.Steps) > 0 {
			return nil
		}
		return []domain.Issue{buildIssue("steps", "published build %s has no steps", c.build.ID)}
	})

var ruleH7 = buildRule("H7", domain.SeverityHard, "build id and itemId must be set and version must be at least 1",
	func(c *evalContext) []domain.Issue {
		var issues []domain.Issue
		if blank(c.build.ID) {
			issues = append(issues, buildIssue("id", "build id is empty"))
		}
		if blank(c.build.ItemID) {
			issues = append(issues, buildIssue("itemId", "build itemId is empty"))
		}
		if c.build.Version < 1 {
			issues = append(issues, buildIssue("version", "build version %d must be >= 1", c.build.Version))
		}
		return issues
	})

var ruleH8 = buildRule("H8", domain.SeverityHard, "dependsOn must reference existing steps",
	func(c *evalContext) []domain.Issue {
		var issues []domain.Issue
		for _, ref := range c.graph.MissingReferences() {
			issues = append(issues, domain.Issue{
				StepID:    ref.StepID,
				FieldPath: "dependsOn",
				Message:   fmt.Sprintf("step %s depends on unknown step %q", ref.StepID, ref.MissingID),
			})
		}
		return issues
	})

var ruleH9 = buildRule("H9", domain.SeverityHard, "dependsOn edges must not form a cycle",
	func(c *evalContext) []domain.Issue {
		var issues []domain.Issue
		for _, cycle := range c.graph.Cycles() {
			issues = append(issues, domain.Issue{
				StepID:    cycle[0],
				FieldPath: "dependsOn",
				Message:   "dependency cycle detected: " + analyzer.FormatCycle(cycle),
			})
		}
		return issues
	})

var ruleH23 = buildRule("H23", domain.SeverityHard, "customization group option ids must be unique",
	func(c *evalContext) []domain.Issue {
		seen := make(map[string]bool)
		var issues []domain.Issue
		for i, g := range c.build.CustomizationGroups {
			if seen[g.OptionID] {
				issues = append(issues, buildIssue(fmt.Sprintf("customizationGroups[%d].optionId", i),
					"duplicate customization optionId %q", g.OptionID))
				continue
			}
			seen[g.OptionID] = true
		}
		return issues
	})

var ruleH24 = buildRule("H24", domain.SeverityHard, "MANDATORY_CHOICE groups must declare minChoices and maxChoices",
	func(c *evalContext) []domain.Issue {
		var issues []domain.Issue
		for i, g := range c.build.CustomizationGroups {
			if g.Type != domain.CustomizationMandatoryChoice {
				continue
			}
			if g.MinChoices == nil {
				issues = append(issues, buildIssue(fmt.Sprintf("customizationGroups[%d].minChoices", i),
					"MANDATORY_CHOICE group %s must declare minChoices", g.OptionID))
			}
			if g.MaxChoices == nil {
				issues = append(issues, buildIssue(fmt.Sprintf("customizationGroups[%d].maxChoices", i),
					"MANDATORY_CHOICE group %s must declare maxChoices", g.OptionID))
			}
		}
		return issues
	})

var ruleH25 = buildRule("H25", domain.SeverityHard, "customization value ids used by steps and overlays must be declared",
	func(c *evalContext) []domain.Issue {
		declared := make(map[string]bool)
		for _, g := range c.build.CustomizationGroups {
			for _, v := range g.ValueIDs {
				declared[v] = true
			}
		}
		var issues []domain.Issue
		for i := range c.build.Steps {
			s := &c.build.Steps[i]
			if s.Conditions != nil {
				for j, v := range s.Conditions.CustomizationValueIDs {
					if !declared[v] {
						issues = append(issues, stepIssue(s, fmt.Sprintf("conditions.customizationValueIds[%d]", j),
							"step %s condition references undeclared customization value %q", s.ID, v))
					}
				}
			}
			for k, o := range s.Overlays {
				for j, v := range o.Predicate.CustomizationValueIDs {
					if !declared[v] {
						issues = append(issues, stepIssue(s, fmt.Sprintf("overlays[%d].predicate.customizationValueIds[%d]", k, j),
							"step %s overlay %s references undeclared customization value %q", s.ID, o.ID, v))
					}
				}
			}
		}
		return issues
	})

var ruleH26 = buildRule("H26", domain.SeverityHard, "validation overrides must carry a reason",
	func(c *evalContext) []domain.Issue {
		var issues []domain.Issue
		for i, o := range c.build.ValidationOverrides {
			if blank(o.Reason) {
				issues = append(issues, domain.Issue{
					StepID:    o.StepID,
					FieldPath: fmt.Sprintf("validationOverrides[%d].reason", i),
					Message:   fmt.Sprintf("override of %s has an empty reason", o.RuleID),
				})
			}
		}
		return issues
	})

var ruleH27 = buildRule("H27", domain.SeverityHard, "consumable and packaged_good BOM lines must be referenced by a step target",
	func(c *evalContext) []domain.Issue {
		if len(c.bom) == 0 {
			return nil
		}
		covered := make(map[string]bool)
		for _, s := range c.build.Steps {
			if s.Target != nil && s.Target.BOMComponentID != "" {
				covered[s.Target.BOMComponentID] = true
			}
		}
		var missing []string
		for _, item := range c.bom {
			if item.Type != domain.BOMTypeConsumable && item.Type != domain.BOMTypePackagedGood {
				continue
			}
			if covered[item.BOMComponentID] {
				continue
			}
			name := item.Name
			if name == "" {
				name = item.BOMComponentID
			}
			missing = append(missing, name)
		}
		if len(missing) == 0 {
			return nil
		}
		shown := missing
		if len(shown) > bomNameLimit {
			shown = shown[:bomNameLimit]
		}
		msg := fmt.Sprintf("%d BOM item(s) not referenced by any step target: %s", len(missing), strings.Join(shown, ", "))
		if len(missing) > len(shown) {
			msg += fmt.Sprintf(" (and %d more)", len(missing)-len(shown))
		}
		return []domain.Issue{buildIssue("steps", "%s", msg)}
	})

var ruleS1 = buildRule("S1", domain.SeverityStrong, "builds with artifacts should name a resolvable primaryOutputArtifactId",
	func(c *evalContext) []domain.Issue {
		if len(c.build.Artifacts) == 0 {
			return nil
		}
		primary := c.build.PrimaryOutputArtifactID
		if primary == "" {
			return []domain.Issue{buildIssue("primaryOutputArtifactId", "build declares artifacts but no primaryOutputArtifactId")}
		}
		for _, a := range c.build.Artifacts {
			if a.ID == primary {
				return nil
			}
		}
		return []domain.Issue{buildIssue("primaryOutputArtifactId", "primaryOutputArtifactId %q does not match a declared artifact", primary)}
	})

var ruleS3 = buildRule("S3", domain.SeveritySoft, "in-build artifacts that are produced should be consumed or be the primary output",
	func(c *evalContext) []domain.Issue {
		produced := make(map[string]bool)
		consumed := make(map[string]bool)
		for _, s := range c.build.Steps {
			for _, r := range s.Produces {
				if r.Type == domain.AssemblyRefInBuild {
					produced[r.ArtifactID] = true
				}
			}
			for _, r := range s.Consumes {
				if r.Type == domain.AssemblyRefInBuild {
					consumed[r.ArtifactID] = true
				}
			}
		}
		var issues []domain.Issue
		seen := make(map[string]bool)
		for i, a := range c.build.Artifacts {
			if seen[a.ID] || !produced[a.ID] || consumed[a.ID] || a.ID == c.build.PrimaryOutputArtifactID {
				continue
			}
			seen[a.ID] = true
			issues = append(issues, buildIssue(fmt.Sprintf("artifacts[%d]", i),
				"artifact %q is produced but never consumed and is not the primary output", a.ID))
		}
		return issues
	})
