package rules

import (
	"regexp"

	"github.com/ludo-technologies/linecheck/domain"
)

var ruleH1 = stepRule("H1", domain.SeverityHard, "action.family must be a known action family",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Action.Family.IsValid() {
			return nil
		}
		return []domain.Issue{stepIssue(s, "action.family", "step %s has unknown action family %q", s.ID, s.Action.Family)}
	})

var ruleH4 = stepRule("H4", domain.SeverityHard, "time.durationSeconds must be greater than zero",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Time == nil || s.Time.DurationSeconds > 0 {
			return nil
		}
		return []domain.Issue{stepIssue(s, "time.durationSeconds", "step %s has time.durationSeconds %v; must be > 0", s.ID, s.Time.DurationSeconds)}
	})

var ruleH5 = stepRule("H5", domain.SeverityHard, "quantity.value must be greater than zero",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Quantity == nil || s.Quantity.Value > 0 {
			return nil
		}
		return []domain.Issue{stepIssue(s, "quantity.value", "step %s has quantity.value %v; must be > 0", s.ID, s.Quantity.Value)}
	})

var ruleH15 = stepRule("H15", domain.SeverityHard, "HEAT steps require equipment",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Action.Family != domain.ActionFamilyHeat || s.Equipment != nil {
			return nil
		}
		return []domain.Issue{stepIssue(s, "equipment", "HEAT step %s requires equipment", s.ID)}
	})

var ruleH16 = stepRule("H16", domain.SeverityHard, "PORTION steps require quantity or notes",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Action.Family != domain.ActionFamilyPortion || s.Quantity != nil || !blank(s.Notes) {
			return nil
		}
		return []domain.Issue{stepIssue(s, "quantity", "PORTION step %s requires quantity or notes", s.ID)}
	})

var ruleH17 = stepRule("H17", domain.SeverityHard, "PREP steps require action.techniqueId or notes",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Action.Family != domain.ActionFamilyPrep || !blank(s.Action.TechniqueID) || !blank(s.Notes) {
			return nil
		}
		return []domain.Issue{stepIssue(s, "action.techniqueId", "PREP step %s requires action.techniqueId or notes", s.ID)}
	})

var ruleH18 = stepRule("H18", domain.SeverityHard, "PACKAGE and VEND steps require a container or a packaging target",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		f := s.Action.Family
		if f != domain.ActionFamilyPackage && f != domain.ActionFamilyVend {
			return nil
		}
		if s.Container != nil || (s.Target != nil && s.Target.Type == domain.TargetTypePackaging) {
			return nil
		}
		return []domain.Issue{stepIssue(s, "container", "%s step %s requires container or a packaging target", f, s.ID)}
	})

// containerWords matches packaging vocabulary as whole words, plurals included
var containerWords = regexp.MustCompile(`(?i)\b(bag|bowl|box|clamshell|container|cup|lid|sleeve|tray|wrap|wrapper)(e?s)?\b`)

var ruleH19 = stepRule("H19", domain.SeverityHard, "target names that read as packaging require an explicit container",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Target == nil || s.Target.Type == domain.TargetTypePackaging || s.Container != nil {
			return nil
		}
		word := containerWords.FindString(s.Target.Name)
		if word == "" {
			return nil
		}
		return []domain.Issue{stepIssue(s, "target.name",
			"step %s target %q looks like packaging (%q); set container instead of naming it as the target", s.ID, s.Target.Name, word)}
	})

var ruleH20 = stepRule("H20", domain.SeverityHard, "pre_service steps require storageLocation",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.PrepType != domain.PrepTypePreService || s.StorageLocation != nil {
			return nil
		}
		return []domain.Issue{stepIssue(s, "storageLocation", "pre_service step %s requires storageLocation", s.ID)}
	})

var ruleH21 = stepRule("H21", domain.SeverityHard, "bulkPrep requires prepType pre_service",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if !s.BulkPrep || s.PrepType == domain.PrepTypePreService {
			return nil
		}
		return []domain.Issue{stepIssue(s, "prepType", "step %s has bulkPrep=true but prepType %q; expected pre_service", s.ID, s.PrepType)}
	})

var ruleH22 = stepRule("H22", domain.SeverityHard, "HEAT steps require time or notes",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if s.Action.Family != domain.ActionFamilyHeat || s.Time != nil || !blank(s.Notes) {
			return nil
		}
		return []domain.Issue{stepIssue(s, "time", "HEAT step %s requires time or notes", s.ID)}
	})

var ruleS2 = stepRule("S2", domain.SeveritySoft, "steps should carry an instruction, notes or a target",
	func(_ *evalContext, s *domain.Step) []domain.Issue {
		if !blank(s.Instruction) || !blank(s.Notes) || s.Target != nil {
			return nil
		}
		return []domain.Issue{stepIssue(s, "instruction", "step %s has no instruction, notes or target", s.ID)}
	})
