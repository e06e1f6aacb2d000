package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuild(steps ...domain.Step) *domain.Build {
	return &domain.Build{
		ID:      "b1",
		ItemID:  "item-1",
		Version: 1,
		Status:  domain.BuildStatusDraft,
		Steps:   steps,
	}
}

func newStep(id string, order int, family domain.ActionFamily) domain.Step {
	return domain.Step{
		ID:          id,
		OrderIndex:  order,
		Action:      domain.Action{Family: family},
		Instruction: "do " + id,
	}
}

func hardIDs(r domain.ValidationResult) []string {
	return domain.RuleIDs(r.HardErrors)
}

func containsRule(issues []domain.Issue, id string) bool {
	for _, is := range issues {
		if is.RuleID == id {
			return true
		}
	}
	return false
}

func TestValidateBuild_HeatEndToEnd(t *testing.T) {
	s := domain.Step{ID: "s1", OrderIndex: 0, Action: domain.Action{Family: domain.ActionFamilyHeat}}
	b := newBuild(s)

	res := ValidateBuild(b, Options{})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"H15", "H22"}, hardIDs(res))

	b.Steps[0].Equipment = &domain.Equipment{ApplianceID: "waterbath"}
	b.Steps[0].Time = &domain.StepTime{DurationSeconds: 1200, IsActive: false}
	res = ValidateBuild(b, Options{})
	assert.True(t, res.Valid)
	assert.Empty(t, res.HardErrors)
}

func TestValidateBuild_HeatNotesRemovesH22Only(t *testing.T) {
	s := domain.Step{ID: "s1", OrderIndex: 0, Action: domain.Action{Family: domain.ActionFamilyHeat}, Notes: "sear until browned"}

	res := ValidateBuild(newBuild(s), Options{})
	assert.Equal(t, []string{"H15"}, hardIDs(res))
	assert.Equal(t, "equipment", res.HardErrors[0].FieldPath)
	assert.Equal(t, "s1", res.HardErrors[0].StepID)
}

func TestValidateBuild_ExternalBuildReference(t *testing.T) {
	s := newStep("s1", 0, domain.ActionFamilyAssemble)
	s.Consumes = []domain.AssemblyRef{{Type: domain.AssemblyRefExternalBuild, ItemID: "component-1"}}
	b := newBuild(s)

	res := ValidateBuild(b, Options{})
	assert.Contains(t, hardIDs(res), "C2")

	b.RequiresBuilds = []domain.BuildDependency{{ItemID: "component-1"}}
	res = ValidateBuild(b, Options{})
	assert.NotContains(t, hardIDs(res), "C2")
	assert.True(t, res.Valid)
}

func TestValidateBuild_InBuildReference(t *testing.T) {
	s := newStep("s1", 0, domain.ActionFamilyAssemble)
	s.Consumes = []domain.AssemblyRef{{Type: domain.AssemblyRefInBuild, ArtifactID: "a1"}}
	b := newBuild(s)

	res := ValidateBuild(b, Options{})
	require.Contains(t, hardIDs(res), "C3")
	assert.Equal(t, "consumes[0].artifactId", res.HardErrors[0].FieldPath)

	b.Artifacts = []domain.Artifact{{ID: "a1"}}
	res = ValidateBuild(b, Options{})
	assert.NotContains(t, hardIDs(res), "C3")
}

func TestValidateBuild_MissingDependencyIsNotCycle(t *testing.T) {
	s := newStep("s1", 0, domain.ActionFamilyOther)
	s.DependsOn = []string{"missing"}

	ids := hardIDs(ValidateBuild(newBuild(s), Options{}))
	assert.Contains(t, ids, "H8")
	assert.NotContains(t, ids, "H9")
}

func TestValidateBuild_MutualDependencyIsCycleNotMissing(t *testing.T) {
	a := newStep("a", 0, domain.ActionFamilyOther)
	a.DependsOn = []string{"b"}
	b := newStep("b", 1, domain.ActionFamilyOther)
	b.DependsOn = []string{"a"}

	res := ValidateBuild(newBuild(a, b), Options{})
	ids := hardIDs(res)
	assert.Equal(t, []string{"H9"}, ids)
	assert.Equal(t, "dependency cycle detected: a -> b -> a", res.HardErrors[0].Message)
	assert.Equal(t, "a", res.HardErrors[0].StepID)
}

func TestValidateBuild_CycleReportIndependentOfStepOrder(t *testing.T) {
	a := newStep("A", 0, domain.ActionFamilyOther)
	a.DependsOn = []string{"B"}
	b := newStep("B", 1, domain.ActionFamilyOther)
	b.DependsOn = []string{"A"}

	first := ValidateBuild(newBuild(a, b), Options{})

	a.OrderIndex, b.OrderIndex = 1, 0
	second := ValidateBuild(newBuild(b, a), Options{})

	require.Len(t, first.HardErrors, 1)
	require.Len(t, second.HardErrors, 1)
	assert.Equal(t, first.HardErrors[0].Message, second.HardErrors[0].Message)
}

func messyBuild() *domain.Build {
	minChoices := 1
	steps := []domain.Step{
		{ID: "heat", OrderIndex: 2, Action: domain.Action{Family: domain.ActionFamilyHeat}},
		{ID: "portion", OrderIndex: 1, Action: domain.Action{Family: domain.ActionFamilyPortion}, DependsOn: []string{"nowhere"}},
		{ID: "prep", OrderIndex: 1, Action: domain.Action{Family: domain.ActionFamilyPrep}, Time: &domain.StepTime{DurationSeconds: 0}},
		{ID: "pack", OrderIndex: 3, Action: domain.Action{Family: domain.ActionFamilyPackage},
			Target: &domain.Target{Type: domain.TargetTypeBOMItem, Name: "Kraft Bowl"}},
		{ID: "pre", OrderIndex: 4, Action: domain.Action{Family: domain.ActionFamilyOther}, PrepType: domain.PrepTypePreService, BulkPrep: true},
		{ID: "bulk", OrderIndex: 5, Action: domain.Action{Family: "FRY"}, BulkPrep: true,
			Quantity: &domain.Quantity{Value: -1},
			Conditions: &domain.StepConditions{CustomizationValueIDs: []string{"v-unknown"}}},
		{ID: "heat", OrderIndex: 6, Action: domain.Action{Family: domain.ActionFamilyOther}},
	}
	b := &domain.Build{
		ID:      "b",
		ItemID:  "item",
		Version: 0,
		Status:  domain.BuildStatusPublished,
		Steps:   steps,
		Artifacts: []domain.Artifact{
			{ID: "x"}, {ID: "x"},
		},
		PrimaryOutputArtifactID: "nope",
		RequiresBuilds:          []domain.BuildDependency{{ItemID: "item"}, {ItemID: "dep"}, {ItemID: "dep"}},
		CustomizationGroups: []domain.CustomizationGroup{
			{OptionID: "o1", Type: domain.CustomizationMandatoryChoice, MinChoices: &minChoices},
			{OptionID: "o1", Type: domain.CustomizationOptionalAddition},
		},
		ValidationOverrides: []domain.ValidationOverride{{RuleID: "H15", StepID: "heat", Reason: "  "}},
	}
	return b
}

func TestValidateBuild_Deterministic(t *testing.T) {
	first := ValidateBuild(messyBuild(), Options{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ValidateBuild(messyBuild(), Options{}))
		assert.Equal(t, first, ValidateBuild(messyBuild(), Options{Parallel: true, MaxWorkers: 3}))
	}
}

func TestValidateBuild_CanonicalOrdering(t *testing.T) {
	res := ValidateBuild(messyBuild(), Options{BOM: []domain.BOMItem{{BOMComponentID: "c1", Type: domain.BOMTypeConsumable, Name: "Napkin"}}})

	all := append(append([]domain.Issue(nil), res.HardErrors...), res.Warnings...)
	sorted := append([]domain.Issue(nil), all...)
	SortIssues(sorted, messyBuild())
	assert.Equal(t, sorted, all)

	for i := 1; i < len(res.HardErrors); i++ {
		assert.LessOrEqual(t, res.HardErrors[i-1].RuleID, res.HardErrors[i].RuleID)
	}

	wantRules := []string{"C1", "C4", "H1", "H2", "H3", "H4", "H5", "H7", "H8", "H15", "H16", "H17", "H18", "H19", "H20", "H21", "H22", "H23", "H24", "H25", "H26", "H27"}
	for _, id := range wantRules {
		assert.True(t, containsRule(res.HardErrors, id), "expected %s in %v", id, hardIDs(res))
	}
	assert.True(t, containsRule(res.Warnings, "S1"))
	assert.Equal(t, domain.SeverityStrong, res.Warnings[0].Severity)
}

func TestSortIssues_SteplessFirstThenOrderIndex(t *testing.T) {
	b := newBuild(newStep("late", 9, domain.ActionFamilyOther), newStep("early", 1, domain.ActionFamilyOther))
	issues := []domain.Issue{
		{Severity: domain.SeveritySoft, RuleID: "S2", StepID: "early"},
		{Severity: domain.SeverityHard, RuleID: "H2", StepID: "late"},
		{Severity: domain.SeverityHard, RuleID: "H2", StepID: "early"},
		{Severity: domain.SeverityHard, RuleID: "H2"},
		{Severity: domain.SeverityStrong, RuleID: "S1"},
		{Severity: domain.SeverityHard, RuleID: "C1", FieldPath: "b"},
		{Severity: domain.SeverityHard, RuleID: "C1", FieldPath: "a"},
	}
	SortIssues(issues, b)

	var got []string
	for _, is := range issues {
		got = append(got, fmt.Sprintf("%s/%s/%s", is.RuleID, is.StepID, is.FieldPath))
	}
	assert.Equal(t, []string{"C1//a", "C1//b", "H2//", "H2/early/", "H2/late/", "S1//", "S2/early/"}, got)
}

func TestStepRules(t *testing.T) {
	tests := []struct {
		name   string
		step   domain.Step
		rule   string
		expect bool
	}{
		{"H1 unknown family", domain.Step{ID: "s", Action: domain.Action{Family: "BAKE"}}, "H1", true},
		{"H1 known family", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyCheck}}, "H1", false},
		{"H4 zero duration", domain.Step{ID: "s", Time: &domain.StepTime{DurationSeconds: 0}}, "H4", true},
		{"H4 positive duration", domain.Step{ID: "s", Time: &domain.StepTime{DurationSeconds: 30}}, "H4", false},
		{"H5 negative quantity", domain.Step{ID: "s", Quantity: &domain.Quantity{Value: -2}}, "H5", true},
		{"H16 portion without quantity", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyPortion}}, "H16", true},
		{"H16 portion with notes", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyPortion}, Notes: "2 scoops"}, "H16", false},
		{"H17 prep without technique", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyPrep}}, "H17", true},
		{"H17 prep with technique", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyPrep, TechniqueID: "dice"}}, "H17", false},
		{"H18 vend without container", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyVend}}, "H18", true},
		{"H18 package with packaging target", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyPackage},
			Target: &domain.Target{Type: domain.TargetTypePackaging, Name: "lid"}}, "H18", false},
		{"H19 container word as target", domain.Step{ID: "s", Target: &domain.Target{Type: domain.TargetTypeBOMItem, Name: "16oz Cups"}}, "H19", true},
		{"H19 word inside another word", domain.Step{ID: "s", Target: &domain.Target{Type: domain.TargetTypeBOMItem, Name: "Boxty potato"}}, "H19", false},
		{"H19 explicit container", domain.Step{ID: "s", Target: &domain.Target{Type: domain.TargetTypeFreeText, Name: "bowl"},
			Container: &domain.Container{Type: "bowl"}}, "H19", false},
		{"H20 pre_service without storage", domain.Step{ID: "s", PrepType: domain.PrepTypePreService}, "H20", true},
		{"H20 pre_service with storage", domain.Step{ID: "s", PrepType: domain.PrepTypePreService,
			StorageLocation: &domain.StorageLocation{Type: "walk_in"}}, "H20", false},
		{"H21 bulk prep on order execution", domain.Step{ID: "s", BulkPrep: true, PrepType: domain.PrepTypeOrderExecution}, "H21", true},
		{"S2 bare step", domain.Step{ID: "s", Action: domain.Action{Family: domain.ActionFamilyOther}}, "S2", true},
		{"S2 step with target", domain.Step{ID: "s", Target: &domain.Target{Type: domain.TargetTypeFreeText}}, "S2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Lookup(tt.rule)
			require.True(t, ok)
			b := newBuild(tt.step)
			issues := r.run(newEvalContext(b, nil))
			assert.Equal(t, tt.expect, len(issues) > 0, "issues: %+v", issues)
			for _, is := range issues {
				assert.Equal(t, tt.rule, is.RuleID)
				assert.Equal(t, "s", is.StepID)
			}
		})
	}
}

func TestOrderIndexScopedByTrack(t *testing.T) {
	a := newStep("a", 1, domain.ActionFamilyOther)
	a.TrackID = "hot"
	b := newStep("b", 1, domain.ActionFamilyOther)
	b.TrackID = "cold"
	assert.NotContains(t, hardIDs(ValidateBuild(newBuild(a, b), Options{})), "H2")

	b.TrackID = "hot"
	res := ValidateBuild(newBuild(a, b), Options{})
	assert.Equal(t, []string{"H2", "H2"}, hardIDs(res))
	assert.Contains(t, res.HardErrors[0].Message, `track "hot"`)
}

func TestPublishedBuildNeedsSteps(t *testing.T) {
	b := newBuild()
	b.Status = domain.BuildStatusPublished
	assert.Equal(t, []string{"H6"}, hardIDs(ValidateBuild(b, Options{})))

	b.Status = domain.BuildStatusDraft
	assert.True(t, ValidateBuild(b, Options{}).Valid)
}

func TestBOMCoverage(t *testing.T) {
	s := newStep("s1", 0, domain.ActionFamilyRetrieve)
	s.Target = &domain.Target{Type: domain.TargetTypeBOMItem, BOMComponentID: "rice"}
	b := newBuild(s)

	bom := []domain.BOMItem{{BOMComponentID: "rice", Type: domain.BOMTypeConsumable, Name: "Rice"}}
	for i := 0; i < 12; i++ {
		bom = append(bom, domain.BOMItem{BOMComponentID: fmt.Sprintf("c%02d", i), Type: domain.BOMTypePackagedGood, Name: fmt.Sprintf("Item %02d", i)})
	}
	bom = append(bom, domain.BOMItem{BOMComponentID: "oil", Type: "ingredient", Name: "Oil"})

	assert.True(t, ValidateBuild(b, Options{}).Valid, "coverage is skipped without a BOM")

	res := ValidateBuild(b, Options{BOM: bom})
	require.Equal(t, []string{"H27"}, hardIDs(res))
	msg := res.HardErrors[0].Message
	assert.True(t, strings.HasPrefix(msg, "12 BOM item(s) not referenced by any step target: Item 00, "))
	assert.Contains(t, msg, "Item 09")
	assert.NotContains(t, msg, "Item 10")
	assert.True(t, strings.HasSuffix(msg, "(and 2 more)"))
	assert.NotContains(t, msg, "Oil")
}

func TestCustomizationRules(t *testing.T) {
	s := newStep("s1", 0, domain.ActionFamilyAssemble)
	s.Conditions = &domain.StepConditions{CustomizationValueIDs: []string{"extra-cheese"}}
	s.Overlays = []domain.StepOverlay{{ID: "ov1", Predicate: domain.OverlayPredicate{CustomizationValueIDs: []string{"no-onion"}}}}
	b := newBuild(s)

	res := ValidateBuild(b, Options{})
	assert.Equal(t, []string{"H25", "H25"}, hardIDs(res))

	lo, hi := 0, 2
	b.CustomizationGroups = []domain.CustomizationGroup{
		{OptionID: "toppings", Type: domain.CustomizationMandatoryChoice, MinChoices: &lo, MaxChoices: &hi, ValueIDs: []string{"extra-cheese", "no-onion"}},
	}
	assert.True(t, ValidateBuild(b, Options{}).Valid)

	b.CustomizationGroups[0].MaxChoices = nil
	res = ValidateBuild(b, Options{})
	require.Equal(t, []string{"H24"}, hardIDs(res))
	assert.Equal(t, "customizationGroups[0].maxChoices", res.HardErrors[0].FieldPath)
}

func TestArtifactWarnings(t *testing.T) {
	p := newStep("p", 0, domain.ActionFamilyCombine)
	p.Produces = []domain.AssemblyRef{{Type: domain.AssemblyRefInBuild, ArtifactID: "sauce"}}
	b := newBuild(p)
	b.Artifacts = []domain.Artifact{{ID: "sauce"}, {ID: "bowl"}}

	res := ValidateBuild(b, Options{})
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"S1", "S3"}, domain.RuleIDs(res.Warnings))
	assert.Equal(t, domain.SeverityStrong, res.Warnings[0].Severity)
	assert.Equal(t, domain.SeveritySoft, res.Warnings[1].Severity)

	b.PrimaryOutputArtifactID = "sauce"
	assert.Empty(t, ValidateBuild(b, Options{}).Warnings)
}

func TestRequiresBuildsHygiene(t *testing.T) {
	b := newBuild(newStep("s1", 0, domain.ActionFamilyOther))
	b.RequiresBuilds = []domain.BuildDependency{{ItemID: "item-1"}, {ItemID: "x"}, {ItemID: "x"}}

	res := ValidateBuild(b, Options{})
	assert.Equal(t, []string{"C1", "C1"}, hardIDs(res))
	assert.Equal(t, "requiresBuilds[0].itemId", res.HardErrors[0].FieldPath)
	assert.Equal(t, "requiresBuilds[2].itemId", res.HardErrors[1].FieldPath)
}

func TestOverridesAreNotApplied(t *testing.T) {
	s := domain.Step{ID: "s1", OrderIndex: 0, Action: domain.Action{Family: domain.ActionFamilyHeat}, Notes: "n"}
	b := newBuild(s)
	b.ValidationOverrides = []domain.ValidationOverride{{RuleID: "H15", StepID: "s1", Reason: "chef approved"}}

	assert.Equal(t, []string{"H15"}, hardIDs(ValidateBuild(b, Options{})))
}

func TestOptionsRulesSubset(t *testing.T) {
	s := domain.Step{ID: "s1", OrderIndex: 0, Action: domain.Action{Family: domain.ActionFamilyHeat}}
	res := ValidateBuild(newBuild(s), Options{Rules: []string{"H22"}})
	assert.Equal(t, []string{"H22"}, hardIDs(res))
	assert.Empty(t, res.Warnings)
}

func TestCatalogIsComplete(t *testing.T) {
	seen := make(map[string]bool)
	for _, info := range Catalog() {
		assert.False(t, seen[info.ID], "duplicate rule %s", info.ID)
		seen[info.ID] = true
		assert.NotEmpty(t, info.Description)
		assert.Contains(t, []string{"step", "build"}, info.Scope)
	}
	for _, id := range []string{"H1", "H9", "H15", "H22", "H27", "C1", "C2", "C3", "C4", "S1", "S2", "S3"} {
		assert.True(t, seen[id], "missing rule %s", id)
	}
}

func TestValidateBuild_NilBuild(t *testing.T) {
	res := ValidateBuild(nil, Options{})
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"H7", "H7", "H7"}, hardIDs(res))
}
