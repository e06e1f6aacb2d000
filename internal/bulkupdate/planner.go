// Package bulkupdate plans field patches over the steps selected by a where string.
//
// Planning never mutates its input. Each matched build is deep-cloned, patched,
// and re-parsed through the strict schema; a build whose patched image fails
// that check is rejected as a whole.
package bulkupdate

import (
	"fmt"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/query"
	"github.com/ludo-technologies/linecheck/internal/schema"
)

// ParseSets parses "field=value" expressions. Every field must be whitelisted
// and settable and every value must fit the field's type and closed set.
func ParseSets(exprs []string) ([]domain.SetOp, error) {
	if len(exprs) == 0 {
		return nil, domain.NewQueryError("", "at least one set expression is required")
	}
	ops := make([]domain.SetOp, 0, len(exprs))
	for _, expr := range exprs {
		op, err := parseSet(expr)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func parseSet(expr string) (domain.SetOp, error) {
	eq := strings.Index(expr, "=")
	if eq < 0 {
		return domain.SetOp{}, domain.NewQueryError(expr, "expected field=value")
	}
	path := strings.TrimSpace(expr[:eq])
	if path == "" {
		return domain.SetOp{}, domain.NewQueryError(expr, "missing field name")
	}

	f, ok := query.LookupField(path)
	if !ok {
		return domain.SetOp{}, domain.NewQueryError(expr, fmt.Sprintf("unknown field %q", path))
	}
	if !f.Settable() {
		return domain.SetOp{}, domain.NewQueryError(expr, fmt.Sprintf("field %q cannot be set", path))
	}

	raw, err := query.ParseValue(expr[eq+1:])
	if err != nil {
		return domain.SetOp{}, err
	}
	v, err := f.Coerce(raw)
	if err != nil {
		return domain.SetOp{}, domain.NewQueryError(expr, err.Error())
	}
	return domain.SetOp{Field: path, Value: v}, nil
}

// Plan computes a dry-run bulk update over builds
func Plan(builds []*domain.Build, where string, setExprs []string) (*domain.BulkUpdatePlan, error) {
	clauses, err := query.ParseWhere(where)
	if err != nil {
		return nil, err
	}
	sets, err := ParseSets(setExprs)
	if err != nil {
		return nil, err
	}
	return PlanClauses(builds, clauses, sets)
}

// ValidateSets checks already built set operations against the same rules
// ParseSets enforces on text input and returns them with coerced values.
func ValidateSets(sets []domain.SetOp) ([]domain.SetOp, error) {
	out := make([]domain.SetOp, 0, len(sets))
	for _, op := range sets {
		f, ok := query.LookupField(op.Field)
		if !ok {
			return nil, domain.NewQueryError(op.Field, fmt.Sprintf("unknown field %q", op.Field))
		}
		if !f.Settable() {
			return nil, domain.NewQueryError(op.Field, fmt.Sprintf("field %q cannot be set", op.Field))
		}
		v, err := f.Coerce(op.Value)
		if err != nil {
			return nil, domain.NewQueryError(op.Field, err.Error())
		}
		out = append(out, domain.SetOp{Field: op.Field, Value: v})
	}
	return out, nil
}

// PlanClauses computes a dry-run bulk update from already parsed input. Set
// operations are validated first, so callers may build them by hand.
func PlanClauses(builds []*domain.Build, clauses []domain.Clause, sets []domain.SetOp) (*domain.BulkUpdatePlan, error) {
	sets, err := ValidateSets(sets)
	if err != nil {
		return nil, err
	}
	plan := &domain.BulkUpdatePlan{
		Clauses: clauses,
		Sets:    sets,
		Planned: []domain.PlannedBuildUpdate{},
	}

	for _, b := range builds {
		if b == nil {
			continue
		}
		matched := query.MatchingSteps(clauses, b)
		if len(matched) == 0 {
			continue
		}

		after, changes, err := applySets(b, matched, sets)
		if err == nil {
			_, err = schema.Reparse(after)
		}
		if err != nil {
			issues, ok := schema.IsSchemaError(err)
			if !ok {
				issues = []domain.SchemaIssue{{Message: err.Error(), Code: domain.IssueInvalidValue}}
			}
			plan.Rejected = append(plan.Rejected, domain.BulkUpdateFailure{
				BuildID: b.ID,
				ItemID:  b.ItemID,
				Version: b.Version,
				Issues:  issues,
			})
			continue
		}

		plan.Planned = append(plan.Planned, domain.PlannedBuildUpdate{
			BuildID:      b.ID,
			ItemID:       b.ItemID,
			Version:      b.Version,
			Status:       b.Status,
			MatchedSteps: matched,
			Changes:      changes,
			After:        after,
		})
	}
	return plan, nil
}

// applySets patches a clone of b. Build-scoped sets run once; step-scoped
// sets run on every matched step. Only real differences are recorded.
func applySets(b *domain.Build, matched []string, sets []domain.SetOp) (*domain.Build, []domain.BulkUpdateChange, error) {
	after := b.Clone()
	changes := []domain.BulkUpdateChange{}

	matchedSet := make(map[string]bool, len(matched))
	for _, id := range matched {
		matchedSet[id] = true
	}

	for _, op := range sets {
		f, _ := query.LookupField(op.Field)
		if f.Scope != query.FieldScopeBuild {
			continue
		}
		c, ok, err := applyOne(f, after, nil, op)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			changes = append(changes, c)
		}
	}

	for i := range after.Steps {
		s := &after.Steps[i]
		if !matchedSet[s.ID] {
			continue
		}
		for _, op := range sets {
			f, _ := query.LookupField(op.Field)
			if f.Scope != query.FieldScopeStep {
				continue
			}
			c, ok, err := applyOne(f, after, s, op)
			if err != nil {
				return nil, nil, err
			}
			if ok {
				changes = append(changes, c)
			}
		}
	}
	return after, changes, nil
}

func applyOne(f *query.Field, b *domain.Build, s *domain.Step, op domain.SetOp) (domain.BulkUpdateChange, bool, error) {
	before := snapshot(f, b, s)
	if before != nil && before.Equal(op.Value) && before.Kind == op.Value.Kind {
		return domain.BulkUpdateChange{}, false, nil
	}
	// clearing an absent string field is a no-op and must not create a parent block
	if before == nil && op.Value.Kind == domain.ValueString && op.Value.Str == "" {
		return domain.BulkUpdateChange{}, false, nil
	}
	if err := f.Set(b, s, op.Value); err != nil {
		return domain.BulkUpdateChange{}, false, fmt.Errorf("set %s: %w", op.Field, err)
	}
	now := snapshot(f, b, s)
	if sameValue(before, now) {
		return domain.BulkUpdateChange{}, false, nil
	}

	c := domain.BulkUpdateChange{BuildID: b.ID, Field: op.Field}
	if s != nil {
		c.StepID = s.ID
	}
	if before != nil {
		c.From = before.Interface()
	}
	if now != nil {
		c.To = now.Interface()
	}
	return c, true, nil
}

func snapshot(f *query.Field, b *domain.Build, s *domain.Step) *domain.Value {
	values := f.Resolve(b, s)
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func sameValue(a, b *domain.Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && a.Equal(*b)
}
