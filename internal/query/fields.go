package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ludo-technologies/linecheck/domain"
)

// FieldScope says whether a field reads the build or the current step
type FieldScope string

const (
	FieldScopeBuild FieldScope = "build"
	FieldScopeStep  FieldScope = "step"
)

// Field is one whitelisted query path
type Field struct {
	Path  string
	Scope FieldScope
	Kind  domain.ValueKind
	// Enum lists the allowed values of closed-set string fields
	Enum  []string
	Multi bool

	resolve func(b *domain.Build, s *domain.Step) []domain.Value
	set     func(b *domain.Build, s *domain.Step, v domain.Value)
}

// Settable reports whether bulk update may write the field
func (f *Field) Settable() bool {
	return f.set != nil
}

// Resolve returns the field's values for a build and step. Missing optional
// data yields an empty slice.
func (f *Field) Resolve(b *domain.Build, s *domain.Step) []domain.Value {
	if b == nil || (f.Scope == FieldScopeStep && s == nil) {
		return nil
	}
	return f.resolve(b, s)
}

// Set writes v, creating any missing parent block
func (f *Field) Set(b *domain.Build, s *domain.Step, v domain.Value) error {
	if f.set == nil {
		return fmt.Errorf("field %s is not settable", f.Path)
	}
	f.set(b, s, v)
	return nil
}

// Coerce checks that v fits the field's type and closed set. String fields
// accept any primitive in its canonical text form.
func (f *Field) Coerce(v domain.Value) (domain.Value, error) {
	switch f.Kind {
	case domain.ValueNumber:
		if v.Kind != domain.ValueNumber {
			return domain.Value{}, fmt.Errorf("field %s expects a number, got %s %q", f.Path, v.Kind, v.String())
		}
	case domain.ValueBool:
		if v.Kind != domain.ValueBool {
			return domain.Value{}, fmt.Errorf("field %s expects true or false, got %s %q", f.Path, v.Kind, v.String())
		}
	default:
		v = domain.StringValue(v.String())
		if len(f.Enum) > 0 && !contains(f.Enum, v.Str) {
			return domain.Value{}, fmt.Errorf("field %s expects one of [%s], got %q", f.Path, strings.Join(f.Enum, ", "), v.Str)
		}
	}
	return v, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func str(s string) []domain.Value {
	if s == "" {
		return nil
	}
	return []domain.Value{domain.StringValue(s)}
}

func strs(list []string) []domain.Value {
	var out []domain.Value
	for _, s := range list {
		if s != "" {
			out = append(out, domain.StringValue(s))
		}
	}
	return out
}

func num(n float64) []domain.Value {
	return []domain.Value{domain.NumberValue(n)}
}

func refValues(refs []domain.AssemblyRef, pick func(domain.AssemblyRef) string) []domain.Value {
	var out []domain.Value
	for _, r := range refs {
		if v := pick(r); v != "" {
			out = append(out, domain.StringValue(v))
		}
	}
	return out
}

func ensureTime(s *domain.Step) *domain.StepTime {
	if s.Time == nil {
		s.Time = &domain.StepTime{}
	}
	return s.Time
}

func ensureQuantity(s *domain.Step) *domain.Quantity {
	if s.Quantity == nil {
		s.Quantity = &domain.Quantity{}
	}
	return s.Quantity
}

func ensureEquipment(s *domain.Step) *domain.Equipment {
	if s.Equipment == nil {
		s.Equipment = &domain.Equipment{}
	}
	return s.Equipment
}

func ensureContainer(s *domain.Step) *domain.Container {
	if s.Container == nil {
		s.Container = &domain.Container{}
	}
	return s.Container
}

func ensureStorage(s *domain.Step) *domain.StorageLocation {
	if s.StorageLocation == nil {
		s.StorageLocation = &domain.StorageLocation{}
	}
	return s.StorageLocation
}

func ensureTarget(s *domain.Step) *domain.Target {
	if s.Target == nil {
		s.Target = &domain.Target{}
	}
	return s.Target
}

var fields = []*Field{
	// build
	{Path: "build.id", Scope: FieldScopeBuild, Kind: domain.ValueString,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value { return str(b.ID) }},
	{Path: "build.itemId", Scope: FieldScopeBuild, Kind: domain.ValueString,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value { return str(b.ItemID) }},
	{Path: "build.version", Scope: FieldScopeBuild, Kind: domain.ValueNumber,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value { return num(float64(b.Version)) }},
	{Path: "build.status", Scope: FieldScopeBuild, Kind: domain.ValueString, Enum: enumStrings(domain.BuildStatuses),
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value { return str(string(b.Status)) },
		set:     func(b *domain.Build, _ *domain.Step, v domain.Value) { b.Status = domain.BuildStatus(v.Str) }},
	{Path: "build.name", Scope: FieldScopeBuild, Kind: domain.ValueString,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value { return str(b.Name) },
		set:     func(b *domain.Build, _ *domain.Step, v domain.Value) { b.Name = v.Str }},
	{Path: "build.requiresBuilds.itemId", Scope: FieldScopeBuild, Kind: domain.ValueString, Multi: true,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value {
			var out []domain.Value
			for _, d := range b.RequiresBuilds {
				out = append(out, str(d.ItemID)...)
			}
			return out
		}},
	{Path: "build.requiresBuilds.role", Scope: FieldScopeBuild, Kind: domain.ValueString, Multi: true,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value {
			var out []domain.Value
			for _, d := range b.RequiresBuilds {
				out = append(out, str(d.Role)...)
			}
			return out
		}},
	{Path: "build.artifacts.id", Scope: FieldScopeBuild, Kind: domain.ValueString, Multi: true,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value {
			var out []domain.Value
			for _, a := range b.Artifacts {
				out = append(out, str(a.ID)...)
			}
			return out
		}},
	{Path: "build.primaryOutputArtifactId", Scope: FieldScopeBuild, Kind: domain.ValueString,
		resolve: func(b *domain.Build, _ *domain.Step) []domain.Value { return str(b.PrimaryOutputArtifactID) },
		set:     func(b *domain.Build, _ *domain.Step, v domain.Value) { b.PrimaryOutputArtifactID = v.Str }},

	// step identity and action
	{Path: "step.id", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.ID) }},
	{Path: "step.orderIndex", Scope: FieldScopeStep, Kind: domain.ValueNumber,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return num(float64(s.OrderIndex)) }},
	{Path: "step.trackId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.TrackID) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.TrackID = v.Str }},
	{Path: "step.action.family", Scope: FieldScopeStep, Kind: domain.ValueString, Enum: enumStrings(domain.ActionFamilies),
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(string(s.Action.Family)) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.Action.Family = domain.ActionFamily(v.Str) }},
	{Path: "step.action.techniqueId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.Action.TechniqueID) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.Action.TechniqueID = v.Str }},
	{Path: "step.stationId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.StationID) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.StationID = v.Str }},
	{Path: "step.toolId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.ToolID) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.ToolID = v.Str }},
	{Path: "step.instruction", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.Instruction) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.Instruction = v.Str }},
	{Path: "step.notes", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(s.Notes) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.Notes = v.Str }},

	// equipment, time, quantity
	{Path: "step.equipment.applianceId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Equipment == nil {
				return nil
			}
			return str(s.Equipment.ApplianceID)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureEquipment(s).ApplianceID = v.Str }},
	{Path: "step.equipment.presetId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Equipment == nil {
				return nil
			}
			return str(s.Equipment.PresetID)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureEquipment(s).PresetID = v.Str }},
	{Path: "step.time.durationSeconds", Scope: FieldScopeStep, Kind: domain.ValueNumber,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Time == nil {
				return nil
			}
			return num(s.Time.DurationSeconds)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureTime(s).DurationSeconds = v.Num }},
	{Path: "step.time.isActive", Scope: FieldScopeStep, Kind: domain.ValueBool,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Time == nil {
				return nil
			}
			return []domain.Value{domain.BoolValue(s.Time.IsActive)}
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureTime(s).IsActive = v.Bool }},
	{Path: "step.quantity.value", Scope: FieldScopeStep, Kind: domain.ValueNumber,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Quantity == nil {
				return nil
			}
			return num(s.Quantity.Value)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureQuantity(s).Value = v.Num }},
	{Path: "step.quantity.unit", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Quantity == nil {
				return nil
			}
			return str(s.Quantity.Unit)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureQuantity(s).Unit = v.Str }},

	// container, storage, prep
	{Path: "step.container.type", Scope: FieldScopeStep, Kind: domain.ValueString, Enum: enumStrings(domain.ContainerTypes),
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Container == nil {
				return nil
			}
			return str(string(s.Container.Type))
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) {
			ensureContainer(s).Type = domain.ContainerType(v.Str)
		}},
	{Path: "step.container.name", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Container == nil {
				return nil
			}
			return str(s.Container.Name)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureContainer(s).Name = v.Str }},
	{Path: "step.storageLocation.type", Scope: FieldScopeStep, Kind: domain.ValueString, Enum: enumStrings(domain.StorageTypes),
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.StorageLocation == nil {
				return nil
			}
			return str(string(s.StorageLocation.Type))
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) {
			ensureStorage(s).Type = domain.StorageType(v.Str)
		}},
	{Path: "step.prepType", Scope: FieldScopeStep, Kind: domain.ValueString, Enum: enumStrings(domain.PrepTypes),
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return str(string(s.PrepType)) },
		set:     func(_ *domain.Build, s *domain.Step, v domain.Value) { s.PrepType = domain.PrepType(v.Str) }},
	{Path: "step.bulkPrep", Scope: FieldScopeStep, Kind: domain.ValueBool,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			return []domain.Value{domain.BoolValue(s.BulkPrep)}
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { s.BulkPrep = v.Bool }},

	// target
	{Path: "step.target.type", Scope: FieldScopeStep, Kind: domain.ValueString, Enum: enumStrings(domain.TargetTypes),
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Target == nil {
				return nil
			}
			return str(string(s.Target.Type))
		}},
	{Path: "step.target.name", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Target == nil {
				return nil
			}
			return str(s.Target.Name)
		},
		set: func(_ *domain.Build, s *domain.Step, v domain.Value) { ensureTarget(s).Name = v.Str }},
	{Path: "step.target.bomComponentId", Scope: FieldScopeStep, Kind: domain.ValueString,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			if s.Target == nil {
				return nil
			}
			return str(s.Target.BOMComponentID)
		}},

	// graph edges
	{Path: "step.dependsOn", Scope: FieldScopeStep, Kind: domain.ValueString, Multi: true,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value { return strs(s.DependsOn) }},
	{Path: "step.consumes.artifactId", Scope: FieldScopeStep, Kind: domain.ValueString, Multi: true,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			return refValues(s.Consumes, func(r domain.AssemblyRef) string { return r.ArtifactID })
		}},
	{Path: "step.consumes.itemId", Scope: FieldScopeStep, Kind: domain.ValueString, Multi: true,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			return refValues(s.Consumes, func(r domain.AssemblyRef) string { return r.ItemID })
		}},
	{Path: "step.produces.artifactId", Scope: FieldScopeStep, Kind: domain.ValueString, Multi: true,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			return refValues(s.Produces, func(r domain.AssemblyRef) string { return r.ArtifactID })
		}},
	{Path: "step.produces.itemId", Scope: FieldScopeStep, Kind: domain.ValueString, Multi: true,
		resolve: func(_ *domain.Build, s *domain.Step) []domain.Value {
			return refValues(s.Produces, func(r domain.AssemblyRef) string { return r.ItemID })
		}},
}

var fieldIndex = func() map[string]*Field {
	m := make(map[string]*Field, len(fields))
	for _, f := range fields {
		m[f.Path] = f
	}
	return m
}()

// LookupField returns the whitelisted field with the given path
func LookupField(path string) (*Field, bool) {
	f, ok := fieldIndex[path]
	return f, ok
}

// Fields returns every whitelisted field path, sorted
func Fields() []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Path)
	}
	sort.Strings(out)
	return out
}

// SettableFields returns the paths bulk update may write, sorted
func SettableFields() []string {
	var out []string
	for _, f := range fields {
		if f.Settable() {
			out = append(out, f.Path)
		}
	}
	sort.Strings(out)
	return out
}
