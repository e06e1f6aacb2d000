package domain

import (
	"bytes"
	"encoding/json"
)

// BuildStatus represents the lifecycle state of a line build
type BuildStatus string

const (
	BuildStatusDraft     BuildStatus = "draft"
	BuildStatusPublished BuildStatus = "published"
	BuildStatusArchived  BuildStatus = "archived"
)

// BuildStatuses lists every valid build status
var BuildStatuses = []BuildStatus{BuildStatusDraft, BuildStatusPublished, BuildStatusArchived}

// IsValid reports whether the status is one of the closed set
func (s BuildStatus) IsValid() bool {
	for _, v := range BuildStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ActionFamily classifies what a step does
type ActionFamily string

const (
	ActionFamilyRetrieve ActionFamily = "RETRIEVE"
	ActionFamilyPrep     ActionFamily = "PREP"
	ActionFamilyHeat     ActionFamily = "HEAT"
	ActionFamilyTransfer ActionFamily = "TRANSFER"
	ActionFamilyCombine  ActionFamily = "COMBINE"
	ActionFamilyAssemble ActionFamily = "ASSEMBLE"
	ActionFamilyPortion  ActionFamily = "PORTION"
	ActionFamilyPackage  ActionFamily = "PACKAGE"
	ActionFamilyVend     ActionFamily = "VEND"
	ActionFamilyCheck    ActionFamily = "CHECK"
	ActionFamilyOther    ActionFamily = "OTHER"
)

// ActionFamilies lists every valid action family
var ActionFamilies = []ActionFamily{
	ActionFamilyRetrieve,
	ActionFamilyPrep,
	ActionFamilyHeat,
	ActionFamilyTransfer,
	ActionFamilyCombine,
	ActionFamilyAssemble,
	ActionFamilyPortion,
	ActionFamilyPackage,
	ActionFamilyVend,
	ActionFamilyCheck,
	ActionFamilyOther,
}

// IsValid reports whether the family is one of the closed set
func (f ActionFamily) IsValid() bool {
	for _, v := range ActionFamilies {
		if f == v {
			return true
		}
	}
	return false
}

// PrepType distinguishes work done ahead of service from work done per order
type PrepType string

const (
	PrepTypePreService     PrepType = "pre_service"
	PrepTypeOrderExecution PrepType = "order_execution"
)

// PrepTypes lists every valid prep type
var PrepTypes = []PrepType{PrepTypePreService, PrepTypeOrderExecution}

// TargetType describes what kind of thing a step acts on
type TargetType string

const (
	TargetTypeBOMItem   TargetType = "bom_item"
	TargetTypeAssembly  TargetType = "assembly"
	TargetTypePackaging TargetType = "packaging"
	TargetTypeFreeText  TargetType = "free_text"
)

// TargetTypes lists every valid target type
var TargetTypes = []TargetType{TargetTypeBOMItem, TargetTypeAssembly, TargetTypePackaging, TargetTypeFreeText}

// ContainerType is the closed set of container kinds
type ContainerType string

// ContainerTypes lists every valid container type
var ContainerTypes = []ContainerType{"bag", "bowl", "box", "clamshell", "cup", "lid", "pan", "tray", "wrapper", "other"}

// StorageType is the closed set of storage locations
type StorageType string

// StorageTypes lists every valid storage location type
var StorageTypes = []StorageType{"cold_rail", "dry_rail", "freezer", "heated_well", "shelf", "walk_in", "other"}

// AssemblyRefType distinguishes in-build from cross-build material references
type AssemblyRefType string

const (
	AssemblyRefInBuild       AssemblyRefType = "in_build"
	AssemblyRefExternalBuild AssemblyRefType = "external_build"
)

// CustomizationGroupType is the closed set of customization group kinds
type CustomizationGroupType string

const (
	CustomizationMandatoryChoice     CustomizationGroupType = "MANDATORY_CHOICE"
	CustomizationOptionalAddition    CustomizationGroupType = "OPTIONAL_ADDITION"
	CustomizationOptionalSubtraction CustomizationGroupType = "OPTIONAL_SUBTRACTION"
	CustomizationExtraRequests       CustomizationGroupType = "EXTRA_REQUESTS"
	CustomizationDishPreference      CustomizationGroupType = "DISH_PREFERENCE"
	CustomizationOnTheSide           CustomizationGroupType = "ON_THE_SIDE"
)

// CustomizationGroupTypes lists every valid customization group type
var CustomizationGroupTypes = []CustomizationGroupType{
	CustomizationMandatoryChoice,
	CustomizationOptionalAddition,
	CustomizationOptionalSubtraction,
	CustomizationExtraRequests,
	CustomizationDishPreference,
	CustomizationOnTheSide,
}

// Build is the root aggregate: the line build for one menu item
type Build struct {
	ID                      string               `json:"id" yaml:"id"`
	ItemID                  string               `json:"itemId" yaml:"itemId"`
	Name                    string               `json:"name,omitempty" yaml:"name,omitempty"`
	Version                 int                  `json:"version" yaml:"version"`
	Status                  BuildStatus          `json:"status" yaml:"status"`
	CreatedAt               string               `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt               string               `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Steps                   []Step               `json:"steps" yaml:"steps"`
	Artifacts               []Artifact           `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	PrimaryOutputArtifactID string               `json:"primaryOutputArtifactId,omitempty" yaml:"primaryOutputArtifactId,omitempty"`
	RequiresBuilds          []BuildDependency    `json:"requiresBuilds,omitempty" yaml:"requiresBuilds,omitempty"`
	CustomizationGroups     []CustomizationGroup `json:"customizationGroups,omitempty" yaml:"customizationGroups,omitempty"`
	ValidationOverrides     []ValidationOverride `json:"validationOverrides,omitempty" yaml:"validationOverrides,omitempty"`
	Tracks                  *OpaqueBlob          `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

// Step is a single unit of work in a line build
type Step struct {
	ID              string                     `json:"id" yaml:"id"`
	OrderIndex      int                        `json:"orderIndex" yaml:"orderIndex"`
	TrackID         string                     `json:"trackId,omitempty" yaml:"trackId,omitempty"`
	Action          Action                     `json:"action" yaml:"action"`
	Instruction     string                     `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Notes           string                     `json:"notes,omitempty" yaml:"notes,omitempty"`
	StationID       string                     `json:"stationId,omitempty" yaml:"stationId,omitempty"`
	ToolID          string                     `json:"toolId,omitempty" yaml:"toolId,omitempty"`
	Equipment       *Equipment                 `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	Time            *StepTime                  `json:"time,omitempty" yaml:"time,omitempty"`
	Quantity        *Quantity                  `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Container       *Container                 `json:"container,omitempty" yaml:"container,omitempty"`
	StorageLocation *StorageLocation           `json:"storageLocation,omitempty" yaml:"storageLocation,omitempty"`
	PrepType        PrepType                   `json:"prepType,omitempty" yaml:"prepType,omitempty"`
	BulkPrep        bool                       `json:"bulkPrep,omitempty" yaml:"bulkPrep,omitempty"`
	Target          *Target                    `json:"target,omitempty" yaml:"target,omitempty"`
	DependsOn       []string                   `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Consumes        []AssemblyRef              `json:"consumes,omitempty" yaml:"consumes,omitempty"`
	Produces        []AssemblyRef              `json:"produces,omitempty" yaml:"produces,omitempty"`
	Overlays        []StepOverlay              `json:"overlays,omitempty" yaml:"overlays,omitempty"`
	Conditions      *StepConditions            `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Provenance      map[string]FieldProvenance `json:"provenance,omitempty" yaml:"provenance,omitempty"`
	Operations      *OpaqueBlob                `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// Action is the step's action family with an optional technique
type Action struct {
	Family      ActionFamily `json:"family" yaml:"family"`
	TechniqueID string       `json:"techniqueId,omitempty" yaml:"techniqueId,omitempty"`
	DetailID    string       `json:"detailId,omitempty" yaml:"detailId,omitempty"`
}

// Equipment identifies the appliance a step runs on
type Equipment struct {
	ApplianceID string `json:"applianceId" yaml:"applianceId"`
	PresetID    string `json:"presetId,omitempty" yaml:"presetId,omitempty"`
	Required    *bool  `json:"required,omitempty" yaml:"required,omitempty"`
}

// StepTime is the duration of a step and whether it needs hands-on attention
type StepTime struct {
	DurationSeconds float64 `json:"durationSeconds" yaml:"durationSeconds"`
	IsActive        bool    `json:"isActive" yaml:"isActive"`
}

// Quantity is an amount with an optional unit
type Quantity struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Container is what the product is packaged or held in
type Container struct {
	Type ContainerType `json:"type" yaml:"type"`
	Name string        `json:"name,omitempty" yaml:"name,omitempty"`
	Size string        `json:"size,omitempty" yaml:"size,omitempty"`
}

// StorageLocation is where pre-service output is held until service
type StorageLocation struct {
	Type   StorageType `json:"type" yaml:"type"`
	Detail string      `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Target is what a step acts on
type Target struct {
	Type           TargetType `json:"type" yaml:"type"`
	BOMComponentID string     `json:"bomComponentId,omitempty" yaml:"bomComponentId,omitempty"`
	Name           string     `json:"name,omitempty" yaml:"name,omitempty"`
}

// AssemblyRef references material either inside this build or from another build
type AssemblyRef struct {
	Type       AssemblyRefType `json:"type" yaml:"type"`
	ArtifactID string          `json:"artifactId,omitempty" yaml:"artifactId,omitempty"`
	ItemID     string          `json:"itemId,omitempty" yaml:"itemId,omitempty"`
	Version    *int            `json:"version,omitempty" yaml:"version,omitempty"`
}

// Artifact is an intermediate or final assembly declared by a build
type Artifact struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// BuildDependency declares another build this build draws material from
type BuildDependency struct {
	ItemID  string `json:"itemId" yaml:"itemId"`
	Version *int   `json:"version,omitempty" yaml:"version,omitempty"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
}

// StepOverlay overrides step fields when its predicate holds
type StepOverlay struct {
	ID        string           `json:"id" yaml:"id"`
	Predicate OverlayPredicate `json:"predicate" yaml:"predicate"`
	Overrides *OpaqueBlob      `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Priority  int              `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// OverlayPredicate selects when an overlay applies
type OverlayPredicate struct {
	EquipmentIDs          []string `json:"equipmentIds,omitempty" yaml:"equipmentIds,omitempty"`
	CustomizationValueIDs []string `json:"customizationValueIds,omitempty" yaml:"customizationValueIds,omitempty"`
}

// StepConditions gates a step on customization choices
type StepConditions struct {
	CustomizationValueIDs []string `json:"customizationValueIds,omitempty" yaml:"customizationValueIds,omitempty"`
}

// FieldProvenance records where a field value came from. Display only.
type FieldProvenance struct {
	Type       string   `json:"type" yaml:"type"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	SourceID   string   `json:"sourceId,omitempty" yaml:"sourceId,omitempty"`
}

// CustomizationGroup is a set of customer-selectable values
type CustomizationGroup struct {
	OptionID   string                 `json:"optionId" yaml:"optionId"`
	Type       CustomizationGroupType `json:"type" yaml:"type"`
	MinChoices *int                   `json:"minChoices,omitempty" yaml:"minChoices,omitempty"`
	MaxChoices *int                   `json:"maxChoices,omitempty" yaml:"maxChoices,omitempty"`
	ValueIDs   []string               `json:"valueIds,omitempty" yaml:"valueIds,omitempty"`
}

// ValidationOverride is a recorded human decision to suppress a rule hit.
// Overrides are data only; rule evaluation ignores them.
type ValidationOverride struct {
	RuleID           string `json:"ruleId" yaml:"ruleId"`
	StepID           string `json:"stepId,omitempty" yaml:"stepId,omitempty"`
	FieldPath        string `json:"fieldPath,omitempty" yaml:"fieldPath,omitempty"`
	Reason           string `json:"reason" yaml:"reason"`
	CreatedAt        string `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	CreatedByUserID  string `json:"createdByUserId,omitempty" yaml:"createdByUserId,omitempty"`
	ReviewedAt       string `json:"reviewedAt,omitempty" yaml:"reviewedAt,omitempty"`
	ReviewedByUserID string `json:"reviewedByUserId,omitempty" yaml:"reviewedByUserId,omitempty"`
	Approved         *bool  `json:"approved,omitempty" yaml:"approved,omitempty"`
}

// OpaqueBlob carries a JSON payload that is preserved verbatim and never
// interpreted by the rule catalog.
type OpaqueBlob struct {
	raw json.RawMessage
}

// NewOpaqueBlob wraps raw JSON
func NewOpaqueBlob(raw []byte) *OpaqueBlob {
	return &OpaqueBlob{raw: append(json.RawMessage(nil), raw...)}
}

// Raw returns a copy of the underlying JSON
func (b *OpaqueBlob) Raw() []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b.raw...)
}

// MarshalJSON implements json.Marshaler
func (b OpaqueBlob) MarshalJSON() ([]byte, error) {
	if len(b.raw) == 0 {
		return []byte("null"), nil
	}
	return b.raw, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (b *OpaqueBlob) UnmarshalJSON(data []byte) error {
	b.raw = append(b.raw[:0], bytes.TrimSpace(data)...)
	return nil
}

// MarshalYAML renders the payload as a plain YAML value
func (b OpaqueBlob) MarshalYAML() (interface{}, error) {
	if len(b.raw) == 0 {
		return nil, nil
	}
	var v interface{}
	if err := json.Unmarshal(b.raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// StepByID returns the first step with the given id
func (b *Build) StepByID(id string) (*Step, bool) {
	for i := range b.Steps {
		if b.Steps[i].ID == id {
			return &b.Steps[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy that shares no mutable state with b
func (b *Build) Clone() *Build {
	if b == nil {
		return nil
	}
	out := *b
	if b.Steps != nil {
		out.Steps = make([]Step, len(b.Steps))
		for i := range b.Steps {
			out.Steps[i] = b.Steps[i].Clone()
		}
	}
	out.Artifacts = cloneSlice(b.Artifacts)
	if b.RequiresBuilds != nil {
		out.RequiresBuilds = make([]BuildDependency, len(b.RequiresBuilds))
		for i, dep := range b.RequiresBuilds {
			dep.Version = cloneIntPtr(dep.Version)
			out.RequiresBuilds[i] = dep
		}
	}
	if b.CustomizationGroups != nil {
		out.CustomizationGroups = make([]CustomizationGroup, len(b.CustomizationGroups))
		for i, g := range b.CustomizationGroups {
			g.MinChoices = cloneIntPtr(g.MinChoices)
			g.MaxChoices = cloneIntPtr(g.MaxChoices)
			g.ValueIDs = cloneSlice(g.ValueIDs)
			out.CustomizationGroups[i] = g
		}
	}
	if b.ValidationOverrides != nil {
		out.ValidationOverrides = make([]ValidationOverride, len(b.ValidationOverrides))
		for i, o := range b.ValidationOverrides {
			o.Approved = cloneBoolPtr(o.Approved)
			out.ValidationOverrides[i] = o
		}
	}
	out.Tracks = b.Tracks.clone()
	return &out
}

// Clone returns a deep copy of the step
func (s Step) Clone() Step {
	out := s
	if s.Equipment != nil {
		eq := *s.Equipment
		eq.Required = cloneBoolPtr(eq.Required)
		out.Equipment = &eq
	}
	if s.Time != nil {
		t := *s.Time
		out.Time = &t
	}
	if s.Quantity != nil {
		q := *s.Quantity
		out.Quantity = &q
	}
	if s.Container != nil {
		c := *s.Container
		out.Container = &c
	}
	if s.StorageLocation != nil {
		l := *s.StorageLocation
		out.StorageLocation = &l
	}
	if s.Target != nil {
		t := *s.Target
		out.Target = &t
	}
	out.DependsOn = cloneSlice(s.DependsOn)
	out.Consumes = cloneRefs(s.Consumes)
	out.Produces = cloneRefs(s.Produces)
	if s.Overlays != nil {
		out.Overlays = make([]StepOverlay, len(s.Overlays))
		for i, o := range s.Overlays {
			o.Predicate.EquipmentIDs = cloneSlice(o.Predicate.EquipmentIDs)
			o.Predicate.CustomizationValueIDs = cloneSlice(o.Predicate.CustomizationValueIDs)
			o.Overrides = o.Overrides.clone()
			out.Overlays[i] = o
		}
	}
	if s.Conditions != nil {
		c := StepConditions{CustomizationValueIDs: cloneSlice(s.Conditions.CustomizationValueIDs)}
		out.Conditions = &c
	}
	if s.Provenance != nil {
		out.Provenance = make(map[string]FieldProvenance, len(s.Provenance))
		for k, p := range s.Provenance {
			if p.Confidence != nil {
				c := *p.Confidence
				p.Confidence = &c
			}
			out.Provenance[k] = p
		}
	}
	out.Operations = s.Operations.clone()
	return out
}

func (b *OpaqueBlob) clone() *OpaqueBlob {
	if b == nil {
		return nil
	}
	return NewOpaqueBlob(b.raw)
}

func cloneRefs(refs []AssemblyRef) []AssemblyRef {
	if refs == nil {
		return nil
	}
	out := make([]AssemblyRef, len(refs))
	for i, r := range refs {
		r.Version = cloneIntPtr(r.Version)
		out[i] = r
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
