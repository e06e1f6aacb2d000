package schema

import (
	"testing"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalBuild = `{
  "id": "b1",
  "itemId": "item-1",
  "version": 1,
  "status": "draft",
  "createdAt": "2024-01-01T00:00:00Z",
  "updatedAt": "2024-01-02T00:00:00Z",
  "steps": [
    {"id": "s1", "orderIndex": 0, "action": {"family": "HEAT"},
     "equipment": {"applianceId": "waterbath"},
     "time": {"durationSeconds": 1200, "isActive": false}}
  ]
}`

func requireSchemaIssues(t *testing.T, err error) []domain.SchemaIssue {
	t.Helper()
	require.Error(t, err)
	issues, ok := IsSchemaError(err)
	require.True(t, ok, "expected *domain.SchemaError, got %T: %v", err, err)
	require.NotEmpty(t, issues)
	return issues
}

func TestParseBuild_Valid(t *testing.T) {
	b, err := ParseBuild([]byte(minimalBuild))
	require.NoError(t, err)

	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, "item-1", b.ItemID)
	assert.Equal(t, domain.BuildStatusDraft, b.Status)
	require.Len(t, b.Steps, 1)
	assert.Equal(t, domain.ActionFamilyHeat, b.Steps[0].Action.Family)
	require.NotNil(t, b.Steps[0].Time)
	assert.Equal(t, 1200.0, b.Steps[0].Time.DurationSeconds)
	assert.False(t, b.Steps[0].Time.IsActive)
}

func TestParseBuild_EmptyStepsIsNonNil(t *testing.T) {
	b, err := ParseBuild([]byte(`{"id":"b","itemId":"i","version":1,"status":"draft","steps":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, b.Steps)
	assert.Empty(t, b.Steps)
}

func TestParseBuild_StrictShape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantPath string
		wantCode string
	}{
		{
			name:     "unknown step key",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":0,"action":{"family":"HEAT"},"colour":"red"}]}`,
			wantPath: "steps[0].colour",
			wantCode: domain.IssueUnrecognizedKey,
		},
		{
			name:     "unknown root key",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[],"extra":true}`,
			wantPath: "extra",
			wantCode: domain.IssueUnrecognizedKey,
		},
		{
			name:     "enum is case sensitive",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":0,"action":{"family":"heat"}}]}`,
			wantPath: "steps[0].action.family",
			wantCode: domain.IssueInvalidEnumValue,
		},
		{
			name:     "numeric string rejected",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":"1","action":{"family":"HEAT"}}]}`,
			wantPath: "steps[0].orderIndex",
			wantCode: domain.IssueInvalidType,
		},
		{
			name:     "missing action",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":0}]}`,
			wantPath: "steps[0].action",
			wantCode: domain.IssueRequired,
		},
		{
			name:     "invalid status",
			input:    `{"id":"b","itemId":"i","version":1,"status":"live","steps":[]}`,
			wantPath: "status",
			wantCode: domain.IssueInvalidEnumValue,
		},
		{
			name:     "fractional version",
			input:    `{"id":"b","itemId":"i","version":1.5,"status":"draft","steps":[]}`,
			wantPath: "version",
			wantCode: domain.IssueInvalidType,
		},
		{
			name:     "bad timestamp",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","createdAt":"yesterday","steps":[]}`,
			wantPath: "createdAt",
			wantCode: domain.IssueInvalidFormat,
		},
		{
			name:     "empty appliance id",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":0,"action":{"family":"HEAT"},"equipment":{"applianceId":""}}]}`,
			wantPath: "steps[0].equipment.applianceId",
			wantCode: domain.IssueTooSmall,
		},
		{
			name:     "container requires type",
			input:    `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":0,"action":{"family":"PACKAGE"},"container":{"name":"bowl"}}]}`,
			wantPath: "steps[0].container.type",
			wantCode: domain.IssueRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBuild([]byte(tt.input))
			issues := requireSchemaIssues(t, err)

			found := false
			for _, is := range issues {
				if is.Path == tt.wantPath && is.Code == tt.wantCode {
					found = true
				}
			}
			assert.True(t, found, "no issue {%s %s} in %+v", tt.wantPath, tt.wantCode, issues)
		})
	}
}

func TestParseBuild_InvalidJSON(t *testing.T) {
	for _, input := range []string{``, `{`, `{"id":"b"} trailing`} {
		_, err := ParseBuild([]byte(input))
		issues := requireSchemaIssues(t, err)
		assert.Equal(t, domain.IssueInvalidJSON, issues[0].Code, "input %q", input)
	}
}

func TestParseBuild_DeterministicIssues(t *testing.T) {
	input := []byte(`{"id":"b","itemId":"i","version":"1","status":"x","steps":[{"id":"","orderIndex":0,"action":{"family":"nope"},"zzz":1,"aaa":2}],"extra":1}`)

	_, err1 := ParseBuild(input)
	_, err2 := ParseBuild(input)
	issues1 := requireSchemaIssues(t, err1)
	issues2 := requireSchemaIssues(t, err2)

	assert.Equal(t, issues1, issues2)
	for i := 1; i < len(issues1); i++ {
		assert.LessOrEqual(t, issues1[i-1].Path, issues1[i].Path)
	}
}

func TestParseBuild_OpaqueBlobsRoundTrip(t *testing.T) {
	input := `{"id":"b","itemId":"i","version":1,"status":"draft","tracks":{"z":1,"a":[true,null]},
	  "steps":[{"id":"s1","orderIndex":0,"action":{"family":"OTHER"},"operations":{"k":{"nested":"v"}}}]}`

	b, err := ParseBuild([]byte(input))
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":[true,null]}`, string(b.Tracks.Raw()))

	again, err := Reparse(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(b.Tracks.Raw()), string(again.Tracks.Raw()))
	assert.JSONEq(t, `{"k":{"nested":"v"}}`, string(again.Steps[0].Operations.Raw()))
}

func TestMarshalBuild_NilStepsBecomeEmptyArray(t *testing.T) {
	data, err := MarshalBuild(&domain.Build{ID: "b", ItemID: "i", Version: 1, Status: domain.BuildStatusDraft})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"steps": []`)

	_, err = ParseBuild(data)
	assert.NoError(t, err)
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"(root)":                   "",
		"":                         "",
		"id":                       "id",
		"steps.2.action.family":    "steps[2].action.family",
		"(root).steps.0":           "steps[0]",
		"steps.10.consumes.3.type": "steps[10].consumes[3].type",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePath(in), "input %q", in)
	}
}

func TestParseBuild_IntegralFloatsAreIntegers(t *testing.T) {
	input := `{"id":"b","itemId":"i","version":2.0,"status":"draft","tracks":{"weight":1.0},
	  "steps":[{"id":"s1","orderIndex":0,"action":{"family":"OTHER"}},
	           {"id":"s2","orderIndex":1.0,"action":{"family":"OTHER"},"operations":{"ratio":3.0}}]}`

	b, err := ParseBuild([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Version)
	assert.Equal(t, 1, b.Steps[1].OrderIndex)
	assert.JSONEq(t, `{"weight":1.0}`, string(b.Tracks.Raw()))
	assert.Contains(t, string(b.Steps[1].Operations.Raw()), "3.0", "opaque payloads keep their number text")

	_, err = ParseBuild([]byte(`{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":1.5,"action":{"family":"OTHER"}}]}`))
	issues := requireSchemaIssues(t, err)
	assert.Equal(t, "steps[0].orderIndex", issues[0].Path)
	assert.Equal(t, domain.IssueInvalidType, issues[0].Code)
}

func TestParseBuild_MessagesDoNotRepeatDottedPaths(t *testing.T) {
	input := `{"id":"b","itemId":"i","version":1,"status":"draft","steps":[{"id":"s1","orderIndex":0,"action":{"family":"heat"}}]}`

	_, err := ParseBuild([]byte(input))
	issues := requireSchemaIssues(t, err)
	for _, is := range issues {
		assert.NotContains(t, is.Message, "steps.0", "issue %+v", is)
	}
	assert.Contains(t, issues[0].Message, "HEAT")
}

func TestNormalizeIntegers(t *testing.T) {
	out, changed := normalizeIntegers([]byte(`{"a":[1.0,2e1,-3.00,1.5,7],"overrides":{"x":1.0}}`))
	require.True(t, changed)
	assert.JSONEq(t, `{"a":[1,20,-3,1.5,7],"overrides":{"x":1.0}}`, string(out))

	_, changed = normalizeIntegers([]byte(`{"a":[1,2],"b":"1.0"}`))
	assert.False(t, changed)
}
