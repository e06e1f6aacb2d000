package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationService_Batch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.json", validBuildJSON),
		writeFile(t, dir, "b.json", invalidBuildJSON),
		writeFile(t, dir, "c.json", malformedBuildJSON),
	}

	metrics := NewMetrics()
	svc := NewValidationService(NewBuildRepository(), NewBOMLoader()).WithMetrics(metrics)

	resp, err := svc.Validate(context.Background(), domain.ValidationRequest{Paths: paths, MaxWorkers: 2})
	require.NoError(t, err)
	require.Len(t, resp.Builds, 3)

	assert.Equal(t, paths[0], resp.Builds[0].Path)
	assert.True(t, resp.Builds[0].Result.Valid)

	assert.Equal(t, "b2", resp.Builds[1].BuildID)
	assert.False(t, resp.Builds[1].Result.Valid)
	assert.Equal(t, []string{"H15", "H22"}, ruleIDs(resp.Builds[1].Result.HardErrors))

	assert.True(t, resp.Builds[2].Failed())
	assert.NotEmpty(t, resp.Builds[2].SchemaIssues)

	assert.Equal(t, domain.ValidationSummary{
		Builds: 3, ValidBuilds: 1, InvalidBuilds: 1, SchemaFailed: 1, HardErrors: 2,
		Warnings: len(resp.Builds[0].Result.Warnings) + len(resp.Builds[1].Result.Warnings),
	}, resp.Summary)
	assert.True(t, resp.HasFailures())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BuildsValidated.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BuildsValidated.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BuildsValidated.WithLabelValues("schema_failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RuleViolations.WithLabelValues("H15", "hard")))
}

func TestValidationService_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"1.json", "2.json", "3.json", "4.json", "5.json"} {
		paths = append(paths, writeFile(t, dir, name, invalidBuildJSON))
	}
	svc := NewValidationService(NewBuildRepository(), NewBOMLoader())

	seq, err := svc.Validate(context.Background(), domain.ValidationRequest{Paths: paths, MaxWorkers: 1})
	require.NoError(t, err)
	par, err := svc.Validate(context.Background(), domain.ValidationRequest{Paths: paths, MaxWorkers: 4, Parallel: true})
	require.NoError(t, err)

	assert.Equal(t, seq.Builds, par.Builds)
	assert.Equal(t, seq.Summary, par.Summary)
}

func TestValidationService_BOMCoverage(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.json", validBuildJSON)
	bom := writeFile(t, dir, "bom.yaml", "- bomComponentId: c1\n  type: consumable\n  name: Chicken thigh\n")

	svc := NewValidationService(NewBuildRepository(), NewBOMLoader())
	resp, err := svc.Validate(context.Background(), domain.ValidationRequest{Paths: []string{path}, BOMPath: bom, MaxWorkers: 1})
	require.NoError(t, err)

	result := resp.Builds[0].Result
	assert.False(t, result.Valid)
	assert.Contains(t, ruleIDs(result.HardErrors), "H27")
}

func TestValidationService_MissingBOM(t *testing.T) {
	svc := NewValidationService(NewBuildRepository(), NewBOMLoader())
	_, err := svc.Validate(context.Background(), domain.ValidationRequest{BOMPath: "/nope/bom.json"})
	assert.Error(t, err)
}

func TestValidationService_Cancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.json", validBuildJSON)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewValidationService(NewBuildRepository(), NewBOMLoader())
	_, err := svc.Validate(ctx, domain.ValidationRequest{Paths: []string{path}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidationService_ValidateDocument(t *testing.T) {
	svc := NewValidationService(NewBuildRepository(), NewBOMLoader())

	ok := svc.ValidateDocument([]byte(validBuildJSON), nil, false)
	require.NotNil(t, ok.Result)
	assert.True(t, ok.Result.Valid)

	bad := svc.ValidateDocument([]byte(`{"id":`), nil, false)
	assert.True(t, bad.Failed())
	require.Len(t, bad.SchemaIssues, 1)
	assert.Equal(t, domain.IssueInvalidJSON, bad.SchemaIssues[0].Code)
}

func TestValidationFormatter(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFile(t, dir, "b.json", invalidBuildJSON), writeFile(t, dir, "c.json", malformedBuildJSON)}
	resp, err := NewValidationService(NewBuildRepository(), NewBOMLoader()).
		Validate(context.Background(), domain.ValidationRequest{Paths: paths, MaxWorkers: 1})
	require.NoError(t, err)

	f := NewValidationFormatter(false)

	var text bytes.Buffer
	require.NoError(t, f.Write(resp, domain.OutputFormatText, &text))
	assert.Contains(t, text.String(), "Line Build Validation")
	assert.Contains(t, text.String(), "(rice-bowl v3, id b2): INVALID")
	assert.Contains(t, text.String(), "[hard] H15 step s1 (equipment):")
	assert.Contains(t, text.String(), "colour [unrecognized_key]")

	var csvOut bytes.Buffer
	require.NoError(t, f.Write(resp, domain.OutputFormatCSV, &csvOut))
	assert.Contains(t, csvOut.String(), "path,buildId,itemId,version,severity,ruleId,stepId,fieldPath,message\n")
	assert.Contains(t, csvOut.String(), ",b2,rice-bowl,3,hard,H15,s1,equipment,")

	var jsonOut bytes.Buffer
	require.NoError(t, f.Write(resp, domain.OutputFormatJSON, &jsonOut))
	assert.Contains(t, jsonOut.String(), `"hardErrors": [`)

	assert.Error(t, f.Write(resp, domain.OutputFormatDOT, &bytes.Buffer{}))
}

func TestWriteRuleCatalog(t *testing.T) {
	catalog := []domain.RuleInfo{{ID: "H1", Severity: domain.SeverityHard, Scope: "step", Description: "known action family"}}
	var buf bytes.Buffer
	require.NoError(t, WriteRuleCatalog(catalog, domain.OutputFormatText, &buf))
	assert.Contains(t, buf.String(), "H1   hard    step   known action family")
}

func ruleIDs(issues []domain.Issue) []string {
	ids := make([]string, len(issues))
	for i, is := range issues {
		ids[i] = is.RuleID
	}
	return ids
}
