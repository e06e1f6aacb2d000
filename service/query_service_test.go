package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryService_Query(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "b.json", invalidBuildJSON),
		writeFile(t, dir, "a.json", validBuildJSON),
		writeFile(t, dir, "c.json", malformedBuildJSON),
	}
	metrics := NewMetrics()
	svc := NewQueryService(NewBuildRepository()).WithMetrics(metrics)

	resp, err := svc.Query(context.Background(), domain.QueryRequest{Paths: paths, Where: "step.action.family = HEAT"})
	require.NoError(t, err)

	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "chicken-bowl", resp.Matches[0].ItemID)
	assert.Equal(t, "Sous vide the chicken", resp.Matches[0].Label)
	assert.Equal(t, "rice-bowl", resp.Matches[1].ItemID)
	assert.Equal(t, "HEAT", resp.Matches[1].Label)
	assert.Equal(t, []string{paths[2]}, resp.Skipped)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.QueryMatches))
}

func TestQueryService_RejectsUnknownField(t *testing.T) {
	svc := NewQueryService(NewBuildRepository())
	_, err := svc.Query(context.Background(), domain.QueryRequest{Where: "bogus.field = 1"})
	var qe *domain.QueryError
	assert.True(t, errors.As(err, &qe))
}

func TestQueryService_LabelWidth(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.json", validBuildJSON)
	resp, err := NewQueryService(NewBuildRepository()).Query(context.Background(),
		domain.QueryRequest{Paths: []string{path}, Where: "exists(step.time.durationSeconds)", LabelWidth: 8})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "Sous vi…", resp.Matches[0].Label)
}

func TestQueryFormatter(t *testing.T) {
	resp := &domain.QueryResponse{
		Where: "step.action.family = HEAT",
		Matches: []domain.QueryMatch{
			{BuildID: "b1", ItemID: "bowl", Version: 2, Status: domain.BuildStatusDraft, StepID: "s1", OrderIndex: 0, Label: "Sear, then rest"},
		},
	}
	f := NewQueryFormatter()

	var text bytes.Buffer
	require.NoError(t, f.Write(resp, domain.OutputFormatText, &text))
	assert.Contains(t, text.String(), "Matches: 1")
	assert.Contains(t, text.String(), "bowl v2 [b1] #0 s1  Sear, then rest")

	var csvOut bytes.Buffer
	require.NoError(t, f.Write(resp, domain.OutputFormatCSV, &csvOut))
	assert.Equal(t, "itemId,version,buildId,status,stepId,orderIndex,label\nbowl,2,b1,draft,s1,0,\"Sear, then rest\"\n", csvOut.String())
}
