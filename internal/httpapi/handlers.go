package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ludo-technologies/linecheck/domain"
	"github.com/ludo-technologies/linecheck/internal/rules"
	"github.com/ludo-technologies/linecheck/internal/schema"
	"github.com/ludo-technologies/linecheck/service"
	"go.uber.org/zap"
)

// ValidateRequest is the body of POST /api/v1/validate
type ValidateRequest struct {
	Builds   []json.RawMessage `json:"builds"`
	BOM      []domain.BOMItem  `json:"bom,omitempty"`
	Parallel bool              `json:"parallel,omitempty"`
}

// ValidateResponse lists one result per submitted document, in order
type ValidateResponse struct {
	Results []domain.BuildValidation `json:"results"`
	Valid   bool                     `json:"valid"`
}

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Where      string            `json:"where"`
	Builds     []json.RawMessage `json:"builds"`
	LabelWidth int               `json:"labelWidth,omitempty"`
}

// BulkUpdateRequest is the body of POST /api/v1/bulk-update. Plans are
// always dry runs; callers persist the after images themselves.
type BulkUpdateRequest struct {
	Where  string            `json:"where"`
	Sets   []string          `json:"sets"`
	Builds []json.RawMessage `json:"builds"`
}

// GraphRequest is the body of POST /api/v1/graph
type GraphRequest struct {
	Build json.RawMessage `json:"build"`
}

// ErrorResponse is returned for every non-2xx answer
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Index is the offending document for schema failures
	Index  *int                 `json:"index,omitempty"`
	Issues []domain.SchemaIssue `json:"issues,omitempty"`
	// Position is the byte offset of a query error, when known
	Position *int `json:"position,omitempty"`
}

func (s *Server) healthzHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) rulesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rules.Catalog())
}

func (s *Server) validateHandler(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Builds) == 0 {
		writeError(w, http.StatusBadRequest, ErrorResponse{Error: "builds is required", Code: domain.ErrCodeInvalidInput})
		return
	}

	resp := ValidateResponse{Results: make([]domain.BuildValidation, len(req.Builds)), Valid: true}
	for i, raw := range req.Builds {
		v := s.validator.ValidateDocument(raw, req.BOM, req.Parallel)
		v.Path = fmt.Sprintf("builds[%d]", i)
		if v.Failed() || !v.Result.Valid {
			resp.Valid = false
		}
		resp.Results[i] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	builds, ok := s.parseBuilds(w, req.Builds)
	if !ok {
		return
	}

	resp, err := s.queries.QueryBuilds(req.Where, builds, req.LabelWidth)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) bulkUpdateHandler(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	builds, ok := s.parseBuilds(w, req.Builds)
	if !ok {
		return
	}

	resp, err := s.planner.PlanBuilds(req.Where, req.Sets, builds)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) graphHandler(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	if !s.decode(w, r, &req) {
		return
	}
	builds, ok := s.parseBuilds(w, []json.RawMessage{req.Build})
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, service.DescribeGraph(builds[0]))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Debug("rejecting request body", zap.Error(err))
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: domain.ErrCodeInvalidInput})
		return false
	}
	return true
}

// parseBuilds strictly parses every document. The first failure answers 422
// with the document index and its schema issues.
func (s *Server) parseBuilds(w http.ResponseWriter, docs []json.RawMessage) ([]*domain.Build, bool) {
	builds := make([]*domain.Build, 0, len(docs))
	for i, raw := range docs {
		b, err := schema.ParseBuild(raw)
		if err != nil {
			idx := i
			issues, _ := schema.IsSchemaError(err)
			writeError(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:  err.Error(),
				Code:   domain.ErrCodeParseError,
				Index:  &idx,
				Issues: issues,
			})
			return nil, false
		}
		builds = append(builds, b)
	}
	return builds, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var qe *domain.QueryError
	if errors.As(err, &qe) {
		resp := ErrorResponse{Error: qe.Error(), Code: domain.ErrCodeQueryError}
		if qe.Pos >= 0 {
			pos := qe.Pos
			resp.Position = &pos
		}
		writeError(w, http.StatusBadRequest, resp)
		return
	}
	s.logger.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: domain.ErrCodeAnalysisError})
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = service.WriteJSON(w, v)
}
