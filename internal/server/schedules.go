package server

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jmarceau/echeancier/constants"
	"github.com/jmarceau/echeancier/internal/common"
	"github.com/jmarceau/echeancier/internal/export"
	"github.com/jmarceau/echeancier/internal/llm"
	"github.com/jmarceau/echeancier/internal/repository"
	"github.com/jmarceau/echeancier/internal/schedule"
)

type analyzeResponse struct {
	RunID   string              `json:"run_id"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
	Stats   schedule.Summary    `json:"stats"`
}

type runResponse struct {
	RunID        string  `json:"run_id"`
	Filename     string  `json:"filename"`
	Status       string  `json:"status"`
	RowCount     int     `json:"row_count"`
	TotalInsur   float64 `json:"total_assurances"`
	TotalInt     float64 `json:"total_interets"`
	FirstDueDate string  `json:"premiere_echeance"`
	Error        string  `json:"error,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// handleAnalyze accepts a multipart PDF upload under the "file" field,
// runs the pipeline, and answers with the table plus statistics.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.writeError(w, http.StatusBadRequest, "unsupported file type: "+ext)
		return
	}

	document, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	result, err := s.processor.Process(r.Context(), document, header.Filename)
	if err != nil {
		var ue *llm.UpstreamError
		if errors.As(err, &ue) {
			s.writeError(w, http.StatusBadGateway, ue.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.NoData {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"run_id": result.RunID.String(),
			"error":  result.Reason,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, analyzeResponse{
		RunID:   result.RunID.String(),
		Columns: result.Table.Columns,
		Rows:    tableRows(result.Table),
		Stats:   result.Summary,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotImplemented, "run history is not configured")
		return
	}
	runs, err := s.runs.ListRuns(r.Context(), 50)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]runResponse, 0, len(runs))
	for i := range runs {
		out = append(out, toRunResponse(&runs[i]))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toRunResponse(run))
}

// handleExport rebuilds the table from the stored payload and streams it in
// the requested format. Stored payloads parsed once already, so the lenient
// decoder is safe here regardless of the pipeline's configured mode.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if run.Status != constants.RunStatusSucceeded || run.Payload == "" {
		s.writeError(w, http.StatusConflict, "run has no exportable schedule")
		return
	}

	records, err := schedule.RepairRecords(run.Payload)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "stored payload no longer parses: "+err.Error())
		return
	}
	table := schedule.Normalize(records)

	format := r.URL.Query().Get("format")
	if format == "" {
		format = constants.FormatCSV
	}
	base := "echeancier_" + run.ID.String()

	switch format {
	case constants.FormatCSV:
		data, err := export.ScheduleCSV(table)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+base+`.csv"`)
		_, _ = w.Write(data)
	case constants.FormatXLSX:
		summary := schedule.Aggregate(table, s.logger)
		data, err := export.ScheduleXLSX(table, summary, s.logger)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+base+`.xlsx"`)
		_, _ = w.Write(data)
	default:
		s.writeError(w, http.StatusBadRequest, "unsupported format: "+format)
	}
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*repository.Run, bool) {
	if s.runs == nil {
		s.writeError(w, http.StatusNotImplemented, "run history is not configured")
		return nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid run id")
		return nil, false
	}
	run, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return run, true
}

func tableRows(t *schedule.Table) []map[string]string {
	rows := make([]map[string]string, 0, t.RowCount())
	for r := 0; r < t.RowCount(); r++ {
		row := make(map[string]string, len(t.Columns))
		for _, col := range t.Columns {
			row[col] = t.Cell(r, col)
		}
		rows = append(rows, row)
	}
	return rows
}

func toRunResponse(run *repository.Run) runResponse {
	return runResponse{
		RunID:        run.ID.String(),
		Filename:     run.Filename,
		Status:       string(run.Status),
		RowCount:     run.RowCount,
		TotalInsur:   run.TotalInsurance,
		TotalInt:     run.TotalInterest,
		FirstDueDate: run.FirstDueDate,
		Error:        run.Error,
		CreatedAt:    run.CreatedAt.UTC().Format(time.RFC3339),
	}
}
