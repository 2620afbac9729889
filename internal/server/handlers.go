package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"colorforge/internal/generator"
	"colorforge/internal/logging"
	"colorforge/internal/orchestrator"
)

type generateRequest struct {
	Model     string `json:"model"`
	Primary   string `json:"primary"`
	Accent    string `json:"accent"`
	LEDs      string `json:"leds"`
	Width     int    `json:"width"`
	SessionID string `json:"session_id"`
}

type generateResponse struct {
	Success    bool   `json:"success"`
	Exists     bool   `json:"exists"`
	URL        string `json:"url"`
	SessionID  string `json:"session_id"`
	SizeBytes  int64  `json:"size_bytes"`
	DurationMS int64  `json:"duration_ms"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		s.writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	result, err := s.gen.Generate(r.Context(), generator.Request{
		Model:     req.Model,
		Primary:   req.Primary,
		Accent:    req.Accent,
		LED:       req.LEDs,
		Width:     req.Width,
		SessionID: req.SessionID,
	})
	if err != nil {
		s.logger.Error("generate failed", logging.String("model", req.Model), logging.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":    false,
			"error":      err.Error(),
			"session_id": result.SessionID,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, generateResponse{
		Success:    true,
		Exists:     result.Exists,
		URL:        result.URL,
		SessionID:  result.SessionID,
		SizeBytes:  result.SizeBytes,
		DurationMS: result.Duration.Milliseconds(),
	})
}

type batchRequest struct {
	BatchSize   int `json:"batch_size"`
	MaxParallel int `json:"max_parallel"`
	MaxTasks    int `json:"max_tasks"`
}

// handleBatch starts a batch run in the background and returns
// immediately; progress is observable through /api/status.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req batchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	stats, err := s.store.TaskStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go func() {
		opts := orchestrator.RunOptions{
			BatchSize:   req.BatchSize,
			MaxParallel: req.MaxParallel,
			MaxTasks:    req.MaxTasks,
		}
		if _, err := s.orch.Run(context.Background(), opts); err != nil {
			s.logger.Error("background batch run failed", logging.Error(err))
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]any{
		"success":   true,
		"message":   "batch run started",
		"max_tasks": req.MaxTasks,
		"pending":   stats.Pending,
	})
}

type statusResponse struct {
	Pending         int     `json:"pending"`
	Processing      int     `json:"processing"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	Total           int     `json:"total_tasks"`
	PercentComplete float64 `json:"percent_complete"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.store.TaskStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		Pending:         stats.Pending,
		Processing:      stats.Processing,
		Completed:       stats.Completed,
		Failed:          stats.Failed,
		Total:           stats.Total(),
		PercentComplete: stats.PercentComplete(),
	})
}

type progressResponse struct {
	SessionID  string `json:"session_id"`
	Model      string `json:"model"`
	StepName   string `json:"step_name"`
	StepNumber int    `json:"step_number"`
	Percent    int    `json:"percent"`
	Completed  bool   `json:"completed"`
	Error      string `json:"error,omitempty"`
	ResultURL  string `json:"result_url,omitempty"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		s.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	progress, err := s.store.LatestProgressBySession(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if progress == nil {
		s.writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	s.writeJSON(w, http.StatusOK, progressResponse{
		SessionID:  progress.SessionID,
		Model:      progress.Model,
		StepName:   progress.StepName,
		StepNumber: progress.StepNumber,
		Percent:    progress.Percent,
		Completed:  progress.Completed,
		Error:      progress.ErrorDetail,
		ResultURL:  progress.ResultURL,
	})
}
