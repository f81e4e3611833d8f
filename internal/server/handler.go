package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"sheet-sync/internal/consistency"
	"sheet-sync/internal/models"
	"sheet-sync/internal/store"
)

// Operation names accepted in the request body.
const (
	OpLogin            = "login"
	OpSetupSheets      = "setupSheets"
	OpDeltaPull        = "delta_pull"
	OpDeltaPush        = "delta_push"
	OpConsistencyCheck = "consistency_check"
	OpInitChangeLog    = "init_change_log"
)

type request struct {
	Secret       string               `json:"secret"`
	Operation    string               `json:"operation"`
	Since        *models.Millis       `json:"since,omitempty"`
	Offset       *int                 `json:"offset,omitempty"`
	Limit        *int                 `json:"limit,omitempty"`
	Log          []models.ChangeEntry `json:"log,omitempty"`
	TableRecords models.TableRecords  `json:"tableRecords,omitempty"`
	Cleanup      bool                 `json:"cleanup,omitempty"`
}

type pullResponse struct {
	Success      bool                 `json:"success"`
	Log          []models.ChangeEntry `json:"log"`
	TotalRecords int                  `json:"totalRecords"`
	TableRecords models.TableRecords  `json:"tableRecords"`
}

type pushResponse struct {
	Success   bool     `json:"success"`
	Processed int      `json:"processed"`
	Failed    []string `json:"failed,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, "only POST requests are supported")
		return
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid request body")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.cfg.Secret)) != 1 {
		s.logger.Warnf("Rejected request with bad secret for operation %q", req.Operation)
		s.writeError(w, "invalid secret")
		return
	}

	switch req.Operation {
	case OpLogin:
		s.writeJSON(w, map[string]bool{"success": true})
	case OpSetupSheets:
		s.handleSetup(w)
	case OpDeltaPull:
		s.handlePull(w, &req)
	case OpDeltaPush:
		s.handlePush(w, &req)
	case OpConsistencyCheck:
		s.handleConsistency(w, &req)
	case OpInitChangeLog:
		s.handleInit(w)
	default:
		s.writeError(w, "unknown operation: "+req.Operation)
	}
}

func (s *Server) handleSetup(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := store.Setup(s.grid, s.reg, s.logger); err != nil {
		s.logger.Errorf("Setup failed: %v", err)
		s.writeError(w, err.Error())
		return
	}
	s.writeJSON(w, map[string]bool{"success": true})
}

// handlePull serves one page of the condensed change log with the records
// behind it. Page zero recondenses from the raw log first; later pages read
// the snapshot written then, so a client paging through a sync sees one
// consistent view even while other clients keep logging changes.
func (s *Server) handlePull(w http.ResponseWriter, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	since := models.Millis(models.EpochLowestMilliseconds)
	if req.Since != nil {
		since = *req.Since
	}
	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}
	limit := s.cfg.DefaultLimit
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	if offset == 0 {
		if _, err := s.log.WriteCondensed(since); err != nil {
			s.logger.Errorf("Condensation failed: %v", err)
			s.writeError(w, err.Error())
			return
		}
	}
	entries, total, err := s.log.ReadCondensed(offset, limit)
	if err != nil {
		s.logger.Errorf("Reading condensed log failed: %v", err)
		s.writeError(w, err.Error())
		return
	}
	records, kept, err := s.engine.FetchTableRecords(entries)
	if err != nil {
		s.logger.Errorf("Fetching records failed: %v", err)
		s.writeError(w, err.Error())
		return
	}
	s.writeJSON(w, pullResponse{
		Success:      true,
		Log:          kept,
		TotalRecords: total,
		TableRecords: records,
	})
}

func (s *Server) handlePush(w http.ResponseWriter, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, appliedEntries := s.engine.ApplyChanges(req.Log, req.TableRecords)
	if err := s.publisher.PublishChanges("delta_push", appliedEntries); err != nil {
		s.logger.Warnf("Failed to publish change notification: %v", err)
	}
	s.writeJSON(w, pushResponse{
		Success:   true,
		Processed: result.Upserts + result.Deletes,
		Failed:    result.Failed,
	})
}

func (s *Server) handleConsistency(w http.ResponseWriter, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.checker.CheckAll(req.Cleanup)
	if err != nil {
		s.logger.Errorf("Consistency check failed: %v", err)
		s.writeError(w, err.Error())
		return
	}
	if req.Cleanup {
		var removed []models.ChangeEntry
		now := models.NowMillis()
		for table, keys := range report.RemovedKeys {
			idx, ok := s.reg.IndexByName(table)
			if !ok {
				continue
			}
			for _, key := range keys {
				removed = append(removed, models.ChangeEntry{
					TableIndex: idx,
					TableKey:   key,
					ChangeMode: models.ChangeModeDelete,
					UpdatedAt:  now,
				})
			}
		}
		if err := s.publisher.PublishChanges("consistency_cleanup", removed); err != nil {
			s.logger.Warnf("Failed to publish cleanup notification: %v", err)
		}
	}
	s.writeJSON(w, struct {
		Success bool `json:"success"`
		*consistency.Report
	}{true, report})
}

func (s *Server) handleInit(w http.ResponseWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.log.InitializeFromDataTables()
	if err != nil {
		s.logger.Errorf("Change log initialization failed: %v", err)
		s.writeError(w, err.Error())
		return
	}
	s.writeJSON(w, map[string]any{"success": true, "initialized": n})
}

// writeError reports a failure in-band with HTTP 200. Sync clients treat any
// body with an error field as a failed operation.
func (s *Server) writeError(w http.ResponseWriter, msg string) {
	s.writeJSON(w, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("Failed to encode response: %v", err)
	}
}
