package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"tracker/internal/models"
	"tracker/internal/storage"
	"tracker/internal/timelog"
)

const dateLayout = "2006-01-02"

// time_logged is either a JSON number of minutes or a duration string.
type createTimeLogRequest struct {
	Task       *int64          `json:"task"`
	TimeLogged json.RawMessage `json:"time_logged"`
	Date       *string         `json:"date"`
}

type updateTimeLogRequest struct {
	Task       *int64          `json:"task"`
	TimeLogged json.RawMessage `json:"time_logged"`
	Date       *string         `json:"date"`
}

// handleListTimeLogs lists time logs, optionally filtered by ?task= and ?user=.
func (s *Server) handleListTimeLogs(c *gin.Context) {
	var filter storage.TimeLogFilter
	for param, dst := range map[string]**int64{"task": &filter.TaskID, "user": &filter.UserID} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.respondError(c, models.NewValidationError(param, "A valid integer is required."))
			return
		}
		*dst = &id
	}

	logs, err := s.store.ListTimeLogs(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timelogs": logs})
}

// handleCreateTimeLog logs time on a task for the current user.
func (s *Server) handleCreateTimeLog(c *gin.Context) {
	var req createTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}
	if req.Task == nil {
		s.respondError(c, models.NewValidationError("task", "You have to assign issue first."))
		return
	}
	if len(req.TimeLogged) == 0 || string(req.TimeLogged) == "null" {
		s.respondError(c, models.NewValidationError(timelog.Field, "This field is required."))
		return
	}
	minutes, err := parseTimeLogged(req.TimeLogged)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if req.Date == nil {
		s.respondError(c, models.NewValidationError("date", "This field is required."))
		return
	}
	date, err := parseDate(*req.Date)
	if err != nil {
		s.respondError(c, err)
		return
	}

	log, err := s.store.CreateTimeLog(c.Request.Context(), storage.NewTimeLog{
		TaskID:  req.Task,
		UserID:  currentUser(c).ID,
		Minutes: minutes,
		Date:    date,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"timelog": log})
}

func (s *Server) handleGetTimeLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	log, err := s.store.GetTimeLog(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timelog": log})
}

// handleUpdateTimeLog changes a time log of the current user.
func (s *Server) handleUpdateTimeLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, err)
		return
	}

	upd := storage.TimeLogUpdate{TaskID: req.Task}
	if len(req.TimeLogged) > 0 {
		minutes, err := parseTimeLogged(req.TimeLogged)
		if err != nil {
			s.respondError(c, err)
			return
		}
		upd.Minutes = &minutes
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			s.respondError(c, err)
			return
		}
		upd.Date = &date
	}

	log, err := s.store.UpdateTimeLog(c.Request.Context(), id, currentUser(c).ID, upd)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"timelog": log})
}

func (s *Server) handleDeleteTimeLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTimeLog(c.Request.Context(), id, currentUser(c).ID); err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusNoContent, nil)
}

// parseTimeLogged normalizes a JSON string or number into minutes.
func parseTimeLogged(raw json.RawMessage) (decimal.Decimal, error) {
	var text string
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, models.NewValidationError(timelog.Field, timelog.MsgWrongValues)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return decimal.Zero, models.NewValidationError(timelog.Field, timelog.MsgWrongValues)
		}
		text = n.String()
	}
	return timelog.Normalize(text)
}

func parseDate(raw string) (string, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", models.NewValidationError("date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	return d.Format(dateLayout), nil
}
