package httpapi

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"pulsek12.com/pulse/internal/db"
)

type storyStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleStoryStatus(c echo.Context) error {
	storyID, err := parseStoryID(c)
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	var req storyStatusRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be JSON"})
	}
	status := strings.TrimSpace(strings.ToLower(req.Status))

	if err := s.pool.SetStoryStatus(c.Request().Context(), storyID, status); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Story not found")
		}
		if strings.Contains(err.Error(), "invalid story status") {
			return failValidation(c, map[string]string{"status": "must be one of active, pinned, hidden"})
		}
		s.logger.Error().Err(err).Int64("story_id", storyID).Msg("set story status failed")
		return internalError(c, "Failed to update story status")
	}

	return success(c, map[string]any{
		"story_id": storyID,
		"status":   status,
	})
}

type storyOverrideRequest struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

// handleStoryOverride sets or clears the editorial title/summary. An
// empty string clears the override, a missing field leaves it unchanged.
func (s *Server) handleStoryOverride(c echo.Context) error {
	storyID, err := parseStoryID(c)
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	var req storyOverrideRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be JSON"})
	}
	if req.Title == nil && req.Summary == nil {
		return failValidation(c, map[string]string{"body": "title or summary is required"})
	}

	if err := s.pool.SetStoryEditorOverride(c.Request().Context(), storyID, req.Title, req.Summary); err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Story not found")
		}
		s.logger.Error().Err(err).Int64("story_id", storyID).Msg("set editor override failed")
		return internalError(c, "Failed to update story")
	}

	return success(c, map[string]any{
		"story_id": storyID,
	})
}

type storyMergeRequest struct {
	TargetID int64 `json:"target_id"`
	SourceID int64 `json:"source_id"`
}

func (s *Server) handleStoryMerge(c echo.Context) error {
	var req storyMergeRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, map[string]string{"body": "must be JSON"})
	}
	if req.TargetID <= 0 || req.SourceID <= 0 {
		return failValidation(c, map[string]string{"body": "target_id and source_id are required"})
	}
	if req.TargetID == req.SourceID {
		return failValidation(c, map[string]string{"source_id": "must differ from target_id"})
	}

	if err := s.pool.MergeStories(c.Request().Context(), req.TargetID, req.SourceID); err != nil {
		s.logger.Error().Err(err).
			Int64("target_id", req.TargetID).
			Int64("source_id", req.SourceID).
			Msg("manual story merge failed")
		return internalError(c, "Failed to merge stories")
	}

	return success(c, map[string]any{
		"target_id": req.TargetID,
		"merged_id": req.SourceID,
	})
}
