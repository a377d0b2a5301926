package httpapi

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/globaltime"
	"pulsek12.com/pulse/internal/ranking"
	"pulsek12.com/pulse/internal/textnorm"
)

const (
	defaultStoryLimit   = 20
	maxStoryLimit       = 100
	defaultArticleLimit = 50
	maxArticleLimit     = 200
	rankingWindowDays   = 7
	rankingPoolLimit    = 200
)

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "pulse",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStories(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultStoryLimit, 1, maxStoryLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	var audience ranking.Audience
	if raw := strings.TrimSpace(c.QueryParam("audience")); raw != "" {
		parsed, ok := ranking.ParseAudience(raw)
		if !ok {
			return failValidation(c, map[string]string{"audience": "must be one of teachers, admins, edtech"})
		}
		audience = parsed
	}

	rows, err := s.pool.ListStoriesForRanking(c.Request().Context(), rankingWindowDays, rankingPoolLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query stories for ranking failed")
		return internalError(c, "Failed to load stories")
	}

	stories := s.engine.Select(c.Request().Context(), rows, ranking.Options{
		Limit:    limit,
		Audience: audience,
	})

	return success(c, map[string]any{
		"items":    stories,
		"count":    len(stories),
		"audience": audience,
	})
}

func (s *Server) handleStoryDetail(c echo.Context) error {
	storyID, err := parseStoryID(c)
	if err != nil {
		return failValidation(c, map[string]string{"id": err.Error()})
	}

	story, err := s.pool.GetStory(c.Request().Context(), storyID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return failNotFound(c, "Story not found")
		}
		s.logger.Error().Err(err).Int64("story_id", storyID).Msg("query story failed")
		return internalError(c, "Failed to load story")
	}

	members, err := s.pool.ListStoryMembers(c.Request().Context(), storyID)
	if err != nil {
		s.logger.Error().Err(err).Int64("story_id", storyID).Msg("query story members failed")
		return internalError(c, "Failed to load story members")
	}

	return success(c, map[string]any{
		"story":   story,
		"members": members,
	})
}

func (s *Server) handleArticles(c echo.Context) error {
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultArticleLimit, 1, maxArticleLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	rows, err := s.pool.ListRecentArticles(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query recent articles failed")
		return internalError(c, "Failed to load articles")
	}

	items := make([]db.RecentArticle, 0, len(rows))
	for _, row := range rows {
		if textnorm.IsWireTitle(row.Title) {
			continue
		}
		items = append(items, row)
	}

	return success(c, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	since := globaltime.UTC().Add(-24 * time.Hour)
	stats, err := s.pool.QueryPipelineStats(c.Request().Context(), since)
	if err != nil {
		s.logger.Error().Err(err).Msg("query pipeline stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleFeeds(c echo.Context) error {
	feeds, err := s.pool.ListFeedHealth(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query feed health failed")
		return internalError(c, "Failed to load feeds")
	}
	return success(c, map[string]any{
		"items": feeds,
		"count": len(feeds),
	})
}

func parseStoryID(c echo.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("id"))
	if raw == "" {
		return 0, errors.New("is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return id, nil
}
