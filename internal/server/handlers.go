package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Thulrus/ParallaxIndex/internal/app"
	"github.com/Thulrus/ParallaxIndex/internal/domain"
	apperrors "github.com/Thulrus/ParallaxIndex/internal/errors"
	"github.com/Thulrus/ParallaxIndex/internal/scheduler"
)

// sourceResponse decorates a source with its human-readable schedule.
type sourceResponse struct {
	*domain.Source
	ScheduleHuman string `json:"schedule_human"`
}

func toSourceResponse(source *domain.Source) sourceResponse {
	return sourceResponse{
		Source:        source,
		ScheduleHuman: scheduler.CronToHuman(source.Schedule),
	}
}

func sourceIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid source ID")
	}
	return id, nil
}

func mapSourceError(err error) error {
	if errors.Is(err, domain.ErrSourceNotFound) {
		return apperrors.NotFoundError("source not found")
	}
	return err
}

func (s *Server) handleHealth(c echo.Context) error {
	sources, err := s.app.ListSources(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":       "healthy",
		"source_count": len(sources),
	})
}

func (s *Server) handleListPlugins(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"plugins": s.app.Plugins()})
}

func (s *Server) handleGlobalSentiment(c echo.Context) error {
	global, err := s.aggregator.ComputeGlobalSentiment(c.Request().Context())
	if err != nil {
		return err
	}
	if global == nil {
		return c.JSON(http.StatusOK, map[string]string{"error": "No data available"})
	}
	return c.JSON(http.StatusOK, global)
}

func (s *Server) handleListSources(c echo.Context) error {
	sources, err := s.app.ListSources(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]sourceResponse, len(sources))
	for i := range sources {
		out[i] = toSourceResponse(&sources[i])
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": out})
}

func (s *Server) handleCreateSource(c echo.Context) error {
	var params app.SourceParams
	if err := c.Bind(&params); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	source, err := s.app.CreateSource(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSourceResponse(source))
}

func (s *Server) handleGetSource(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	source, err := s.app.GetSource(c.Request().Context(), id)
	if err != nil {
		return mapSourceError(err)
	}
	return c.JSON(http.StatusOK, toSourceResponse(source))
}

func (s *Server) handleUpdateSource(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	var params app.SourceParams
	if err := c.Bind(&params); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	source, err := s.app.UpdateSource(c.Request().Context(), id, params)
	if err != nil {
		return mapSourceError(err)
	}
	return c.JSON(http.StatusOK, toSourceResponse(source))
}

func (s *Server) handleDeleteSource(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	if err := s.app.DeleteSource(c.Request().Context(), id); err != nil {
		return mapSourceError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "source deleted"})
}

func (s *Server) handleToggleSource(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	source, err := s.app.ToggleSource(c.Request().Context(), id)
	if err != nil {
		return mapSourceError(err)
	}
	return c.JSON(http.StatusOK, toSourceResponse(source))
}

func (s *Server) handleHistory(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return apperrors.ValidationError("limit must be a non-negative integer")
		}
	}

	history, err := s.app.History(c.Request().Context(), id, limit)
	if err != nil {
		return mapSourceError(err)
	}
	if history == nil {
		history = []domain.Snapshot{}
	}
	return c.JSON(http.StatusOK, map[string]any{"source_id": id, "snapshots": history})
}

func (s *Server) handleTrend(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	window := 0
	if raw := c.QueryParam("window"); raw != "" {
		window, err = strconv.Atoi(raw)
		if err != nil || window < 0 {
			return apperrors.ValidationError("window must be a non-negative integer")
		}
	}

	trend, ok, err := s.aggregator.SentimentTrend(c.Request().Context(), id, window)
	if err != nil {
		return mapSourceError(err)
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"source_id": id, "trend": nil, "message": "insufficient data"})
	}
	return c.JSON(http.StatusOK, map[string]any{"source_id": id, "trend": trend})
}

func (s *Server) handleContribution(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	contribution, ok, err := s.aggregator.ComputeSourceContribution(c.Request().Context(), id)
	if err != nil {
		return mapSourceError(err)
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"source_id": id, "contribution": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"source_id": id, "contribution": contribution})
}

func (s *Server) handleHealthcheck(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	healthy, message, err := s.app.Healthcheck(c.Request().Context(), id)
	if err != nil {
		return mapSourceError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"healthy": healthy, "message": message})
}

func (s *Server) handleCollectNow(c echo.Context) error {
	id, err := sourceIDParam(c)
	if err != nil {
		return err
	}

	if err := s.app.CollectNow(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "collection completed"})
}

type previewRequest struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout"`
}

func (s *Server) handlePreviewEndpoint(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.URL == "" {
		return apperrors.ValidationError("url is required")
	}

	result := s.prober.Probe(c.Request().Context(), req.URL, time.Duration(req.Timeout)*time.Second)
	return c.JSON(http.StatusOK, result)
}
