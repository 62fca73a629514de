package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simaogato/flowviz/internal/adapter/render"
	"github.com/simaogato/flowviz/internal/domain"
	"github.com/simaogato/flowviz/internal/infrastructure/logger"
	"github.com/simaogato/flowviz/internal/usecase/legend"
	"github.com/simaogato/flowviz/internal/usecase/simulation"
	"github.com/simaogato/flowviz/internal/usecase/table"
)

// Handler serves the diagram views over HTTP
type Handler struct {
	Simulation *simulation.SimulationService
	Table      *table.TableService
	Logger     *zap.Logger
	Title      string
}

// NewHandler creates a new Handler instance
func NewHandler(sim *simulation.SimulationService, tableService *table.TableService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Simulation: sim,
		Table:      tableService,
		Logger:     log.Named("http"),
		Title:      "Fluxo de dinheiro",
	}
}

// MoveRequest is the body of a drag
type MoveRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// LegendResponse carries the legend items and the on-stage panel layout
type LegendResponse struct {
	Title string                 `json:"title"`
	Items []domain.CategoryStyle `json:"items"`
	Group legend.Group           `json:"group"`
}

func (h *Handler) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     err.Error(),
		RequestID: c.GetString("request_id"),
	})
}

func (h *Handler) legendGroup() *legend.Group {
	g := h.Simulation.Legend.Group()
	return &g
}

// Index renders the full page: stage, legend and transfer table
func (h *Handler) Index(c *gin.Context) {
	svg, err := render.SVG(h.Simulation.Snapshot(), h.legendGroup())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	legendHTML, err := h.Simulation.Legend.RenderHTML()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	// the table is independent from the stage; an unavailable document
	// leaves it empty
	var tableHTML string
	if rows, err := h.Table.Rows(c.Request.Context()); err != nil {
		logger.FromGin(c).Warn("table unavailable", zap.Error(err))
	} else if tableHTML, err = table.RenderHTML(rows); err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	page, err := render.Page(render.PageData{
		Title:  h.Title,
		Scene:  template.HTML(svg),
		Legend: template.HTML(legendHTML),
		Table:  template.HTML(tableHTML),
	})
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// SceneSVG renders the current frame
func (h *Handler) SceneSVG(c *gin.Context) {
	svg, err := render.SVG(h.Simulation.Snapshot(), h.legendGroup())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

// Scene returns the current frame as JSON
func (h *Handler) Scene(c *gin.Context) {
	c.JSON(http.StatusOK, h.Simulation.Snapshot())
}

// Stream pushes a snapshot on every redraw as server-sent events
func (h *Handler) Stream(c *gin.Context) {
	updates, unsubscribe := h.Simulation.Layer.Subscribe()
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	log := logger.FromGin(c)
	log.Debug("scene stream opened")

	c.SSEvent(render.SceneEvent, h.Simulation.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("scene stream closed")
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent(render.SceneEvent, h.Simulation.Snapshot())
			c.Writer.Flush()
		}
	}
}

// MoveEntity drags an entity; links and label follow it
func (h *Handler) MoveEntity(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	entity, err := h.Simulation.MoveEntity(c.Param("id"), domain.Point{X: *req.X, Y: *req.Y})
	switch {
	case errors.Is(err, domain.ErrEntityNotFound):
		h.fail(c, http.StatusNotFound, err)
		return
	case errors.Is(err, domain.ErrNotReady):
		h.fail(c, http.StatusConflict, err)
		return
	case err != nil:
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

// Legend returns the category key
func (h *Handler) Legend(c *gin.Context) {
	c.JSON(http.StatusOK, LegendResponse{
		Title: legend.Title,
		Items: h.Simulation.Legend.Items(),
		Group: *h.legendGroup(),
	})
}

// LegendHTML renders the contents of the #legenda container
func (h *Handler) LegendHTML(c *gin.Context) {
	out, err := h.Simulation.Legend.RenderHTML()
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// TableRows returns the transfer table
func (h *Handler) TableRows(c *gin.Context) {
	rows, err := h.Table.Rows(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// TableHTML renders the rows of the #tabela-orcamento body
func (h *Handler) TableHTML(c *gin.Context) {
	rows, err := h.Table.Rows(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusBadGateway, err)
		return
	}
	out, err := table.RenderHTML(rows)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// Health reports the startup progress; it fails once startup has failed
func (h *Handler) Health(c *gin.Context) {
	status := h.Simulation.Status()
	code := http.StatusOK
	if status.Error != "" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
