package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/taskflow/capability"
	apperrors "github.com/kbukum/taskflow/errors"
	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/orchestrator"
)

// Catalog lists the capabilities the API exposes.
type Catalog interface {
	List() []capability.Descriptor
}

// Handler serves the orchestrator over HTTP.
type Handler struct {
	orch    *orchestrator.Orchestrator
	catalog Catalog
	log     *logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(orch *orchestrator.Orchestrator, catalog Catalog, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Get("server")
	}
	return &Handler{orch: orch, catalog: catalog, log: log}
}

// Register mounts the API routes on r, normally Server.APIGroup().
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/execute", h.Execute)
	r.POST("/plan", h.Plan)
	r.GET("/capabilities", h.Capabilities)
}

// Execute runs a submitted batch. Task failures are part of a 200 response;
// only malformed submissions are rejected.
func (h *Handler) Execute(c *gin.Context) {
	batch, ok := h.bind(c)
	if !ok {
		return
	}
	res, err := h.orch.Run(c.Request.Context(), batch)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	h.log.WithContext(c.Request.Context()).Info("batch executed", map[string]interface{}{
		logger.FieldExecutionID: res.ExecutionID,
		"tasks":                 len(res.Values),
		"failed":                len(res.Errors()),
		logger.FieldDuration:    res.Duration.Milliseconds(),
	})
	RespondOK(c, res)
}

// Plan returns the batches a submission would run in, without running it.
func (h *Handler) Plan(c *gin.Context) {
	batch, ok := h.bind(c)
	if !ok {
		return
	}
	plan, err := h.orch.PlanBatch(batch)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, plan)
}

// Capabilities lists registered capabilities with their metadata.
func (h *Handler) Capabilities(c *gin.Context) {
	RespondOK(c, h.catalog.List())
}

func (h *Handler) bind(c *gin.Context) (orchestrator.Batch, bool) {
	var batch orchestrator.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return batch, false
	}
	return batch, true
}
