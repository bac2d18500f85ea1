package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/esperluet/cv-smarter/internal/graph"
	"github.com/esperluet/cv-smarter/internal/pkg/errcode"
	"github.com/esperluet/cv-smarter/internal/pkg/response"
	"github.com/esperluet/cv-smarter/internal/service"
)

type GenerationHandler struct {
	generation *service.GenerationService
}

func NewGenerationHandler(generation *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generation: generation}
}

type generateRequest struct {
	JobDescription string `json:"job_description"`
	GraphID        string `json:"graph_id"`
}

type generateResponse struct {
	RunID        string                    `json:"run_id"`
	GraphID      string                    `json:"graph_id"`
	GraphVersion string                    `json:"graph_version"`
	FinalCV      string                    `json:"final_cv"`
	Orientation  graph.OrientationDecision `json:"orientation"`
	StageTraces  []graph.StageTrace        `json:"stage_traces"`
}

func (h *GenerationHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.generation.Generate(c.Request.Context(), getUserID(c), c.Param("id"), req.JobDescription, req.GraphID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, generateResponse{
		RunID:        result.RunID,
		GraphID:      result.GraphID,
		GraphVersion: result.GraphVersion,
		FinalCV:      result.FinalCV,
		Orientation:  result.Orientation,
		StageTraces:  result.StageTraces,
	})
}
