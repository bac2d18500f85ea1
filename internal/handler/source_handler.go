package handler

import (
	"mime"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/esperluet/cv-smarter/internal/model"
	"github.com/esperluet/cv-smarter/internal/pipeline"
	"github.com/esperluet/cv-smarter/internal/pkg/errcode"
	"github.com/esperluet/cv-smarter/internal/pkg/response"
	"github.com/esperluet/cv-smarter/internal/service"
)

type SourceHandler struct {
	sources *service.SourceService
}

func NewSourceHandler(sources *service.SourceService) *SourceHandler {
	return &SourceHandler{sources: sources}
}

type sourceResponse struct {
	*model.GroundSource
	Report *reportResponse `json:"report,omitempty"`
}

type reportResponse struct {
	EngineName     string   `json:"engine_name"`
	EngineVersion  string   `json:"engine_version"`
	EngineAttempts []string `json:"engine_attempts"`
	QualityScore   *float64 `json:"quality_score"`
	QualityFlags   []string `json:"quality_flags"`
	Warnings       []string `json:"warnings"`
}

func newReportResponse(report *pipeline.ProcessingReport) *reportResponse {
	if report == nil {
		return nil
	}
	return &reportResponse{
		EngineName:     report.EngineName,
		EngineVersion:  report.EngineVersion,
		EngineAttempts: report.EngineAttempts,
		QualityScore:   report.QualityScore,
		QualityFlags:   report.QualityFlags,
		Warnings:       report.Warnings,
	}
}

func (h *SourceHandler) Create(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(file.Filename))
	}

	source, report, err := h.sources.Create(c.Request.Context(), getUserID(c), service.SourceUpload{
		Name:             c.PostForm("name"),
		OriginalFilename: file.Filename,
		ContentType:      contentType,
		Content:          opened,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sourceResponse{GroundSource: source, Report: newReportResponse(report)})
}

func (h *SourceHandler) List(c *gin.Context) {
	sources, err := h.sources.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if sources == nil {
		sources = []*model.GroundSource{}
	}
	response.Success(c, gin.H{"sources": sources})
}

func (h *SourceHandler) Get(c *gin.Context) {
	source, err := h.sources.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, source)
}

func (h *SourceHandler) Delete(c *gin.Context) {
	if err := h.sources.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
