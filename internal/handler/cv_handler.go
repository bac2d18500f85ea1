package handler

import (
	"mime"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/esperluet/cv-smarter/internal/pipeline"
	"github.com/esperluet/cv-smarter/internal/pkg/errcode"
	"github.com/esperluet/cv-smarter/internal/pkg/response"
	"github.com/esperluet/cv-smarter/internal/service"
)

type CVHandler struct {
	cv *service.CVService
}

func NewCVHandler(cv *service.CVService) *CVHandler {
	return &CVHandler{cv: cv}
}

type processResponse struct {
	SchemaVersion   string                      `json:"schema_version"`
	SourceMediaType string                      `json:"source_media_type"`
	Text            string                      `json:"text"`
	Metadata        map[string]string           `json:"metadata"`
	Report          *reportResponse             `json:"report"`
	Artifacts       []pipeline.RenderedArtifact `json:"artifacts"`
}

func (h *CVHandler) Process(c *gin.Context) {
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

	result, err := h.cv.Process(c.Request.Context(), file.Filename, contentType, opened)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, processResponse{
		SchemaVersion:   result.CanonicalDocument.SchemaVersion,
		SourceMediaType: result.CanonicalDocument.SourceMediaType,
		Text:            result.CanonicalDocument.Text,
		Metadata:        result.CanonicalDocument.Metadata,
		Report:          newReportResponse(&result.Report),
		Artifacts:       result.Artifacts,
	})
}
