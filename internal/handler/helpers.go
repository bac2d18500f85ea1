package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/esperluet/cv-smarter/internal/filestore"
	"github.com/esperluet/cv-smarter/internal/graph"
	"github.com/esperluet/cv-smarter/internal/middleware"
	"github.com/esperluet/cv-smarter/internal/pipeline"
	"github.com/esperluet/cv-smarter/internal/pkg/errcode"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
	"github.com/esperluet/cv-smarter/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	var ingestErr *pipeline.IngestionFailedError
	var qualityErr *pipeline.LowQualityExtractionError
	var renderErr *pipeline.RenderingFailedError
	var persistErr *pipeline.ArtifactPersistenceError
	var promptErr *graph.PromptResolutionError
	var execErr *graph.ExecutionError
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, filestore.ErrFileTooLarge):
		response.Error(c, errcode.ErrInvalidFile, "file too large")
	case errors.Is(err, pipeline.ErrIngestorNotFound):
		response.Error(c, errcode.ErrUnsupportedFileType, "unsupported file type")
	case errors.Is(err, pipeline.ErrUnsupportedOutputFormat):
		response.Error(c, errcode.ErrUnsupportedOutputFormat, "unsupported output format")
	case errors.As(err, &qualityErr):
		response.Error(c, errcode.ErrLowQualityExtraction, "document text extraction quality too low")
	case errors.As(err, &ingestErr):
		response.Error(c, errcode.ErrIngestionFailed, "document ingestion failed")
	case errors.As(err, &renderErr):
		response.Error(c, errcode.ErrRenderingFailed, "artifact rendering failed")
	case errors.As(err, &persistErr):
		response.Error(c, errcode.ErrArtifactPersistence, "artifact persistence failed")
	case errors.As(err, &promptErr):
		response.Error(c, errcode.ErrPromptResolution, "prompt resolution failed")
	case errors.As(err, &execErr):
		response.Error(c, errcode.ErrGenerationFailed, "cv generation failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
