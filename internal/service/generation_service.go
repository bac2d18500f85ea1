package service

import (
	"context"
	"strings"

	"github.com/esperluet/cv-smarter/internal/graph"
	appErr "github.com/esperluet/cv-smarter/internal/pkg/errors"
	"github.com/esperluet/cv-smarter/internal/repo"
)

// GenerationService runs the generation graph against a stored ground
// source and a target job description.
type GenerationService struct {
	sources     *repo.GroundSourceRepo
	executor    *graph.Executor
	maxJDLength int
}

func NewGenerationService(sources *repo.GroundSourceRepo, executor *graph.Executor, maxJDLength int) *GenerationService {
	return &GenerationService{sources: sources, executor: executor, maxJDLength: maxJDLength}
}

func (s *GenerationService) Generate(ctx context.Context, userID, sourceID, jobDescription, graphID string) (*graph.Result, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, appErr.ErrInvalid
	}
	if s.maxJDLength > 0 && len(jobDescription) > s.maxJDLength {
		return nil, appErr.ErrInvalid
	}
	source, err := s.sources.Get(ctx, userID, sourceID)
	if err != nil {
		return nil, err
	}
	return s.executor.Generate(ctx, source.CanonicalText, jobDescription, graphID)
}
