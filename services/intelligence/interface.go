package intelligence

import (
	"context"
	"fmt"

	"morningfocus/models"

	"go.uber.org/zap"
)

// FeedbackService coaches one reflection and suggests a focus duration.
type FeedbackService interface {
	GeneratePlan(ctx context.Context, in models.PlanInput) (*models.PlanOutput, error)
}

// PlanCache is optional; a nil cache disables reuse.
type PlanCache interface {
	Get(ctx context.Context, prompt string) (*models.PlanOutput, error)
	Set(ctx context.Context, prompt string, out *models.PlanOutput) error
}

// DefaultFeedbackService asks Generator for a plan. Without a Generator it
// answers locally with the language's default texts.
type DefaultFeedbackService struct {
	Generator Generator
	Cache     PlanCache
	Logger    *zap.Logger
}

func NewDefaultFeedbackService(gen Generator, cache PlanCache, logger *zap.Logger) *DefaultFeedbackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultFeedbackService{Generator: gen, Cache: cache, Logger: logger}
}

func (s *DefaultFeedbackService) GeneratePlan(ctx context.Context, in models.PlanInput) (*models.PlanOutput, error) {
	if len(in.RecentReflections) > RecentContextSize {
		in.RecentReflections = in.RecentReflections[:RecentContextSize]
	}

	if s.Generator == nil {
		out := ParsePlan("", in.Language)
		return &out, nil
	}

	prompt := BuildPrompt(in)
	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, prompt)
		if err != nil {
			s.Logger.Warn("plan cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	raw, err := s.Generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	out := ParsePlan(raw, in.Language)

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, prompt, &out); err != nil {
			s.Logger.Warn("plan cache write failed", zap.Error(err))
		}
	}
	return &out, nil
}
