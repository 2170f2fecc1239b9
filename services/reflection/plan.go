package reflection

import (
	"context"
	"strings"

	"morningfocus/models"
	"morningfocus/services"
	"morningfocus/services/intelligence"
)

// Plan asks for coaching on req.TopTask and saves the task, feedback and
// duration. A duration in the request wins over the suggested one.
func (s *DefaultReflectionService) Plan(ctx context.Context, id string, req models.PlanTaskRequest) (*models.PlanTaskResponse, error) {
	topTask := strings.TrimSpace(req.TopTask)
	if topTask == "" {
		return nil, services.Invalid("topTask", "topTask is required")
	}
	if req.DurationMinutes != nil && *req.DurationMinutes <= 0 {
		return nil, services.Invalid("durationMinutes", "durationMinutes must be a positive integer")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	recent, err := s.Reflections.List(ctx, intelligence.RecentContextSize)
	if err != nil {
		return nil, err
	}
	language := models.LanguageKorean
	if st, err := s.Settings.Get(ctx); err == nil && st.Language != "" {
		language = st.Language
	}

	in := models.PlanInput{
		ReflectionText: current.ReflectionText,
		TopTask:        topTask,
		Language:       language,
	}
	for _, r := range recent {
		in.RecentReflections = append(in.RecentReflections, models.RecentReflection{
			Date:           r.Date,
			ReflectionText: r.ReflectionText,
			TopTask:        r.TopTask,
		})
	}

	out, err := s.Feedback.GeneratePlan(ctx, in)
	if err != nil {
		return nil, err
	}

	duration := out.SuggestedDurationMinutes
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}

	updated, err := s.Reflections.SetPlannedTask(ctx, id, topTask, out.AIFeedback, duration)
	if err != nil {
		return nil, err
	}
	return &models.PlanTaskResponse{
		Reflection:               updated,
		SuggestedDurationMinutes: duration,
		AIFeedback:               out.AIFeedback,
		FollowUpQuestion:         out.FollowUpQuestion,
	}, nil
}
