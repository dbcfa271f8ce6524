package generator

import (
	"context"
	"errors"

	"aigateway/internal/generator/models"
)

type rawMilestones struct {
	Milestones []struct {
		Title        models.FlexString  `json:"title"`
		Description  models.FlexString  `json:"description"`
		DueInDays    models.FlexInt     `json:"dueInDays"`
		Deliverables models.FlexStrings `json:"deliverables"`
	} `json:"milestones"`
}

// GenerateMilestones returns the milestones the model produced. The count is
// requested in the prompt and not enforced.
func (s *Service) GenerateMilestones(ctx context.Context, req *models.MilestonesRequest) (*models.Milestones, error) {
	return generate(ctx, s, models.KindMilestones, req, func(raw rawMilestones) (*models.Milestones, error) {
		return normalizeMilestones(raw, req)
	})
}

func normalizeMilestones(raw rawMilestones, req *models.MilestonesRequest) (*models.Milestones, error) {
	out := &models.Milestones{Milestones: make([]models.Milestone, 0, len(raw.Milestones))}
	totalDays := req.DurationWeeks * 7
	for _, m := range raw.Milestones {
		if m.Title.String() == "" {
			continue
		}
		due := int(m.DueInDays)
		if due < 1 {
			// Spread undated milestones evenly over the project.
			due = totalDays * (len(out.Milestones) + 1) / max(len(raw.Milestones), 1)
		}
		out.Milestones = append(out.Milestones, models.Milestone{
			Title:        m.Title.String(),
			Description:  m.Description.String(),
			DueInDays:    max(due, 1),
			Deliverables: nonNil(m.Deliverables),
		})
	}
	if len(out.Milestones) == 0 {
		return nil, errors.New("no milestones in response")
	}
	return out, nil
}
