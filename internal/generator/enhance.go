package generator

import (
	"context"
	"errors"

	"aigateway/internal/generator/models"
)

type rawEnhanced struct {
	Enhanced    models.FlexString  `json:"enhanced"`
	Suggestions models.FlexStrings `json:"suggestions"`
}

func (s *Service) EnhanceContent(ctx context.Context, req *models.EnhanceRequest) (*models.EnhancedContent, error) {
	return generate(ctx, s, models.KindEnhance, req, func(raw rawEnhanced) (*models.EnhancedContent, error) {
		if raw.Enhanced.String() == "" {
			return nil, errors.New("enhanced content is empty")
		}
		return &models.EnhancedContent{
			Enhanced:    raw.Enhanced.String(),
			Suggestions: nonNil(raw.Suggestions),
		}, nil
	})
}
