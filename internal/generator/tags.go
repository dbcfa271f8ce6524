package generator

import (
	"context"
	"slices"

	"aigateway/internal/generator/models"
	pstrings "aigateway/pkg/platform/strings"
)

type rawTags struct {
	Tags models.FlexStrings `json:"tags"`
}

// SuggestTags normalizes tags, drops ones the caller already has and truncates to
// MaxTags. An empty list is a valid result.
func (s *Service) SuggestTags(ctx context.Context, req *models.TagsRequest) (*models.TagSuggestions, error) {
	return generate(ctx, s, models.KindTags, req, func(raw rawTags) (*models.TagSuggestions, error) {
		return normalizeTags(raw, req), nil
	})
}

func normalizeTags(raw rawTags, req *models.TagsRequest) *models.TagSuggestions {
	tags := pstrings.DedupeFunc(raw.Tags, models.NormalizeTag)
	tags = slices.DeleteFunc(tags, func(t string) bool {
		return slices.Contains(req.ExistingTags, t)
	})
	if len(tags) > req.MaxTags {
		tags = tags[:req.MaxTags]
	}
	return &models.TagSuggestions{Tags: tags}
}
