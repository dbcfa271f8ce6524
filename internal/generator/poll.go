package generator

import (
	"context"
	"fmt"

	"aigateway/internal/generator/models"
	pstrings "aigateway/pkg/platform/strings"
)

type rawPoll struct {
	Question models.FlexString  `json:"question"`
	Options  models.FlexStrings `json:"options"`
}

// GeneratePollOptions truncates the returned options to OptionCount.
func (s *Service) GeneratePollOptions(ctx context.Context, req *models.PollOptionsRequest) (*models.PollOptions, error) {
	return generate(ctx, s, models.KindPollOptions, req, func(raw rawPoll) (*models.PollOptions, error) {
		return normalizePoll(raw, req)
	})
}

func normalizePoll(raw rawPoll, req *models.PollOptionsRequest) (*models.PollOptions, error) {
	options := pstrings.DedupeAndTrim(raw.Options)
	if len(options) > req.OptionCount {
		options = options[:req.OptionCount]
	}
	if len(options) < models.MinOptionCount {
		return nil, fmt.Errorf("poll needs at least %d options, got %d", models.MinOptionCount, len(options))
	}
	question := raw.Question.String()
	if question == "" {
		question = req.Topic
	}
	return &models.PollOptions{Question: question, Options: options}, nil
}
