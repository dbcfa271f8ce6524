package generator

import (
	"context"
	"errors"
	"strings"

	"aigateway/internal/generator/models"
)

const readingWordsPerMinute = 200

type rawLesson struct {
	Title             models.FlexString  `json:"title"`
	Summary           models.FlexString  `json:"summary"`
	Content           models.FlexString  `json:"content"`
	KeyPoints         models.FlexStrings `json:"keyPoints"`
	EstimatedReadTime models.FlexInt     `json:"estimatedReadTime"`
}

func (s *Service) GenerateLesson(ctx context.Context, req *models.LessonRequest) (*models.Lesson, error) {
	return generate(ctx, s, models.KindLesson, req, normalizeLesson)
}

func normalizeLesson(raw rawLesson) (*models.Lesson, error) {
	lesson := &models.Lesson{
		Title:             raw.Title.String(),
		Summary:           raw.Summary.String(),
		Content:           raw.Content.String(),
		KeyPoints:         nonNil(raw.KeyPoints),
		EstimatedReadTime: int(raw.EstimatedReadTime),
	}
	if lesson.Title == "" || lesson.Content == "" {
		return nil, errors.New("lesson is missing title or content")
	}
	if lesson.EstimatedReadTime < 1 {
		words := len(strings.Fields(lesson.Content))
		lesson.EstimatedReadTime = max(1, (words+readingWordsPerMinute-1)/readingWordsPerMinute)
	}
	return lesson, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
