package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"aigateway/internal/generator/models"
)

var errNoQuestions = errors.New("no usable quiz questions in response")

type rawQuestion struct {
	ID            models.FlexString  `json:"id"`
	Type          models.FlexString  `json:"type"`
	Question      models.FlexString  `json:"question"`
	Options       models.FlexStrings `json:"options"`
	CorrectAnswer models.FlexString  `json:"correctAnswer"`
	Answer        models.FlexString  `json:"answer"`
	Explanation   models.FlexString  `json:"explanation"`
	Points        models.FlexInt     `json:"points"`
}

// GenerateQuiz returns up to QuestionCount questions. Questions are decoded one by
// one so a malformed item is dropped without voiding the rest.
func (s *Service) GenerateQuiz(ctx context.Context, req *models.QuizRequest) ([]models.QuizQuestion, error) {
	return generate(ctx, s, models.KindQuiz, req, func(raw json.RawMessage) ([]models.QuizQuestion, error) {
		return normalizeQuiz(raw, req)
	})
}

func normalizeQuiz(raw json.RawMessage, req *models.QuizRequest) ([]models.QuizQuestion, error) {
	items, err := quizItems(raw)
	if err != nil {
		return nil, err
	}

	questions := make([]models.QuizQuestion, 0, min(len(items), req.QuestionCount))
	for _, item := range items {
		if len(questions) == req.QuestionCount {
			break
		}
		var rq rawQuestion
		if err := json.Unmarshal(item, &rq); err != nil {
			continue
		}
		if rq.Question.String() == "" {
			continue
		}
		questions = append(questions, fillQuestion(rq, len(questions), req.Difficulty))
	}
	if len(questions) == 0 {
		return nil, errNoQuestions
	}
	return questions, nil
}

// quizItems accepts a bare array or an object wrapping it under "questions".
func quizItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	var items []json.RawMessage
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding quiz array: %w", err)
		}
	case len(trimmed) > 0 && trimmed[0] == '{':
		var envelope struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decoding quiz object: %w", err)
		}
		items = envelope.Questions
	default:
		return nil, errNoQuestions
	}
	return items, nil
}

func fillQuestion(rq rawQuestion, index int, difficulty models.Difficulty) models.QuizQuestion {
	q := models.QuizQuestion{
		ID:            rq.ID.String(),
		Type:          strings.ToUpper(rq.Type.String()),
		Question:      rq.Question.String(),
		Options:       []string(rq.Options),
		CorrectAnswer: rq.CorrectAnswer.String(),
		Explanation:   rq.Explanation.String(),
		Points:        int(rq.Points),
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", index+1)
	}
	if q.Type == "" {
		q.Type = models.QuestionTypeMultipleChoice
	}
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = rq.Answer.String()
	}
	if q.CorrectAnswer == "" {
		q.CorrectAnswer = "0"
	}
	if q.Explanation == "" {
		q.Explanation = models.DefaultExplanation
	}
	if q.Points < 1 {
		q.Points = difficulty.DefaultPoints()
	}
	return q
}
