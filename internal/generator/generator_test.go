package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aigateway/internal/generator/mocks"
	"aigateway/internal/generator/models"
	"aigateway/internal/llm"
	dErrors "aigateway/pkg/domain-errors"
)

//go:generate mockgen -source=generator.go -destination=mocks/mocks.go -package=mocks JSONGenerator
type GeneratorSuite struct {
	suite.Suite
	ctx     context.Context
	llm     *mocks.MockJSONGenerator
	service *Service
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorSuite))
}

func (s *GeneratorSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.ctx = context.Background()
	s.llm = mocks.NewMockJSONGenerator(ctrl)
	s.service = New(s.llm, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// reply makes the mocked provider answer with body, decoded the way the client does.
func (s *GeneratorSuite) reply(body string) *gomock.Call {
	return s.llm.EXPECT().
		GenerateJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, out any) error {
			return json.Unmarshal([]byte(body), out)
		}).
		Times(1)
}

func (s *GeneratorSuite) TestQuiz() {
	s.Run("bare array is truncated and defaults filled", func() {
		s.reply(`[
			{"question":"2+2?","options":["3","4"],"correctAnswer":1,"points":5},
			{"question":"Capital of France?","options":["Paris","Rome"],"correctAnswer":"0","explanation":"Paris.","id":"custom"},
			{"question":"Extra?","correctAnswer":"0"}
		]`)
		req := &models.QuizRequest{Topic: "Basics", QuestionCount: 2}
		s.Require().NoError(req.Validate())

		got, err := s.service.GenerateQuiz(s.ctx, req)
		s.Require().NoError(err)
		s.Require().Len(got, 2)

		s.Equal("q1", got[0].ID)
		s.Equal(models.QuestionTypeMultipleChoice, got[0].Type)
		s.Equal("1", got[0].CorrectAnswer)
		s.Equal(5, got[0].Points)
		s.Equal(models.DefaultExplanation, got[0].Explanation)

		s.Equal("custom", got[1].ID)
		s.Equal(models.DifficultyMedium.DefaultPoints(), got[1].Points)
		s.Equal("Paris.", got[1].Explanation)
	})

	s.Run("questions envelope and malformed items", func() {
		s.reply(`{"questions":[
			"not an object",
			{"question":"Which is a prime?","options":["4","7"]},
			{"question":""},
			{"question":"Is water wet?","type":"true_false","answer":"True","points":"0"}
		]}`)
		req := &models.QuizRequest{Topic: "Mixed", Difficulty: "hard"}
		s.Require().NoError(req.Validate())

		got, err := s.service.GenerateQuiz(s.ctx, req)
		s.Require().NoError(err)
		s.Require().Len(got, 2)

		s.Equal("q1", got[0].ID)
		s.Equal("0", got[0].CorrectAnswer, "missing answer defaults to first option")
		s.Equal(3, got[0].Points)

		s.Equal("q2", got[1].ID)
		s.Equal("TRUE_FALSE", got[1].Type)
		s.Equal("True", got[1].CorrectAnswer)
		s.Equal(3, got[1].Points)
	})

	s.Run("no usable questions is a generation failure", func() {
		s.reply(`{"title":"nothing here"}`)
		req := &models.QuizRequest{Topic: "Empty"}
		s.Require().NoError(req.Validate())

		got, err := s.service.GenerateQuiz(s.ctx, req)
		s.Nil(got)
		s.True(dErrors.HasCode(err, dErrors.CodeGeneration))
	})

	s.Run("prompt carries topic, count and difficulty", func() {
		var system, user string
		s.llm.EXPECT().GenerateJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, sys, usr string, out any) error {
				system, user = sys, usr
				return json.Unmarshal([]byte(`[{"question":"q"}]`), out)
			})
		req := &models.QuizRequest{Topic: "Volcanoes", QuestionCount: 7, Difficulty: "easy", GradeLevel: "Grade 6"}
		s.Require().NoError(req.Validate())

		_, err := s.service.GenerateQuiz(s.ctx, req)
		s.Require().NoError(err)
		s.Contains(system, "JSON")
		s.Contains(user, `7 easy quiz questions about "Volcanoes"`)
		s.Contains(user, "Grade 6")
	})
}

func (s *GeneratorSuite) TestLesson() {
	s.Run("read time computed when missing", func() {
		s.reply(`{"title":"Cells","summary":"s","content":"word word word","keyPoints":["a"]}`)
		req := &models.LessonRequest{Topic: "Cells", Length: "short"}
		s.Require().NoError(req.Validate())

		got, err := s.service.GenerateLesson(s.ctx, req)
		s.Require().NoError(err)
		s.Equal("Cells", got.Title)
		s.Equal(1, got.EstimatedReadTime)
		s.Equal([]string{"a"}, got.KeyPoints)
	})

	s.Run("missing content fails", func() {
		s.reply(`{"title":"Cells"}`)
		req := &models.LessonRequest{Topic: "Cells"}
		s.Require().NoError(req.Validate())

		_, err := s.service.GenerateLesson(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeGeneration))
	})
}

func (s *GeneratorSuite) TestPollOptionsTruncated() {
	s.reply(`{"question":"Favourite season?","options":["Spring","Summer","Autumn","Winter","Monsoon"]}`)
	req := &models.PollOptionsRequest{Topic: "Seasons", OptionCount: 3}
	s.Require().NoError(req.Validate())

	got, err := s.service.GeneratePollOptions(s.ctx, req)
	s.Require().NoError(err)
	s.Equal([]string{"Spring", "Summer", "Autumn"}, got.Options)
}

func (s *GeneratorSuite) TestPollOptionsTooFew() {
	s.reply(`{"question":"?","options":["Only one"]}`)
	req := &models.PollOptionsRequest{Topic: "Seasons"}
	s.Require().NoError(req.Validate())

	_, err := s.service.GeneratePollOptions(s.ctx, req)
	s.True(dErrors.HasCode(err, dErrors.CodeGeneration))
}

func (s *GeneratorSuite) TestCourseOutlineAcceptsAnySectionCount() {
	s.reply(`{"title":"Astronomy","description":"d","sections":[{"title":"Stars","lessons":["Birth","Death"]}]}`)
	req := &models.CourseRequest{Topic: "Astronomy", WeekCount: 6}
	s.Require().NoError(req.Validate())

	got, err := s.service.GenerateCourseOutline(s.ctx, req)
	s.Require().NoError(err)
	s.Len(got.Sections, 1)
	s.Equal([]string{"Birth", "Death"}, got.Sections[0].Lessons)
}

func (s *GeneratorSuite) TestEnhanceContent() {
	s.reply(`{"enhanced":"Better text.","suggestions":null}`)
	req := &models.EnhanceRequest{Content: "better txt"}
	s.Require().NoError(req.Validate())

	got, err := s.service.EnhanceContent(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("Better text.", got.Enhanced)
	s.NotNil(got.Suggestions)
}

func (s *GeneratorSuite) TestAnnouncementPriorityFallsBackToUrgency() {
	var user string
	s.llm.EXPECT().GenerateJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, usr string, out any) error {
			user = usr
			return json.Unmarshal([]byte(`{"title":"Closed","content":"School is closed.","priority":"critical"}`), out)
		})
	req := &models.AnnouncementRequest{Notes: "snow day", Urgency: "HIGH"}
	s.Require().NoError(req.Validate())

	got, err := s.service.GenerateAnnouncement(s.ctx, req)
	s.Require().NoError(err)
	s.Equal("high", got.Priority)
	s.Contains(user, "URGENT")
}

func (s *GeneratorSuite) TestMilestones() {
	s.reply(`{"milestones":[{"title":"Research","dueInDays":"7"},{"title":"Build"}]}`)
	req := &models.MilestonesRequest{ProjectTitle: "Robot", Description: "Line follower", DurationWeeks: 2}
	s.Require().NoError(req.Validate())

	got, err := s.service.GenerateMilestones(s.ctx, req)
	s.Require().NoError(err)
	s.Require().Len(got.Milestones, 2)
	s.Equal(7, got.Milestones[0].DueInDays)
	s.Equal(14, got.Milestones[1].DueInDays)
	s.Equal([]string{}, got.Milestones[1].Deliverables)
}

func (s *GeneratorSuite) TestSuggestTagsNormalized() {
	s.reply(`{"tags":["#Science","science"," Biology ","","#cells","Math","Photosynthesis"]}`)
	req := &models.TagsRequest{Content: "A post about cells", ExistingTags: []string{"#Math"}, MaxTags: 3}
	s.Require().NoError(req.Validate())

	got, err := s.service.SuggestTags(s.ctx, req)
	s.Require().NoError(err)
	s.Equal([]string{"science", "biology", "cells"}, got.Tags)
}

func (s *GeneratorSuite) TestSuggestTagsStripsRepeatedHashes() {
	s.reply(`{"tags":["##AI","#  #Biology","# #x","###","#math"]}`)
	req := &models.TagsRequest{Content: "A post about robots", ExistingTags: []string{"## Math"}, MaxTags: 5}
	s.Require().NoError(req.Validate())
	s.Equal([]string{"math"}, req.ExistingTags)

	got, err := s.service.SuggestTags(s.ctx, req)
	s.Require().NoError(err)
	s.Equal([]string{"ai", "biology", "x"}, got.Tags)
	for _, tag := range got.Tags {
		s.NotContains(tag, "#")
	}
}

func (s *GeneratorSuite) TestProviderErrorPropagates() {
	s.llm.EXPECT().GenerateJSON(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dErrors.Wrap(llm.ErrUnparsableOutput, dErrors.CodeGeneration, "AI response could not be parsed"))
	req := &models.TagsRequest{Content: "x"}
	s.Require().NoError(req.Validate())

	got, err := s.service.SuggestTags(s.ctx, req)
	s.Nil(got)
	s.True(errors.Is(err, llm.ErrUnparsableOutput))
}

func (s *GeneratorSuite) TestEveryKindHasPrompts() {
	data := map[models.Kind]any{
		models.KindQuiz:         &models.QuizRequest{Topic: "t", QuestionCount: 1, Difficulty: models.DifficultyEasy},
		models.KindLesson:       &models.LessonRequest{Topic: "t"},
		models.KindPollOptions:  &models.PollOptionsRequest{Topic: "t", OptionCount: 2},
		models.KindCourse:       &models.CourseRequest{Topic: "t", WeekCount: 1},
		models.KindEnhance:      &models.EnhanceRequest{Content: "c"},
		models.KindAnnouncement: &models.AnnouncementRequest{Notes: "n", Urgency: models.UrgencyNormal},
		models.KindMilestones:   &models.MilestonesRequest{ProjectTitle: "p", Description: "d", DurationWeeks: 1},
		models.KindTags:         &models.TagsRequest{Content: "c", MaxTags: 1},
	}
	for _, kind := range models.Kinds {
		system, user, err := renderPrompts(kind, data[kind])
		s.Require().NoError(err, kind)
		s.NotEmpty(system, kind)
		s.NotEmpty(user, kind)
	}
}
