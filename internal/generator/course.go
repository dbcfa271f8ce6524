package generator

import (
	"context"
	"errors"

	"aigateway/internal/generator/models"
)

type rawCourse struct {
	Title       models.FlexString `json:"title"`
	Description models.FlexString `json:"description"`
	Sections    []struct {
		Title       models.FlexString  `json:"title"`
		Description models.FlexString  `json:"description"`
		Lessons     models.FlexStrings `json:"lessons"`
	} `json:"sections"`
}

// GenerateCourseOutline returns the sections the model produced. The number of
// sections is not checked against WeekCount.
func (s *Service) GenerateCourseOutline(ctx context.Context, req *models.CourseRequest) (*models.CourseOutline, error) {
	return generate(ctx, s, models.KindCourse, req, func(raw rawCourse) (*models.CourseOutline, error) {
		return normalizeCourse(raw, req)
	})
}

func normalizeCourse(raw rawCourse, req *models.CourseRequest) (*models.CourseOutline, error) {
	outline := &models.CourseOutline{
		Title:       raw.Title.String(),
		Description: raw.Description.String(),
		Sections:    make([]models.CourseSection, 0, len(raw.Sections)),
	}
	if outline.Title == "" {
		outline.Title = req.Topic
	}
	for _, section := range raw.Sections {
		if section.Title.String() == "" {
			continue
		}
		outline.Sections = append(outline.Sections, models.CourseSection{
			Title:       section.Title.String(),
			Description: section.Description.String(),
			Lessons:     nonNil(section.Lessons),
		})
	}
	if len(outline.Sections) == 0 {
		return nil, errors.New("course outline has no sections")
	}
	return outline, nil
}
