package models

import (
	"strings"

	dErrors "aigateway/pkg/domain-errors"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
	DefaultOptionCount   = 4
	MinOptionCount       = 2
	MaxOptionCount       = 10
	DefaultWeekCount     = 4
	MaxWeekCount         = 52
	DefaultDurationWeeks = 4
	DefaultMaxTags       = 5
	MaxTagsLimit         = 20
)

var (
	errTopicRequired     = dErrors.New(dErrors.CodeValidation, "Topic is required")
	errContentRequired   = dErrors.New(dErrors.CodeValidation, "Content is required")
	errNotesRequired     = dErrors.New(dErrors.CodeValidation, "Notes are required")
	errProjectIncomplete = dErrors.New(dErrors.CodeValidation, "Project title and description are required")
)

// Difficulty of generated quiz questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// DefaultPoints is the point value given to a question that arrives without one.
func (d Difficulty) DefaultPoints() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

// LessonLength is a coarse size band that becomes a word-count guide in the prompt.
type LessonLength string

const (
	LengthShort  LessonLength = "SHORT"
	LengthMedium LessonLength = "MEDIUM"
	LengthLong   LessonLength = "LONG"
)

// Urgency of an announcement.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

type QuizRequest struct {
	Topic         string     `json:"topic"`
	GradeLevel    string     `json:"gradeLevel,omitempty"`
	QuestionCount int        `json:"questionCount,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	Subject       string     `json:"subject,omitempty"`
}

// Validate trims input, applies defaults and clamps counts.
func (r *QuizRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return errTopicRequired
	}
	r.GradeLevel = strings.TrimSpace(r.GradeLevel)
	r.Subject = strings.TrimSpace(r.Subject)
	r.QuestionCount = clamp(r.QuestionCount, DefaultQuestionCount, 1, MaxQuestionCount)
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(string(r.Difficulty)))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		r.Difficulty = d
	default:
		r.Difficulty = DifficultyMedium
	}
	return nil
}

type LessonRequest struct {
	Topic      string       `json:"topic"`
	GradeLevel string       `json:"gradeLevel,omitempty"`
	Length     LessonLength `json:"length,omitempty"`
	Subject    string       `json:"subject,omitempty"`
	Tone       string       `json:"tone,omitempty"`
}

func (r *LessonRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return errTopicRequired
	}
	r.GradeLevel = strings.TrimSpace(r.GradeLevel)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Tone = strings.TrimSpace(r.Tone)
	switch l := LessonLength(strings.ToUpper(strings.TrimSpace(string(r.Length)))); l {
	case LengthShort, LengthMedium, LengthLong:
		r.Length = l
	default:
		r.Length = LengthMedium
	}
	return nil
}

// WordGuide is the target length handed to the model. It is not enforced.
func (r *LessonRequest) WordGuide() string {
	switch r.Length {
	case LengthShort:
		return "300-500 words"
	case LengthLong:
		return "1500-2000 words"
	default:
		return "800-1200 words"
	}
}

type PollOptionsRequest struct {
	Topic       string `json:"topic"`
	OptionCount int    `json:"optionCount,omitempty"`
	Context     string `json:"context,omitempty"`
}

func (r *PollOptionsRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return errTopicRequired
	}
	r.Context = strings.TrimSpace(r.Context)
	r.OptionCount = clamp(r.OptionCount, DefaultOptionCount, MinOptionCount, MaxOptionCount)
	return nil
}

type CourseRequest struct {
	Topic      string `json:"topic"`
	GradeLevel string `json:"gradeLevel,omitempty"`
	WeekCount  int    `json:"weekCount,omitempty"`
	Subject    string `json:"subject,omitempty"`
}

func (r *CourseRequest) Validate() error {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return errTopicRequired
	}
	r.GradeLevel = strings.TrimSpace(r.GradeLevel)
	r.Subject = strings.TrimSpace(r.Subject)
	r.WeekCount = clamp(r.WeekCount, DefaultWeekCount, 1, MaxWeekCount)
	return nil
}

type EnhanceRequest struct {
	Content string `json:"content"`
	Tone    string `json:"tone,omitempty"`
	Type    string `json:"type,omitempty"`
}

func (r *EnhanceRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return errContentRequired
	}
	r.Tone = strings.TrimSpace(r.Tone)
	r.Type = strings.TrimSpace(r.Type)
	return nil
}

type AnnouncementRequest struct {
	Notes      string  `json:"notes"`
	SchoolName string  `json:"schoolName,omitempty"`
	Urgency    Urgency `json:"urgency,omitempty"`
}

func (r *AnnouncementRequest) Validate() error {
	r.Notes = strings.TrimSpace(r.Notes)
	if r.Notes == "" {
		return errNotesRequired
	}
	r.SchoolName = strings.TrimSpace(r.SchoolName)
	switch u := Urgency(strings.ToLower(strings.TrimSpace(string(r.Urgency)))); u {
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
		r.Urgency = u
	default:
		r.Urgency = UrgencyNormal
	}
	return nil
}

// UrgencyPhrase is the fixed tone instruction for the urgency level.
func (r *AnnouncementRequest) UrgencyPhrase() string {
	switch r.Urgency {
	case UrgencyHigh:
		return "This is URGENT. Use a clear, direct tone and put the required action first."
	case UrgencyLow:
		return "This is a casual, informational update. Keep the tone light and friendly."
	default:
		return "This is a standard school announcement. Use a professional, warm tone."
	}
}

type MilestonesRequest struct {
	ProjectTitle  string `json:"projectTitle"`
	Description   string `json:"description"`
	DurationWeeks int    `json:"durationWeeks,omitempty"`
}

func (r *MilestonesRequest) Validate() error {
	r.ProjectTitle = strings.TrimSpace(r.ProjectTitle)
	r.Description = strings.TrimSpace(r.Description)
	if r.ProjectTitle == "" || r.Description == "" {
		return errProjectIncomplete
	}
	r.DurationWeeks = clamp(r.DurationWeeks, DefaultDurationWeeks, 1, MaxWeekCount)
	return nil
}

// MilestoneCount is the number of milestones requested from the model: one per
// week, between 2 and 8.
func (r *MilestonesRequest) MilestoneCount() int {
	return min(max(r.DurationWeeks, 2), 8)
}

type TagsRequest struct {
	Content      string   `json:"content"`
	ExistingTags []string `json:"existingTags,omitempty"`
	MaxTags      int      `json:"maxTags,omitempty"`
}

func (r *TagsRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return errContentRequired
	}
	r.MaxTags = clamp(r.MaxTags, DefaultMaxTags, 1, MaxTagsLimit)
	existing := make([]string, 0, len(r.ExistingTags))
	for _, tag := range r.ExistingTags {
		if t := NormalizeTag(tag); t != "" {
			existing = append(existing, t)
		}
	}
	r.ExistingTags = existing
	return nil
}

// NormalizeTag lowercases a tag and strips surrounding space and every leading
// '#', including hashes separated by spaces ("# #cells").
func NormalizeTag(tag string) string {
	t := strings.TrimLeft(strings.TrimSpace(tag), "# \t")
	return strings.ToLower(strings.TrimSpace(t))
}

// clamp applies def when v is unset and bounds the result to [lo, hi].
func clamp(v, def, lo, hi int) int {
	if v <= 0 {
		v = def
	}
	return min(max(v, lo), hi)
}
