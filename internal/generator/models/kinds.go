// Package models holds the request and payload types of the content generators.
package models

// Kind names a generator in routes, logs, metrics and audit events.
type Kind string

const (
	KindQuiz         Kind = "quiz"
	KindLesson       Kind = "lesson"
	KindPollOptions  Kind = "poll_options"
	KindCourse       Kind = "course_outline"
	KindEnhance      Kind = "content_enhance"
	KindAnnouncement Kind = "announcement"
	KindMilestones   Kind = "milestones"
	KindTags         Kind = "tags"
)

// Kinds lists every generator.
var Kinds = []Kind{
	KindQuiz,
	KindLesson,
	KindPollOptions,
	KindCourse,
	KindEnhance,
	KindAnnouncement,
	KindMilestones,
	KindTags,
}

func (k Kind) String() string {
	return string(k)
}

// FailureMessage is the client-safe message used when generation fails.
func (k Kind) FailureMessage() string {
	switch k {
	case KindQuiz:
		return "Failed to generate quiz"
	case KindLesson:
		return "Failed to generate lesson"
	case KindPollOptions:
		return "Failed to generate poll options"
	case KindCourse:
		return "Failed to generate course outline"
	case KindEnhance:
		return "Failed to enhance content"
	case KindAnnouncement:
		return "Failed to generate announcement"
	case KindMilestones:
		return "Failed to generate milestones"
	case KindTags:
		return "Failed to suggest tags"
	default:
		return "Failed to generate content"
	}
}
