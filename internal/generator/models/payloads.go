package models

// QuestionTypeMultipleChoice is the default type of a generated question.
const QuestionTypeMultipleChoice = "MULTIPLE_CHOICE"

// DefaultExplanation fills a question the model left unexplained.
const DefaultExplanation = "No explanation provided."

type QuizQuestion struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
	Points        int      `json:"points"`
}

type Lesson struct {
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	Content           string   `json:"content"`
	KeyPoints         []string `json:"keyPoints"`
	EstimatedReadTime int      `json:"estimatedReadTime"`
}

type PollOptions struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type CourseSection struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lessons     []string `json:"lessons"`
}

type CourseOutline struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Sections    []CourseSection `json:"sections"`
}

type EnhancedContent struct {
	Enhanced    string   `json:"enhanced"`
	Suggestions []string `json:"suggestions"`
}

type Announcement struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

type Milestone struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	DueInDays    int      `json:"dueInDays"`
	Deliverables []string `json:"deliverables"`
}

type Milestones struct {
	Milestones []Milestone `json:"milestones"`
}

type TagSuggestions struct {
	Tags []string `json:"tags"`
}
