package domain

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is an authored questionnaire owned by a company.
// Frequency is the number of days members have before a retake is due.
type Quiz struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Frequency   int       `json:"frequency"`
}

// Question belongs to one quiz and carries 2..4 answer options.
type Question struct {
	ID     uuid.UUID `json:"id"`
	QuizID uuid.UUID `json:"quizz_id"`
	Text   string    `json:"text"`
}

// Answer is one selectable option of a question.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"is_correct"`
}

// QuizResult is the immutable record of one completion attempt.
// Rows are append-only; "latest" is derived by ordering on CreatedAt.
type QuizResult struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	QuizID    uuid.UUID `json:"quizz_id"`
	CompanyID uuid.UUID `json:"company_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is delivered to a user when a quiz goes overdue.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizContent is a quiz with its full question/answer tree, in authored order.
type QuizContent struct {
	Quiz      Quiz              `json:"quiz"`
	Questions []QuestionContent `json:"questions"`
}

type QuestionContent struct {
	Question Question `json:"question"`
	Answers  []Answer `json:"answers"`
}

// Completion is one user's submission of chosen answers for a quiz.
type Completion struct {
	QuizID    uuid.UUID            `json:"quizz_id"`
	Questions []QuestionCompletion `json:"questions"`
}

type QuestionCompletion struct {
	QuestionID uuid.UUID   `json:"question_id"`
	AnswerIDs  []uuid.UUID `json:"answer_ids"`
}

// ChosenAnswer records the verdict for one selected answer.
type ChosenAnswer struct {
	AnswerID  uuid.UUID `json:"answer_id"`
	IsCorrect bool      `json:"is_correct"`
}

// QuestionResult lists the chosen answers of one question in encounter order.
type QuestionResult struct {
	QuestionID    uuid.UUID      `json:"question_id"`
	ChosenAnswers []ChosenAnswer `json:"choosen_answers"`
}

// QuizDetailResult is the full per-question verdict of one completion, as
// written to and reconstructed from the response cache.
type QuizDetailResult struct {
	QuizID    uuid.UUID        `json:"quizz_id"`
	Questions []QuestionResult `json:"questions"`
}

// SubjectKind selects whose results an aggregate score query covers.
type SubjectKind string

const (
	SubjectUser    SubjectKind = "user"
	SubjectCompany SubjectKind = "company"
	SubjectQuiz    SubjectKind = "quiz"
)

type ScoreSubject struct {
	Kind SubjectKind
	ID   uuid.UUID
}

// TrendPoint is one window of a score trend: the average of all results
// recorded up to WindowEnd. Windows are snapshots, not per-bucket averages.
type TrendPoint struct {
	WindowEnd time.Time `json:"window_end"`
	Average   float64   `json:"average"`
}

// Display shapes for the "view my answers" endpoints. Field names mirror the
// public API contract.

type ChosenAnswerDisplay struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionResultDisplay struct {
	Text           string                `json:"text"`
	ChoosenAnswers []ChosenAnswerDisplay `json:"choosen_answers"`
}

type QuizResultDisplay struct {
	Questions []QuestionResultDisplay `json:"questions"`
	Score     int                     `json:"score"`
}
