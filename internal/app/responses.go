package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

// ResponseService reconstructs a user's last completion from the response
// cache and enriches it with question/answer text for display. Cache loss is
// a display-capability failure only; the verdicts are reconstructible from
// the stored results.
type ResponseService struct {
	cache   ResponseCache
	content QuizContentProvider
	store   QuizStore
}

func NewResponseService(cache ResponseCache, content QuizContentProvider, store QuizStore) *ResponseService {
	return &ResponseService{cache: cache, content: content, store: store}
}

// UserQuizResponse returns the caller's cached verdict for one quiz, with
// question and answer text and the latest persisted score.
func (s *ResponseService) UserQuizResponse(ctx context.Context, userID, quizID uuid.UUID) (domain.QuizResultDisplay, error) {
	detail, found, err := s.cache.UserQuizResult(ctx, userID, quizID)
	if err != nil {
		return domain.QuizResultDisplay{}, err
	}
	if !found {
		return domain.QuizResultDisplay{}, domain.NewNotFound("User response")
	}

	display, err := s.renderDisplay(ctx, detail)
	if err != nil {
		return domain.QuizResultDisplay{}, err
	}

	latest, ok, err := s.store.LatestQuizResult(ctx, userID, quizID)
	if err != nil {
		return domain.QuizResultDisplay{}, err
	}
	if ok {
		display.Score = latest.Score
	}
	return display, nil
}

// UserResponses lists every cached verdict of the caller, grouped by quiz in
// encounter order. A user's scan spans companies, so multiple quizzes can come
// back from one call.
func (s *ResponseService) UserResponses(ctx context.Context, userID uuid.UUID) ([]domain.QuizDetailResult, error) {
	return s.cache.UserResults(ctx, userID)
}

// UserQuizResponseCSV renders the caller's cached verdict as CSV with a
// "Question,Answer,Is Correct" header.
func (s *ResponseService) UserQuizResponseCSV(ctx context.Context, userID, quizID uuid.UUID) (string, error) {
	display, err := s.UserQuizResponse(ctx, userID, quizID)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Question", "Answer", "Is Correct"}); err != nil {
		return "", err
	}
	for _, question := range display.Questions {
		for _, answer := range question.ChoosenAnswers {
			if err := w.Write([]string{question.Text, answer.Text, strconv.FormatBool(answer.IsCorrect)}); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// CompanyQuizResponsesCSV renders the cached verdicts of every user in a
// company for one quiz, one row per chosen answer, with a leading User column.
func (s *ResponseService) CompanyQuizResponsesCSV(ctx context.Context, companyID, quizID uuid.UUID) (string, error) {
	perUser, err := s.cache.CompanyQuizResults(ctx, companyID, quizID)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"User", "Question", "Answer", "Is Correct"}); err != nil {
		return "", err
	}
	for userID, detail := range perUser {
		display, err := s.renderDisplay(ctx, detail)
		if err != nil {
			return "", err
		}
		for _, question := range display.Questions {
			for _, answer := range question.ChoosenAnswers {
				if err := w.Write([]string{userID.String(), question.Text, answer.Text, strconv.FormatBool(answer.IsCorrect)}); err != nil {
					return "", err
				}
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderDisplay swaps cached ids for question/answer text via the content cache.
func (s *ResponseService) renderDisplay(ctx context.Context, detail domain.QuizDetailResult) (domain.QuizResultDisplay, error) {
	content, err := s.content.GetQuizContent(ctx, detail.QuizID)
	if err != nil {
		return domain.QuizResultDisplay{}, fmt.Errorf("load quiz content: %w", err)
	}

	questionText := make(map[uuid.UUID]string, len(content.Questions))
	answerText := make(map[uuid.UUID]string)
	for _, question := range content.Questions {
		questionText[question.Question.ID] = question.Question.Text
		for _, answer := range question.Answers {
			answerText[answer.ID] = answer.Text
		}
	}

	display := domain.QuizResultDisplay{Questions: make([]domain.QuestionResultDisplay, 0, len(detail.Questions))}
	for _, question := range detail.Questions {
		text, ok := questionText[question.QuestionID]
		if !ok {
			// The question was deleted after the completion; its cached
			// verdict can no longer be displayed.
			continue
		}
		questionDisplay := domain.QuestionResultDisplay{Text: text}
		for _, chosen := range question.ChosenAnswers {
			questionDisplay.ChoosenAnswers = append(questionDisplay.ChoosenAnswers, domain.ChosenAnswerDisplay{
				Text:      answerText[chosen.AnswerID],
				IsCorrect: chosen.IsCorrect,
			})
		}
		display.Questions = append(display.Questions, questionDisplay)
	}
	return display, nil
}
