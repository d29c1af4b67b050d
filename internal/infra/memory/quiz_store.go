package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-platform-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizStore, used in tests
// and when no Postgres is configured. Seed it with AddQuizContent and
// AddMembership.
type QuizStore struct {
	mu            sync.RWMutex
	quizzes       map[uuid.UUID]domain.Quiz
	questions     map[uuid.UUID]domain.Question
	questionOrder map[uuid.UUID][]uuid.UUID
	answers       map[uuid.UUID]domain.Answer
	answerOrder   map[uuid.UUID][]uuid.UUID
	memberships   []membership
	results       []domain.QuizResult
	notifications []domain.Notification
}

type membership struct {
	companyID uuid.UUID
	userID    uuid.UUID
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes:       make(map[uuid.UUID]domain.Quiz),
		questions:     make(map[uuid.UUID]domain.Question),
		questionOrder: make(map[uuid.UUID][]uuid.UUID),
		answers:       make(map[uuid.UUID]domain.Answer),
		answerOrder:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// AddQuizContent seeds a quiz with its full question/answer tree.
func (s *QuizStore) AddQuizContent(content domain.QuizContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[content.Quiz.ID] = content.Quiz
	for _, question := range content.Questions {
		s.questions[question.Question.ID] = question.Question
		s.questionOrder[content.Quiz.ID] = append(s.questionOrder[content.Quiz.ID], question.Question.ID)
		for _, answer := range question.Answers {
			s.answers[answer.ID] = answer
			s.answerOrder[question.Question.ID] = append(s.answerOrder[question.Question.ID], answer.ID)
		}
	}
}

// AddMembership seeds a company membership for a user.
func (s *QuizStore) AddMembership(companyID, userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, membership{companyID: companyID, userID: userID})
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID uuid.UUID) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.NewNotFound("Quizz")
	}
	return quiz, nil
}

func (s *QuizStore) GetQuestion(_ context.Context, questionID uuid.UUID) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.NewNotFound("Question")
	}
	return question, nil
}

func (s *QuizStore) GetQuestionAnswers(_ context.Context, questionID uuid.UUID) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.answerOrder[questionID]
	answers := make([]domain.Answer, 0, len(ids))
	for _, id := range ids {
		answers = append(answers, s.answers[id])
	}
	return answers, nil
}

func (s *QuizStore) QuizQuestionCount(_ context.Context, quizID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questionOrder[quizID]), nil
}

func (s *QuizStore) CreateQuizResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *QuizStore) LatestQuizResult(_ context.Context, userID, quizID uuid.UUID) (domain.QuizResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest domain.QuizResult
	found := false
	for _, result := range s.results {
		if result.UserID != userID || result.QuizID != quizID {
			continue
		}
		if !found || !result.CreatedAt.Before(latest.CreatedAt) {
			latest = result
			found = true
		}
	}
	return latest, found, nil
}

func (s *QuizStore) AverageScore(_ context.Context, subject domain.ScoreSubject, until time.Time) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, count := 0, 0
	for _, result := range s.results {
		if result.CreatedAt.After(until) {
			continue
		}
		switch subject.Kind {
		case domain.SubjectUser:
			if result.UserID != subject.ID {
				continue
			}
		case domain.SubjectCompany:
			if result.CompanyID != subject.ID {
				continue
			}
		case domain.SubjectQuiz:
			if result.QuizID != subject.ID {
				continue
			}
		}
		sum += result.Score
		count++
	}
	if count == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(count), true, nil
}

func (s *QuizStore) UserCompanies(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var companies []uuid.UUID
	for _, m := range s.memberships {
		if m.userID == userID {
			companies = append(companies, m.companyID)
		}
	}
	return companies, nil
}

func (s *QuizStore) CompanyQuizzes(_ context.Context, companyID uuid.UUID) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var quizzes []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.CompanyID == companyID {
			quizzes = append(quizzes, quiz)
		}
	}
	return quizzes, nil
}

func (s *QuizStore) ListUserIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{})
	var users []uuid.UUID
	for _, m := range s.memberships {
		if _, ok := seen[m.userID]; ok {
			continue
		}
		seen[m.userID] = struct{}{}
		users = append(users, m.userID)
	}
	return users, nil
}

func (s *QuizStore) CreateNotification(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

// UserNotifications lists a user's notifications in creation order (test helper).
func (s *QuizStore) UserNotifications(userID uuid.UUID) []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// LoadQuizContent lets the store back a content cache directly.
func (s *QuizStore) LoadQuizContent(_ context.Context, quizID uuid.UUID) (domain.QuizContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizContent{}, domain.NewNotFound("Quizz")
	}
	content := domain.QuizContent{Quiz: quiz}
	for _, questionID := range s.questionOrder[quizID] {
		qc := domain.QuestionContent{Question: s.questions[questionID]}
		for _, answerID := range s.answerOrder[questionID] {
			qc.Answers = append(qc.Answers, s.answers[answerID])
		}
		content.Questions = append(content.Questions, qc)
	}
	return content, nil
}
