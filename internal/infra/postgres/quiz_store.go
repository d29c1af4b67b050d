package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-platform-service/internal/domain"
)

// QuizStore is the Postgres implementation of app.QuizStore.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID uuid.UUID) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, title, COALESCE(description, ''), frequency FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.CompanyID, &quiz.Title, &quiz.Description, &quiz.Frequency)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.NewNotFound("Quizz")
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) GetQuestion(ctx context.Context, questionID uuid.UUID) (domain.Question, error) {
	var question domain.Question
	err := s.pool.QueryRow(ctx,
		`SELECT id, quizz_id, text FROM questions WHERE id=$1`,
		questionID,
	).Scan(&question.ID, &question.QuizID, &question.Text)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.NewNotFound("Question")
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question: %w", err)
	}
	return question, nil
}

func (s *QuizStore) GetQuestionAnswers(ctx context.Context, questionID uuid.UUID) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, question_id, text, is_correct FROM answers WHERE question_id=$1 ORDER BY created_at`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get question answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var answer domain.Answer
		if err := rows.Scan(&answer.ID, &answer.QuestionID, &answer.Text, &answer.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, answer)
	}
	return answers, rows.Err()
}

func (s *QuizStore) QuizQuestionCount(ctx context.Context, quizID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(id) FROM questions WHERE quizz_id=$1`,
		quizID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count quiz questions: %w", err)
	}
	return count, nil
}

func (s *QuizStore) CreateQuizResult(ctx context.Context, result domain.QuizResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quizz_results (id, user_id, quizz_id, company_id, score, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.UserID, result.QuizID, result.CompanyID, result.Score, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quiz result: %w", err)
	}
	return nil
}

func (s *QuizStore) LatestQuizResult(ctx context.Context, userID, quizID uuid.UUID) (domain.QuizResult, bool, error) {
	var result domain.QuizResult
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, quizz_id, company_id, score, created_at
		 FROM quizz_results WHERE user_id=$1 AND quizz_id=$2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, quizID,
	).Scan(&result.ID, &result.UserID, &result.QuizID, &result.CompanyID, &result.Score, &result.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizResult{}, false, nil
	}
	if err != nil {
		return domain.QuizResult{}, false, fmt.Errorf("latest quiz result: %w", err)
	}
	return result, true, nil
}

func (s *QuizStore) AverageScore(ctx context.Context, subject domain.ScoreSubject, until time.Time) (float64, bool, error) {
	var column string
	switch subject.Kind {
	case domain.SubjectUser:
		column = "user_id"
	case domain.SubjectCompany:
		column = "company_id"
	case domain.SubjectQuiz:
		column = "quizz_id"
	default:
		return 0, false, fmt.Errorf("unknown score subject %q", subject.Kind)
	}

	var avg *float64
	err := s.pool.QueryRow(ctx,
		`SELECT AVG(score) FROM quizz_results WHERE `+column+`=$1 AND created_at <= $2`,
		subject.ID, until,
	).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("average score: %w", err)
	}
	if avg == nil {
		return 0, false, nil
	}
	return *avg, true, nil
}

func (s *QuizStore) UserCompanies(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT company_id FROM company_members WHERE user_id=$1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("user companies: %w", err)
	}
	defer rows.Close()

	var companies []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company id: %w", err)
		}
		companies = append(companies, id)
	}
	return companies, rows.Err()
}

func (s *QuizStore) CompanyQuizzes(ctx context.Context, companyID uuid.UUID) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, title, COALESCE(description, ''), frequency FROM quizzes WHERE company_id=$1 ORDER BY created_at`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("company quizzes: %w", err)
	}
	defer rows.Close()

	var quizzes []domain.Quiz
	for rows.Next() {
		var quiz domain.Quiz
		if err := rows.Scan(&quiz.ID, &quiz.CompanyID, &quiz.Title, &quiz.Description, &quiz.Frequency); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (s *QuizStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM company_members`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (s *QuizStore) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, body, is_read, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Title, n.Body, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// LoadQuizContent assembles a quiz with its questions and answers in authored
// order, for the content cache.
func (s *QuizStore) LoadQuizContent(ctx context.Context, quizID uuid.UUID) (domain.QuizContent, error) {
	quiz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	content := domain.QuizContent{Quiz: quiz}

	rows, err := s.pool.Query(ctx,
		`SELECT id, quizz_id, text FROM questions WHERE quizz_id=$1 ORDER BY created_at`,
		quizID,
	)
	if err != nil {
		return domain.QuizContent{}, fmt.Errorf("quiz questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var question domain.Question
		if err := rows.Scan(&question.ID, &question.QuizID, &question.Text); err != nil {
			return domain.QuizContent{}, fmt.Errorf("scan question: %w", err)
		}
		content.Questions = append(content.Questions, domain.QuestionContent{Question: question})
	}
	if err := rows.Err(); err != nil {
		return domain.QuizContent{}, err
	}

	for i := range content.Questions {
		answers, err := s.GetQuestionAnswers(ctx, content.Questions[i].Question.ID)
		if err != nil {
			return domain.QuizContent{}, err
		}
		content.Questions[i].Answers = answers
	}
	return content, nil
}
