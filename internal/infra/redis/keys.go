package redis

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Response cache keys address one answer verdict by a 5-tuple:
//
//	answer:<user>:<company>:<quizz>:<question>:<answer>
//
// Any position may hold the wildcard for scan patterns. Splitting on the
// delimiter is safe because every identifier is a UUID and can never contain
// a colon. This file is the single encode/decode point for the scheme.

const (
	keyPrefix    = "answer"
	keyDelimiter = ":"
	wildcard     = "*"
)

// answerKey builds key strings. Fields hold UUID strings or the wildcard.
type answerKey struct {
	User     string
	Company  string
	Quiz     string
	Question string
	Answer   string
}

func (k answerKey) String() string {
	return strings.Join([]string{keyPrefix, k.User, k.Company, k.Quiz, k.Question, k.Answer}, keyDelimiter)
}

func entryKey(userID, companyID, quizID, questionID, answerID uuid.UUID) answerKey {
	return answerKey{
		User:     userID.String(),
		Company:  companyID.String(),
		Quiz:     quizID.String(),
		Question: questionID.String(),
		Answer:   answerID.String(),
	}
}

func userQuizPattern(userID, quizID uuid.UUID) answerKey {
	return answerKey{
		User:     userID.String(),
		Company:  wildcard,
		Quiz:     quizID.String(),
		Question: wildcard,
		Answer:   wildcard,
	}
}

func userPattern(userID uuid.UUID) answerKey {
	return answerKey{
		User:     userID.String(),
		Company:  wildcard,
		Quiz:     wildcard,
		Question: wildcard,
		Answer:   wildcard,
	}
}

func companyQuizPattern(companyID, quizID uuid.UUID) answerKey {
	return answerKey{
		User:     wildcard,
		Company:  companyID.String(),
		Quiz:     quizID.String(),
		Question: wildcard,
		Answer:   wildcard,
	}
}

// parsedKey is a decoded 5-tuple.
type parsedKey struct {
	UserID     uuid.UUID
	CompanyID  uuid.UUID
	QuizID     uuid.UUID
	QuestionID uuid.UUID
	AnswerID   uuid.UUID
}

// parseAnswerKey decodes a key returned by a scan back into its 5-tuple.
// A malformed key means something other than this module wrote to the
// namespace; the error is internal, not user-facing.
func parseAnswerKey(raw string) (parsedKey, error) {
	parts := strings.Split(raw, keyDelimiter)
	if len(parts) != 6 || parts[0] != keyPrefix {
		return parsedKey{}, fmt.Errorf("malformed response cache key %q", raw)
	}
	ids := make([]uuid.UUID, 5)
	for i, part := range parts[1:] {
		id, err := uuid.Parse(part)
		if err != nil {
			return parsedKey{}, fmt.Errorf("malformed response cache key %q: %w", raw, err)
		}
		ids[i] = id
	}
	return parsedKey{
		UserID:     ids[0],
		CompanyID:  ids[1],
		QuizID:     ids[2],
		QuestionID: ids[3],
		AnswerID:   ids[4],
	}, nil
}
