package redis

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestEntryKeyRoundTrip(t *testing.T) {
	userID, companyID := uuid.New(), uuid.New()
	quizID, questionID, answerID := uuid.New(), uuid.New(), uuid.New()

	raw := entryKey(userID, companyID, quizID, questionID, answerID).String()
	parsed, err := parseAnswerKey(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	if parsed.UserID != userID || parsed.CompanyID != companyID ||
		parsed.QuizID != quizID || parsed.QuestionID != questionID || parsed.AnswerID != answerID {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestPatternsWildcardTheRightPositions(t *testing.T) {
	userID, companyID, quizID := uuid.New(), uuid.New(), uuid.New()

	pattern := userQuizPattern(userID, quizID).String()
	parts := strings.Split(pattern, keyDelimiter)
	if len(parts) != 6 {
		t.Fatalf("expected 6 segments, got %d in %q", len(parts), pattern)
	}
	if parts[1] != userID.String() || parts[3] != quizID.String() {
		t.Fatalf("user/quiz not pinned in %q", pattern)
	}
	if parts[2] != wildcard || parts[4] != wildcard || parts[5] != wildcard {
		t.Fatalf("company/question/answer not wildcarded in %q", pattern)
	}

	pattern = companyQuizPattern(companyID, quizID).String()
	parts = strings.Split(pattern, keyDelimiter)
	if parts[1] != wildcard || parts[2] != companyID.String() {
		t.Fatalf("expected user wildcarded and company pinned in %q", pattern)
	}

	pattern = userPattern(userID).String()
	parts = strings.Split(pattern, keyDelimiter)
	for i, part := range parts[2:] {
		if part != wildcard {
			t.Fatalf("segment %d not wildcarded in %q", i+2, pattern)
		}
	}
}

func TestParseAnswerKeyRejectsMalformedKeys(t *testing.T) {
	id := uuid.New().String()
	cases := []string{
		"",
		"answer",
		"other:" + id + ":" + id + ":" + id + ":" + id + ":" + id,
		"answer:" + id + ":" + id + ":" + id + ":" + id,
		"answer:not-a-uuid:" + id + ":" + id + ":" + id + ":" + id,
		"answer:" + id + ":" + id + ":" + id + ":" + id + ":" + id + ":extra",
	}
	for _, raw := range cases {
		if _, err := parseAnswerKey(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
