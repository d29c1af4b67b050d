package app

import (
	"context"
	"time"

	"quiz-platform-service/internal/domain"
)

// Trend intervals accepted by AveragesOverIntervals. Windows are fixed-width;
// "monthly" is thirty days.
const (
	IntervalDaily   = 24 * time.Hour
	IntervalWeekly  = 7 * 24 * time.Hour
	IntervalMonthly = 30 * 24 * time.Hour
)

// ParseInterval maps an interval name to its window size.
func ParseInterval(name string) (time.Duration, error) {
	switch name {
	case "daily":
		return IntervalDaily, nil
	case "weekly":
		return IntervalWeekly, nil
	case "monthly":
		return IntervalMonthly, nil
	default:
		return 0, domain.NewBusinessRule("interval must be daily, weekly or monthly")
	}
}

// AnalyticsService produces score trends over repeating time windows.
type AnalyticsService struct {
	store QuizStore
	clock func() time.Time
}

func NewAnalyticsService(store QuizStore) *AnalyticsService {
	return &AnalyticsService{store: store, clock: time.Now}
}

// NewAnalyticsServiceWithClock is test-only for deterministic window anchors.
func NewAnalyticsServiceWithClock(store QuizStore, now func() time.Time) *AnalyticsService {
	return &AnalyticsService{store: store, clock: now}
}

// AverageScore is the subject's current all-time average.
func (s *AnalyticsService) AverageScore(ctx context.Context, subject domain.ScoreSubject) (float64, bool, error) {
	return s.store.AverageScore(ctx, subject, s.clock())
}

// AveragesOverIntervals returns a lazy iterator over the subject's score
// trend, most recent window first. Each window's value is the average over
// all history up to that window's end (the lower bound never advances), so
// points are point-in-time snapshots rather than per-bucket averages.
//
// The iterator discovers the natural start of history by probing backward
// until a query comes back empty; it is finite but its length is unknown up
// front, and it is not restartable.
func (s *AnalyticsService) AveragesOverIntervals(subject domain.ScoreSubject, interval time.Duration) *TrendIterator {
	return &TrendIterator{
		store:     s.store,
		subject:   subject,
		interval:  interval,
		windowEnd: s.clock(),
	}
}

// TrendIterator steps backward through trend windows. Next returns ok=false
// once a probe finds no results, after which the iterator stays exhausted.
type TrendIterator struct {
	store     QuizStore
	subject   domain.ScoreSubject
	interval  time.Duration
	windowEnd time.Time
	done      bool
}

func (it *TrendIterator) Next(ctx context.Context) (domain.TrendPoint, bool, error) {
	if it.done {
		return domain.TrendPoint{}, false, nil
	}
	avg, ok, err := it.store.AverageScore(ctx, it.subject, it.windowEnd)
	if err != nil {
		return domain.TrendPoint{}, false, err
	}
	if !ok {
		it.done = true
		return domain.TrendPoint{}, false, nil
	}
	point := domain.TrendPoint{WindowEnd: it.windowEnd, Average: avg}
	it.windowEnd = it.windowEnd.Add(-it.interval)
	return point, true, nil
}

// Collect drains the iterator into a slice, most recent window first.
func (it *TrendIterator) Collect(ctx context.Context) ([]domain.TrendPoint, error) {
	var points []domain.TrendPoint
	for {
		point, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return points, nil
		}
		points = append(points, point)
	}
}
