package spacedrep

import "time"

// NextReviewAt returns when a problem should come back around, given its
// box level and most recent attempt.
func NextReviewAt(boxLevel int, lastAttempt time.Time) time.Time {
	return lastAttempt.AddDate(0, 0, IntervalDays(boxLevel))
}

// IsDue reports whether a problem is at or past its review date. A
// problem with no recorded attempt is always due.
func IsDue(boxLevel int, lastAttempt *time.Time, now time.Time) bool {
	if lastAttempt == nil {
		return true
	}
	return !now.Before(NextReviewAt(boxLevel, *lastAttempt))
}

// OverdueDays returns how many days past due a problem is. Returns 0 when
// not yet due or never attempted.
func OverdueDays(boxLevel int, lastAttempt *time.Time, now time.Time) float64 {
	if lastAttempt == nil {
		return 0
	}
	next := NextReviewAt(boxLevel, *lastAttempt)
	if now.Before(next) {
		return 0
	}
	return now.Sub(next).Hours() / 24.0
}

// ReviewStatus describes a problem's review position for display.
type ReviewStatus string

const (
	ReviewNew       ReviewStatus = "new"
	ReviewScheduled ReviewStatus = "scheduled"
	ReviewDue       ReviewStatus = "due"
	ReviewOverdue   ReviewStatus = "overdue"
	ReviewGraduated ReviewStatus = "graduated"
)

// Status classifies a problem's review state. A due problem counts as
// overdue once it is more than half its interval past the review date.
func Status(boxLevel int, lastAttempt *time.Time, now time.Time) ReviewStatus {
	if lastAttempt == nil {
		return ReviewNew
	}
	next := NextReviewAt(boxLevel, *lastAttempt)
	if now.Before(next) {
		if boxLevel >= GraduatedBoxLevel {
			return ReviewGraduated
		}
		return ReviewScheduled
	}
	grace := time.Duration(float64(IntervalDays(boxLevel)) * 0.5 * 24 * float64(time.Hour))
	if now.After(next.Add(grace)) {
		return ReviewOverdue
	}
	return ReviewDue
}
