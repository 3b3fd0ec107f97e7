package check

import (
	"fmt"
	"time"

	"pubcheck/internal/calendar"
)

// ComposeSuccess builds the report sent when every stage passed.
func ComposeSuccess(cfg RunConfig, info PublicationInfo) Message {
	cfg = cfg.withDefaults()
	return Message{
		From:       cfg.SourceAddress,
		ReturnPath: cfg.ReturnPath,
		To:         append([]string(nil), cfg.SuccessRecipients...),
		Subject:    fmt.Sprintf("%s publication succeeded (%s)", cfg.EditionName, cfg.Today),
		Body: fmt.Sprintf("The %s edition for %s was successfully published.\nIt contains %d articles with %d images.",
			cfg.EditionName, cfg.Today, info.ArticleCount, info.ImageCount),
	}
}

// ComposeFailure builds the report for a failed run. The subject depends on
// now (the time of composition), not on the day being checked.
func ComposeFailure(cfg RunConfig, failure *StageError, now time.Time) Message {
	cfg = cfg.withDefaults()
	reason := "unknown failure"
	if failure != nil {
		reason = failure.Reason()
	}
	return Message{
		From:       cfg.SourceAddress,
		ReturnPath: cfg.ReturnPath,
		To:         append([]string(nil), cfg.FailureRecipients...),
		Subject:    FailureSubject(cfg, now),
		Body: fmt.Sprintf("The %s edition for %s was not successfully published. The error was: \n'%s'",
			cfg.EditionName, cfg.Today, reason),
	}
}

// FailureSubject picks the failure subject. Christmas wins over the clock change.
func FailureSubject(cfg RunConfig, now time.Time) string {
	cfg = cfg.withDefaults()
	local := now.In(cfg.Location)
	switch {
	case calendar.IsChristmasDay(local):
		return fmt.Sprintf("No %s publication on Christmas Day. Merry Christmas!", cfg.EditionName)
	case calendar.IsClockForwardTime(local):
		return fmt.Sprintf("%s publication check failed (%s) due to BST clock change", cfg.EditionName, cfg.Today)
	default:
		return fmt.Sprintf("%s publication FAILED (%s)", cfg.EditionName, cfg.Today)
	}
}
