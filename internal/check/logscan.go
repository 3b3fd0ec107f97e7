package check

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	logx "pubcheck/pkg/logx"
)

// maxStreams is how many of the newest streams are examined. A run that
// crosses midnight can be split over two streams.
const maxStreams = 2

// benignDiagnostic prefixes a JVM warning the publisher prints on every
// startup. It carries no operational meaning.
const benignDiagnostic = "WARNING: sun.reflect.Reflection.getCallerClass is not supported"

var severityPattern = regexp.MustCompile(`WARN|ERROR|FATAL`)

// StartMarker is the line the publisher logs when it begins today's run.
func StartMarker(today string) string {
	return "Starting to publish files for " + today
}

// SeverityLines returns the messages that carry a severity marker, in order,
// leaving out the benign startup diagnostic.
func SeverityLines(events []LogEvent) []string {
	var lines []string
	for _, ev := range events {
		if !severityPattern.MatchString(ev.Message) {
			continue
		}
		if strings.HasPrefix(ev.Message, benignDiagnostic) {
			continue
		}
		lines = append(lines, ev.Message)
	}
	return lines
}

// CheckLogs fails with a KindLogSeverity error when any severity line remains.
func CheckLogs(events []LogEvent) error {
	if se := severityFailure(events); se != nil {
		return se
	}
	return nil
}

func severityFailure(events []LogEvent) *StageError {
	lines := SeverityLines(events)
	if len(lines) == 0 {
		return nil
	}
	return &StageError{Stage: StageLogs, Kind: KindLogSeverity, Lines: lines}
}

func containsMarker(events []LogEvent, marker string) bool {
	for _, ev := range events {
		if strings.Contains(ev.Message, marker) {
			return true
		}
	}
	return false
}

// todayLogs finds the newest stream that belongs to today's run and returns
// its events. It returns an empty slice when no candidate qualifies.
func (c *Checker) todayLogs(ctx context.Context) ([]LogEvent, error) {
	group := c.cfg.LogGroup
	log := c.log.With(logx.String("log_group", group))

	cctx, cancel := c.callContext(ctx)
	streams, err := c.logs.DescribeLogStreams(cctx, group, maxStreams)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("describe log streams %s: %w", group, err)
	}
	if len(streams) > maxStreams {
		streams = streams[:maxStreams]
	}

	marker := StartMarker(c.cfg.Today)
	for i, stream := range streams {
		cctx, cancel := c.callContext(ctx)
		events, err := c.logs.GetLogEvents(cctx, group, stream.Name)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("get log events %s/%s: %w", group, stream.Name, err)
		}
		if containsMarker(events, marker) {
			log.Debug("log stream accepted",
				logx.String("stream", stream.Name),
				logx.Int("candidate", i),
				logx.Int("events", len(events)),
			)
			return events, nil
		}
		log.Debug("log stream has no start marker for today", logx.String("stream", stream.Name), logx.Int("candidate", i))
	}
	return nil, nil
}

func (c *Checker) scanLogs(ctx context.Context) *StageError {
	events, err := c.todayLogs(ctx)
	if err != nil {
		return transportError(StageLogs, err)
	}
	if len(events) == 0 {
		return dataError(StageLogs, "No log events found for %s in %s (no stream contains %q)",
			c.cfg.Today, c.cfg.LogGroup, StartMarker(c.cfg.Today))
	}
	return severityFailure(events)
}
