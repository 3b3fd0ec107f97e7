package check

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageLogs      Stage = "logs"
	StageRedirect  Stage = "redirect"
	StageArtifacts Stage = "artifacts"
)

// Kind classifies a stage failure.
type Kind int

const (
	// KindNetwork is an unexpected status code or redirect target.
	KindNetwork Kind = iota
	// KindData is missing or insufficient evidence (too few articles, no logs for today).
	KindData
	// KindLogSeverity carries the offending log lines verbatim.
	KindLogSeverity
	// KindTransport wraps an error returned by a collaborator call.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindData:
		return "data"
	case KindLogSeverity:
		return "log_severity"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// StageError is the single failure value a run can end with.
type StageError struct {
	Stage   Stage
	Kind    Kind
	Message string
	// Lines is set for KindLogSeverity.
	Lines []string
	// Err is set for KindTransport.
	Err error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Reason())
}

func (e *StageError) Unwrap() error { return e.Err }

// Reason renders the failure text that goes into the notification body.
func (e *StageError) Reason() string {
	switch {
	case e.Kind == KindLogSeverity:
		return strings.Join(e.Lines, "\n")
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " failure"
	}
}

func networkError(stage Stage, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: KindNetwork, Message: fmt.Sprintf(format, args...)}
}

func dataError(stage Stage, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: KindData, Message: fmt.Sprintf(format, args...)}
}

// transportError keeps err unchanged so callers can still errors.Is/As it.
func transportError(stage Stage, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return &StageError{Stage: stage, Kind: KindTransport, Err: err}
}
