package model

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a job failed.
type FailureKind string

const (
	KindNone                         FailureKind = ""
	KindUnreadableSource             FailureKind = "UnreadableSource"
	KindInsufficientSourceResolution FailureKind = "InsufficientSourceResolution"
	KindCompositionFailure           FailureKind = "CompositionFailure"
	KindEncodeFailure                FailureKind = "EncodeFailure"
	KindSizeLimitExceeded            FailureKind = "SizeLimitExceeded"
	KindSyncMismatchUnresolved       FailureKind = "SyncMismatchUnresolved"
	KindDurationOutOfRange           FailureKind = "DurationOutOfRange"
	KindCanceled                     FailureKind = "Canceled"
	KindInternal                     FailureKind = "Internal"
)

// Sentinel errors, one per failure kind.
var (
	ErrUnreadableSource             = errors.New("unreadable source")
	ErrInsufficientSourceResolution = errors.New("insufficient source resolution")
	ErrCompositionFailure           = errors.New("composition failed")
	ErrEncodeFailure                = errors.New("encode failed")
	ErrSizeLimitExceeded            = errors.New("size limit exceeded")
	ErrSyncMismatchUnresolved       = errors.New("audio/video sync mismatch unresolved")
	ErrDurationOutOfRange           = errors.New("duration out of range")
	ErrCanceled                     = errors.New("job canceled")
)

var kindSentinels = map[FailureKind]error{
	KindUnreadableSource:             ErrUnreadableSource,
	KindInsufficientSourceResolution: ErrInsufficientSourceResolution,
	KindCompositionFailure:           ErrCompositionFailure,
	KindEncodeFailure:                ErrEncodeFailure,
	KindSizeLimitExceeded:            ErrSizeLimitExceeded,
	KindSyncMismatchUnresolved:       ErrSyncMismatchUnresolved,
	KindDurationOutOfRange:           ErrDurationOutOfRange,
	KindCanceled:                     ErrCanceled,
}

// JobError is a classified failure local to one (source, profile) job.
type JobError struct {
	Kind   FailureKind
	Detail string
	Err    error // underlying cause, may be nil
}

// NewJobError builds a JobError; format args follow fmt.Sprintf.
func NewJobError(kind FailureKind, cause error, format string, args ...any) *JobError {
	return &JobError{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: cause}
}

func (e *JobError) Error() string {
	msg := string(e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *JobError) Unwrap() []error {
	var out []error
	if s, ok := kindSentinels[e.Kind]; ok {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// KindOf classifies err. Unclassified errors map to KindInternal.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	var je *JobError
	if errors.As(err, &je) {
		return je.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}
