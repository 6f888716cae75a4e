package retrieval

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why retrieval failed
type Kind string

const (
	KindCollectionMissing Kind = "collection_missing"
	KindTopicUnmatched    Kind = "topic_unmatched"
	KindEmbeddingFailed   Kind = "embedding_failed"
	KindSearchFailed      Kind = "search_failed"
	KindNoContent         Kind = "no_content"
	KindTimeout           Kind = "timeout"
	KindBlueprint         Kind = "blueprint"
)

// Error is a retrieval failure carrying its kind
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// classify turns any error from a retrieval step into an *Error,
// reporting deadline overruns as timeouts regardless of the step
func classify(err error, fallback Kind) *Error {
	var rerr *Error
	if errors.As(err, &rerr) {
		if rerr.Kind != KindTimeout && errors.Is(rerr.Cause, context.DeadlineExceeded) {
			return &Error{Kind: KindTimeout, Message: "retrieval timed out: " + rerr.Message, Cause: rerr.Cause}
		}
		return rerr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "retrieval timed out", Cause: err}
	}
	return &Error{Kind: fallback, Cause: err}
}
