package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrCorrupt     = errors.New("corrupt data")
	ErrMisaligned  = errors.New("word count mismatch")
	ErrIOFailure   = errors.New("io failure")
	ErrUnavailable = errors.New("unavailable")
	ErrValidation  = errors.New("validation error")
)

// Kind strings reported in status/error fields of API payloads.
const (
	KindNotFound    = "not_found"
	KindCorrupt     = "corrupt"
	KindMisaligned  = "misaligned"
	KindIOFailure   = "io_failure"
	KindUnavailable = "unavailable"
	KindValidation  = "validation"
	KindInternal    = "internal"
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrIOFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to its taxonomy string. Unknown errors report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrCorrupt):
		return KindCorrupt
	case errors.Is(err, ErrMisaligned):
		return KindMisaligned
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	default:
		return KindInternal
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
