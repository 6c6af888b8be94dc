package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidateTitle trims and checks a goal title.
func ValidateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", NewFieldError("title", "Title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", NewFieldError("title", fmt.Sprintf("Title cannot be more than %d characters", MaxTitleLength))
	}
	return title, nil
}

func ValidateDescription(raw string) (string, error) {
	desc := strings.TrimSpace(raw)
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return "", NewFieldError("description", fmt.Sprintf("Description cannot be more than %d characters", MaxDescriptionLength))
	}
	return desc, nil
}

func ValidateProgress(p int) error {
	if p < 0 || p > 100 {
		return NewFieldError("progress", "Progress must be between 0 and 100")
	}
	return nil
}

// ParseDate accepts RFC 3339 timestamps and plain ISO 8601 dates. Values
// without a zone are read as UTC.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, NewFieldError(field, "Date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp(t), nil
		}
	}
	return time.Time{}, NewFieldError(field, "Must be a valid date")
}

// RequireText trims raw and rejects empty input.
func RequireText(field, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", NewFieldError(field, fmt.Sprintf("%s is required", field))
	}
	return v, nil
}

// CleanTags trims every tag and drops empty ones. Duplicates are kept.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
