package trello

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/jrsteele09/wilbur/internal/errors"
)

const (
	TypeSuggestion = "Suggestion"
	TypeIssue      = "Issue"

	MinTitleLength       = 4
	MaxTitleLength       = 40
	MinDescriptionLength = 4
	MaxDescriptionLength = 200
)

// Report is a piece of user feedback that becomes a Trello card.
// It is implemented by Suggestion and Issue only.
type Report interface {
	Type() string
	CardName() string
	// CardDescription renders the markdown body credited to reporter.
	CardDescription(reporter string) string
	validate() error
}

type Suggestion struct {
	Title       string
	Description string
	Image       string
}

type Issue struct {
	Title       string
	Description string
	Image       string
}

var (
	_ Report = Suggestion{}
	_ Report = Issue{}
)

// NewReport builds the report variant named by reportType and validates it.
func NewReport(reportType, title, description, image string) (Report, error) {
	var r Report
	switch reportType {
	case TypeSuggestion:
		r = Suggestion{Title: title, Description: description, Image: image}
	case TypeIssue:
		r = Issue{Title: title, Description: description, Image: image}
	default:
		return nil, fmt.Errorf("%w: unknown report type %q", apperrors.ErrInvalidRequest, reportType)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (s Suggestion) Type() string     { return TypeSuggestion }
func (s Suggestion) CardName() string { return s.Title }
func (s Suggestion) validate() error  { return validateText(s.Title, s.Description) }

func (s Suggestion) CardDescription(reporter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Suggested By: %s**\n**Feature: %s**\n\n**Additional Notes: N/A**", reporter, s.Description)
	writeScreenshot(&b, s.Image)
	return b.String()
}

func (i Issue) Type() string     { return TypeIssue }
func (i Issue) CardName() string { return i.Title }
func (i Issue) validate() error  { return validateText(i.Title, i.Description) }

func (i Issue) CardDescription(reporter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Reporter: %s**\n**Description: %s**", reporter, i.Description)
	writeScreenshot(&b, i.Image)
	return b.String()
}

func writeScreenshot(b *strings.Builder, image string) {
	if image != "" {
		fmt.Fprintf(b, "\n\n**Screenshots: %s**", image)
	}
}

func validateText(title, description string) error {
	if n := utf8.RuneCountInString(title); n < MinTitleLength || n > MaxTitleLength {
		return fmt.Errorf("%w: title must be %d-%d characters", apperrors.ErrInvalidRequest, MinTitleLength, MaxTitleLength)
	}
	if n := utf8.RuneCountInString(description); n < MinDescriptionLength || n > MaxDescriptionLength {
		return fmt.Errorf("%w: description must be %d-%d characters", apperrors.ErrInvalidRequest, MinDescriptionLength, MaxDescriptionLength)
	}
	return nil
}
