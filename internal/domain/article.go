package domain

import (
	"errors"
	"strings"
	"time"
)

// Article is one news item handed to the classifier.
type Article struct {
	ID       string
	Headline string
	Date     time.Time
	Body     string
	URL      string
	Source   string
}

var (
	ErrMissingHeadline = errors.New("missing headline")
	ErrMissingDate     = errors.New("missing date")
	ErrMissingBody     = errors.New("missing body text")
)

// Validate checks the fields required before an article may be classified.
func (a Article) Validate() error {
	var errs []error
	if strings.TrimSpace(a.Headline) == "" {
		errs = append(errs, ErrMissingHeadline)
	}
	if a.Date.IsZero() {
		errs = append(errs, ErrMissingDate)
	}
	if strings.TrimSpace(a.Body) == "" {
		errs = append(errs, ErrMissingBody)
	}
	return errors.Join(errs...)
}
