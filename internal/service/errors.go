package service

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/journeys/internal/db"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
)

var (
	// ErrNotFound reports a missing journey, resource or conversation, or
	// one that belongs to another user.
	ErrNotFound = errors.New("not found")
	// ErrJourneyNotReady reports a progress operation on a journey that is
	// still being built.
	ErrJourneyNotReady = errors.New("journey not ready")
	// ErrQuotaExceeded reports that the user has used all free journeys.
	ErrQuotaExceeded = errors.New("journey quota exceeded")
	// ErrInvalidInput reports a request missing required fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoResources reports a scrape that produced nothing to curate.
	ErrNoResources = errors.New("no usable resources found")
)

// Pipeline stages recorded on failed journeys.
const (
	StageScraping = "scraping"
	StageCurating = "curating"
	StagePanic    = "panic"
)

// StageError is a pipeline failure tied to the stage it happened in.
type StageError struct {
	JourneyID string
	Stage     string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("journey %s failed while %s: %v", e.JourneyID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ProgressError is a progress write that could not be committed.
type ProgressError struct {
	Op         models.ProgressOp
	JourneyID  string
	ResourceID string
	Err        error
}

func (e *ProgressError) Error() string {
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.JourneyID, e.ResourceID, e.Err)
}

func (e *ProgressError) Unwrap() error { return e.Err }

// notFound folds store-level not-found errors into ErrNotFound.
func notFound(err error) bool {
	return errors.Is(err, sqlstore.ErrNotFound) || errors.Is(err, db.ErrNotFound) || errors.Is(err, ErrNotFound)
}

func wrapNotFound(what string, err error) error {
	if notFound(err) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
