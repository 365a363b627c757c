package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for resource store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDuplicateURL indicates a second record tried to claim a canonical URL.
	ErrDuplicateURL = errors.New("resource url already indexed")

	// ErrTransactionConflict indicates a SurrealDB transaction conflict.
	// This occurs when concurrent scrapes upsert the same resource.
	// Callers should typically retry once.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the appropriate
// sentinel error if it's a known query error type. Returns the original error
// if it's not a QueryError or doesn't match known patterns.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %s", ErrDuplicateURL, msg)
		}
		if strings.Contains(msg, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
		}
	}

	return err
}
