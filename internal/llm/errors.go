package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFatalAPI marks provider errors that retrying will not fix, such as bad
// credentials or an exhausted quota.
var ErrFatalAPI = errors.New("fatal LLM API error")

// ErrReasoningUnavailable reports that the reasoning endpoint could not
// produce a usable analysis. Callers fall back to a canned reply.
var ErrReasoningUnavailable = errors.New("reasoning endpoint unavailable")

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func wrapFatalError(err error) error {
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
