package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/trendwire/internal/httpclient"
)

// Outcome classifies a lookup.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeNoCredentials Outcome = "no_credentials"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeAuthRejected  Outcome = "auth_rejected"
	OutcomeTimeout       Outcome = "timeout"
	OutcomeEmpty         Outcome = "empty"
	OutcomeFailed        Outcome = "failed"
)

type policy struct {
	level   log.Level
	message string
}

// policies is the single place failure handling is decided. Every outcome
// here answers with Fallback and is never cached.
var policies = map[Outcome]policy{
	OutcomeNoCredentials: {log.WarnLevel, "web search disabled: no API key configured"},
	OutcomeRateLimited:   {log.WarnLevel, "web search rate limited"},
	OutcomeAuthRejected:  {log.ErrorLevel, "web search API key rejected"},
	OutcomeTimeout:       {log.WarnLevel, "web search timed out"},
	OutcomeEmpty:         {log.WarnLevel, "web search returned no usable results"},
	OutcomeFailed:        {log.ErrorLevel, "web search failed"},
}

// classify maps a provider result to an outcome.
func classify(hits []Hit, err error) Outcome {
	if err == nil {
		if len(hits) == 0 {
			return OutcomeEmpty
		}
		return OutcomeOK
	}

	var se *httpclient.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusTooManyRequests:
			return OutcomeRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			return OutcomeAuthRejected
		}
		return OutcomeFailed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return OutcomeTimeout
	}
	if errors.Is(err, errShape) {
		return OutcomeEmpty
	}
	return OutcomeFailed
}

// Fallback is the fixed text returned whenever live results are unavailable.
// It depends only on the query, so model prompts stay reproducible.
func Fallback(query string) string {
	return fmt.Sprintf("Search results for %q:\n\n"+
		"No live web results are available right now. "+
		"Answer from existing knowledge and state plainly that recent developments could not be verified.", query)
}
