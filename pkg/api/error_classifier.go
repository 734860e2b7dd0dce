package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QuotaError is a transient rate-limit or quota signal. It is the only error
// the retry policy retries.
type QuotaError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exhausted (HTTP %d %s): %s", e.StatusCode, e.Status, e.Message)
}

// PermanentError covers auth failures, malformed requests and anything else
// that retrying within the run would not fix.
type PermanentError struct {
	StatusCode int
	Status     string
	Message    string
	Err        error
}

func (e *PermanentError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("API returned HTTP %d %s: %s", e.StatusCode, e.Status, e.Message)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// IsQuotaError reports whether err is, or wraps, a QuotaError
func IsQuotaError(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// googleErrorBody is the JSON error envelope returned by Google REST APIs
type googleErrorBody struct {
	Error struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Status  string            `json:"status"`
		Details []json.RawMessage `json:"details"`
	} `json:"error"`
}

// ClassifyResponse turns a non-2xx response into a QuotaError or a
// PermanentError. HTTP 429, status RESOURCE_EXHAUSTED and any quotaError
// detail all count as quota signals.
func ClassifyResponse(statusCode int, body []byte) error {
	var envelope googleErrorBody
	message := strings.TrimSpace(truncate(string(body), 300))
	status := ""
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
		status = envelope.Error.Status
	}

	if statusCode == 429 || status == "RESOURCE_EXHAUSTED" || hasQuotaDetail(envelope.Error.Details) {
		return &QuotaError{StatusCode: statusCode, Status: status, Message: message}
	}

	return &PermanentError{StatusCode: statusCode, Status: status, Message: message}
}

func hasQuotaDetail(details []json.RawMessage) bool {
	for _, d := range details {
		if strings.Contains(string(d), `"quotaError"`) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
