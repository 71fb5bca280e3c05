// Package llm adapts AI completion services to ports.Completer.
package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ContentGenerator/internal/domain"
)

// maxErrorBody caps how much of a failed response body is kept.
const maxErrorBody = 1024

func transportErr(provider string, status int, err error) error {
	return &domain.TransportError{Provider: provider, StatusCode: status, Err: err}
}

// statusError reads a bounded excerpt of a non-2xx body.
func statusError(provider string, resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(payload))
	if msg == "" {
		msg = resp.Status
	}
	return transportErr(provider, resp.StatusCode, errors.New(msg))
}

func misconfigured(provider, what string) error {
	return fmt.Errorf("%s client misconfigured: %s", provider, what)
}
