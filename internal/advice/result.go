// Package advice builds advice prompts from canonical profiles, sends them to
// a completion service and classifies the outcome.
package advice

import (
	"fmt"
	"net/http"
)

// Kind tags a Result.
type Kind int

// Result kinds.
const (
	KindSuccess Kind = iota
	KindUpstreamError
	KindConfigError
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindUpstreamError:
		return "upstream_error"
	case KindConfigError:
		return "config_error"
	case KindTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Caller-facing error messages. None of them carry upstream details.
const (
	MessageNotConfigured = "OpenAI API key not configured"
	MessageUpstream      = "Failed to get AI advice"
	MessageInternal      = "Internal server error"
)

// Result is the outcome of one advice request. Only the fields belonging to
// Kind are set.
type Result struct {
	Kind Kind

	// KindSuccess
	Text string
	// Fallback is true when Text is NoAdviceText because the service
	// returned nothing usable.
	Fallback bool

	// KindUpstreamError
	StatusCode int
	RawBody    string

	// KindConfigError
	Reason string

	// KindTransportError
	Cause error
}

// Success returns a successful result carrying text.
func Success(text string) Result {
	return Result{Kind: KindSuccess, Text: text}
}

// UpstreamError returns a result for a failing reply from the service.
func UpstreamError(statusCode int, rawBody string) Result {
	return Result{Kind: KindUpstreamError, StatusCode: statusCode, RawBody: rawBody}
}

// ConfigError returns a result for a missing or unusable configuration.
func ConfigError(reason string) Result {
	return Result{Kind: KindConfigError, Reason: reason}
}

// TransportError returns a result for a service that could not be reached.
func TransportError(cause error) Result {
	return Result{Kind: KindTransportError, Cause: cause}
}

// OK reports whether r is a success.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// HTTPStatus is the status code a boundary should answer with.
func (r Result) HTTPStatus() int {
	switch r.Kind {
	case KindSuccess:
		return http.StatusOK
	case KindUpstreamError:
		if r.StatusCode >= 400 && r.StatusCode <= 599 {
			return r.StatusCode
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show an end user. For a success it
// is the advice text.
func (r Result) PublicMessage() string {
	switch r.Kind {
	case KindSuccess:
		return r.Text
	case KindUpstreamError:
		return MessageUpstream
	case KindConfigError:
		return MessageNotConfigured
	default:
		return MessageInternal
	}
}

// Err returns r as an error, or nil for a success.
func (r Result) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindUpstreamError:
		return fmt.Errorf("completion service returned status %d", r.StatusCode)
	case KindConfigError:
		return fmt.Errorf("advice service not configured: %s", r.Reason)
	default:
		return fmt.Errorf("completion service unreachable: %w", r.Cause)
	}
}
