package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Embedder turns documents into vectors. The returned slice is aligned with
// docs: vector i belongs to document i.
type Embedder interface {
	Embed(ctx context.Context, docs []string) ([][]float32, error)
	Provider() string
	Model() string
}

// ErrMalformedResponse reports an embedding response that cannot be aligned
// with the request.
var ErrMalformedResponse = errors.New("malformed embedding response")

const (
	ErrorNetwork   = "network"
	ErrorQuota     = "quota"
	ErrorAuth      = "auth"
	ErrorMalformed = "malformed"
	ErrorTimeout   = "timeout"
	ErrorUnknown   = "unknown"
)

// Classify maps a provider error to a coarse kind for logs.
func Classify(err error) string {
	if err == nil {
		return ErrorUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTimeout
	}

	if errors.Is(err, ErrMalformedResponse) {
		return ErrorMalformed
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return ErrorQuota
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return ErrorAuth
		case apiErr.Code >= http.StatusInternalServerError:
			return ErrorNetwork
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorTimeout
		}
		return ErrorNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "permission"):
		return ErrorAuth
	case strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted"):
		return ErrorQuota
	case strings.Contains(msg, "unmarshal") || strings.Contains(msg, "invalid character"):
		return ErrorMalformed
	}

	return ErrorUnknown
}
