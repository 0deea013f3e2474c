package router

import (
	"context"
	goerrors "errors"
	"net"
	"net/http"

	"github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/httpclient"
	"github.com/youngchun/callforward/internal/logger"
)

func shouldRetry(logger *logger.Logger, err error) bool {
	// HTTP errors
	if httpErr, ok := httpclient.IsHTTPError(err); ok {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			logger.Debugw("retrying due to HTTP error",
				"status_code", httpErr.StatusCode,
				"error", httpErr,
			)
			return true
		}
		logger.Debugw("non-retryable HTTP error",
			"status_code", httpErr.StatusCode,
			"error", httpErr,
		)
		return false
	}

	// Network errors
	var netErr net.Error
	if goerrors.As(err, &netErr) && netErr.Timeout() {
		logger.Debugw("retrying due to network timeout", "error", netErr)
		return true
	}

	if goerrors.Is(err, context.Canceled) {
		return false
	}

	// Business logic and configuration errors (don't retry)
	if errors.IsValidation(err) ||
		errors.IsNotFound(err) ||
		errors.IsConfiguration(err) ||
		errors.Is(err, errors.ErrPermissionDenied) {
		return false
	}

	// By default, retry unknown errors
	return true
}
