package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// ServerError is returned by CircuitBreakerClient when the upstream answers with a 5xx status.
type ServerError struct {
	Service string
	Status  int
	Body    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s server error %d: %s", e.Service, e.Status, e.Body)
}

// DownstreamErrorResponse covers the two error body shapes the shop API
// produces: the enveloped {"error":{"code","message"}} form and the flat
// {"message": "..."} form.
type DownstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var downstream DownstreamErrorResponse
	if json.Unmarshal(bodyBytes, &downstream) == nil {
		if downstream.Error != nil {
			return mapDownstreamError(resp.StatusCode, downstream.Error.Code, downstream.Error.Message, serviceName)
		}
		if downstream.Message != "" {
			return mapDownstreamError(resp.StatusCode, "", downstream.Message, serviceName)
		}
	}

	return mapDownstreamError(resp.StatusCode, "", http.StatusText(resp.StatusCode), serviceName)
}

// mapDownstreamError keeps the meaning of the upstream status. Any 5xx is
// reported as a bad gateway because the fault lies with the service.
func mapDownstreamError(status int, code, message, serviceName string) error {
	if status >= http.StatusInternalServerError {
		return apperrors.BadGateway(serviceName, fmt.Errorf("status %d: %s", status, message))
	}
	if code == "" {
		code = "UPSTREAM_ERROR"
	}
	return apperrors.FromStatus(status, serviceName+": "+message, code)
}
