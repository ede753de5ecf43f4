package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Error codes shared by every failed call
const (
	CodeNetwork = "NETWORK_ERROR"
	CodeUnknown = "UNKNOWN_ERROR"
)

// APIError is the normalized form of every failed request
type APIError struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
	// Status is the HTTP status, zero when no response arrived
	Status int `json:"-"`

	err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// HTTPCode builds the HTTP_<status> error code
func HTTPCode(status int) string {
	return "HTTP_" + strconv.Itoa(status)
}

func networkError(err error) *APIError {
	return &APIError{
		Message: "Network error - please check your connection",
		Code:    CodeNetwork,
		err:     err,
	}
}

func unknownError(err error) *APIError {
	msg := "An unexpected error occurred"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &APIError{Message: msg, Code: CodeUnknown, err: err}
}

// AsAPIError extracts an *APIError from err
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or zero
func StatusOf(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is an HTTP 404
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is an HTTP 401
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsRetryable reports whether a read may be retried: network failures and
// server errors are, client errors and caller cancellation are not.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		return false
	}
	if apiErr.Code == CodeNetwork {
		return true
	}
	return apiErr.Status >= http.StatusInternalServerError
}

var userMessages = map[string]string{
	CodeNetwork: "ネットワークエラーが発生しました。接続を確認してください。",
	"HTTP_401":  "認証が必要です。再度ログインしてください。",
	"HTTP_403":  "この操作を実行する権限がありません。",
	"HTTP_404":  "要求されたリソースが見つかりません。",
	"HTTP_500":  "サーバーエラーが発生しました。しばらく後に再試行してください。",
}

const defaultUserMessage = "予期しないエラーが発生しました。"

// statusMessage falls back on the HTTP status when the code is not mapped,
// so server-defined codes like NOT_FOUND still read the same
func statusMessage(status int) (string, bool) {
	switch {
	case status == http.StatusUnauthorized:
		return userMessages["HTTP_401"], true
	case status == http.StatusForbidden:
		return userMessages["HTTP_403"], true
	case status == http.StatusNotFound:
		return userMessages["HTTP_404"], true
	case status >= http.StatusInternalServerError:
		return userMessages["HTTP_500"], true
	}
	return "", false
}

// UserMessage maps err to the text shown to a customer or operator
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			return msg
		}
		return defaultUserMessage
	}
	if msg, ok := userMessages[apiErr.Code]; ok {
		return msg
	}
	if msg, ok := statusMessage(apiErr.Status); ok {
		return msg
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return defaultUserMessage
}
