// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by remote API clients.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a failed response body is read.
const maxErrorBody = 64 << 10

// maxMessageRunes caps the raw body kept in APIError.Message.
const maxMessageRunes = 200

// APIError is a non-2xx response. Code and Message come from a Microsoft
// Graph error envelope when the body carries one; otherwise Message holds
// the start of the raw body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " [request-id %s]", e.RequestID)
	}
	return b.String()
}

// graphError is the Microsoft Graph error envelope.
type graphError struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		InnerError struct {
			RequestID string `json:"request-id"`
		} `json:"innerError"`
	} `json:"error"`
}

// CheckResponse returns nil for 2xx responses. For anything else it drains
// the body and returns an *APIError; the caller still closes the body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
	}

	var ge graphError
	if err := json.Unmarshal(body, &ge); err == nil && (ge.Error.Code != "" || ge.Error.Message != "") {
		apiErr.Code = ge.Error.Code
		apiErr.Message = ge.Error.Message
		if ge.Error.InnerError.RequestID != "" {
			apiErr.RequestID = ge.Error.InnerError.RequestID
		}
		return apiErr
	}

	msg := strings.TrimSpace(string(body))
	if r := []rune(msg); len(r) > maxMessageRunes {
		msg = string(r[:maxMessageRunes]) + "..."
	}
	apiErr.Message = msg
	return apiErr
}

// DecodeJSON checks resp and decodes its body into v.
func DecodeJSON(resp *http.Response, v any) error {
	if err := CheckResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
