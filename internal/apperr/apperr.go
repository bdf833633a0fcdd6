// Package apperr classifies client-side failures and turns them into messages
// suitable for display.
package apperr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Localized messages shown to users.
const (
	MsgConnection      = "Erro de conexão. Verifique sua internet e tente novamente."
	MsgInvalidResponse = "Resposta inválida do servidor."
	MsgUnauthorized    = "Sessão expirada. Faça login novamente."
	MsgForbidden       = "Você não tem permissão para esta ação."
	MsgNotFound        = "Recurso não encontrado."
	MsgServer          = "Erro no servidor. Tente novamente mais tarde."
	MsgUnexpected      = "Erro inesperado."
)

// ErrInvalidResponse marks a payload that does not have the expected shape.
var ErrInvalidResponse = errors.New("invalid response")

// APIError is an HTTP error status returned by the ParkHub API.
type APIError struct {
	Status int
	Detail string
	Path   string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return "api " + e.Path + " returned status " + http.StatusText(e.Status) + ": " + e.Detail
	}
	return "api " + e.Path + " returned status " + http.StatusText(e.Status)
}

// IsUnauthorized reports whether err is or wraps a 401 APIError.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsTransport reports whether err originates from the network layer.
func IsTransport(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Message converts err into a display string. It returns "" for nil.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrInvalidResponse) {
		return MsgInvalidResponse
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if detail := strings.TrimSpace(apiErr.Detail); detail != "" {
			return detail
		}
		return statusMessage(apiErr.Status)
	}
	if IsTransport(err) {
		return MsgConnection
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MsgUnexpected
}

func statusMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return MsgUnauthorized
	case status == http.StatusForbidden:
		return MsgForbidden
	case status == http.StatusNotFound:
		return MsgNotFound
	case status >= 500:
		return MsgServer
	default:
		return MsgUnexpected
	}
}
