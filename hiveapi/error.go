package hiveapi

import (
	"github.com/serum-errors/go-serum"
)

const (
	ECodeConfig        = "hivectl-error-config"
	ECodeAuth          = "hivectl-error-auth"
	ECodeTransport     = "hivectl-error-transport"
	ECodeServer        = "hivectl-error-server"
	ECodeValidation    = "hivectl-error-validation"
	ECodeUnknownCmd    = "hivectl-error-unknown-command"
	ECodeFetch         = "hivectl-error-fetch"
	ECodeEditCancelled = "hivectl-error-edit-cancelled"
	ECodeIo            = "hivectl-error-io"
	ECodeUnknown       = "hivectl-error-unknown"
)

// ErrorConfig is returned when the configuration file is missing or unreadable.
//
// Errors:
//
//    - hivectl-error-config --
func ErrorConfig(context string, cause error) error {
	result := serum.Errorf(ECodeConfig,
		"config error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorAuth is returned when the stored credentials cannot be validated or refreshed.
// The message should tell the user how to recover (usually: log in again).
//
// Errors:
//
//    - hivectl-error-auth --
func ErrorAuth(context string, cause error) error {
	result := serum.Errorf(ECodeAuth,
		"authentication error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorTransport wraps connection, DNS, and TLS failures from the HTTP client.
//
// Errors:
//
//    - hivectl-error-transport --
func ErrorTransport(context string, cause error) error {
	result := serum.Errorf(ECodeTransport,
		"transport error: %s: %w", context, cause)
	addDetails(result, [][2]string{
		{"context", context},
	})
	return result
}

// ErrorServer is returned when the registry answers a request with a non-2xx
// status. The message carries whatever detail could be extracted from the
// response body.
//
// Errors:
//
//    - hivectl-error-server --
func ErrorServer(status string, message string) error {
	return serum.Error(ECodeServer,
		serum.WithMessageTemplate("server rejected the operation: {{status}}: {{message}}"),
		serum.WithDetail("status", status),
		serum.WithDetail("message", message),
	)
}

// ErrorValidation is returned when the invocation is invalid before any
// network traffic happens (missing id, unresolvable app, malformed payload).
// The caller must format the message string.
//
// Errors:
//
//    - hivectl-error-validation --
func ErrorValidation(message string, deets ...[2]string) error {
	opts := make([]serum.WithConstruction, 0, len(deets)+1)
	for _, d := range deets {
		opts = append(opts, serum.WithDetail(d[0], d[1]))
	}
	opts = append(opts, serum.WithMessageLiteral(message))
	return serum.Error(ECodeValidation, opts...)
}

// ErrorUnknownCommand is returned when a verb or resource token is not part
// of the closed command set.
//
// Errors:
//
//    - hivectl-error-unknown-command --
func ErrorUnknownCommand(token string) error {
	return serum.Error(ECodeUnknownCmd,
		serum.WithMessageTemplate("unknown command {{token|q}}"),
		serum.WithDetail("token", token),
	)
}

// ErrorFetch is returned when the mandatory read step of an edit fails.
// Distinct from ErrorServer so the exit-code mapping can treat it as a
// pre-flight failure rather than a rejected primary operation.
//
// Errors:
//
//    - hivectl-error-fetch --
func ErrorFetch(ref string, cause error) error {
	result := serum.Errorf(ECodeFetch,
		"could not retrieve %s for editing: %w", ref, cause)
	addDetails(result, [][2]string{
		{"ref", ref},
	})
	return result
}

// ErrorEditCancelled is returned when the user abandons an interactive edit.
//
// Errors:
//
//    - hivectl-error-edit-cancelled --
func ErrorEditCancelled(ref string) error {
	return serum.Error(ECodeEditCancelled,
		serum.WithMessageTemplate("edit of {{ref}} cancelled, no changes submitted"),
		serum.WithDetail("ref", ref),
	)
}

// ErrorIo wraps generic I/O errors from the Go stdlib.
//
// Errors:
//
//    - hivectl-error-io --
func ErrorIo(context string, path string, cause error) error {
	result := serum.Errorf(ECodeIo,
		"io error: %s: %w", context, cause)
	addDetails(result, [][2]string{{"context", context}, {"path", path}})
	return result
}

// ErrorUnknown is returned when an unknown error occurs.
// In most cases, prefer to use more specific errors.
//
// Errors:
//
//    - hivectl-error-unknown --
func ErrorUnknown(msgTmpl string, cause error) error {
	return serum.Errorf(ECodeUnknown, "%s: %w", msgTmpl, cause)
}

// addDetails is a helper to attach details to errors built with serum.Errorf,
// which does not accept detail options directly.
func addDetails(err error, details [][2]string) {
	s := err.(*serum.ErrorValue)
	s.Data.Details = append(s.Data.Details, details...)
}
