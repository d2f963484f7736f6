package internal

import "errors"

// FailureKind is the closed set of failure classes shown to the user.
type FailureKind string

const (
	FailureNetwork    FailureKind = "network"
	FailureProtocol   FailureKind = "protocol"
	FailureValidation FailureKind = "validation"
	FailureUnknown    FailureKind = "unknown"
)

const (
	msgNetwork    = "Network connection failed. Please check your internet connection."
	msgValidation = "Please enter a message"
	msgUnexpected = "An unexpected error occurred."
	msgGeneric    = "Something went wrong. Please try again."
)

var statusMessages = map[int]string{
	400: "Invalid request. Please check your message and try again.",
	401: "Authentication failed. Please refresh the page.",
	403: "Access denied. You may not have permission to perform this action.",
	404: "Service not found. The chat service may be unavailable.",
	429: "Too many requests. Please wait a moment before trying again.",
	500: "Server error. Please try again in a few moments.",
	503: "Service temporarily unavailable. Please try again later.",
}

// Classification is the result of mapping an error onto the taxonomy.
type Classification struct {
	Kind    FailureKind
	Status  int
	Message string
}

// Classify maps any error onto exactly one failure class and user-facing
// string. A nil error is treated as "no response reached".
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: FailureNetwork, Message: msgNetwork}
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return Classification{Kind: FailureNetwork, Message: msgNetwork}
	}

	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		msg, ok := statusMessages[protoErr.Status]
		if !ok {
			msg = msgUnexpected
		}
		return Classification{Kind: FailureProtocol, Status: protoErr.Status, Message: msg}
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return Classification{Kind: FailureValidation, Message: msgValidation}
	}

	return Classification{Kind: FailureUnknown, Message: msgGeneric}
}

// UserMessage returns the user-facing string for err.
func UserMessage(err error) string {
	return Classify(err).Message
}
