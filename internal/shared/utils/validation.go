package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxJSONSize    = 1 * 1024 * 1024 // 1MB - maximum RPC payload size
	MaxMessageSize = 64 * 1024       // 64KB - single WebSocket frame
)

// String length limits
const (
	MaxAPILength         = 512
	MaxNameLength        = 256
	MaxDescriptionLength = 2048
	MaxEventNameLength   = 128
)

var (
	// MethodNamePattern allows identifiers as used in RPC method suffixes
	MethodNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	// EventNamePattern allows alphanumeric, dots, colons, hyphens, underscores
	EventNamePattern = regexp.MustCompile(`^[a-zA-Z0-9.:_-]+$`)
)

// ValidateSize checks if the data size is within limits
func ValidateSize(data []byte, maxSize int) error {
	if len(data) > maxSize {
		return fmt.Errorf("payload size %d bytes exceeds maximum %d bytes", len(data), maxSize)
	}
	return nil
}

// ValidateAPI checks a service type string
func ValidateAPI(api string) error {
	if strings.TrimSpace(api) == "" {
		return fmt.Errorf("api cannot be empty")
	}
	if len(api) > MaxAPILength {
		return fmt.Errorf("api exceeds %d characters", MaxAPILength)
	}
	if !utf8.ValidString(api) {
		return fmt.Errorf("api contains invalid UTF-8")
	}
	if strings.ContainsAny(api, "@\n\r") {
		return fmt.Errorf("api contains reserved characters")
	}
	return nil
}

// ValidateRecordText checks display name and description lengths
func ValidateRecordText(displayName, description string) error {
	if len(displayName) > MaxNameLength {
		return fmt.Errorf("display name exceeds %d characters", MaxNameLength)
	}
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("description exceeds %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateMethodName checks an RPC method name
func ValidateMethodName(name string) error {
	if !MethodNamePattern.MatchString(name) {
		return fmt.Errorf("invalid method name: %q", name)
	}
	return nil
}

// ValidateEventName checks an event name
func ValidateEventName(name string) error {
	if name == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if len(name) > MaxEventNameLength {
		return fmt.Errorf("event name exceeds %d characters", MaxEventNameLength)
	}
	if !EventNamePattern.MatchString(name) {
		return fmt.Errorf("invalid event name: %q", name)
	}
	return nil
}
