// Package uuid issues time-ordered identifiers for requests and outbound
// messages so logs and queue payloads sort by creation time.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string, falling back to v4 if the clock sequence
// cannot be generated.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}

// Version returns the UUID version of s, or 0 if s is not a UUID.
func Version(s string) int {
	id, err := googleuuid.Parse(s)
	if err != nil {
		return 0
	}
	return int(id.Version())
}
