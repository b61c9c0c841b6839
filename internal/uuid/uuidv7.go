// Package uuid issues the primary keys of every table.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7 string, so keys sort by creation time. A random v4 is
// returned if the generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates a client-supplied id and returns its canonical form.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}
