package utils

import (
	"github.com/google/uuid"
)

func GenerateID() string {
	return uuid.NewString()
}

// ValidID reports whether s is a canonical record id.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
