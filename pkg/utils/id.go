package utils

import (
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GenerateID generates a new UUID v4 string
func GenerateID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		log.WithError(err).Error("Failed to generate UUID")
		return ""
	}
	return id.String()
}

// GenerateToken returns a 64 character hex token for password links.
func GenerateToken() string {
	return strings.ReplaceAll(GenerateID()+GenerateID(), "-", "")
}

// IsValidUUID checks if the string is a valid UUID
func IsValidUUID(u string) bool {
	_, err := uuid.Parse(u)
	return err == nil
}
