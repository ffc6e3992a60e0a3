package logger

import (
	"regexp"
	"strings"
)

var secretKeys = []string{"password", "secret", "token", "api_key", "apikey"}

// credentialsInURL matches the user:password@ part of a connection string.
var credentialsInURL = regexp.MustCompile(`(://[^:/@\s]+):([^@/\s]+)@`)

// RedactDSN masks the password of a URL-style connection string.
// "postgres://app:hunter2@db:5432/attr" → "postgres://app:***@db:5432/attr"
func RedactDSN(dsn string) string {
	return credentialsInURL.ReplaceAllString(dsn, "$1:***@")
}

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range secretKeys {
		if strings.Contains(key, k) {
			return "***"
		}
	}
	return RedactDSN(val)
}
