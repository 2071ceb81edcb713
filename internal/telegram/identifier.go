package telegram

import (
	"regexp"
	"strings"

	"github.com/blockedby/channel-stats/internal/ingest"
)

// public usernames are 4-32 chars, start with a letter
var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

var linkHosts = []string{"t.me/", "telegram.me/", "telegram.dog/"}

// ParseIdentifier extracts a public channel username from user input.
//
// Accepted forms: "@name", "name", "t.me/name", "https://t.me/name",
// "t.me/s/name" and post links like "t.me/name/123". Invite links are rejected.
func ParseIdentifier(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ingest.ValidationError{Field: "identifier", Reason: "is required"}
	}

	lower := strings.ToLower(s)
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, prefix) {
			s, lower = s[len(prefix):], lower[len(prefix):]
		}
	}
	if strings.HasPrefix(lower, "www.") {
		s, lower = s[4:], lower[4:]
	}

	isLink := false
	for _, host := range linkHosts {
		if strings.HasPrefix(lower, host) {
			s = s[len(host):]
			isLink = true
			break
		}
	}

	if isLink {
		if strings.HasPrefix(s, "+") || strings.HasPrefix(strings.ToLower(s), "joinchat") {
			return "", &ingest.ValidationError{Field: "identifier", Reason: "invite links are not supported"}
		}
		s = strings.TrimPrefix(s, "s/")
		if i := strings.IndexAny(s, "/?#"); i >= 0 {
			s = s[:i]
		}
	}

	s = strings.TrimPrefix(s, "@")
	if strings.HasPrefix(s, "+") {
		return "", &ingest.ValidationError{Field: "identifier", Reason: "invite links are not supported"}
	}
	if !usernameRe.MatchString(s) {
		return "", &ingest.ValidationError{Field: "identifier", Reason: "not a valid channel username: " + raw}
	}
	return s, nil
}
