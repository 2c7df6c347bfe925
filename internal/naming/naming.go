// Package naming derives the object storage keys that tie a document's
// original and translated artifacts together, and inverts them back into
// human-facing filenames.
//
// Keys have the shape {owner}-{token}-{filename} for originals and
// {owner}-translated-{token}-{filename} for translated results. Owner and
// token segments never contain hyphens (usernames are restricted at signup,
// tokens are alphanumeric), so inversion splits only on the leading two or
// three hyphens and filenames with embedded hyphens survive the round trip.
package naming

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const translatedMarker = "translated"

// NewToken returns a fresh per-submission token: the current unix
// milliseconds in base 36 followed by random hex. The alphabet is
// alphanumeric so tokens can never introduce extra hyphens into a key.
// Collisions across concurrent submissions are treated as negligible;
// there is no retry.
func NewToken() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// Timestamp alone still keeps keys unique per-owner in practice.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + hex.EncodeToString(buf)
}

// OriginalKey derives the uploads-bucket key for the source artifact.
func OriginalKey(owner, token, filename string) string {
	return fmt.Sprintf("%s-%s-%s", owner, token, filename)
}

// TranslatedKey derives the translated-bucket key for the result artifact.
func TranslatedKey(owner, token, filename string) string {
	return fmt.Sprintf("%s-%s-%s-%s", owner, translatedMarker, token, filename)
}

// OriginalFilename recovers the filename from an original key by stripping
// the {owner}-{token}- prefix.
func OriginalFilename(key string) (string, error) {
	parts := strings.SplitN(key, "-", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", fmt.Errorf("malformed original key %q", key)
	}
	return parts[2], nil
}

// TranslatedFilename recovers the filename from a translated key by
// stripping the {owner}-translated-{token}- prefix.
func TranslatedFilename(key string) (string, error) {
	parts := strings.SplitN(key, "-", 4)
	if len(parts) != 4 || parts[0] == "" || parts[2] == "" || parts[3] == "" {
		return "", fmt.Errorf("malformed translated key %q", key)
	}
	if parts[1] != translatedMarker {
		return "", fmt.Errorf("key %q is not a translated key", key)
	}
	return parts[3], nil
}

// TranslatedDisplayName renders the user-facing name of a translated
// artifact. It is derived from the filename only, never from the storage
// key's internal token.
func TranslatedDisplayName(filename string) string {
	return translatedMarker + "-" + filename
}
