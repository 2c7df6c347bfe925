// Package auth covers credential hashing and the opaque identity tokens
// that accompany every authenticated call. Tokens are HMAC-SHA256 signed
// strings of the form {username}:{expiresUnix}:{signature}.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
)

// Usernames stay hyphen-free so storage key inversion can treat the owner
// as a single hyphen-delimited segment.
var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,32}$`)

// ValidUsername reports whether name is an acceptable account name.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TokenIssuer signs and verifies identity tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue returns a signed token for username, valid for the configured TTL.
func (t *TokenIssuer) Issue(username string) string {
	expires := time.Now().Add(t.ttl).Unix()
	return fmt.Sprintf("%s:%d:%s", username, expires, t.sign(username, expires))
}

// Verify returns the username carried by a valid token. Malformed, expired
// and tampered tokens all fail with Unauthorized.
func (t *TokenIssuer) Verify(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return "", fault.New(fault.Unauthorized, "malformed token")
	}
	username, expiresRaw, signature := parts[0], parts[1], parts[2]
	expires, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return "", fault.New(fault.Unauthorized, "malformed token expiry")
	}
	expected := t.sign(username, expires)
	// Constant-time comparison avoids timing attacks on the signature.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", fault.New(fault.Unauthorized, "invalid token signature")
	}
	if time.Unix(expires, 0).Before(time.Now()) {
		return "", fault.New(fault.Unauthorized, "token expired")
	}
	return username, nil
}

func (t *TokenIssuer) sign(username string, expires int64) string {
	mac := hmac.New(sha256.New, t.secret)
	fmt.Fprintf(mac, "%s:%d", username, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
