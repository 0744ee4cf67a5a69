package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// APIKeyRandomBytes is the length of the random part of an API key.
const APIKeyRandomBytes = 24

// SecretBytes is the length of the signing secret paired with each key.
const SecretBytes = 32

// EmptyBodyHash is the SHA-256 of an empty body, used when a signed request
// carries no payload.
var EmptyBodyHash = hex.EncodeToString(func() []byte {
	h := sha256.Sum256(nil)
	return h[:]
}())

// GenerateAPIKey creates a new SDK credential pair: the public key with the
// given prefix and the HMAC signing secret. Both are shown once at creation;
// the secret is stored server-side for signature verification.
func GenerateAPIKey(prefix string) (key string, secret string, err error) {
	keyBytes := make([]byte, APIKeyRandomBytes)
	if _, err = rand.Read(keyBytes); err != nil {
		return "", "", fmt.Errorf("generating key bytes: %w", err)
	}
	secretBytes := make([]byte, SecretBytes)
	if _, err = rand.Read(secretBytes); err != nil {
		return "", "", fmt.Errorf("generating secret bytes: %w", err)
	}

	key = fmt.Sprintf("%s%s", prefix, base64.RawURLEncoding.EncodeToString(keyBytes))
	secret = hex.EncodeToString(secretBytes)
	return key, secret, nil
}

// CanonicalString builds the string signed by SDK clients:
//
//	METHOD \n path \n sorted-urlencoded-query \n sha256hex(body) \n timestamp
//
// Query parameters are sorted by key so client and server always agree on
// the representation regardless of original ordering.
func CanonicalString(method, path string, query url.Values, body []byte, timestamp int64) string {
	bodyHash := EmptyBodyHash
	if len(body) > 0 {
		h := sha256.Sum256(body)
		bodyHash = hex.EncodeToString(h[:])
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var q strings.Builder
	for i, k := range keys {
		vs := append([]string(nil), query[k]...)
		sort.Strings(vs)
		for j, v := range vs {
			if i > 0 || j > 0 {
				q.WriteByte('&')
			}
			q.WriteString(url.QueryEscape(k))
			q.WriteByte('=')
			q.WriteString(url.QueryEscape(v))
		}
	}

	return strings.Join([]string{
		strings.ToUpper(method),
		path,
		q.String(),
		bodyHash,
		strconv.FormatInt(timestamp, 10),
	}, "\n")
}

// Sign computes the hex HMAC-SHA256 signature of the canonical string.
func Sign(secret, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a client-provided signature in constant time.
func VerifySignature(secret, canonical, signature string) bool {
	expected := Sign(secret, canonical)
	return hmac.Equal([]byte(expected), []byte(signature))
}
