package local

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"catphotos"
)

// Signer issues and verifies the HMAC-signed URLs that stand in for
// presigned URLs when running against the local object store. The signature
// covers method, object key, and expiry, so a URL grants exactly one
// operation on one key for a limited time.
type Signer struct {
	baseURL string
	secret  []byte
	now     func() time.Time
}

func NewSigner(baseURL string, secret []byte) *Signer {
	return &Signer{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		now:     time.Now,
	}
}

// SignedURL returns a URL for the local /objects endpoint valid for ttl.
func (s *Signer) SignedURL(method, key string, ttl time.Duration) string {
	expires := s.now().Add(ttl).Unix()
	return fmt.Sprintf("%s/objects/%s?expires=%d&sig=%s",
		s.baseURL, key, expires, s.sign(method, key, expires))
}

// Verify checks the expiry and signature of a presented URL's parameters.
// Failures are ErrUnauthorized; the caller maps them to 403.
func (s *Signer) Verify(method, key, expiresParam, sig string) error {
	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		return fmt.Errorf("verify object url: bad expiry: %w", catphotos.ErrUnauthorized)
	}
	if s.now().After(time.Unix(expires, 0)) {
		return fmt.Errorf("verify object url: expired: %w", catphotos.ErrUnauthorized)
	}

	expected := s.sign(method, key, expires)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return fmt.Errorf("verify object url: signature mismatch: %w", catphotos.ErrUnauthorized)
	}
	return nil
}

func (s *Signer) sign(method, key string, expires int64) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = io.WriteString(mac, method+"\n"+key+"\n"+strconv.FormatInt(expires, 10))
	return hex.EncodeToString(mac.Sum(nil))
}
