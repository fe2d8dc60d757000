package mws

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	signatureMethod  = "HmacSHA256"
	signatureVersion = "2"
	timestampLayout  = "2006-01-02T15:04:05Z"
)

// Credentials identify the seller account a request is made for.
type Credentials struct {
	SellerID    string
	AccessKeyID string
	SecretKey   string
	AuthToken   string // MWSAuthToken, only for delegated access
}

// Signer produces MWS Signature Version 2 query strings.
type Signer struct {
	creds   Credentials
	version string
	now     func() time.Time
}

// NewSigner creates a signer for the given API version.
func NewSigner(creds Credentials, version string) *Signer {
	return &Signer{
		creds:   creds,
		version: version,
		now:     time.Now,
	}
}

// WithClock overrides the timestamp source.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

// Sign adds the common authentication parameters to a copy of params and
// returns the encoded query including its Signature.
func (s *Signer) Sign(endpoint string, params Params) (string, error) {
	if s.creds.AccessKeyID == "" || s.creds.SecretKey == "" {
		return "", errors.New("missing access key or secret key")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}

	signed := params.Clone()
	signed.Set("AWSAccessKeyId", s.creds.AccessKeyID)
	if s.creds.SellerID != "" {
		signed.Set("SellerId", s.creds.SellerID)
	}
	if s.creds.AuthToken != "" {
		signed.Set("MWSAuthToken", s.creds.AuthToken)
	}
	signed.Set("SignatureMethod", signatureMethod)
	signed.Set("SignatureVersion", signatureVersion)
	signed.Set("Timestamp", s.now().UTC().Format(timestampLayout))
	if s.version != "" {
		signed.Set("Version", s.version)
	}
	signed.Delete("Signature")

	canonical := signed.Encode()
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	toSign := strings.Join([]string{"POST", strings.ToLower(u.Host), path, canonical}, "\n")

	mac := hmac.New(sha256.New, []byte(s.creds.SecretKey))
	mac.Write([]byte(toSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return canonical + "&Signature=" + Escape(signature), nil
}
