package imagegen

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DefaultRegion  = "cn-north-1"
	DefaultService = "cv"

	signAlgorithm = "HMAC-SHA256"
	xDateLayout   = "20060102T150405Z"
)

// Signer signs requests with the Volcengine HMAC-SHA256 scheme.
type Signer struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

// Sign sets X-Date, X-Content-Sha256 and Authorization on req. body must be
// the exact bytes sent.
func (s Signer) Sign(req *http.Request, body []byte, now time.Time) {
	region, service := s.Region, s.Service
	if region == "" {
		region = DefaultRegion
	}
	if service == "" {
		service = DefaultService
	}

	now = now.UTC()
	xDate := now.Format(xDateLayout)
	shortDate := xDate[:8]
	payloadHash := hashHex(body)

	req.Header.Set("X-Date", xDate)
	req.Header.Set("X-Content-Sha256", payloadHash)
	if req.Host == "" {
		req.Host = req.URL.Host
	}

	headers := map[string]string{
		"content-type":     strings.TrimSpace(req.Header.Get("Content-Type")),
		"host":             req.Host,
		"x-content-sha256": payloadHash,
		"x-date":           xDate,
	}
	names := make([]string, 0, len(headers))
	for k := range headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var canonHeaders strings.Builder
	for _, k := range names {
		canonHeaders.WriteString(k + ":" + headers[k] + "\n")
	}
	signedHeaders := strings.Join(names, ";")

	path := req.URL.EscapedPath()
	if path == "" {
		path = "/"
	}
	canonical := strings.Join([]string{
		req.Method,
		path,
		canonicalQuery(req.URL.Query()),
		canonHeaders.String(),
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{shortDate, region, service, "request"}, "/")
	stringToSign := strings.Join([]string{signAlgorithm, xDate, scope, hashHex([]byte(canonical))}, "\n")

	key := hmacSHA256([]byte(s.SecretKey), shortDate)
	key = hmacSHA256(key, region)
	key = hmacSHA256(key, service)
	key = hmacSHA256(key, "request")
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		signAlgorithm, s.AccessKey, scope, signedHeaders, signature))
}

func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, queryEscape(k)+"="+queryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// queryEscape percent-encodes everything outside the RFC 3986 unreserved set.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func hashHex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func hmacSHA256(key []byte, msg string) []byte {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(msg))
	return m.Sum(nil)
}
