package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderID        = "X-Webhook-ID"
)

// SignatureHeaders carries the values of the signature headers.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
	ID        string
}

// Apply writes the signature headers onto h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Signature)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	if s.ID != "" {
		h.Set(HeaderID, s.ID)
	}
}

// SignPayload signs payload as hex(HMAC-SHA256(secret, "<unix ts>.<payload>")).
func SignPayload(secret string, payload []byte) (SignatureHeaders, error) {
	return signAt(secret, payload, time.Now())
}

func signAt(secret string, payload []byte, at time.Time) (SignatureHeaders, error) {
	if secret == "" {
		return SignatureHeaders{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	ts := at.Unix()
	return SignatureHeaders{
		Signature: computeSignature(secret, ts, payload),
		Timestamp: ts,
		ID:        uuid.NewString(),
	}, nil
}

func computeSignature(secret string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.", ts)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks headers against payload. A positive maxAge rejects
// signatures older than maxAge or more than a minute in the future.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration) error {
	if secret == "" {
		return fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	if headers.Signature == "" {
		return fmt.Errorf("%w: signature is missing", ErrInvalidSignature)
	}

	if maxAge > 0 {
		age := time.Since(time.Unix(headers.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("%w: timestamp too old: %v", ErrInvalidSignature, age)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: timestamp is in the future", ErrInvalidSignature)
		}
	}

	expected := computeSignature(secret, headers.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

// ExtractSignatureHeaders reads the signature headers from h.
func ExtractSignatureHeaders(h http.Header) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		Signature: h.Get(HeaderSignature),
		ID:        h.Get(HeaderID),
	}
	if raw := h.Get(HeaderTimestamp); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp format", ErrInvalidSignature)
		}
		sig.Timestamp = ts
	}
	if sig.Signature == "" || sig.Timestamp == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: missing required signature headers", ErrInvalidSignature)
	}
	return sig, nil
}

// VerifyRequest extracts the signature headers from r and verifies body.
func VerifyRequest(secret string, r *http.Request, body []byte, maxAge time.Duration) error {
	sig, err := ExtractSignatureHeaders(r.Header)
	if err != nil {
		return err
	}
	return VerifySignature(secret, body, sig, maxAge)
}
