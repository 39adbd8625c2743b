package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	subscribeMode   = "subscribe"
	signaturePrefix = "sha256="

	// SignatureHeader carries the HMAC of a POSTed webhook body.
	SignatureHeader = "X-Hub-Signature-256"
)

// VerifyParams holds the hub.* query parameters of a subscription handshake.
type VerifyParams struct {
	Mode      string
	Token     string
	Challenge string
}

// VerifyResult reports the handshake outcome. Challenge is only set when Valid.
type VerifyResult struct {
	Valid     bool
	Challenge string
}

// Verify accepts the handshake iff mode is "subscribe" and the token matches.
func Verify(params VerifyParams, expectedToken string) VerifyResult {
	if params.Mode == subscribeMode && params.Token == expectedToken {
		return VerifyResult{Valid: true, Challenge: params.Challenge}
	}
	return VerifyResult{Valid: false}
}

// VerifySignature checks a "sha256=<hex>" header against the HMAC-SHA256 of
// body keyed by appSecret. Hex case is not significant; malformed headers
// yield false.
func VerifySignature(body []byte, header, appSecret string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil || len(provided) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Sign returns the header value the platform would send for body.
func Sign(body []byte, appSecret string) string {
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
