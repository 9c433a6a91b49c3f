package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureTolerance is the replay window for webhook signatures. Events
// signed more than this long ago are rejected even with a valid HMAC.
const SignatureTolerance = 300 * time.Second

// VerifySignature validates a gateway webhook signature header of the form
// "t=<unix-ts>,v1=<hex hmac>" against the raw request body. The expected
// signature is HMAC-SHA256 over "{t}.{body}" keyed by the shared secret.
func VerifySignature(payload []byte, signatureHeader, webhookSecret string) bool {
	return verifySignatureAt(payload, signatureHeader, webhookSecret, time.Now())
}

func verifySignatureAt(payload []byte, signatureHeader, webhookSecret string, now time.Time) bool {
	header := strings.TrimSpace(signatureHeader)
	secret := strings.TrimSpace(webhookSecret)
	if header == "" || secret == "" {
		return false
	}

	var timestamp string
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		pair := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(pair) != 2 {
			continue
		}
		switch pair[0] {
		case "t":
			timestamp = pair[1]
		case "v1":
			if sig, err := hex.DecodeString(strings.ToLower(pair[1])); err == nil {
				signatures = append(signatures, sig)
			}
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if now.Sub(time.Unix(ts, 0)) > SignatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return true
		}
	}
	return false
}
