package tuya

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// signMethod is the signature algorithm name sent in the sign_method header.
const signMethod = "HMAC-SHA256"

// stringToSign builds the canonical request string for the Tuya v2 signing
// scheme:
//
//	METHOD \n SHA256(body) \n signed-headers \n path-with-query
//
// This tool only issues bodyless GETs and signs no optional headers, so the
// body hash is the digest of the empty string and the headers line is empty.
func stringToSign(method, body, pathWithQuery string) string {
	sum := sha256.Sum256([]byte(body))
	return strings.Join([]string{
		strings.ToUpper(method),
		hex.EncodeToString(sum[:]),
		"", // no signed headers
		pathWithQuery,
	}, "\n")
}

// signature computes the request signature: HMAC-SHA256 over
// client_id + access_token + t + nonce + stringToSign, upper-case hex.
// The access token is empty for the token request itself.
func signature(clientID, secret, accessToken, timestamp, nonce, canonical string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(clientID + accessToken + timestamp + nonce + canonical))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
