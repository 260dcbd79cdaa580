package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// CSRFField is the hidden form field carrying the token.
const CSRFField = "csrf_token"

type csrfSigner struct {
	secret []byte
}

func newCSRFSigner(secret string) csrfSigner {
	return csrfSigner{secret: []byte(secret)}
}

// Token binds the session's random nonce to the server secret.
func (c csrfSigner) Token(sess *Session) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(sess.ID))
	mac.Write([]byte{0})
	mac.Write([]byte(sess.CSRFToken))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (c csrfSigner) Verify(sess *Session, token string) bool {
	if sess == nil || token == "" {
		return false
	}
	return hmac.Equal([]byte(c.Token(sess)), []byte(token))
}
