package cmsauth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

// Editor is the identity behind an authorized editing session.
type Editor struct {
	Subject string
	Email   string
}

type identityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 identity tokens issued by the site's login widget.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

var errNoIdentity = errors.New("no identity token")

// FromRequest reads the identity token from the identity_token query
// parameter or the nf_jwt cookie.
func FromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("identity_token"); t != "" {
		return t
	}
	if c, err := r.Cookie("nf_jwt"); err == nil {
		return c.Value
	}
	return ""
}

func (v *Verifier) Verify(token string) (Editor, error) {
	if token == "" {
		return Editor{}, errNoIdentity
	}
	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return Editor{}, fmt.Errorf("jwt parse: %w", err)
	}
	if !parsed.Valid {
		return Editor{}, fmt.Errorf("jwt invalid")
	}
	if claims.Subject == "" && claims.Email == "" {
		return Editor{}, fmt.Errorf("jwt has no subject")
	}
	return Editor{Subject: claims.Subject, Email: claims.Email}, nil
}
