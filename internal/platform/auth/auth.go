// Package auth resolves the per-request caller context. Regular principals
// arrive as resolved headers from the upstream authentication collaborator;
// agency staff carry an HMAC-signed bearer token. Credential verification
// itself happens upstream.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"mandate/internal/shared/principal"
)

const (
	headerIdentityIDValue = "X-Identity-Id-Value"
	headerPartyID         = "X-Party-Id"
	headerBusinessNumber  = "X-Business-Number"
)

var ErrInvalidAgencyToken = errors.New("invalid agency token")

// agencyClaims is the internal claims type used for JWT parsing.
type agencyClaims struct {
	jwt.RegisteredClaims
	DisplayName  string `json:"display_name"`
	Agency       string `json:"agency"`
	ProgramRoles []struct {
		Program string `json:"program"`
		Role    string `json:"role"`
	} `json:"program_roles"`
}

// TokenParser decodes agency bearer tokens into an AgencyUser.
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// ParseAgencyToken validates the HMAC signature and maps the claims to an
// AgencyUser. An empty configured secret disables agency callers entirely.
func (p *TokenParser) ParseAgencyToken(raw string) (principal.AgencyUser, error) {
	if len(p.secret) == 0 {
		return principal.AgencyUser{}, ErrInvalidAgencyToken
	}

	var claims agencyClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidAgencyToken
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return principal.AgencyUser{}, ErrInvalidAgencyToken
	}

	user := principal.AgencyUser{
		ID:          strings.TrimSpace(claims.Subject),
		DisplayName: strings.TrimSpace(claims.DisplayName),
		Agency:      strings.TrimSpace(claims.Agency),
	}
	for _, grant := range claims.ProgramRoles {
		user.ProgramRoles = append(user.ProgramRoles, principal.ProgramRole{
			Program: strings.TrimSpace(grant.Program),
			Role:    strings.TrimSpace(grant.Role),
		})
	}
	if user.ID == "" {
		return principal.AgencyUser{}, ErrInvalidAgencyToken
	}
	return user, nil
}

// ResolvePrincipal builds the caller context from request headers and, when
// present, the agency bearer token.
func (p *TokenParser) ResolvePrincipal(r *http.Request) (principal.Principal, error) {
	caller := principal.Principal{
		IdentityIDValue: strings.TrimSpace(r.Header.Get(headerIdentityIDValue)),
		PartyID:         strings.TrimSpace(r.Header.Get(headerPartyID)),
		BusinessNumber:  strings.TrimSpace(r.Header.Get(headerBusinessNumber)),
	}

	authorization := strings.TrimSpace(r.Header.Get("Authorization"))
	if bearer, ok := strings.CutPrefix(authorization, "Bearer "); ok {
		user, err := p.ParseAgencyToken(strings.TrimSpace(bearer))
		if err != nil {
			return principal.Principal{}, err
		}
		caller.AgencyUser = &user
	}
	return caller, nil
}
