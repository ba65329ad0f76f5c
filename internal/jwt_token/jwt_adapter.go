package jwttoken

import (
	id "finwell/pkg/domain"
	authmw "finwell/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes JWTService through the auth middleware's
// TokenValidator interface.
type JWTServiceAdapter struct {
	service   *JWTService
	operators map[string]struct{}
}

// NewJWTServiceAdapter wraps the service. Subjects listed in operators are
// granted operator rights even if their token does not carry the claim.
func NewJWTServiceAdapter(service *JWTService, operators ...string) *JWTServiceAdapter {
	a := &JWTServiceAdapter{service: service, operators: make(map[string]struct{}, len(operators))}
	for _, op := range operators {
		if ident, err := parseOperator(op); err == nil {
			a.operators[ident] = struct{}{}
		}
	}
	return a
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	subject, err := claims.SubjectIdentity()
	if err != nil {
		return nil, err
	}
	_, listed := a.operators[subject.String()]
	return &authmw.Claims{
		Subject:  subject,
		Operator: claims.Operator || listed,
	}, nil
}

func parseOperator(raw string) (string, error) {
	ident, err := id.ParseIdentity(raw)
	if err != nil {
		return "", err
	}
	return ident.String(), nil
}
