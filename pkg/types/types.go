package types

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type AppError struct {
	Error error
	Code  int
}

// Actor is the identity a core operation runs on behalf of.
type Actor struct {
	ID      int64
	IsAdmin bool
}

type JWTClaims struct {
	jwt.RegisteredClaims
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	IsAdmin  bool   `json:"isAdmin"`
}

// ValidationError collects every violated rule per field, not just the first.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for field, violations := range e.Fields {
		for _, v := range violations {
			msgs = append(msgs, field+": "+v)
		}
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}
