package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	ctxAdminSubject contextKey = "admin_subject"
	ctxAdminEmail   contextKey = "admin_email"
)

// CartTokenHeader carries the opaque session cart token on storefront requests.
const CartTokenHeader = "X-Cart-Token"

func AdminSubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminSubject).(string); ok {
		return v
	}
	return ""
}

func AdminEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminEmail).(string); ok {
		return v
	}
	return ""
}

// WithAdminSubject injects the staff identity, e.g. for handler tests.
func WithAdminSubject(ctx context.Context, subject string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminSubject, subject)
}

// CartToken returns the trimmed session cart token of r.
func CartToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Header.Get(CartTokenHeader))
}
