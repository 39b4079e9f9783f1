package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded"},
		{code: CodeWriteFailed, status: http.StatusInternalServerError, publicMsg: "write failed", detailsOK: true},
		{code: CodeNotConfigured, status: http.StatusServiceUnavailable, publicMsg: "feature not configured"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	typed := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("lookup: %w", typed)
	if !IsCode(wrapped, CodeNotFound) {
		t.Fatalf("expected wrapped error to match NOT_FOUND")
	}
	if IsCode(wrapped, CodeValidation) {
		t.Fatalf("unexpected match for VALIDATION_ERROR")
	}
	if IsCode(stdErrors.New("plain"), CodeNotFound) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	root := stdErrors.New("duplicate key value")
	err := Wrap(CodeWriteFailed, root, "insert order failed")
	dump := Dump(err)
	if dump.Code != CodeWriteFailed {
		t.Fatalf("expected WRITE_FAILED code, got %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %v", dump.Chain)
	}
	if dump.DBDriver != "" || dump.DBCode != "" {
		t.Fatalf("expected no driver fields for plain errors, got %+v", dump)
	}
}

func TestDumpReadsPostgresErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_number_key", TableName: "orders"}
	dump := Dump(fmt.Errorf("insert: %w", pgErr))
	if dump.DBDriver != "pgx" || dump.DBCode != "23505" || dump.DBConstraint != "orders_number_key" {
		t.Fatalf("unexpected dump %+v", dump)
	}
	fields := dump.Fields()
	if fields["db_table"] != "orders" {
		t.Fatalf("expected db_table field, got %v", fields)
	}
	if _, ok := fields["db_column"]; ok {
		t.Fatalf("empty fields should be omitted")
	}
}

func TestWithStepMergesIntoDetails(t *testing.T) {
	err := New(CodeWriteFailed, "insert items failed").
		WithDetails(map[string]any{"table": "order_items"}).
		WithStep("items")
	if err.Step() != "items" {
		t.Fatalf("expected step items, got %q", err.Step())
	}
	details := err.Details().(map[string]any)
	if details["table"] != "order_items" || details["step"] != "items" {
		t.Fatalf("unexpected details %v", details)
	}
	if Dump(fmt.Errorf("checkout: %w", err)).Step != "items" {
		t.Fatalf("dump should surface the step")
	}
	if New(CodeInternal, "x").Step() != "" {
		t.Fatalf("untagged errors have no step")
	}
}

func TestRetryableFollowsCode(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{stdErrors.New("plain"), true},
		{New(CodeDependency, "redis down"), true},
		{fmt.Errorf("wrapped: %w", New(CodeValidation, "bad")), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors map to INTERNAL_ERROR")
	}
}
