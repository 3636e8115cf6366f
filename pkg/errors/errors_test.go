package errors

import (
	stdErrors "errors"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		publicMsg string
		retryable bool
		keepsCart bool
		detailsOK bool
	}{
		{code: CodeValidation, publicMsg: "validation failed", keepsCart: true, detailsOK: true},
		{code: CodeInvalidQuantity, publicMsg: "quantity must be a positive amount", keepsCart: true, detailsOK: true},
		{code: CodeStockExceeded, publicMsg: "requested quantity exceeds available stock", keepsCart: true, detailsOK: true},
		{code: CodeUnauthenticated, publicMsg: "sign in to save your cart to your account", keepsCart: true},
		{code: CodeUnreachable, publicMsg: "the flower shop is unreachable right now", retryable: true, keepsCart: true},
		{code: CodeRejected, publicMsg: "the shop declined the cart change", detailsOK: true},
		{code: CodeNotFound, publicMsg: "resource not found", keepsCart: true},
		{code: CodeInternal, publicMsg: "internal error", retryable: true, keepsCart: true},
		{code: CodeDependency, publicMsg: "dependency unavailable", retryable: true, keepsCart: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.KeepsLocalCart != tt.keepsCart {
			t.Fatalf("code %s expected keeps-local-cart %v got %v", tt.code, tt.keepsCart, meta.KeepsLocalCart)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.PublicMessage != "internal error" {
		t.Fatalf("expected internal metadata, got %+v", meta)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeStockExceeded, "only 5 left")
	if base.Code() != CodeStockExceeded {
		t.Fatalf("expected stock exceeded code, got %s", base.Code())
	}
	if base.Message() != "only 5 left" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"flower_id": "f-1"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeUnreachable, cause, "posting cart item")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeUnreachable {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestUserMessage(t *testing.T) {
	withDetails := New(CodeStockExceeded, "only 2 of Peony Bouquet left")
	if got := withDetails.UserMessage(); got != "only 2 of Peony Bouquet left" {
		t.Fatalf("expected verbatim message for detail-allowed code, got %q", got)
	}

	masked := New(CodeUnreachable, "dial tcp: connection refused")
	if got := masked.UserMessage(); got != "the flower shop is unreachable right now" {
		t.Fatalf("expected public message for masked code, got %q", got)
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeRejected, "no entry")
	if typed := As(err); typed == nil || typed.Code() != CodeRejected {
		t.Fatalf("expected typed error back")
	}
	if typed := As(stdErrors.New("plain")); typed != nil {
		t.Fatalf("plain errors should not convert")
	}
	if As(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestCodeHelpers(t *testing.T) {
	err := Wrap(CodeRejected, stdErrors.New("insufficient stock"), "add item")
	if !HasCode(err, CodeRejected) {
		t.Fatalf("expected rejected code")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors default to internal")
	}

	dump := Dump(err)
	if dump.Code != CodeRejected || len(dump.Chain) != 2 {
		t.Fatalf("unexpected dump %+v", dump)
	}
}
