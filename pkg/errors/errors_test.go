package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForTaxonomy(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeNotFound:      http.StatusNotFound,
		CodePrecondition:  http.StatusPreconditionFailed,
		CodeDependency:    http.StatusServiceUnavailable,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeSignature:     http.StatusBadRequest,
		CodeMethod:        http.StatusMethodNotAllowed,
		Code("unknown"):   http.StatusInternalServerError,
	}
	for code, status := range cases {
		if got := MetadataFor(code).HTTPStatus; got != status {
			t.Fatalf("%s: expected %d, got %d", code, status, got)
		}
	}
}

func TestCodeOfFindsWrappedTypedError(t *testing.T) {
	base := New(CodePrecondition, "stripe customer missing")
	wrapped := fmt.Errorf("create subscription: %w", base)

	if !Is(wrapped, CodePrecondition) {
		t.Fatalf("expected precondition code, got %s", CodeOf(wrapped))
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatal("expected plain errors to map to internal")
	}
	if Is(nil, CodeInternal) {
		t.Fatal("nil error should never match a code")
	}
}

func TestUpstreamPassesMessageThrough(t *testing.T) {
	err := Upstream(stdErrors.New("card_declined"), "create stripe subscription")
	details, ok := err.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", err.Details())
	}
	if details["upstream"] != "card_declined" {
		t.Fatalf("unexpected upstream detail %v", details["upstream"])
	}
	if !stdErrors.Is(err, err.Unwrap()) {
		t.Fatal("expected cause to remain in the chain")
	}
}

func TestMetadataHidesInternalMessages(t *testing.T) {
	for _, code := range []Code{CodeInternal, CodeSignature, CodeMethod} {
		if MetadataFor(code).ExposeMessage {
			t.Fatalf("%s should not expose its message", code)
		}
	}
	if !MetadataFor(CodeDependency).ExposeMessage || !MetadataFor(CodeDependency).DetailsAllowed {
		t.Fatal("dependency errors should pass upstream messages through")
	}
}
