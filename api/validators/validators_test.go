package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/fitcoach-backend/pkg/errors"
	"github.com/go-chi/chi/v5"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":""}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["email"] != "must be a valid email" || details["password"] != "is required" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"x","role":"root"}`))
	var body loginBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePathID(t *testing.T) {
	cases := map[string]bool{"42": true, "0": false, "-3": false, "abc": false}
	for raw, ok := range cases {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("clientId", raw)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		id, err := ParsePathID(req, "clientId")
		if ok && (err != nil || id != 42) {
			t.Fatalf("%s: expected 42, got %d err=%v", raw, id, err)
		}
		if !ok && err == nil {
			t.Fatalf("%s: expected error", raw)
		}
	}
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	if v, err := ParseQueryInt(req, "limit", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default 25, got %d err=%v", v, err)
	}
}

func TestDecodeOptionalJSONBodyAcceptsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var body struct {
		Email string `json:"email" validate:"omitempty,email"`
	}
	if err := DecodeOptionalJSONBody(req, &body); err != nil {
		t.Fatalf("expected empty body to be accepted, got %v", err)
	}
	if err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", nil), &body); err == nil {
		t.Fatal("expected required body to reject empty payload")
	}
}

func TestParsePathStringTrimsAndBounds(t *testing.T) {
	cases := map[string]string{" onboarding ": "onboarding", "  ": "", "ñññññ": "ñññññ", "abcdefg": ""}
	for raw, want := range cases {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("templateId", raw)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		got, err := ParsePathString(req, "templateId", 5)
		if want == "" {
			if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
				t.Fatalf("%q: expected validation error, got %q err=%v", raw, got, err)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q err=%v", raw, want, got, err)
		}
	}
}

func TestDecodeJSONBodyRejectsTrailingDocuments(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"x"} {"email":"c@d.co"}`))
	var body loginBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStructReportsParameterizedMessages(t *testing.T) {
	input := struct {
		Name     string `json:"name" validate:"max=3"`
		Interval string `json:"interval" validate:"oneof=month year"`
	}{Name: "toolong", Interval: "week"}

	details, ok := pkgerrors.As(Struct(input)).Details().(map[string]string)
	if !ok {
		t.Fatal("expected field details")
	}
	if details["name"] != "must be at most 3" || details["interval"] != "must be one of month year" {
		t.Fatalf("unexpected details %v", details)
	}
}
