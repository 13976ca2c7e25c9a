package backgroundcheck

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCheckrVerifyAndParse(t *testing.T) {
	c := NewCheckrClient("key", "whsec_test", nil)
	body := []byte(`{"type":"report.completed","data":{"object":{"id":"rpt_42"}}}`)

	evt, err := c.VerifyAndParse(body, signBody(body, "whsec_test"))
	if err != nil {
		t.Fatalf("VerifyAndParse: %v", err)
	}
	if evt.Type != EventCheckCompleted {
		t.Fatalf("expected normalized type, got %s", evt.Type)
	}
	if evt.CheckID != "rpt_42" || evt.Provider != "checkr" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestCheckrVerifyRejectsBadSignature(t *testing.T) {
	c := NewCheckrClient("key", "whsec_test", nil)
	body := []byte(`{"type":"report.completed","data":{"object":{"id":"rpt_42"}}}`)

	for _, sig := range []string{"", "deadbeef", signBody(body, "wrong-secret")} {
		if _, err := c.VerifyAndParse(body, sig); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("signature %q: expected ErrSignatureInvalid, got %v", sig, err)
		}
	}
}

func TestCheckrVerifyRejectsTamperedBody(t *testing.T) {
	c := NewCheckrClient("key", "whsec_test", nil)
	body := []byte(`{"type":"report.completed","data":{"object":{"id":"rpt_42"}}}`)
	sig := signBody(body, "whsec_test")

	tampered := []byte(`{"type":"report.completed","data":{"object":{"id":"rpt_43"}}}`)
	if _, err := c.VerifyAndParse(tampered, sig); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestCheckrUnknownTypePassedThrough(t *testing.T) {
	c := NewCheckrClient("key", "whsec_test", nil)
	body := []byte(`{"type":"report.resumed","data":{"object":{"id":"rpt_42"}}}`)

	evt, err := c.VerifyAndParse(body, signBody(body, "whsec_test"))
	if err != nil {
		t.Fatalf("VerifyAndParse: %v", err)
	}
	if evt.Type != "report.resumed" {
		t.Fatalf("expected verbatim unknown type, got %s", evt.Type)
	}
}

func TestCheckrGetCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reports/rpt_42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "key" {
			t.Error("expected API key as basic-auth username")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"rpt_42","status":"clear","assessment":"approved","completed_at":"2026-03-14T15:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewCheckrClient("key", "whsec_test", nil).WithBaseURL(srv.URL)
	status, err := c.GetCheckStatus(context.Background(), "rpt_42")
	if err != nil {
		t.Fatalf("GetCheckStatus: %v", err)
	}
	if status.Status != "clear" || status.Recommendation != "approved" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.CompletedAt == nil {
		t.Fatal("expected completed_at parsed")
	}
	if len(status.RawData) == 0 {
		t.Fatal("expected raw payload retained")
	}
}

func TestCheckrGetCheckStatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewCheckrClient("key", "whsec_test", nil).WithBaseURL(srv.URL)
	if _, err := c.GetCheckStatus(context.Background(), "rpt_missing"); !errors.Is(err, ErrCheckNotFound) {
		t.Fatalf("expected ErrCheckNotFound, got %v", err)
	}
}

func TestTruoraVerifyAndParse(t *testing.T) {
	c := NewTruoraClient("key", "whsec_truora", nil)
	body := []byte(`{"event_type":"check_completed","check_id":"CHK-9"}`)

	evt, err := c.VerifyAndParse(body, signBody(body, "whsec_truora"))
	if err != nil {
		t.Fatalf("VerifyAndParse: %v", err)
	}
	if evt.Type != EventCheckCompleted || evt.CheckID != "CHK-9" || evt.Provider != "truora" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestTruoraGetCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checks/CHK-9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Truora-API-Key") != "key" {
			t.Error("expected Truora-API-Key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"check":{"check_id":"CHK-9","status":"consider","recommendation":"review_required"}}`))
	}))
	defer srv.Close()

	c := NewTruoraClient("key", "whsec_truora", nil).WithBaseURL(srv.URL)
	status, err := c.GetCheckStatus(context.Background(), "CHK-9")
	if err != nil {
		t.Fatalf("GetCheckStatus: %v", err)
	}
	if status.Status != "consider" || status.Recommendation != "review_required" {
		t.Fatalf("unexpected status: %+v", status)
	}
}
