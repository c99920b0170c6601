package forms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMutationSink_PostsJSONToFormEndpoint(t *testing.T) {
	type call struct {
		path, contentType string
		body              map[string]string
	}
	calls := make(chan call, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		calls <- call{r.URL.Path, r.Header.Get("Content-Type"), body}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink := NewMutationSink(srv.URL+"/", nil)
	err := sink.Send(context.Background(), PartnershipInquiry{Name: "Sam", Email: "sam@example.com", PartnershipType: "venue"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := <-calls
	if got.path != "/api/partnership/inquiry" {
		t.Errorf("expected inquiry endpoint, got %s", got.path)
	}
	if got.contentType != "application/json" {
		t.Errorf("expected JSON content type, got %s", got.contentType)
	}
	if got.body["partnershipType"] != "venue" || got.body["name"] != "Sam" {
		t.Errorf("unexpected body %v", got.body)
	}
}

func TestMutationSink_RejectsCollectorOnlyForms(t *testing.T) {
	sink := NewMutationSink("http://127.0.0.1:0", nil)
	if err := sink.Send(context.Background(), RSVP{Name: "Ana"}); err == nil {
		t.Error("expected an error for a form without a mutation endpoint")
	}
}

func TestCollectorSink_StatusAndNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	sink := NewCollectorSink(srv.URL, nil)
	err := sink.Send(context.Background(), HeroSignup{Email: "ana@example.com"})
	se, ok := err.(*StatusError)
	if !ok || se.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	srv.Close()

	if err := sink.Send(context.Background(), HeroSignup{Email: "ana@example.com"}); err == nil {
		t.Error("expected a network error after the server closed")
	}
}
