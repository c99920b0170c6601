package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/weddingsite/internal/forms"
	"github.com/dgallion1/weddingsite/internal/mailinglist"
	"github.com/dgallion1/weddingsite/internal/metrics"
	"github.com/google/uuid"
)

// handleFormPost accepts urlencoded submissions discriminated by form-name.
func (s *Server) handleFormPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form body", http.StatusBadRequest)
		return
	}
	sub, err := forms.Decode(r.PostForm)
	if err != nil {
		var ve *forms.ValidationError
		if errors.As(err, &ve) {
			validationError(w, ve)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.accept(w, r, sub)
}

func (s *Server) handleHeroSignup(w http.ResponseWriter, r *http.Request) {
	var req forms.HeroSignup
	if !decodeJSON(w, r, &req) {
		return
	}
	s.accept(w, r, req)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req forms.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.accept(w, r, req)
}

func (s *Server) handlePartnershipInquiry(w http.ResponseWriter, r *http.Request) {
	var req forms.PartnershipInquiry
	if !decodeJSON(w, r, &req) {
		return
	}
	s.accept(w, r, req)
}

// accept validates and delivers one submission. Upstream failures are
// logged in detail and reported to the caller only generically.
func (s *Server) accept(w http.ResponseWriter, r *http.Request, sub forms.Submission) {
	sub = forms.Normalize(sub)
	id := uuid.NewString()
	log := s.log.With("submission_id", id, "form", sub.FormName())

	if err := forms.Validate(sub); err != nil {
		var ve *forms.ValidationError
		if !errors.As(err, &ve) {
			log.Error("validate submission", "error", err)
			metrics.RecordFormSubmission(sub.FormName(), "error")
			jsonError(w, forms.GenericErrorMessage, http.StatusInternalServerError)
			return
		}
		log.Info("form submission rejected", "fields", len(ve.Fields))
		metrics.RecordFormSubmission(sub.FormName(), "invalid")
		validationError(w, ve)
		return
	}

	if err := s.deliver(r.Context(), sub); err != nil {
		log.Error("form delivery failed", "error", err)
		metrics.RecordFormSubmission(sub.FormName(), "upstream_error")
		jsonError(w, forms.GenericErrorMessage, http.StatusBadGateway)
		return
	}

	log.Info("form submission accepted")
	metrics.RecordFormSubmission(sub.FormName(), "ok")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": id})
}

func (s *Server) deliver(ctx context.Context, sub forms.Submission) error {
	switch v := sub.(type) {
	case forms.HeroSignup:
		return s.deps.Mailing.Subscribe(ctx, mailinglist.Contact{Email: v.Email, Source: "hero"})
	case forms.SubscriptionRequest:
		c := mailinglist.Contact{Email: v.Email, FirstName: v.FirstName, Source: "signup"}
		if v.Category != "" {
			c.Tags = []string{v.Category}
		}
		return s.deps.Mailing.Subscribe(ctx, c)
	case forms.PartnershipInquiry:
		return s.deps.Mailing.SendEvent(ctx, mailinglist.Event{
			Name:  "partnership_inquiry",
			Email: v.Email,
			Properties: map[string]string{
				"name":            v.Name,
				"organization":    v.Organization,
				"partnershipType": v.PartnershipType,
				"message":         v.Message,
			},
		})
	case forms.RSVP:
		if s.deps.Collector == nil {
			s.log.Info("no form collector configured, rsvp logged only", "attendance", v.Attendance, "guests", v.Guests)
			return nil
		}
		return s.deps.Collector.Send(ctx, v)
	}
	return fmt.Errorf("no delivery for form %q", sub.FormName())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func validationError(w http.ResponseWriter, ve *forms.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":  "validation failed",
		"fields": ve.Fields,
	})
}
