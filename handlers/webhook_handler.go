package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"cruxPassAPI/internal/razorpay"
	"cruxPassAPI/services"
)

type WebhookProcessor interface {
	Process(ctx context.Context, event *razorpay.Event) error
}

type SignatureVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type WebhookHandler struct {
	processor WebhookProcessor
	verifier  SignatureVerifier
}

func NewWebhookHandler(processor WebhookProcessor, verifier SignatureVerifier) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		verifier:  verifier,
	}
}

// HandleRazorpayWebhook receives gateway events. The signature is computed
// over the exact body bytes, so the body is read before any parsing. Once an
// event passes the signature gate the response is always 200: a processing
// failure must not make the gateway retry into the same error forever.
func (h *WebhookHandler) HandleRazorpayWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading webhook body: %v", err)
		respondWithCode(w, http.StatusBadRequest, "INVALID_BODY", "Could not read request body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if signature == "" || !h.verifier.VerifyWebhookSignature(body, signature) {
		log.Println("Rejected webhook with invalid signature")
		respondWithCode(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature verification failed")
		return
	}

	var event razorpay.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Error parsing webhook payload: %v", err)
		respondWithCode(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Could not parse webhook payload")
		return
	}

	if err := h.processor.Process(ctx, &event); err != nil {
		if errors.Is(err, services.ErrDuplicateEvent) {
			log.Printf("Duplicate webhook event %s, acking", event.ID)
		} else {
			log.Printf("Error processing webhook event %s (%s): %v", event.ID, event.Name, err)
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
