package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"cruxPassAPI/internal/apierror"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"code": "INTERNAL_ERROR", "message": "Internal server error"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// respondWithError maps service errors onto the wire envelope. Anything that
// is not an apierror is an unexpected failure: log it, hide it.
func respondWithError(w http.ResponseWriter, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		respondWithJSON(w, apiErr.Status, errorEnvelope{Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}})
		return
	}

	log.Printf("Unhandled error: %v", err)
	respondWithJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
		Code:    "INTERNAL_ERROR",
		Message: "Something went wrong",
	}})
}

func respondWithCode(w http.ResponseWriter, status int, code, message string) {
	respondWithJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}
