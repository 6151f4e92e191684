package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/mailrelay/internal/application"
	"github.com/ericfisherdev/mailrelay/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeErrorDetail writes a JSON error response that also carries err's text.
func writeErrorDetail(w http.ResponseWriter, status int, message string, err error) {
	writeJSON(w, status, errorResponse{Error: message, Detail: err.Error()})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// ValidationErrorResponse is returned for referral submissions with missing or invalid fields.
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

// AuthorizationResponse confirms a completed OAuth callback.
type AuthorizationResponse struct {
	Message   string `json:"message"`
	ExpiresAt string `json:"expires_at"`
}

// SendResponse is returned by the test email endpoint.
type SendResponse struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
	SentAt    string `json:"sent_at"`
}

// ReferralRequest is the JSON body for the referral submission endpoint.
type ReferralRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ReferrerID   string `json:"referrerId"`
	ReferrerName string `json:"referrerName"`
	Message      string `json:"message"`
}

// ReferralResponse is the JSON representation of a stored referral.
type ReferralResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ReferrerID   string `json:"referrerId"`
	ReferrerName string `json:"referrerName"`
	Message      string `json:"message,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ReferralCreatedResponse is returned with 201. EmailError is the soft
// warning set when the notification could not be sent.
type ReferralCreatedResponse struct {
	Message    string           `json:"message"`
	Referral   ReferralResponse `json:"referral"`
	EmailSent  bool             `json:"email_sent"`
	EmailError string           `json:"email_error,omitempty"`
	MessageID  string           `json:"message_id,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Time       string `json:"time"`
	Credential string `json:"credential"`
}

func (r ReferralRequest) toInput() application.ReferralInput {
	return application.ReferralInput{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		ReferrerID:   r.ReferrerID,
		ReferrerName: r.ReferrerName,
		Message:      r.Message,
	}
}

// toSendResponse converts a DeliveryReceipt to its JSON representation.
func toSendResponse(receipt model.DeliveryReceipt) SendResponse {
	return SendResponse{
		MessageID: receipt.MessageID,
		To:        receipt.To,
		SentAt:    receipt.SentAt.UTC().Format(time.RFC3339),
	}
}

// toReferralResponse converts a domain Referral to its JSON representation.
func toReferralResponse(ref model.Referral) ReferralResponse {
	return ReferralResponse{
		ID:           ref.ID,
		Name:         ref.Name,
		Email:        ref.Email,
		Phone:        ref.Phone,
		ReferrerID:   ref.ReferrerID,
		ReferrerName: ref.ReferrerName,
		Message:      ref.Message,
		CreatedAt:    ref.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toReferralCreatedResponse(result application.SubmitResult) ReferralCreatedResponse {
	resp := ReferralCreatedResponse{
		Message:    "Referral submitted successfully",
		Referral:   toReferralResponse(result.Referral),
		EmailSent:  result.EmailSent,
		EmailError: result.EmailError,
	}
	if !result.EmailSent {
		resp.Message = "Referral submitted, but the notification email could not be sent"
	}
	if result.Receipt != nil {
		resp.MessageID = result.Receipt.MessageID
	}
	return resp
}
