package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// Notification is one outbound message to the site owner.
type Notification struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NotificationSender delivers contact-form notifications. Implementations
// must honour ctx cancellation.
type NotificationSender interface {
	Send(ctx context.Context, n Notification) error
}

// httpRelay posts notifications as JSON to a mail relay endpoint.
type httpRelay struct {
	url    string
	client *http.Client
}

func (h *httpRelay) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

type logNotifier struct{}

func (logNotifier) Send(_ context.Context, n Notification) error {
	log.Printf("No mail relay configured; notification for %s: %s", n.Email, n.Subject)
	return nil
}

func newNotifier(cfg Config, client *http.Client) NotificationSender {
	if cfg.MailRelayURL == "" {
		return logNotifier{}
	}
	return &httpRelay{url: cfg.MailRelayURL, client: client}
}

type contactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
}

func (in *contactInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
}

// sendEmail stores a contact submission and then relays it to the owner.
// The stored message survives a failed relay.
func (s *Server) sendEmail(w http.ResponseWriter, r *http.Request) {
	var in contactInput
	if err := decodeInput(r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.trim()
	if err := checkInput(&in, nil); err != nil {
		writeError(w, err)
		return
	}

	msg := Message{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Body:    in.Message,
	}
	if err := s.db.WithContext(r.Context()).Create(&msg).Error; err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.NotifyTimeout)
	defer cancel()
	err := s.notifier.Send(ctx, Notification{
		Email:   s.cfg.NotifyEmail,
		Subject: "PORTFOLIO: " + msg.Subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s", msg.Name, msg.Email, msg.Body),
	})
	if err != nil {
		log.Printf("Error relaying message %d: %v", msg.ID, err)
		writeError(w, &UpstreamError{Message: "Failed to send email", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully"})
}
