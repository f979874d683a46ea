package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nandanugg/fleet-sentinel/module/core/domain"
	"github.com/nandanugg/fleet-sentinel/module/core/internal/repository/notifier"
)

var _ notifier.NotificationSender = (*Sender)(nil)

const (
	SignatureHeader = "X-Sentinel-Signature"
	TimestampHeader = "X-Sentinel-Timestamp"
	ChannelHeader   = "X-Sentinel-Channel"
	IncidentHeader  = "X-Sentinel-Incident"
)

// Sender posts email and phone notifications to an HTTP gateway that owns the
// SMTP and voice providers.
type Sender struct {
	client *http.Client
	url    string
	secret string
	logger *slog.Logger
}

func NewSender(url, secret string, timeout time.Duration, logger *slog.Logger) *Sender {
	return &Sender{
		client: &http.Client{Timeout: timeout},
		url:    url,
		secret: secret,
		logger: logger,
	}
}

func (s *Sender) Send(ctx context.Context, contact domain.Contact, channel domain.Channel, inc domain.Incident) bool {
	now := time.Now()
	payload, err := json.Marshal(notifier.NewNotification(contact, channel, inc, now))
	if err != nil {
		s.logger.Error("marshal notification", slog.String("incident_id", inc.ID), slog.Any("error", err))
		return false
	}

	status, err := s.post(ctx, channel, inc.ID, payload, now)
	if err != nil {
		s.logger.Warn("notification webhook failed",
			slog.String("incident_id", inc.ID),
			slog.String("channel", string(channel)),
			slog.String("contact", contact.Name),
			slog.Any("error", err))
		return false
	}
	if status < 200 || status >= 300 {
		s.logger.Warn("notification webhook rejected",
			slog.String("incident_id", inc.ID),
			slog.String("channel", string(channel)),
			slog.Int("status", status))
		return false
	}
	return true
}

func (s *Sender) post(ctx context.Context, channel domain.Channel, incidentID string, payload []byte, now time.Time) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	timestamp := strconv.FormatInt(now.Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ChannelHeader, string(channel))
	req.Header.Set(IncidentHeader, incidentID)
	req.Header.Set(TimestampHeader, timestamp)
	if s.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, timestamp, s.secret))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// Sign returns hex(hmac-sha256(secret, timestamp + "." + payload)).
func Sign(payload []byte, timestamp, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp + "." + string(payload)))
	return hex.EncodeToString(h.Sum(nil))
}

func Verify(payload []byte, timestamp, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(payload, timestamp, secret)))
}
