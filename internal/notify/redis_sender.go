package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"foundrybay/core/internal/config"
)

// Kinds of race notification, used to key mock deliveries in Redis so
// end-to-end tests can assert on them.
const (
	KindInvitation  = "rfq_invitation"
	KindAwarded     = "rfq_awarded"
	KindHoldPlaced  = "rfq_priority_hold"
	KindHoldExpired = "rfq_hold_expired"
)

// RedisSender implements Sender by storing notifications in Redis instead
// of delivering them. Enabled when MOCK_SERVICES is set.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// Send stores a JSON representation of the notification under a key built
// from the primary recipient and the notification kind, with a short TTL.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	kind := "unknown"
	switch {
	case strings.Contains(subject, "New RFQ"):
		kind = KindInvitation
	case strings.Contains(subject, "awarded"):
		kind = KindAwarded
	case strings.Contains(subject, "priority hold"):
		kind = KindHoldPlaced
	case strings.Contains(subject, "hold expired"):
		kind = KindHoldExpired
	}

	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	data := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	key := fmt.Sprintf("mocknotify:%s:%s", primaryTo, kind)
	ttl := 5 * time.Minute

	if err := s.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store notification in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock notification stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, ttl, strings.Join(to, ", "), subject)
	return nil
}
