package notify

import (
	"context"
	"fmt"
	"strings"
)

// CompositeSender fans a notification out to multiple Senders and collects
// every failure into one error.
type CompositeSender struct {
	senders []Sender
}

// NewCompositeSender creates a CompositeSender. It returns the concrete
// type so AddSender can be called on it directly.
func NewCompositeSender(senders ...Sender) *CompositeSender {
	return &CompositeSender{senders: senders}
}

// AddSender appends a sender; nils are ignored.
func (cs *CompositeSender) AddSender(sender Sender) {
	if sender != nil {
		cs.senders = append(cs.senders, sender)
	}
}

func (cs *CompositeSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if len(cs.senders) == 0 {
		return fmt.Errorf("no senders configured in CompositeSender")
	}

	var allErrors []string
	for _, sender := range cs.senders {
		if err := sender.Send(ctx, to, subject, rawMessage); err != nil {
			allErrors = append(allErrors, err.Error())
		}
	}

	if len(allErrors) > 0 {
		return fmt.Errorf("composite notification send failed: [ %s ]", strings.Join(allErrors, "; "))
	}
	return nil
}
