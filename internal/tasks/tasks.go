package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"foundrybay/core/internal/config"
	"foundrybay/core/internal/models"
	"foundrybay/core/internal/notify"
	"foundrybay/core/internal/services"
)

// Task types handled by the background worker.
const (
	TypeRFQBroadcast = "rfq:broadcast"
	TypeRaceNotify   = "race:notify"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr: rdb.Options().Addr,
		// Add Password, DB if needed from rdb.Options()
	}
	return asynq.NewClient(clientOpt)
}

// RFQBroadcastPayload triggers the broadcast fan-out for one RFQ. Enqueued
// at creation time with ProcessAt set to the RFQ's race_opens_at.
type RFQBroadcastPayload struct {
	RFQID string `json:"rfq_id"`
}

// RaceNotifyPayload delivers one provider's invitation. Enqueued by the
// broadcast handler with ProcessAt set to the provider's scheduled slot.
type RaceNotifyPayload struct {
	RFQID          string `json:"rfq_id"`
	ProviderID     string `json:"provider_id"`
	RFQTitle       string `json:"rfq_title"`
	LocalTimeLabel string `json:"local_time_label"`
}

// NewRFQBroadcastTask builds the broadcast task for an RFQ.
func NewRFQBroadcastTask(rfqID string) (*asynq.Task, error) {
	payload, err := json.Marshal(RFQBroadcastPayload{RFQID: rfqID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}
	return asynq.NewTask(TypeRFQBroadcast, payload), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies task handlers need.
type TaskProcessor struct {
	cfg             *config.Config
	raceService     services.IRaceService
	rfqService      services.IRFQService
	providerService services.IProviderService
	notifier        notify.Sender
	taskClient      *asynq.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	raceService services.IRaceService,
	rfqService services.IRFQService,
	providerService services.IProviderService,
	notifier notify.Sender,
	taskClient *asynq.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		raceService:     raceService,
		rfqService:      rfqService,
		providerService: providerService,
		notifier:        notifier,
		taskClient:      taskClient,
	}
}

// SetupServer configures and runs an Asynq server instance. Returns nil in
// API mode, where tasks are enqueued but not processed.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isBgWorker bool) *asynq.Server {
	serverOpt := asynq.RedisClientOpt{
		Addr: rdb.Options().Addr,
		// Add Password, DB if needed
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeRFQBroadcast, processor.HandleRFQBroadcastTask)
		mux.HandleFunc(TypeRaceNotify, processor.HandleRaceNotifyTask)
		fmt.Println("Registered race task handlers.")
	} else {
		fmt.Println("Running in API mode, no task server started.")
		return nil
	}

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("Could not run Asynq server: %v", err)
		}
	}()

	return srv
}

// --- Task Handlers ---

// HandleRFQBroadcastTask runs the broadcast fan-out when the race opens,
// then enqueues one race:notify task per provider at that provider's
// scheduled slot. Business rejections (RFQ already broadcast, cancelled
// before opening) are terminal, not retryable.
func (p *TaskProcessor) HandleRFQBroadcastTask(ctx context.Context, t *asynq.Task) error {
	var payload RFQBroadcastPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal broadcast task payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing broadcast task: RFQID=%s", payload.RFQID)

	rfq, err := p.rfqService.FindByID(ctx, payload.RFQID)
	if err != nil {
		if services.IsCode(err, services.ErrNotFound) {
			return fmt.Errorf("RFQ %s no longer exists: %w", payload.RFQID, asynq.SkipRetry)
		}
		return err
	}

	broadcasts, err := p.raceService.BroadcastRFQ(ctx, payload.RFQID)
	if err != nil {
		if services.IsCode(err, services.ErrInvalidState) {
			log.Printf("Broadcast skipped for RFQ %s: %v", payload.RFQID, err)
			return fmt.Errorf("broadcast no longer applicable: %w", asynq.SkipRetry)
		}
		return err
	}

	for _, b := range broadcasts {
		notifyPayload, err := json.Marshal(RaceNotifyPayload{
			RFQID:          b.RFQID,
			ProviderID:     b.ProviderID,
			RFQTitle:       rfq.Title,
			LocalTimeLabel: b.LocalTimeLabel,
		})
		if err != nil {
			log.Printf("Failed to marshal notify payload for provider %s: %v", b.ProviderID, err)
			continue
		}
		task := asynq.NewTask(TypeRaceNotify, notifyPayload)
		_, err = p.taskClient.EnqueueContext(ctx, task, asynq.ProcessAt(b.ScheduledAt), asynq.Queue("default"))
		if err != nil {
			log.Printf("Failed to enqueue notify task for provider %s on RFQ %s: %v", b.ProviderID, b.RFQID, err)
		}
	}

	log.Printf("Broadcast task processed: RFQID=%s, notifications=%d", payload.RFQID, len(broadcasts))
	return nil
}

// HandleRaceNotifyTask delivers one provider's invitation at their
// scheduled slot.
func (p *TaskProcessor) HandleRaceNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload RaceNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal notify task payload: %v: %w", err, asynq.SkipRetry)
	}

	provider, err := p.providerService.FindByID(ctx, payload.ProviderID)
	if err != nil {
		if services.IsCode(err, services.ErrNotFound) {
			return fmt.Errorf("provider %s no longer exists: %w", payload.ProviderID, asynq.SkipRetry)
		}
		return err
	}
	if !provider.IsActive || provider.Tier == models.TierSuspended {
		log.Printf("Skipping notification to inactive provider %s", provider.ID)
		return nil
	}

	subject := fmt.Sprintf("New RFQ: %s", payload.RFQTitle)
	body := fmt.Sprintf(
		"Hello %s,\n\nA new request for quote is open for bidding: %s.\nYour invitation slot: %s.\n\nRespond from your dashboard to accept, decline or request more information.\n",
		provider.Name, payload.RFQTitle, payload.LocalTimeLabel,
	)

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
		log.Printf("Warning: SmtpFromAddress not configured, using fallback %s for notification to %s", fromAddress, provider.ContactEmail)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", provider.ContactEmail))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	err = p.notifier.Send(ctx, []string{provider.ContactEmail}, subject, []byte(sb.String()))
	if err != nil {
		fmt.Printf("Notification sending failed (will retry?): %v\n", err)
		return err
	}

	log.Printf("Notify task processed: RFQID=%s, ProviderID=%s", payload.RFQID, payload.ProviderID)
	return nil
}
