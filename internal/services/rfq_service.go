package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foundrybay/core/internal/config"
	"foundrybay/core/internal/db"
	"foundrybay/core/internal/models"
)

// IRFQService defines the intake and read operations on RFQs. Lifecycle
// mutation past creation belongs to IRaceService.
type IRFQService interface {
	Create(ctx context.Context, in CreateRFQInput) (*models.RFQ, error)
	FindByID(ctx context.Context, rfqID string) (*models.RFQ, error)
	ListByBuyer(ctx context.Context, buyerID string, status *models.RFQStatus, limit int64) ([]models.RFQ, error)
}

// CreateRFQInput carries the immutable-at-creation RFQ fields.
type CreateRFQInput struct {
	BuyerID        string
	FoundryID      string
	Type           models.RFQType
	Title          string
	Specifications models.Specifications
	BudgetMin      *float64
	BudgetMax      *float64
	Category       string
	SkillsRequired []string
	Urgency        models.Urgency
}

const rfqsCollection = "rfqs"

type rfqService struct {
	db  *mongo.Database
	cfg *config.Config
	now func() time.Time
}

// NewRFQService creates a new RFQService. A nil clock defaults to the real
// one; tests inject a fixed instant.
func NewRFQService(database *mongo.Database, cfg *config.Config, now func() time.Time) IRFQService {
	if now == nil {
		now = time.Now
	}
	return &rfqService{db: database, cfg: cfg, now: now}
}

// Create validates the input, stamps race_opens_at from the urgency class
// and inserts the RFQ in the open state. race_opens_at is never mutated
// after this point.
func (s *rfqService) Create(ctx context.Context, in CreateRFQInput) (*models.RFQ, error) {
	if in.BuyerID == "" {
		return nil, raceErrorf(ErrValidation, "buyer id is required")
	}
	if in.Title == "" {
		return nil, raceErrorf(ErrValidation, "title is required")
	}
	if in.Category == "" {
		return nil, raceErrorf(ErrValidation, "category is required")
	}
	if !in.Type.Valid() {
		return nil, raceErrorf(ErrValidation, "unknown RFQ type %q", in.Type)
	}
	if !in.Urgency.Valid() {
		return nil, raceErrorf(ErrValidation, "unknown urgency %q", in.Urgency)
	}
	if in.BudgetMin != nil && *in.BudgetMin < 0 {
		return nil, raceErrorf(ErrValidation, "budget_min cannot be negative")
	}
	if in.BudgetMax != nil && *in.BudgetMax < 0 {
		return nil, raceErrorf(ErrValidation, "budget_max cannot be negative")
	}
	if in.BudgetMin != nil && in.BudgetMax != nil && *in.BudgetMin > *in.BudgetMax {
		return nil, raceErrorf(ErrValidation, "budget_min exceeds budget_max")
	}

	now := s.now().UTC()
	raceOpensAt := now
	if in.Urgency == models.UrgencyUrgent {
		raceOpensAt = now.Add(s.cfg.UrgentRaceDelay)
	}

	var rfq *models.RFQ
	operation := func() error {
		rfq = &models.RFQ{
			ID:             uuid.NewString(),
			BuyerID:        in.BuyerID,
			FoundryID:      in.FoundryID,
			Type:           in.Type,
			Title:          in.Title,
			Specifications: in.Specifications,
			BudgetMin:      in.BudgetMin,
			BudgetMax:      in.BudgetMax,
			Category:       in.Category,
			SkillsRequired: in.SkillsRequired,
			Urgency:        in.Urgency,
			Status:         models.RFQStatusOpen,
			RaceOpensAt:    &raceOpensAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, insertErr := s.db.Collection(rfqsCollection).InsertOne(ctx, rfq)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to insert RFQ for buyer %s: %w", in.BuyerID, err)
	}
	return rfq, nil
}

// FindByID fetches an RFQ by id.
func (s *rfqService) FindByID(ctx context.Context, rfqID string) (*models.RFQ, error) {
	var rfq models.RFQ
	err := s.db.Collection(rfqsCollection).FindOne(ctx, bson.M{"_id": rfqID}).Decode(&rfq)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, raceErrorf(ErrNotFound, "RFQ %s not found", rfqID)
		}
		return nil, fmt.Errorf("error finding RFQ %s: %w", rfqID, err)
	}
	return &rfq, nil
}

// ListByBuyer returns a buyer's RFQs, newest first, optionally filtered by
// status.
func (s *rfqService) ListByBuyer(ctx context.Context, buyerID string, status *models.RFQStatus, limit int64) ([]models.RFQ, error) {
	filter := bson.M{"buyer_id": buyerID}
	if status != nil {
		filter["status"] = *status
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.db.Collection(rfqsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing RFQs for buyer %s: %w", buyerID, err)
	}
	defer cursor.Close(ctx)

	var rfqs []models.RFQ
	if err = cursor.All(ctx, &rfqs); err != nil {
		return nil, fmt.Errorf("error decoding RFQs for buyer %s: %w", buyerID, err)
	}
	return rfqs, nil
}
