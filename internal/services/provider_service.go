package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"foundrybay/core/internal/models"
)

// IProviderService is the read-only window onto the supplier directory the
// race engine consumes. The engine does not own provider records.
type IProviderService interface {
	FindByID(ctx context.Context, providerID string) (*models.Provider, error)
	FindEligible(ctx context.Context) ([]models.Provider, error)
}

const providersCollection = "providers"

type providerService struct {
	db *mongo.Database
}

// NewProviderService creates a new ProviderService.
func NewProviderService(db *mongo.Database) IProviderService {
	return &providerService{db: db}
}

// FindByID fetches a provider by id.
func (s *providerService) FindByID(ctx context.Context, providerID string) (*models.Provider, error) {
	var provider models.Provider
	err := s.db.Collection(providersCollection).FindOne(ctx, bson.M{"_id": providerID}).Decode(&provider)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, raceErrorf(ErrNotFound, "provider %s not found", providerID)
		}
		return nil, fmt.Errorf("error finding provider %s: %w", providerID, err)
	}
	return &provider, nil
}

// FindEligible returns the providers a broadcast may target: active, not
// suspended or pending, with spare order capacity.
func (s *providerService) FindEligible(ctx context.Context) ([]models.Provider, error) {
	filter := bson.M{
		"is_active": true,
		"tier":      bson.M{"$nin": bson.A{models.TierSuspended, models.TierPending}},
	}
	cursor, err := s.db.Collection(providersCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying eligible providers: %w", err)
	}
	defer cursor.Close(ctx)

	var all []models.Provider
	if err = cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("error decoding eligible providers: %w", err)
	}

	// Capacity is a counter pair, not an indexable predicate, so it is
	// filtered here rather than in the query.
	eligible := make([]models.Provider, 0, len(all))
	for _, p := range all {
		if p.HasCapacity() {
			eligible = append(eligible, p)
		}
	}
	return eligible, nil
}
