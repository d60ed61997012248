package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foundrybay/core/internal/config"
	"foundrybay/core/internal/models"
)

var testMongoURIRFQ = ""

func init() {
	testMongoURIRFQ = os.Getenv("MONGO_URI_TEST")
	if testMongoURIRFQ == "" {
		testMongoURIRFQ = "mongodb://localhost:27017"
	}
}

func setupTestDBRFQ(t *testing.T, dbName string) *mongo.Database {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(testMongoURIRFQ))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	database := client.Database(dbName)
	_ = database.Collection("rfqs").Drop(context.Background())
	return database
}

func validCreateInput() CreateRFQInput {
	return CreateRFQInput{
		BuyerID:  "buyer-1",
		Type:     models.RFQTypeCommodity,
		Title:    "5000 aluminium brackets",
		Category: "cnc-machining",
		Urgency:  models.UrgencyStandard,
	}
}

func TestRFQService_Create(t *testing.T) {
	database := setupTestDBRFQ(t, "testdb_rfq_create")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := &config.Config{UrgentRaceDelay: 5 * time.Minute}
	svc := NewRFQService(database, cfg, fixedClock(now))

	rfq, err := svc.Create(context.Background(), validCreateInput())
	assert.NoError(t, err)
	assert.NotEmpty(t, rfq.ID)
	assert.Equal(t, models.RFQStatusOpen, rfq.Status)
	// Standard urgency opens the race immediately on creation.
	assert.Equal(t, now, rfq.RaceOpensAt.UTC())
	assert.Nil(t, rfq.AwardedTo)
}

func TestRFQService_Create_UrgentRaceDelay(t *testing.T) {
	database := setupTestDBRFQ(t, "testdb_rfq_create_urgent")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := &config.Config{UrgentRaceDelay: 5 * time.Minute}
	svc := NewRFQService(database, cfg, fixedClock(now))

	in := validCreateInput()
	in.Urgency = models.UrgencyUrgent
	rfq, err := svc.Create(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, now.Add(5*time.Minute), rfq.RaceOpensAt.UTC())
}

func TestRFQService_Create_Validation(t *testing.T) {
	database := setupTestDBRFQ(t, "testdb_rfq_create_invalid")
	svc := NewRFQService(database, &config.Config{}, nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateRFQInput)
	}{
		{"missing buyer", func(in *CreateRFQInput) { in.BuyerID = "" }},
		{"missing title", func(in *CreateRFQInput) { in.Title = "" }},
		{"missing category", func(in *CreateRFQInput) { in.Category = "" }},
		{"bad type", func(in *CreateRFQInput) { in.Type = "auction" }},
		{"bad urgency", func(in *CreateRFQInput) { in.Urgency = "asap" }},
		{"negative budget", func(in *CreateRFQInput) { min := -1.0; in.BudgetMin = &min }},
		{"inverted budget", func(in *CreateRFQInput) {
			min, max := 500.0, 100.0
			in.BudgetMin, in.BudgetMax = &min, &max
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.True(t, IsCode(err, ErrValidation))
		})
	}
}

func TestRFQService_FindByID(t *testing.T) {
	database := setupTestDBRFQ(t, "testdb_rfq_find")
	svc := NewRFQService(database, &config.Config{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, validCreateInput())
	assert.NoError(t, err)

	found, err := svc.FindByID(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created.Title, found.Title)

	_, err = svc.FindByID(ctx, "no-such-rfq")
	assert.True(t, IsCode(err, ErrNotFound))
}

func TestRFQService_ListByBuyer(t *testing.T) {
	database := setupTestDBRFQ(t, "testdb_rfq_list")
	svc := NewRFQService(database, &config.Config{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		in := validCreateInput()
		_, err := svc.Create(ctx, in)
		assert.NoError(t, err)
	}
	other := validCreateInput()
	other.BuyerID = "buyer-2"
	_, err := svc.Create(ctx, other)
	assert.NoError(t, err)

	rfqs, err := svc.ListByBuyer(ctx, "buyer-1", nil, 0)
	assert.NoError(t, err)
	assert.Len(t, rfqs, 3)

	open := models.RFQStatusOpen
	rfqs, err = svc.ListByBuyer(ctx, "buyer-1", &open, 0)
	assert.NoError(t, err)
	assert.Len(t, rfqs, 3)

	awarded := models.RFQStatusAwarded
	rfqs, err = svc.ListByBuyer(ctx, "buyer-1", &awarded, 0)
	assert.NoError(t, err)
	assert.Len(t, rfqs, 0)
}
