package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"foundrybay/core/internal/config"
	"foundrybay/core/internal/db"
	"foundrybay/core/internal/match"
	"foundrybay/core/internal/models"
	"foundrybay/core/internal/schedule"
)

// IRaceService owns the RFQ race lifecycle: broadcasting, response
// admission, winner resolution and the priority-hold protocol.
//
// Every operation is guard-then-mutate: a failed precondition performs no
// writes and returns a *RaceError. Nothing here retries business
// rejections.
type IRaceService interface {
	BroadcastRFQ(ctx context.Context, rfqID string) ([]models.Broadcast, error)
	AcceptRFQ(ctx context.Context, rfqID, providerID string, quotedPrice *float64) (*AcceptOutcome, error)
	DeclineRFQ(ctx context.Context, rfqID, providerID, reason string) error
	RequestMoreInfo(ctx context.Context, rfqID, providerID, questions string) error
	AwardRFQ(ctx context.Context, rfqID, providerID, buyerID string) error
	ReleasePriorityHold(ctx context.Context, rfqID, buyerID string) error
	CloseRFQ(ctx context.Context, rfqID, buyerID string) error
	CancelRFQ(ctx context.Context, rfqID, buyerID string) error
	CheckRaceStatus(ctx context.Context, rfqID string) (*RaceStatus, error)
	ListInvitations(ctx context.Context, providerID string) ([]models.Broadcast, error)
}

// AcceptOutcome reports what a successful accept resolved to.
type AcceptOutcome struct {
	Awarded       bool       `json:"awarded"`
	PriorityHold  bool       `json:"priority_hold"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

// RaceStatus is the read-only projection CheckRaceStatus returns. Label is
// a view-layer concept derived from the stored status and race_opens_at;
// it is never persisted.
type RaceStatus struct {
	RFQID              string           `json:"rfq_id"`
	RFQStatus          models.RFQStatus `json:"rfq_status"`
	Label              string           `json:"status"`
	RaceOpensAt        *time.Time       `json:"race_opens_at,omitempty"`
	BroadcastCount     int64            `json:"broadcast_count"`
	TotalResponses     int64            `json:"total_responses"`
	AcceptCount        int64            `json:"accept_count"`
	PriorityHolderID   *string          `json:"priority_holder_id,omitempty"`
	PriorityHolderName string           `json:"priority_holder_name,omitempty"`
	HoldExpiresAt      *time.Time       `json:"hold_expires_at,omitempty"`
	HoldExpired        bool             `json:"hold_expired"`
	AwardedTo          *string          `json:"awarded_to,omitempty"`
	WinnerName         string           `json:"winner_name,omitempty"`
}

const (
	broadcastsCollection = "rfq_broadcasts"
	responsesCollection  = "rfq_responses"
)

type raceService struct {
	db        *mongo.Database
	cfg       *config.Config
	providers IProviderService
	now       func() time.Time
}

// NewRaceService creates a new RaceService. A nil clock defaults to the
// real one; tests inject a fixed instant.
func NewRaceService(database *mongo.Database, cfg *config.Config, providers IProviderService, now func() time.Time) IRaceService {
	if now == nil {
		now = time.Now
	}
	return &raceService{db: database, cfg: cfg, providers: providers, now: now}
}

func (s *raceService) findRFQ(ctx context.Context, rfqID string) (*models.RFQ, error) {
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

// BroadcastRFQ builds the candidate list, computes per-provider delivery
// times and flips the RFQ from open to bidding. Zero eligible providers is
// a success with zero broadcasts, not an error.
func (s *raceService) BroadcastRFQ(ctx context.Context, rfqID string) ([]models.Broadcast, error) {
	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.Status != models.RFQStatusOpen {
		return nil, raceErrorf(ErrInvalidState, "RFQ is %s, cannot broadcast", rfq.Status)
	}

	eligible, err := s.providers.FindEligible(ctx)
	if err != nil {
		return nil, err
	}

	selected := s.selectCandidates(rfq, eligible)

	now := s.now().UTC()
	raceOpensAt := now
	if rfq.RaceOpensAt != nil {
		raceOpensAt = *rfq.RaceOpensAt
	}

	candidates := make([]schedule.Candidate, 0, len(selected))
	for _, p := range selected {
		candidates = append(candidates, schedule.Candidate{
			ProviderID: p.ID,
			Timezone:   p.Timezone,
			Tier:       p.Tier,
		})
	}
	entries := schedule.Plan(raceOpensAt, rfq.Urgency, candidates, schedule.Options{
		BroadcastHour: s.cfg.BroadcastHour,
		TierDelay:     s.cfg.TierDelay,
	})

	broadcasts := make([]models.Broadcast, 0, len(entries))
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		b := models.Broadcast{
			ID:             uuid.NewString(),
			RFQID:          rfq.ID,
			ProviderID:     e.ProviderID,
			ScheduledAt:    e.ScheduledAt,
			LocalTimeLabel: e.LocalTimeLabel,
			CreatedAt:      now,
		}
		broadcasts = append(broadcasts, b)
		docs = append(docs, b)
	}

	if len(docs) > 0 {
		_, err = s.db.Collection(broadcastsCollection).InsertMany(ctx, docs)
		if err != nil {
			// A duplicate pair means another caller broadcast this RFQ
			// concurrently; the unique index adjudicates.
			if db.IsMongoDuplicateKeyError(err) {
				return nil, raceErrorf(ErrInvalidState, "RFQ %s has already been broadcast", rfq.ID)
			}
			return nil, fmt.Errorf("failed to insert broadcasts for RFQ %s: %w", rfq.ID, err)
		}
	}

	result, err := s.db.Collection(rfqsCollection).UpdateOne(ctx,
		bson.M{"_id": rfq.ID, "status": models.RFQStatusOpen},
		bson.M{"$set": bson.M{"status": models.RFQStatusBidding, "updated_at": now}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open bidding on RFQ %s: %w", rfq.ID, err)
	}
	if result.MatchedCount == 0 {
		return nil, raceErrorf(ErrInvalidState, "RFQ %s left the open state during broadcast", rfq.ID)
	}

	return broadcasts, nil
}

// selectCandidates ranks eligible providers against the RFQ's criteria.
// An RFQ with nothing to rank on broadcasts to every eligible provider.
func (s *raceService) selectCandidates(rfq *models.RFQ, eligible []models.Provider) []models.Provider {
	criteria := match.Criteria{
		Category:       rfq.Category,
		SkillsRequired: rfq.SkillsRequired,
		BudgetMin:      rfq.BudgetMin,
		BudgetMax:      rfq.BudgetMax,
		Urgency:        rfq.Urgency,
	}
	if criteria.Empty() {
		return eligible
	}

	byID := make(map[string]models.Provider, len(eligible))
	profiles := make([]match.Profile, 0, len(eligible))
	for _, p := range eligible {
		byID[p.ID] = p
		profiles = append(profiles, match.Profile{
			ProviderID:       p.ID,
			Categories:       p.Categories,
			Skills:           p.Skills,
			DayRate:          p.DayRate,
			CompletionRate:   p.CompletionRate,
			AvgResponseHours: p.AvgResponseHours,
			Tier:             p.Tier,
		})
	}

	ranked := match.Rank(criteria, profiles)
	selected := make([]models.Provider, 0, len(ranked))
	for _, m := range ranked {
		selected = append(selected, byID[m.ProviderID])
	}
	return selected
}

// AcceptRFQ runs the ordered admission checks, records the response and
// applies the type-specific winner resolution. Winner determination is a
// single conditional update, so two concurrent accepts on a commodity RFQ
// resolve to exactly one winner by row-matched count, never by
// count-then-branch.
func (s *raceService) AcceptRFQ(ctx context.Context, rfqID, providerID string, quotedPrice *float64) (*AcceptOutcome, error) {
	if quotedPrice != nil && *quotedPrice < 0 {
		return nil, raceErrorf(ErrValidation, "quoted price cannot be negative")
	}

	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if !rfq.Status.AcceptsResponses() {
		return nil, raceErrorf(ErrInvalidState, "RFQ is %s, cannot accept", rfq.Status)
	}

	now := s.now().UTC()
	if rfq.RaceOpensAt != nil && now.Before(*rfq.RaceOpensAt) {
		return nil, raceErrorf(ErrNotYetOpen, "race has not started yet")
	}

	if err := s.checkNoPriorResponse(ctx, rfqID, providerID); err != nil {
		return nil, err
	}

	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	broadcast, err := s.findBroadcast(ctx, rfqID, providerID)
	if err != nil {
		return nil, err
	}

	// Tier-delay gate: non top-tier providers wait out the delay past
	// their scheduled slot. Verified partners bypass this entirely.
	if broadcast != nil && !provider.Tier.IsTopTier() {
		gateOpens := broadcast.ScheduledAt.Add(s.cfg.TierDelay)
		if now.Before(gateOpens) {
			wait := int(math.Ceil(gateOpens.Sub(now).Seconds()))
			return nil, raceErrorf(ErrNotYetOpen, "please wait %d more seconds", wait)
		}
	}

	if broadcast != nil {
		s.markDelivered(ctx, rfqID, providerID, now)
	}

	if err := s.insertResponse(ctx, models.Response{
		ID:           uuid.NewString(),
		RFQID:        rfqID,
		ProviderID:   providerID,
		ResponseType: models.ResponseAccept,
		QuotedPrice:  quotedPrice,
		RespondedAt:  now,
	}); err != nil {
		return nil, err
	}

	outcome := &AcceptOutcome{}
	switch rfq.Type {
	case models.RFQTypeCommodity:
		// First click wins: the conditional update can only match while
		// no winner has been written yet.
		result, err := s.db.Collection(rfqsCollection).UpdateOne(ctx,
			bson.M{
				"_id":        rfqID,
				"status":     bson.M{"$in": bson.A{models.RFQStatusOpen, models.RFQStatusBidding}},
				"awarded_to": nil,
			},
			bson.M{"$set": bson.M{
				"status":     models.RFQStatusAwarded,
				"awarded_to": providerID,
				"updated_at": now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve commodity award on RFQ %s: %w", rfqID, err)
		}
		outcome.Awarded = result.MatchedCount == 1

	case models.RFQTypeCustom:
		expires := now.Add(s.cfg.PriorityHold)
		result, err := s.db.Collection(rfqsCollection).UpdateOne(ctx,
			bson.M{
				"_id":                rfqID,
				"status":             bson.M{"$in": bson.A{models.RFQStatusOpen, models.RFQStatusBidding}},
				"priority_holder_id": nil,
			},
			bson.M{"$set": bson.M{
				"status":                   models.RFQStatusPriorityHold,
				"priority_holder_id":       providerID,
				"priority_hold_expires_at": expires,
				"updated_at":               now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to place priority hold on RFQ %s: %w", rfqID, err)
		}
		if result.MatchedCount == 1 {
			outcome.PriorityHold = true
			outcome.HoldExpiresAt = &expires
		}

	case models.RFQTypeService:
		// Recorded only; the buyer awards explicitly.
	}

	return outcome, nil
}

// DeclineRFQ records a decline. Declines do not contend for award, so
// neither race_opens_at nor the tier-delay gate throttles them; only the
// status and single-response rules apply.
func (s *raceService) DeclineRFQ(ctx context.Context, rfqID, providerID, reason string) error {
	return s.recordNonContending(ctx, rfqID, providerID, models.ResponseDecline, reason)
}

// RequestMoreInfo records a provider's questions about an RFQ. Counts as
// the provider's single response.
func (s *raceService) RequestMoreInfo(ctx context.Context, rfqID, providerID, questions string) error {
	if questions == "" {
		return raceErrorf(ErrValidation, "questions are required for an info request")
	}
	return s.recordNonContending(ctx, rfqID, providerID, models.ResponseInfoRequest, questions)
}

func (s *raceService) recordNonContending(ctx context.Context, rfqID, providerID string, rt models.ResponseType, message string) error {
	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return err
	}
	if !rfq.Status.AcceptsResponses() {
		return raceErrorf(ErrInvalidState, "RFQ is %s, cannot respond", rfq.Status)
	}

	if err := s.checkNoPriorResponse(ctx, rfqID, providerID); err != nil {
		return err
	}

	now := s.now().UTC()
	broadcast, err := s.findBroadcast(ctx, rfqID, providerID)
	if err != nil {
		return err
	}
	if broadcast != nil {
		s.markDelivered(ctx, rfqID, providerID, now)
	}

	return s.insertResponse(ctx, models.Response{
		ID:           uuid.NewString(),
		RFQID:        rfqID,
		ProviderID:   providerID,
		ResponseType: rt,
		Message:      message,
		RespondedAt:  now,
	})
}

// AwardRFQ is the buyer's explicit award: the only path to awarded for
// custom and service RFQs.
func (s *raceService) AwardRFQ(ctx context.Context, rfqID, providerID, buyerID string) error {
	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return err
	}
	if rfq.BuyerID != buyerID {
		return raceErrorf(ErrUnauthorized, "only the RFQ's buyer can award it")
	}
	if rfq.Status == models.RFQStatusAwarded {
		return raceErrorf(ErrInvalidState, "RFQ is already awarded")
	}
	if rfq.Status == models.RFQStatusClosed || rfq.Status == models.RFQStatusCancelled {
		return raceErrorf(ErrInvalidState, "RFQ is %s, cannot award", rfq.Status)
	}

	count, err := s.db.Collection(responsesCollection).CountDocuments(ctx, bson.M{
		"rfq_id":        rfqID,
		"provider_id":   providerID,
		"response_type": models.ResponseAccept,
	})
	if err != nil {
		return fmt.Errorf("error counting accept responses on RFQ %s: %w", rfqID, err)
	}
	if count == 0 {
		return raceErrorf(ErrInvalidState, "provider %s has no accepted response on this RFQ", providerID)
	}

	now := s.now().UTC()
	result, err := s.db.Collection(rfqsCollection).UpdateOne(ctx,
		bson.M{
			"_id":    rfqID,
			"status": bson.M{"$nin": bson.A{models.RFQStatusAwarded, models.RFQStatusClosed, models.RFQStatusCancelled}},
		},
		bson.M{
			"$set": bson.M{
				"status":     models.RFQStatusAwarded,
				"awarded_to": providerID,
				"updated_at": now,
			},
			"$unset": bson.M{
				"priority_holder_id":       "",
				"priority_hold_expires_at": "",
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to award RFQ %s: %w", rfqID, err)
	}
	if result.MatchedCount == 0 {
		return raceErrorf(ErrInvalidState, "RFQ %s changed state, cannot award", rfqID)
	}
	return nil
}

// ReleasePriorityHold reverts a held custom RFQ to bidding so the race can
// continue. Holds never lapse on their own: expiry is advisory until the
// buyer (or an operator task on the buyer's behalf) acts.
func (s *raceService) ReleasePriorityHold(ctx context.Context, rfqID, buyerID string) error {
	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return err
	}
	if rfq.BuyerID != buyerID {
		return raceErrorf(ErrUnauthorized, "only the RFQ's buyer can release the hold")
	}
	if rfq.Status != models.RFQStatusPriorityHold {
		return raceErrorf(ErrInvalidState, "RFQ is %s, no priority hold to release", rfq.Status)
	}

	now := s.now().UTC()
	result, err := s.db.Collection(rfqsCollection).UpdateOne(ctx,
		bson.M{"_id": rfqID, "status": models.RFQStatusPriorityHold},
		bson.M{
			"$set": bson.M{"status": models.RFQStatusBidding, "updated_at": now},
			"$unset": bson.M{
				"priority_holder_id":       "",
				"priority_hold_expires_at": "",
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to release hold on RFQ %s: %w", rfqID, err)
	}
	if result.MatchedCount == 0 {
		return raceErrorf(ErrInvalidState, "RFQ %s changed state, cannot release hold", rfqID)
	}
	return nil
}

// CloseRFQ closes an open or bidding RFQ without awarding.
func (s *raceService) CloseRFQ(ctx context.Context, rfqID, buyerID string) error {
	return s.terminate(ctx, rfqID, buyerID, models.RFQStatusClosed,
		[]models.RFQStatus{models.RFQStatusOpen, models.RFQStatusBidding})
}

// CancelRFQ cancels an RFQ that has not reached a terminal state. A held
// RFQ can be cancelled; an awarded or closed one cannot.
func (s *raceService) CancelRFQ(ctx context.Context, rfqID, buyerID string) error {
	return s.terminate(ctx, rfqID, buyerID, models.RFQStatusCancelled,
		[]models.RFQStatus{models.RFQStatusOpen, models.RFQStatusBidding, models.RFQStatusPriorityHold})
}

func (s *raceService) terminate(ctx context.Context, rfqID, buyerID string, to models.RFQStatus, from []models.RFQStatus) error {
	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return err
	}
	if rfq.BuyerID != buyerID {
		return raceErrorf(ErrUnauthorized, "only the RFQ's buyer can %s it", verbFor(to))
	}
	allowed := false
	for _, f := range from {
		if rfq.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return raceErrorf(ErrInvalidState, "RFQ is %s, cannot %s", rfq.Status, verbFor(to))
	}

	fromVals := make(bson.A, 0, len(from))
	for _, f := range from {
		fromVals = append(fromVals, f)
	}
	result, err := s.db.Collection(rfqsCollection).UpdateOne(ctx,
		bson.M{"_id": rfqID, "status": bson.M{"$in": fromVals}},
		bson.M{"$set": bson.M{"status": to, "updated_at": s.now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to %s RFQ %s: %w", verbFor(to), rfqID, err)
	}
	if result.MatchedCount == 0 {
		return raceErrorf(ErrInvalidState, "RFQ %s changed state, cannot %s", rfqID, verbFor(to))
	}
	return nil
}

func verbFor(to models.RFQStatus) string {
	if to == models.RFQStatusCancelled {
		return "cancel"
	}
	return "close"
}

// CheckRaceStatus assembles the read-only race projection.
func (s *raceService) CheckRaceStatus(ctx context.Context, rfqID string) (*RaceStatus, error) {
	rfq, err := s.findRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	total, err := s.db.Collection(responsesCollection).CountDocuments(ctx, bson.M{"rfq_id": rfqID})
	if err != nil {
		return nil, fmt.Errorf("error counting responses on RFQ %s: %w", rfqID, err)
	}
	accepts, err := s.db.Collection(responsesCollection).CountDocuments(ctx, bson.M{
		"rfq_id":        rfqID,
		"response_type": models.ResponseAccept,
	})
	if err != nil {
		return nil, fmt.Errorf("error counting accepts on RFQ %s: %w", rfqID, err)
	}
	broadcasts, err := s.db.Collection(broadcastsCollection).CountDocuments(ctx, bson.M{"rfq_id": rfqID})
	if err != nil {
		return nil, fmt.Errorf("error counting broadcasts on RFQ %s: %w", rfqID, err)
	}

	status := &RaceStatus{
		RFQID:            rfq.ID,
		RFQStatus:        rfq.Status,
		Label:            raceLabel(rfq, now),
		RaceOpensAt:      rfq.RaceOpensAt,
		BroadcastCount:   broadcasts,
		TotalResponses:   total,
		AcceptCount:      accepts,
		PriorityHolderID: rfq.PriorityHolderID,
		HoldExpiresAt:    rfq.PriorityHoldExpiresAt,
		AwardedTo:        rfq.AwardedTo,
	}

	if rfq.Status == models.RFQStatusPriorityHold && rfq.PriorityHoldExpiresAt != nil {
		status.HoldExpired = now.After(*rfq.PriorityHoldExpiresAt)
	}
	if rfq.PriorityHolderID != nil {
		status.PriorityHolderName = s.providerName(ctx, *rfq.PriorityHolderID)
	}
	if rfq.AwardedTo != nil {
		status.WinnerName = s.providerName(ctx, *rfq.AwardedTo)
	}
	return status, nil
}

// raceLabel derives the display status. "scheduled" exists only in this
// projection: an open RFQ whose race has not started yet.
func raceLabel(rfq *models.RFQ, now time.Time) string {
	switch rfq.Status {
	case models.RFQStatusOpen:
		if rfq.RaceOpensAt != nil && now.Before(*rfq.RaceOpensAt) {
			return "scheduled"
		}
		return "open"
	case models.RFQStatusBidding:
		return "open"
	default:
		return string(rfq.Status)
	}
}

func (s *raceService) providerName(ctx context.Context, providerID string) string {
	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return ""
	}
	return provider.Name
}

// ListInvitations returns a provider's broadcast records, soonest first.
func (s *raceService) ListInvitations(ctx context.Context, providerID string) ([]models.Broadcast, error) {
	opts := options.Find().SetSort(bson.D{{Key: "scheduled_at", Value: 1}})
	cursor, err := s.db.Collection(broadcastsCollection).Find(ctx, bson.M{"provider_id": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing invitations for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var invitations []models.Broadcast
	if err = cursor.All(ctx, &invitations); err != nil {
		return nil, fmt.Errorf("error decoding invitations for provider %s: %w", providerID, err)
	}
	return invitations, nil
}

// --- shared guards and writes ---

func (s *raceService) checkNoPriorResponse(ctx context.Context, rfqID, providerID string) error {
	count, err := s.db.Collection(responsesCollection).CountDocuments(ctx, bson.M{
		"rfq_id":      rfqID,
		"provider_id": providerID,
	})
	if err != nil {
		return fmt.Errorf("error checking prior response on RFQ %s: %w", rfqID, err)
	}
	if count > 0 {
		return raceErrorf(ErrDuplicateResponse, "already responded to this RFQ")
	}
	return nil
}

func (s *raceService) findBroadcast(ctx context.Context, rfqID, providerID string) (*models.Broadcast, error) {
	var b models.Broadcast
	err := s.db.Collection(broadcastsCollection).FindOne(ctx, bson.M{
		"rfq_id":      rfqID,
		"provider_id": providerID,
	}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding broadcast for RFQ %s provider %s: %w", rfqID, providerID, err)
	}
	return &b, nil
}

// markDelivered sets delivered_at/viewed_at the first time the provider's
// response attempt touches the broadcast row. The delivered_at filter makes
// the write a no-op on every later call. Best effort: a failed stamp never
// blocks the response itself.
func (s *raceService) markDelivered(ctx context.Context, rfqID, providerID string, now time.Time) {
	_, _ = s.db.Collection(broadcastsCollection).UpdateOne(ctx,
		bson.M{"rfq_id": rfqID, "provider_id": providerID, "delivered_at": nil},
		bson.M{"$set": bson.M{"delivered_at": now, "viewed_at": now}},
	)
}

// insertResponse writes the append-only response row. The unique pair index
// is the authoritative duplicate guard: a concurrent same-provider response
// surfaces here as a duplicate key, not as a second row.
func (s *raceService) insertResponse(ctx context.Context, response models.Response) error {
	_, err := s.db.Collection(responsesCollection).InsertOne(ctx, response)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return raceErrorf(ErrDuplicateResponse, "already responded to this RFQ")
		}
		return fmt.Errorf("failed to insert response on RFQ %s: %w", response.RFQID, err)
	}
	return nil
}
