// Package match scores and ranks providers against an RFQ's criteria.
// The contract is reproducibility of the formula, not optimality: the same
// inputs always produce the same score.
package match

import (
	"math"
	"sort"
	"strings"

	"foundrybay/core/internal/models"
)

// MinScore is the cutoff below which a provider is excluded from results.
const MinScore = 30

// Criteria is what an RFQ asks for.
type Criteria struct {
	Category       string
	SkillsRequired []string
	BudgetMin      *float64
	BudgetMax      *float64
	Urgency        models.Urgency
}

// Empty reports whether the criteria carry nothing to rank on. An empty
// criteria set degenerates matching to "all eligible providers".
func (c Criteria) Empty() bool {
	return c.Category == "" && len(c.SkillsRequired) == 0 && c.BudgetMin == nil && c.BudgetMax == nil
}

// Profile is the provider-side input to scoring.
type Profile struct {
	ProviderID       string
	Categories       []string
	Skills           []string
	DayRate          *float64
	CompletionRate   float64
	AvgResponseHours float64
	Tier             models.ProviderTier
}

// Result is a single provider's score with the reasons that earned it.
type Result struct {
	Score   int
	Reasons []string
}

// Match is a ranked entry returned by Rank.
type Match struct {
	ProviderID string
	Score      int
	Reasons    []string
}

// Score applies the weighted additive formula, capped to [0, 100].
func Score(c Criteria, p Profile) Result {
	var score float64
	var reasons []string

	// Category exact match: +30.
	if c.Category != "" {
		for _, cat := range p.Categories {
			if cat == c.Category {
				score += 30
				reasons = append(reasons, "category match: "+cat)
				break
			}
		}
	}

	// Skill overlap: proportional up to +20.
	if len(c.SkillsRequired) > 0 {
		have := make(map[string]bool, len(p.Skills))
		for _, s := range p.Skills {
			have[s] = true
		}
		var matched []string
		for _, s := range c.SkillsRequired {
			if have[s] {
				matched = append(matched, s)
			}
		}
		if len(matched) > 0 {
			score += float64(len(matched)) / float64(len(c.SkillsRequired)) * 20
			reasons = append(reasons, "matching skills: "+strings.Join(matched, ", "))
		}
	}

	// Historical completion rate.
	if p.CompletionRate > 0.8 {
		score += 20
		reasons = append(reasons, "strong completion history")
	} else {
		score += p.CompletionRate * 20
	}

	// Budget fit.
	switch {
	case p.DayRate == nil || c.BudgetMax == nil:
		score += 7.5 // no pricing info on either side: neutral
	case *p.DayRate <= *c.BudgetMax:
		score += 15
		reasons = append(reasons, "within budget")
	case *p.DayRate < *c.BudgetMax*1.2:
		score += 10
		reasons = append(reasons, "close to budget range")
	}

	// Response time vs urgency.
	if c.Urgency == models.UrgencyUrgent {
		switch {
		case p.AvgResponseHours < 2:
			score += 15
		case p.AvgResponseHours < 6:
			score += 10
		default:
			score += 5
		}
	} else {
		score += 10
	}

	// Tier bonus.
	switch p.Tier {
	case models.TierPremium:
		score += 5
	case models.TierVerifiedPartner:
		score += 3
	}

	final := int(math.Round(score))
	if final > 100 {
		final = 100
	}
	return Result{Score: final, Reasons: reasons}
}

// Rank scores each profile, drops those under MinScore and sorts the rest
// descending by score (ties keep input order).
func Rank(c Criteria, profiles []Profile) []Match {
	matches := make([]Match, 0, len(profiles))
	for _, p := range profiles {
		r := Score(c, p)
		if r.Score < MinScore {
			continue
		}
		matches = append(matches, Match{ProviderID: p.ProviderID, Score: r.Score, Reasons: r.Reasons})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
