package matching

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"tradenet-backend/internal/domain"
)

// Scoring weights. The components sum to 100 before the trade-of-week
// bonus; the final score is capped at 100.
const (
	serviceMatchPoints = 40
	ratingMaxPoints    = 30
	loadMaxPoints      = 20
	tradeOfWeekPoints  = 10
	maxScore           = 100
)

// DefaultTopN is the ranked-list truncation used when no limit is configured.
const DefaultTopN = 3

// Candidate is a trade plus its current pending-lead load.
type Candidate struct {
	Trade        domain.Trade
	PendingLeads int
}

// RankedTrade is one entry of an ordered match list.
type RankedTrade struct {
	Trade         domain.Trade
	Score         int
	LowConfidence bool
}

// CandidateSource supplies the candidate pool for a trade type.
type CandidateSource interface {
	FindCandidates(ctx context.Context, tradeType string) ([]Candidate, error)
}

// Matcher ranks trade candidates for a job. Ranking is pure and
// deterministic; repeated invocations over the same pool return the same
// ordered list.
type Matcher struct {
	Source CandidateSource
	TopN   int
}

// NewMatcher returns a Matcher over the given source.
func NewMatcher(source CandidateSource, topN int) *Matcher {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Matcher{Source: source, TopN: topN}
}

// Rank fetches the candidate pool and returns the ordered, truncated match
// list for the job. An empty pool yields an empty list, not an error.
func (m *Matcher) Rank(ctx context.Context, job domain.Job) ([]RankedTrade, error) {
	pool, err := m.Source.FindCandidates(ctx, job.TradeType)
	if err != nil {
		return nil, err
	}
	return RankPool(job, pool, m.TopN, time.Now()), nil
}

// RankPool is the pure ranking over an in-memory pool. Filters candidates
// that do not offer the job's trade type; filters unverified trades unless
// no verified trade remains, in which case unverified candidates are kept
// and flagged low-confidence.
func RankPool(job domain.Job, pool []Candidate, topN int, now time.Time) []RankedTrade {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var eligible []Candidate
	for _, c := range pool {
		if c.Trade.ServicesOffered.Contains(job.TradeType) {
			eligible = append(eligible, c)
		}
	}

	verified := make([]Candidate, 0, len(eligible))
	for _, c := range eligible {
		if c.Trade.Verified {
			verified = append(verified, c)
		}
	}
	lowConfidence := false
	if len(verified) > 0 {
		eligible = verified
	} else {
		lowConfidence = true
	}
	if len(eligible) == 0 {
		return []RankedTrade{}
	}

	maxPending := 0
	for _, c := range eligible {
		if c.PendingLeads > maxPending {
			maxPending = c.PendingLeads
		}
	}

	ranked := make([]RankedTrade, 0, len(eligible))
	for _, c := range eligible {
		score := serviceMatchPoints
		score += int(math.Round(c.Trade.Rating / 5.0 * ratingMaxPoints))

		// Backpressure: trades with more pending leads score lower.
		if maxPending > 0 {
			score += int(math.Round((1.0 - float64(c.PendingLeads)/float64(maxPending)) * loadMaxPoints))
		} else {
			score += loadMaxPoints
		}

		if c.Trade.TradeOfWeekActive(now) {
			score += tradeOfWeekPoints
		}
		if score > maxScore {
			score = maxScore
		}

		ranked = append(ranked, RankedTrade{
			Trade:         c.Trade,
			Score:         score,
			LowConfidence: lowConfidence,
		})
	}

	// Score desc, then rating desc, then earlier registration (lower id
	// lexicographically). No randomness anywhere on this path.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Trade.Rating != ranked[j].Trade.Rating {
			return ranked[i].Trade.Rating > ranked[j].Trade.Rating
		}
		return strings.Compare(ranked[i].Trade.TradeID.String(), ranked[j].Trade.TradeID.String()) < 0
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
