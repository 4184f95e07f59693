package allocator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"tradenet-backend/internal/billing"
	"tradenet-backend/internal/domain"
	"tradenet-backend/internal/ledger"
	"tradenet-backend/internal/matching"
	"tradenet-backend/internal/metrics"
	"tradenet-backend/internal/notify"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Respond decisions.
const (
	DecisionAccept  = "accept"
	DecisionDecline = "decline"
)

// Free-lead reasons recorded on a match.
const (
	FreeReasonQC    = "qc"
	FreeReasonBonus = "bonus"
)

// Service creates matches for ranked candidates, decides free/billable at
// creation time, and drives the match state machine. Responds to the same
// match are serialized behind a per-match mutex; the losing side of a race
// observes a non-pending status and gets ErrInvalidTransition.
type Service struct {
	DB       *gorm.DB
	Ledger   *ledger.Service
	Billing  billing.Gateway
	Notifier notify.Notifier
	Metrics  *metrics.Collector

	LeadFee        int64 // credits charged per billable accepted lead
	QCPercent      int   // percent of allocated leads free for quality control
	BonusThreshold int   // billable charges before the next lead is free

	matchLocks sync.Map // match id -> *sync.Mutex
}

func (s *Service) lockFor(matchID uuid.UUID) *sync.Mutex {
	v, _ := s.matchLocks.LoadOrStore(matchID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// qcInterval returns N so that every Nth allocated lead is a free
// quality-control sample, or 0 when sampling is disabled.
func (s *Service) qcInterval() int {
	if s.QCPercent <= 0 {
		return 0
	}
	return int(math.Round(100.0 / float64(s.QCPercent)))
}

// Allocate creates a pending match per ranked candidate, in rank order.
// The free-lead decision happens here and is never re-evaluated:
// quality-control sampling is counter-based (every Nth lead per trade), the
// bonus rule fires once the trade's billable counter reaches the threshold.
// QC takes precedence when both fire; the bonus counter is then preserved
// for the next allocation.
func (s *Service) Allocate(ctx context.Context, jobID uuid.UUID, ranked []matching.RankedTrade) ([]domain.Match, error) {
	var created []domain.Match
	type pendingNotify struct {
		accountID uuid.UUID
		match     domain.Match
	}
	var notifies []pendingNotify

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		if err := tx.Where("job_id = ?", jobID).First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}
		if job.Status == domain.JobStatusClosed {
			return ErrInvalidTransition
		}

		for _, rc := range ranked {
			var existing domain.Match
			err := tx.Where("job_id = ? AND trade_id = ?", job.JobID, rc.Trade.TradeID).First(&existing).Error
			if err == nil {
				log.Warn().Str("job_id", job.JobID.String()).Str("trade_id", rc.Trade.TradeID.String()).
					Msg("duplicate match skipped")
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			var trade domain.Trade
			if err := tx.Where("trade_id = ?", rc.Trade.TradeID).First(&trade).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTradeNotFound
				}
				return err
			}

			trade.QCCounter++
			isFree := false
			var freeReason *string
			if n := s.qcInterval(); n > 0 && trade.QCCounter%n == 0 {
				isFree = true
				r := FreeReasonQC
				freeReason = &r
			} else if s.BonusThreshold > 0 && trade.BonusCounter >= s.BonusThreshold {
				isFree = true
				r := FreeReasonBonus
				freeReason = &r
				trade.BonusCounter = 0
			}

			match := domain.Match{
				JobID:         job.JobID,
				TradeID:       trade.TradeID,
				MatchScore:    rc.Score,
				IsFreeLead:    isFree,
				FreeReason:    freeReason,
				LowConfidence: rc.LowConfidence,
				Status:        domain.MatchStatusPending,
			}
			if err := tx.Create(&match).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Trade{}).Where("trade_id = ?", trade.TradeID).
				Updates(map[string]interface{}{
					"qc_counter":    trade.QCCounter,
					"bonus_counter": trade.BonusCounter,
				}).Error; err != nil {
				return err
			}

			created = append(created, match)
			notifies = append(notifies, pendingNotify{accountID: trade.AccountID, match: match})
		}

		if len(created) > 0 && job.Status == domain.JobStatusOpen {
			if err := tx.Model(&domain.Job{}).Where("job_id = ?", job.JobID).
				Update("status", domain.JobStatusMatched).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, n := range notifies {
		kind := "billable"
		if n.match.IsFreeLead {
			kind = "free"
		}
		s.Metrics.RecordAllocation(kind, n.match.MatchScore)
		s.dispatch(ctx, n.accountID, notify.EventLeadNew, map[string]interface{}{
			"match_id":     n.match.MatchID.String(),
			"job_id":       n.match.JobID.String(),
			"is_free_lead": n.match.IsFreeLead,
			"match_score":  n.match.MatchScore,
		})
	}
	return created, nil
}

// Respond applies a trade's accept/decline decision to a pending match.
// Accepting a billable lead charges the trade's account: the per-account
// lock is held across the billing charge and the ledger append so they are
// atomic together, and released before any notification goes out. A failed
// charge leaves the match pending; it is never silently downgraded to free.
// The accept commits only if the match is still pending at write time; a
// cancellation that lands during the charge wins, the ledger append is
// rolled back, and the caller sees ErrInvalidTransition.
func (s *Service) Respond(ctx context.Context, matchID uuid.UUID, decision string) (*domain.Match, error) {
	if decision != DecisionAccept && decision != DecisionDecline {
		return nil, ErrInvalidDecision
	}

	mu := s.lockFor(matchID)
	mu.Lock()
	defer mu.Unlock()

	var match domain.Match
	if err := s.DB.WithContext(ctx).Where("match_id = ?", matchID).First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status != domain.MatchStatusPending {
		return nil, ErrInvalidTransition
	}

	var trade domain.Trade
	if err := s.DB.WithContext(ctx).Where("trade_id = ?", match.TradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	if decision == DecisionDecline {
		res := s.DB.WithContext(ctx).Model(&domain.Match{}).
			Where("match_id = ? AND status = ?", matchID, domain.MatchStatusPending).
			Update("status", domain.MatchStatusDeclined)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrInvalidTransition
		}
		match.Status = domain.MatchStatusDeclined
		s.Metrics.RecordTransition(domain.MatchStatusDeclined)
		s.dispatch(ctx, trade.AccountID, notify.EventLeadDeclined, map[string]interface{}{
			"match_id": match.MatchID.String(),
			"job_id":   match.JobID.String(),
		})
		return &match, nil
	}

	// Accept. Status writes are conditional on the match still being
	// pending: job cancellation declines pending matches without taking
	// the per-match lock, and declined is terminal.
	if match.IsFreeLead {
		res := s.DB.WithContext(ctx).Model(&domain.Match{}).
			Where("match_id = ? AND status = ?", matchID, domain.MatchStatusPending).
			Update("status", domain.MatchStatusAccepted)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrInvalidTransition
		}
	} else {
		ref := match.MatchID.String()
		err := s.Ledger.Hold(trade.AccountID, func() error {
			var acct domain.Account
			if err := s.DB.WithContext(ctx).Where("account_id = ?", trade.AccountID).First(&acct).Error; err != nil {
				return err
			}
			if acct.CreditBalance < s.LeadFee {
				return ledger.ErrInsufficientBalance
			}
			// The gateway call runs under the account lock but outside
			// the transaction below, so a slow provider never holds row
			// locks open.
			if err := s.Billing.Charge(ctx, trade.AccountID, s.LeadFee, ref); err != nil {
				return fmt.Errorf("%w: %s", billing.ErrGatewayFailure, err.Error())
			}
			return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if _, err := s.Ledger.AppendTx(ctx, tx, trade.AccountID, -s.LeadFee, domain.ReasonLeadCharge, &ref); err != nil {
					// A duplicate means a retried accept whose charge already
					// applied; the transition may proceed.
					if !errors.Is(err, ledger.ErrDuplicateEntry) {
						return err
					}
				}
				if err := tx.Model(&domain.Trade{}).Where("trade_id = ?", trade.TradeID).
					Updates(map[string]interface{}{
						"lead_counter":  gorm.Expr("lead_counter + 1"),
						"bonus_counter": gorm.Expr("bonus_counter + 1"),
					}).Error; err != nil {
					return err
				}
				res := tx.Model(&domain.Match{}).
					Where("match_id = ? AND status = ?", matchID, domain.MatchStatusPending).
					Update("status", domain.MatchStatusAccepted)
				if res.Error != nil {
					return res.Error
				}
				if res.RowsAffected == 0 {
					// The job was cancelled while the charge was in
					// flight. Rolling back voids the ledger entry and the
					// counter bumps, so the trade is not charged for a
					// cancelled lead.
					return ErrInvalidTransition
				}
				return nil
			})
		})
		if err != nil {
			s.Metrics.RecordCharge(false)
			return nil, err
		}
		s.Metrics.RecordCharge(true)
	}

	match.Status = domain.MatchStatusAccepted
	s.Metrics.RecordTransition(domain.MatchStatusAccepted)
	s.dispatch(ctx, trade.AccountID, notify.EventLeadAccepted, map[string]interface{}{
		"match_id":     match.MatchID.String(),
		"job_id":       match.JobID.String(),
		"is_free_lead": match.IsFreeLead,
	})
	return &match, nil
}

// Complete transitions an accepted match to completed.
func (s *Service) Complete(ctx context.Context, matchID uuid.UUID) (*domain.Match, error) {
	mu := s.lockFor(matchID)
	mu.Lock()
	defer mu.Unlock()

	var match domain.Match
	if err := s.DB.WithContext(ctx).Where("match_id = ?", matchID).First(&match).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status != domain.MatchStatusAccepted {
		return nil, ErrInvalidTransition
	}

	res := s.DB.WithContext(ctx).Model(&domain.Match{}).
		Where("match_id = ? AND status = ?", matchID, domain.MatchStatusAccepted).
		Update("status", domain.MatchStatusCompleted)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	match.Status = domain.MatchStatusCompleted
	s.Metrics.RecordTransition(domain.MatchStatusCompleted)

	var trade domain.Trade
	if err := s.DB.WithContext(ctx).Where("trade_id = ?", match.TradeID).First(&trade).Error; err == nil {
		s.dispatch(ctx, trade.AccountID, notify.EventLeadCompleted, map[string]interface{}{
			"match_id": match.MatchID.String(),
			"job_id":   match.JobID.String(),
		})
	}
	return &match, nil
}

// CancelJob closes the job and implicit-declines its pending matches.
// Accepted matches survive so a completed visit can still be recorded.
// Each decline is conditional on the match still being pending, the same
// rule Respond applies; whichever side commits first wins and the loser
// observes a non-pending status.
func (s *Service) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	var cancelled []domain.Match

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		if err := tx.Where("job_id = ?", jobID).First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrJobNotFound
			}
			return err
		}
		if job.Status == domain.JobStatusClosed {
			return ErrInvalidTransition
		}

		if err := tx.Model(&domain.Job{}).Where("job_id = ?", jobID).
			Update("status", domain.JobStatusClosed).Error; err != nil {
			return err
		}

		var pending []domain.Match
		if err := tx.Where("job_id = ? AND status = ?", jobID, domain.MatchStatusPending).
			Find(&pending).Error; err != nil {
			return err
		}
		for _, m := range pending {
			res := tx.Model(&domain.Match{}).
				Where("match_id = ? AND status = ?", m.MatchID, domain.MatchStatusPending).
				Update("status", domain.MatchStatusDeclined)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue // responded to while the job was closing
			}
			m.Status = domain.MatchStatusDeclined
			cancelled = append(cancelled, m)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, m := range cancelled {
		s.Metrics.RecordTransition(domain.MatchStatusDeclined)
		var trade domain.Trade
		if err := s.DB.WithContext(ctx).Where("trade_id = ?", m.TradeID).First(&trade).Error; err != nil {
			continue
		}
		s.dispatch(ctx, trade.AccountID, notify.EventLeadCancelled, map[string]interface{}{
			"match_id": m.MatchID.String(),
			"job_id":   m.JobID.String(),
		})
	}
	return nil
}

// dispatch sends a notification best-effort. Failures are logged and never
// roll back the transition that caused them.
func (s *Service) dispatch(ctx context.Context, accountID uuid.UUID, eventType string, payload map[string]interface{}) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, accountID, eventType, payload); err != nil {
		log.Warn().Err(err).Str("account_id", accountID.String()).Str("event_type", eventType).
			Msg("notification dispatch failed")
	}
}
