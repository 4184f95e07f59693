package trades

import (
	"context"
	"errors"

	"tradenet-backend/internal/domain"
	"tradenet-backend/internal/ledger"
	"tradenet-backend/internal/matching"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTradeNotFound = errors.New("trade not found")

// Service owns trade registration and lead queries.
type Service struct {
	DB     *gorm.DB
	Ledger *ledger.Service
}

// Register creates a trade with a fresh credit account.
func (s *Service) Register(ctx context.Context, companyName string, services []string, verified bool) (*domain.Trade, error) {
	acct, err := s.Ledger.CreateAccount(ctx, domain.AccountKindTrade)
	if err != nil {
		return nil, err
	}
	trade := &domain.Trade{
		AccountID:       acct.AccountID,
		CompanyName:     companyName,
		ServicesOffered: domain.NewServiceList(services),
		Verified:        verified,
	}
	if err := s.DB.WithContext(ctx).Create(trade).Error; err != nil {
		return nil, err
	}
	return trade, nil
}

// Get returns a trade by id.
func (s *Service) Get(ctx context.Context, tradeID uuid.UUID) (*domain.Trade, error) {
	var trade domain.Trade
	if err := s.DB.WithContext(ctx).Where("trade_id = ?", tradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}
	return &trade, nil
}

// PendingMatches returns the trade's open leads, newest first.
func (s *Service) PendingMatches(ctx context.Context, tradeID uuid.UUID) ([]domain.Match, error) {
	var matches []domain.Match
	err := s.DB.WithContext(ctx).
		Where("trade_id = ? AND status = ?", tradeID, domain.MatchStatusPending).
		Order(`"createdAt" desc`).
		Find(&matches).Error
	return matches, err
}

// GormCandidateSource supplies matcher candidates from the DB. Service
// filtering happens in Go because services_offered is a json column and the
// membership test must behave identically on Postgres and SQLite.
type GormCandidateSource struct {
	DB *gorm.DB
}

// FindCandidates returns all trades offering the trade type, each with its
// current pending-lead count.
func (s *GormCandidateSource) FindCandidates(ctx context.Context, tradeType string) ([]matching.Candidate, error) {
	var trades []domain.Trade
	if err := s.DB.WithContext(ctx).Find(&trades).Error; err != nil {
		return nil, err
	}

	var candidates []matching.Candidate
	for _, t := range trades {
		if !t.ServicesOffered.Contains(tradeType) {
			continue
		}
		var pending int64
		if err := s.DB.WithContext(ctx).Model(&domain.Match{}).
			Where("trade_id = ? AND status = ?", t.TradeID, domain.MatchStatusPending).
			Count(&pending).Error; err != nil {
			return nil, err
		}
		candidates = append(candidates, matching.Candidate{
			Trade:        t,
			PendingLeads: int(pending),
		})
	}
	return candidates, nil
}
