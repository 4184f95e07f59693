package admin

import (
	"context"

	"tradenet-backend/internal/domain"

	"gorm.io/gorm"
)

// Stats is the aggregate marketplace view for the admin dashboard.
type Stats struct {
	JobsByStatus    map[string]int64 `json:"jobs_by_status"`
	MatchesByStatus map[string]int64 `json:"matches_by_status"`
	FreeLeads       int64            `json:"free_leads"`
	BillableLeads   int64            `json:"billable_leads"`
	RevenueCredits  int64            `json:"revenue_credits"`
	TradeCount      int64            `json:"trade_count"`
	ClientAccounts  int64            `json:"client_accounts"`
}

type Service struct {
	DB *gorm.DB
}

type statusCount struct {
	Status string
	Count  int64
}

// Collect computes the aggregate statistics in one pass per table.
func (s *Service) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		JobsByStatus:    map[string]int64{},
		MatchesByStatus: map[string]int64{},
	}

	var jobCounts []statusCount
	if err := s.DB.WithContext(ctx).Model(&domain.Job{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&jobCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range jobCounts {
		stats.JobsByStatus[c.Status] = c.Count
	}

	var matchCounts []statusCount
	if err := s.DB.WithContext(ctx).Model(&domain.Match{}).
		Select("status, COUNT(*) as count").Group("status").Scan(&matchCounts).Error; err != nil {
		return nil, err
	}
	for _, c := range matchCounts {
		stats.MatchesByStatus[c.Status] = c.Count
	}

	if err := s.DB.WithContext(ctx).Model(&domain.Match{}).
		Where("is_free_lead = ?", true).Count(&stats.FreeLeads).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Match{}).
		Where("is_free_lead = ?", false).Count(&stats.BillableLeads).Error; err != nil {
		return nil, err
	}

	// Lead charges are negative deltas; revenue is their absolute sum.
	var chargeSum *int64
	if err := s.DB.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("reason = ?", domain.ReasonLeadCharge).
		Select("SUM(delta)").Scan(&chargeSum).Error; err != nil {
		return nil, err
	}
	if chargeSum != nil {
		stats.RevenueCredits = -*chargeSum
	}

	if err := s.DB.WithContext(ctx).Model(&domain.Trade{}).Count(&stats.TradeCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&domain.Account{}).
		Where("kind = ?", domain.AccountKindClient).Count(&stats.ClientAccounts).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
