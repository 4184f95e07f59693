package ledger

import (
	"context"
	"errors"
	"sync"

	"tradenet-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service is the append-only credit ledger. All balance-affecting writes
// and balance reads for an account are linearized behind a per-account
// mutex, so the non-negative-balance invariant holds under concurrent
// lead acceptances by the same trade.
type Service struct {
	DB    *gorm.DB
	locks sync.Map // account id -> *sync.Mutex
}

func (s *Service) lockFor(accountID uuid.UUID) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(accountID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Hold runs fn inside the account's critical section without opening a
// transaction. The allocator uses this to keep a billing charge and its
// ledger append atomic with respect to other operations on the same
// account while the external gateway call stays outside any open
// transaction. fn must not call Append or Balance for the same account
// (the lock is not reentrant); use AppendTx inside fn's own transaction.
func (s *Service) Hold(accountID uuid.UUID, fn func() error) error {
	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// CreateAccount creates a credit account of the given kind with zero balance.
func (s *Service) CreateAccount(ctx context.Context, kind string) (*domain.Account, error) {
	acct := &domain.Account{Kind: kind}
	if err := s.DB.WithContext(ctx).Create(acct).Error; err != nil {
		return nil, err
	}
	return acct, nil
}

// Append applies a ledger entry to the account, atomically check-then-write.
// An entry that would drive the balance negative is rejected with
// ErrInsufficientBalance and nothing is written. A replay of an applied
// (account, reason, reference) is rejected with ErrDuplicateEntry, the
// original entry returned alongside the error.
func (s *Service) Append(ctx context.Context, accountID uuid.UUID, delta int64, reason string, referenceID *string) (*domain.LedgerEntry, error) {
	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()

	var entry *domain.LedgerEntry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.AppendTx(ctx, tx, accountID, delta, reason, referenceID)
		return txErr
	})
	return entry, err
}

// AppendTx is Append running inside the caller's transaction. The caller
// must already hold the account lock (via Hold).
func (s *Service) AppendTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, delta int64, reason string, referenceID *string) (*domain.LedgerEntry, error) {
	if !domain.ValidReason(reason) {
		return nil, ErrInvalidReason
	}

	var acct domain.Account
	if err := tx.Where("account_id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if referenceID != nil {
		var existing domain.LedgerEntry
		err := tx.Where("account_id = ? AND reason = ? AND reference_id = ?", accountID, reason, *referenceID).
			First(&existing).Error
		if err == nil {
			return &existing, ErrDuplicateEntry
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	newBalance := acct.CreditBalance + delta
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	entry := &domain.LedgerEntry{
		AccountID:   accountID,
		Delta:       delta,
		Reason:      reason,
		ReferenceID: referenceID,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&domain.Account{}).Where("account_id = ?", accountID).
		Update("credit_balance", newBalance).Error; err != nil {
		return nil, err
	}

	log.Debug().Str("account_id", accountID.String()).Int64("delta", delta).
		Str("reason", reason).Int64("balance", newBalance).Msg("ledger entry applied")
	return entry, nil
}

// Balance returns the account's current balance (cached projection).
// The read takes the account lock so it is linearized with appends.
func (s *Service) Balance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	mu := s.lockFor(accountID)
	mu.Lock()
	defer mu.Unlock()
	return s.balanceTx(ctx, s.DB, accountID)
}

func (s *Service) balanceTx(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int64, error) {
	var acct domain.Account
	if err := tx.WithContext(ctx).Where("account_id = ?", accountID).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return acct.CreditBalance, nil
}

// RecomputeBalance sums the account's entries. The result must always agree
// with the cached projection; it exists for audits and tests.
func (s *Service) RecomputeBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var sum *int64
	err := s.DB.WithContext(ctx).Model(&domain.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select("SUM(delta)").Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// History returns the account's entries ordered by creation time, oldest
// first, for ordered replay.
func (s *Service) History(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := s.DB.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order(`"createdAt" asc, entry_id asc`).
		Find(&entries).Error
	return entries, err
}
