package ledger

import (
	"context"
	"sync"
	"testing"

	"tradenet-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLedgerTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.LedgerEntry{}))
	return &Service{DB: db}
}

func TestAppend_CreditAndDebit(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 10, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)

	ref := "match-1"
	entry, err := s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), entry.Delta)

	balance, err := s.Balance(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance)
}

func TestAppend_RejectsOverdraft(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 2, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)

	ref := "match-overdraft"
	_, err = s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Nothing was written.
	balance, err := s.Balance(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
	history, err := s.History(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAppend_DuplicateReferenceRejected(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 10, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)

	ref := "match-42"
	first, err := s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	require.NoError(t, err)

	replay, err := s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	assert.ErrorIs(t, err, ErrDuplicateEntry)
	require.NotNil(t, replay)
	assert.Equal(t, first.EntryID, replay.EntryID)

	// Exactly one applied entry and one balance change.
	balance, err := s.Balance(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance)
}

func TestAppend_SameReferenceDifferentReasonAllowed(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 10, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)

	ref := "match-7"
	_, err = s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	require.NoError(t, err)
	_, err = s.Append(ctx, acct.AccountID, 3, domain.ReasonRefund, &ref)
	require.NoError(t, err)

	balance, err := s.Balance(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

func TestAppend_UnknownAccount(t *testing.T) {
	s := setupLedgerTest(t)
	_, err := s.Append(context.Background(), uuid.New(), 5, domain.ReasonCreditPurchase, nil)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAppend_InvalidReason(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindClient)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 5, "gift", nil)
	assert.ErrorIs(t, err, ErrInvalidReason)
}

func TestBalance_AlwaysMatchesRecomputedSum(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	deltas := []int64{10, -3, 5, -4, -2, 1}
	for i, d := range deltas {
		reason := domain.ReasonCreditPurchase
		if d < 0 {
			reason = domain.ReasonLeadCharge
		}
		ref := "op-" + string(rune('a'+i))
		_, err := s.Append(ctx, acct.AccountID, d, reason, &ref)
		require.NoError(t, err)

		balance, err := s.Balance(ctx, acct.AccountID)
		require.NoError(t, err)
		recomputed, err := s.RecomputeBalance(ctx, acct.AccountID)
		require.NoError(t, err)
		assert.Equal(t, recomputed, balance)
		assert.GreaterOrEqual(t, balance, int64(0))
	}
}

func TestAppend_ConcurrentDebits_NeverOverdraw(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 5, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)

	// 5 concurrent debits of 3 against a balance of 5: exactly one wins.
	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ref := "concurrent-" + string(rune('a'+i))
			_, errs[i] = s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := s.Balance(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance)
	recomputed, err := s.RecomputeBalance(ctx, acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, balance, recomputed)
}

func TestHistory_OrderedOldestFirst(t *testing.T) {
	s := setupLedgerTest(t)
	ctx := context.Background()
	acct, err := s.CreateAccount(ctx, domain.AccountKindTrade)
	require.NoError(t, err)

	_, err = s.Append(ctx, acct.AccountID, 10, domain.ReasonCreditPurchase, nil)
	require.NoError(t, err)
	ref := "m1"
	_, err = s.Append(ctx, acct.AccountID, -3, domain.ReasonLeadCharge, &ref)
	require.NoError(t, err)
	_, err = s.Append(ctx, acct.AccountID, 1, domain.ReasonBonusGrant, nil)
	require.NoError(t, err)

	history, err := s.History(ctx, acct.AccountID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, int64(10), history[0].Delta)
	assert.Equal(t, int64(-3), history[1].Delta)
	assert.Equal(t, int64(1), history[2].Delta)
}
