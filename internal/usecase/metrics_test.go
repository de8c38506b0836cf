package usecase

import (
	"context"
	"testing"

	"banking-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRecordsOutcomes(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "UA1", "10")
	ctx := context.Background()

	success := metrics.TransactionsTotal.WithLabelValues("deposit", metrics.OutcomeSuccess)
	insufficient := metrics.TransactionsTotal.WithLabelValues("withdraw", "insufficient_funds")
	commitFailed := metrics.TransactionsTotal.WithLabelValues("deposit", "atomic_commit")

	successBefore := testutil.ToFloat64(success)
	insufficientBefore := testutil.ToFloat64(insufficient)
	commitBefore := testutil.ToFloat64(commitFailed)

	_, err := f.txs.Deposit(ctx, "UA1", dec("1"), admin)
	require.NoError(t, err)

	_, err = f.txs.Withdraw(ctx, "UA1", dec("100"), admin)
	require.Error(t, err)

	f.db.FailCommits(assert.AnError)
	_, err = f.txs.Deposit(ctx, "UA1", dec("1"), admin)
	require.Error(t, err)

	assert.Equal(t, successBefore+1, testutil.ToFloat64(success))
	assert.Equal(t, insufficientBefore+1, testutil.ToFloat64(insufficient))
	assert.Equal(t, commitBefore+1, testutil.ToFloat64(commitFailed))
}

func TestCreateAccountRecordsOutcome(t *testing.T) {
	f := newFixture(t)
	created := metrics.AccountsCreatedTotal.WithLabelValues(metrics.OutcomeSuccess)
	rejected := metrics.AccountsCreatedTotal.WithLabelValues("validation")
	createdBefore, rejectedBefore := testutil.ToFloat64(created), testutil.ToFloat64(rejected)

	_, err := f.accounts.CreateAccount(context.Background(), "Olena", "Pchilka", dec("0"))
	require.NoError(t, err)
	_, err = f.accounts.CreateAccount(context.Background(), "", "Pchilka", dec("0"))
	require.Error(t, err)

	assert.Equal(t, createdBefore+1, testutil.ToFloat64(created))
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(rejected))
}
