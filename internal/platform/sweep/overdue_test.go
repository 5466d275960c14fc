package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"KCMS-gateway/internal/tool_mgmt/records"
)

func TestRunOnceMarksOverdue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	store := records.NewMemStore(records.SeedRecords(now)...)

	sw := NewSweeper(store)
	// 5日後には 1001(+4日) が期限切れ、1004(+5日) はちょうど期限なので対象外
	sw.now = func() time.Time { return now.Add(5 * 24 * time.Hour) }

	n, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n) // 1001 と刀柄 2001(+2日)

	r, err := store.Get(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, records.StatusOverdue, r.Status)
	require.Equal(t, Operator, r.UpdatedBy)

	r, err = store.Get(ctx, 1004)
	require.NoError(t, err)
	require.Equal(t, records.StatusBorrowed, r.Status)

	// 一時保管中は対象外
	r, err = store.Get(ctx, 1003)
	require.NoError(t, err)
	require.Equal(t, records.StatusTempStored, r.Status)

	n, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	_, err := Start("not a cron", NewSweeper(records.NewMemStore()))
	require.Error(t, err)

	c, err := Start("*/10 * * * *", NewSweeper(records.NewMemStore()))
	require.NoError(t, err)
	c.Stop()
}
