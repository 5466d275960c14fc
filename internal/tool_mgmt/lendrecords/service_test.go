package lendrecords

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
	"KCMS-gateway/internal/tool_mgmt/records"
	"KCMS-gateway/internal/tool_mgmt/returns"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)

func newTestService(exp Exporter) (*Service, *records.MemStore) {
	store := records.NewMemStore(records.SeedRecords(fixedNow)...)
	svc := NewService(store, exp, cabinets.NewMemSource(cabinets.DefaultCabinets()...))
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestServiceReturn(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(nil)

	r, err := svc.Return(ctx, 1001, ReturnRequest{OperateUser: "E1001", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, records.StatusReturned, r.Status)
	require.NotNil(t, r.ActualReturnAt)
	require.True(t, r.ActualReturnAt.Equal(fixedNow))

	got, err := store.Get(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, records.StatusReturned, got.Status)
	require.Equal(t, "E1001", got.UpdatedBy)
}

func TestServiceReturnErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	cases := []struct {
		name string
		id   int64
		in   ReturnRequest
		code apierr.Code
	}{
		{"missing id", 0, ReturnRequest{OperateUser: "E1001", Quantity: 1}, apierr.CodeInvalidArgument},
		{"zero quantity", 1001, ReturnRequest{OperateUser: "E1001"}, apierr.CodeInvalidArgument},
		{"empty operator", 1001, ReturnRequest{Quantity: 1}, apierr.CodeInvalidArgument},
		{"too many", 1001, ReturnRequest{OperateUser: "E1001", Quantity: 3}, apierr.CodeInvalidArgument},
		{"not found", 9999, ReturnRequest{OperateUser: "E1001", Quantity: 1}, apierr.CodeNotFound},
		{"not owner", 1004, ReturnRequest{OperateUser: "E1001", Quantity: 1}, apierr.CodeForbidden},
		{"already returned", 1005, ReturnRequest{OperateUser: "E1002", Quantity: 1}, apierr.CodeConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Return(ctx, tc.id, tc.in)
			require.Error(t, err)
			require.True(t, apierr.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestServiceReturnFullWidthOwner(t *testing.T) {
	svc, _ := newTestService(nil)
	r, err := svc.Return(context.Background(), 1001, ReturnRequest{OperateUser: " Ｅ１００１ ", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, records.StatusReturned, r.Status)
}

func TestServiceTempStore(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	r, err := svc.TempStore(ctx, 1001, TempStoreRequest{OperateUser: "E1001", CabinetCode: "CAB-SHARED-01", LocationCode: "A1-02"})
	require.NoError(t, err)
	require.Equal(t, records.StatusTempStored, r.Status)
	require.Equal(t, "A1-02", r.LocationCode)

	// 返却済みからは一時保管できない
	_, err = svc.TempStore(ctx, 1005, TempStoreRequest{OperateUser: "E1002", CabinetCode: "CAB-SHARED-01", LocationCode: "A1-01"})
	require.True(t, apierr.Is(err, apierr.CodeConflict))

	_, err = svc.TempStore(ctx, 1004, TempStoreRequest{OperateUser: "E1002", CabinetCode: "CAB-SHARED-01", LocationCode: "Z9-99"})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	_, err = svc.TempStore(ctx, 1004, TempStoreRequest{OperateUser: "E1002", CabinetCode: "NOPE", LocationCode: "A1-01"})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))

	_, err = svc.TempStore(ctx, 1004, TempStoreRequest{OperateUser: "E1002"})
	require.True(t, apierr.Is(err, apierr.CodeInvalidArgument))
}

func TestServiceListAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(nil)

	out, err := svc.List(ctx, records.Filter{Kind: records.KindKnife}, records.Page{Num: 1, Size: 2})
	require.NoError(t, err)
	require.EqualValues(t, 5, out.Total)
	require.Len(t, out.Rows, 2)
	require.Equal(t, 1, out.PageNum)
	require.Equal(t, 2, out.PageSize)

	out, err = svc.List(ctx, records.Filter{UserCode: "nobody"}, records.Page{})
	require.NoError(t, err)
	require.NotNil(t, out.Rows)
	require.Empty(t, out.Rows)

	_, err = svc.Get(ctx, 1001, records.KindHandle)
	require.True(t, apierr.Is(err, apierr.CodeNotFound))

	r, err := svc.Get(ctx, 2001, records.KindHandle)
	require.NoError(t, err)
	require.Equal(t, "HD-0001", r.Code)
}

type stubExporter struct {
	body []byte
	err  error
	got  records.Filter
}

func (s *stubExporter) ExportRecords(_ context.Context, f records.Filter) ([]byte, string, error) {
	s.got = f
	return s.body, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", s.err
}

func TestServiceExportUpstream(t *testing.T) {
	exp := &stubExporter{body: []byte("PK\x03\x04")}
	svc, _ := newTestService(exp)

	f, err := svc.Export(context.Background(), records.Filter{UserCode: "E1001"})
	require.NoError(t, err)
	require.Equal(t, ExportFilename, f.Filename)
	require.Equal(t, exp.body, f.Body)
	require.Equal(t, "E1001", exp.got.UserCode)

	exp.err = apierr.ErrUpstream("upstream request failed: boom")
	_, err = svc.Export(context.Background(), records.Filter{})
	require.True(t, errors.Is(err, exp.err))
}

// staleReads: Get は最初に読んだ時点のスナップショットを返し続ける
type staleReads struct {
	*records.MemStore
	snap map[int64]records.Record
}

func newStaleReads(seed []records.Record) staleReads {
	snap := make(map[int64]records.Record, len(seed))
	for _, r := range seed {
		snap[r.ID] = r.Clone()
	}
	return staleReads{MemStore: records.NewMemStore(seed...), snap: snap}
}

func (s staleReads) Get(_ context.Context, id int64) (*records.Record, error) {
	r, ok := s.snap[id]
	if !ok {
		return nil, records.ErrRecordNotFound
	}
	out := r.Clone()
	return &out, nil
}

func TestServiceReturnRejectsStaleRead(t *testing.T) {
	ctx := context.Background()
	repo := newStaleReads(records.SeedRecords(fixedNow))
	svc := NewService(repo, nil, nil)
	svc.now = func() time.Time { return fixedNow }

	_, err := svc.Return(ctx, 1001, ReturnRequest{OperateUser: "E1001", Quantity: 2})
	require.NoError(t, err)

	// 2回目も読み取りは borrowed のままだが、保存先はもう returned
	svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	_, err = svc.Return(ctx, 1001, ReturnRequest{OperateUser: "E1001", Quantity: 2})
	require.ErrorIs(t, err, records.ErrNotReturnable)

	got, err := repo.MemStore.Get(ctx, 1001)
	require.NoError(t, err)
	require.True(t, got.ActualReturnAt.Equal(fixedNow))
}

func TestSingleAndBatchReturnRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := newStaleReads(records.SeedRecords(fixedNow))
	src := cabinets.NewMemSource(cabinets.DefaultCabinets()...)
	single := NewService(repo, nil, src)
	batch := returns.NewService(repo, src)

	var (
		wg        sync.WaitGroup
		singleErr error
		batchRes  *returns.BatchReturnResult
		batchErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, singleErr = single.Return(ctx, 1001, ReturnRequest{OperateUser: "E1001", Quantity: 2})
	}()
	go func() {
		defer wg.Done()
		batchRes, batchErr = batch.BatchReturn(ctx, returns.BatchReturnRequest{
			CabinetCode: "CAB-SHARED-01",
			LocList:     []string{"A1-01"},
			ReturnList:  []returns.ReturnItem{{ID: 1001, Quantity: 2}},
			OperateUser: "E1001",
		})
	}()
	wg.Wait()

	require.NoError(t, batchErr)
	wins := batchRes.SuccessCount
	if singleErr == nil {
		wins++
	} else {
		require.ErrorIs(t, singleErr, records.ErrNotReturnable)
	}
	require.Equal(t, 1, wins)
}

func TestServiceExportReplacesRunesOutsideGBK(t *testing.T) {
	store := records.NewMemStore(records.Record{
		ID: 1, Kind: records.KindKnife, Code: "KN-9", UserCode: "E1001", UserName: "张伟",
		Model: "⌀6 end mill", Purpose: "试制 🔧", Quantity: 1, LendAt: fixedNow, Status: records.StatusBorrowed,
	})
	svc := NewService(store, nil, nil)

	f, err := svc.Export(context.Background(), records.Filter{})
	require.NoError(t, err)
	require.Equal(t, MockExportFilename, f.Filename)

	utf8, err := io.ReadAll(transform.NewReader(bytes.NewReader(f.Body), simplifiedchinese.GBK.NewDecoder()))
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(utf8)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NotContains(t, rows[1][6], "⌀")
	require.True(t, strings.HasSuffix(rows[1][6], "6 end mill"))
	require.True(t, strings.HasPrefix(rows[1][12], "试制 "))
	require.Equal(t, "张伟", rows[1][4])
	require.Equal(t, "借用中", rows[1][11])
}
