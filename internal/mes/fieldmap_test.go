package mes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFieldMapToLocal(t *testing.T) {
	m := NewFieldMap(recordFields...)
	out := m.ToLocal(map[string]any{
		"lendUserCode":     "E1001",
		"lendTime":         "2025-03-01 08:30:00",
		"actualReturnTime": "",
		"stockLoc":         "A1-02",
		"delFlag":          "0",
	})

	require.Equal(t, "E1001", out["userCode"])
	require.Equal(t, "A1-02", out["locationCode"])
	require.NotContains(t, out, "actualReturnAt")
	require.NotContains(t, out, "delFlag")

	want := time.Date(2025, 3, 1, 8, 30, 0, 0, time.Local).Format(time.RFC3339Nano)
	require.Equal(t, want, out["lendAt"])
}

func TestFieldMapToUpstream(t *testing.T) {
	m := NewFieldMap(recordFields...)
	at := time.Date(2025, 3, 1, 8, 30, 0, 0, time.Local)
	out := m.ToUpstream(map[string]any{
		"userCode":       "E1001",
		"actualReturnAt": at.Format(time.RFC3339Nano),
		"internalOnly":   true,
	})

	require.Equal(t, "E1001", out["lendUserCode"])
	require.Equal(t, "2025-03-01 08:30:00", out["actualReturnTime"])
	require.Len(t, out, 2)
}

func TestUpstreamName(t *testing.T) {
	m := NewFieldMap(recordFields...)
	require.Equal(t, "toolType", m.UpstreamName("kind"))
	require.Equal(t, "keyword", m.UpstreamName("keyword"))
}
