package mes

import (
	"bytes"
	"encoding/json"
	"time"
)

// MES 側の日時表記
const upstreamTimeLayout = "2006-01-02 15:04:05"

// FieldMapping: こちらの JSON 名と MES の JSON 名の対応。Time は日時書式の変換が要る項目
type FieldMapping struct {
	Local    string
	Upstream string
	Time     bool
}

// 貸出レコードの対応表
var recordFields = []FieldMapping{
	{Local: "id", Upstream: "id"},
	{Local: "kind", Upstream: "toolType"},
	{Local: "code", Upstream: "knifeCode"},
	{Local: "userCode", Upstream: "lendUserCode"},
	{Local: "userName", Upstream: "lendUserName"},
	{Local: "brand", Upstream: "brand"},
	{Local: "model", Upstream: "specModel"},
	{Local: "quantity", Upstream: "lendQty"},
	{Local: "lendAt", Upstream: "lendTime", Time: true},
	{Local: "expectedReturnAt", Upstream: "planReturnTime", Time: true},
	{Local: "actualReturnAt", Upstream: "actualReturnTime", Time: true},
	{Local: "status", Upstream: "status"},
	{Local: "purpose", Upstream: "purpose"},
	{Local: "cabinetCode", Upstream: "cabinetCode"},
	{Local: "locationCode", Upstream: "stockLoc"},
	{Local: "updatedBy", Upstream: "updateBy"},
	{Local: "updatedAt", Upstream: "updateTime", Time: true},
}

type FieldMap struct {
	byLocal    map[string]FieldMapping
	byUpstream map[string]FieldMapping
}

func NewFieldMap(ms ...FieldMapping) FieldMap {
	m := FieldMap{
		byLocal:    make(map[string]FieldMapping, len(ms)),
		byUpstream: make(map[string]FieldMapping, len(ms)),
	}
	for _, f := range ms {
		m.byLocal[f.Local] = f
		m.byUpstream[f.Upstream] = f
	}
	return m
}

// UpstreamName: 未登録ならそのまま
func (m FieldMap) UpstreamName(local string) string {
	if f, ok := m.byLocal[local]; ok {
		return f.Upstream
	}
	return local
}

// ToUpstream: 表にない項目は送らない
func (m FieldMap) ToUpstream(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		f, ok := m.byLocal[k]
		if !ok {
			continue
		}
		if f.Time {
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					v = t.In(time.Local).Format(upstreamTimeLayout)
				}
			}
		}
		out[f.Upstream] = v
	}
	return out
}

// ToLocal: 表にない項目は捨てる。空文字の日時は欠損扱い
func (m FieldMap) ToLocal(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		f, ok := m.byUpstream[k]
		if !ok {
			continue
		}
		if f.Time {
			s, isStr := v.(string)
			if v == nil || (isStr && s == "") {
				continue
			}
			if isStr {
				if t, err := parseUpstreamTime(s); err == nil {
					v = t.Format(time.RFC3339Nano)
				}
			}
		}
		out[f.Local] = v
	}
	return out
}

func parseUpstreamTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(upstreamTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// encode: 構造体 -> (対応表) -> MES 向け map
func (m FieldMap) encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var local map[string]any
	if err := decodeNumber(b, &local); err != nil {
		return nil, err
	}
	return m.ToUpstream(local), nil
}

// decode: MES の JSON -> (対応表) -> 構造体
func (m FieldMap) decode(raw []byte, out any) error {
	var up map[string]any
	if err := decodeNumber(raw, &up); err != nil {
		return err
	}
	b, err := json.Marshal(m.ToLocal(up))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func decodeNumber(b []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(out)
}
