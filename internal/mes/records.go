package mes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/tool_mgmt/records"
)

// RecordRepository: MES を正とする records.Repository 実装
type RecordRepository struct {
	c      *Client
	fields FieldMap
}

func NewRecordRepository(c *Client) *RecordRepository {
	return &RecordRepository{c: c, fields: NewFieldMap(recordFields...)}
}

type pageData struct {
	Rows  []json.RawMessage `json:"rows"`
	Total int64             `json:"total"`
}

func (r *RecordRepository) Get(ctx context.Context, id int64) (*records.Record, error) {
	env, err := r.c.Call(ctx, "lend_record.get", http.MethodGet, "/lendRecord/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		if apierr.Is(err, apierr.CodeNotFound) {
			return nil, records.ErrRecordNotFound
		}
		return nil, err
	}
	if !env.HasData() {
		return nil, records.ErrRecordNotFound
	}
	return r.decodeRecord(env.Data)
}

func (r *RecordRepository) List(ctx context.Context, f records.Filter, p records.Page) ([]records.Record, int64, error) {
	p = p.Normalize()
	q := r.filterQuery(f)
	q.Set("pageNum", strconv.Itoa(p.Num))
	q.Set("pageSize", strconv.Itoa(p.Size))

	env, err := r.c.Call(ctx, "lend_record.list", http.MethodGet, "/lendRecord/list", q, nil)
	if err != nil {
		return nil, 0, err
	}
	if !env.HasData() {
		return []records.Record{}, 0, nil
	}
	var pd pageData
	if err := json.Unmarshal(env.Data, &pd); err != nil {
		return nil, 0, apierr.ErrUpstream("malformed list payload: " + err.Error())
	}
	out := make([]records.Record, 0, len(pd.Rows))
	for _, raw := range pd.Rows {
		rec, err := r.decodeRecord(raw)
		if err != nil {
			return nil, 0, err
		}
		if rec.Kind == "" && f.Kind != "" {
			rec.Kind = f.Kind
		}
		out = append(out, *rec)
	}
	return out, pd.Total, nil
}

// Update: MES には条件付き更新がないので、PUT の直前に状態を読み直して照合する
func (r *RecordRepository) Update(ctx context.Context, rec *records.Record, expect records.Status) error {
	cur, err := r.Get(ctx, rec.ID)
	if err != nil {
		return err
	}
	if cur.Status != expect {
		return records.ErrStatusChanged
	}
	body, err := r.fields.encode(rec)
	if err != nil {
		return apierr.ErrInternal(err.Error())
	}
	_, err = r.c.Call(ctx, "lend_record.update", http.MethodPut, "/lendRecord", nil, body)
	if apierr.Is(err, apierr.CodeNotFound) {
		return records.ErrRecordNotFound
	}
	return err
}

// ExportRecords: 上流のスプレッドシートをそのまま返す
func (r *RecordRepository) ExportRecords(ctx context.Context, f records.Filter) ([]byte, string, error) {
	return r.c.Download(ctx, "lend_record.export", "/lendRecord/export", r.filterQuery(f))
}

func (r *RecordRepository) filterQuery(f records.Filter) url.Values {
	q := url.Values{}
	if f.Kind != "" {
		q.Set(r.fields.UpstreamName("kind"), string(f.Kind))
	}
	if f.UserCode != "" {
		q.Set(r.fields.UpstreamName("userCode"), records.NormalizeUserCode(f.UserCode))
	}
	if len(f.Statuses) > 0 {
		ss := make([]string, 0, len(f.Statuses))
		for _, st := range f.Statuses {
			ss = append(ss, string(st))
		}
		q.Set(r.fields.UpstreamName("status"), strings.Join(ss, ","))
	}
	if f.Code != "" {
		q.Set(r.fields.UpstreamName("code"), f.Code)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		q.Set("keyword", kw)
	}
	if f.From != nil {
		q.Set("beginTime", f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		q.Set("endTime", f.To.Format("2006-01-02"))
	}
	return q
}

func (r *RecordRepository) decodeRecord(raw []byte) (*records.Record, error) {
	var rec records.Record
	if err := r.fields.decode(raw, &rec); err != nil {
		return nil, apierr.ErrUpstream("malformed record payload: " + err.Error())
	}
	return &rec, nil
}
