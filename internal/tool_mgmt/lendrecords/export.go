package lendrecords

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"KCMS-gateway/internal/tool_mgmt/records"
)

const (
	ExportFilename     = "lend_records.xlsx"
	MockExportFilename = "lend_records.csv"

	exportTimeLayout = "2006-01-02 15:04:05"
)

var exportHeader = []string{
	"编号", "类型", "刀具编码", "借用人工号", "借用人", "品牌", "型号", "数量",
	"借用时间", "预计归还时间", "实际归还时间", "状态", "用途", "刀具柜", "库位",
}

// Export: MES があればそのバイト列を透過、なければ GBK の CSV を組み立てる
func (s *Service) Export(ctx context.Context, f records.Filter) (*ExportFile, error) {
	if s.exporter != nil {
		body, ct, err := s.exporter.ExportRecords(ctx, f)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Filename: ExportFilename, ContentType: ct, Body: body}, nil
	}

	var all []records.Record
	for page := 1; ; page++ {
		rows, total, err := s.repo.List(ctx, f, records.Page{Num: page, Size: records.MaxPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) == 0 || int64(len(all)) >= total {
			break
		}
	}

	body, err := writeCSVgbk(all)
	if err != nil {
		return nil, err
	}
	return &ExportFile{Filename: MockExportFilename, ContentType: "text/csv; charset=GBK", Body: body}, nil
}

// writeCSVgbk: Excel でそのまま開けるよう GBK で書き出す。
// GBK にない文字（⌀ や絵文字など）は置換文字にして出力を止めない
func writeCSVgbk(rows []records.Record) ([]byte, error) {
	var b bytes.Buffer
	enc := encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder())
	tw := transform.NewWriter(&b, enc)
	w := csv.NewWriter(tw)

	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			strconv.FormatInt(r.ID, 10),
			string(r.Kind),
			r.Code,
			r.UserCode,
			r.UserName,
			r.Brand,
			r.Model,
			strconv.Itoa(r.Quantity),
			formatTime(&r.LendAt),
			formatTime(r.ExpectedReturnAt),
			formatTime(r.ActualReturnAt),
			r.Status.Label(),
			r.Purpose,
			r.CabinetCode,
			r.LocationCode,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(exportTimeLayout)
}
