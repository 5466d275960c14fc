package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"KCMS-gateway/internal/platform/db"
)

// SQLStore: lend_records テーブル（MySQL）をバックエンドにする Repository
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(conn *sql.DB) *SQLStore { return &SQLStore{db: conn} }

const selectColumns = `
	id, kind, code, user_code, user_name, brand, model, quantity, lend_at,
	expected_return_at, actual_return_at, status, purpose, cabinet_code, location_code,
	updated_by, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		r                            Record
		expected, actual, updatedAt  sql.NullTime
		purpose, cabinet, loc, updBy sql.NullString
		kind, status                 string
	)
	if err := row.Scan(
		&r.ID, &kind, &r.Code, &r.UserCode, &r.UserName, &r.Brand, &r.Model, &r.Quantity, &r.LendAt,
		&expected, &actual, &status, &purpose, &cabinet, &loc, &updBy, &updatedAt,
	); err != nil {
		return nil, err
	}
	r.Kind = Kind(kind)
	if st, err := ParseStatus(status); err == nil {
		r.Status = st
	} else {
		r.Status = Status(status)
	}
	r.ExpectedReturnAt = nullTimeToPtr(expected)
	r.ActualReturnAt = nullTimeToPtr(actual)
	r.UpdatedAt = nullTimeToPtr(updatedAt)
	r.Purpose = purpose.String
	r.CabinetCode = cabinet.String
	r.LocationCode = loc.String
	r.UpdatedBy = updBy.String
	return &r, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (*Record, error) {
	q := `SELECT` + selectColumns + ` FROM lend_records WHERE id = ?`
	r, err := scanRecord(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return r, nil
}

// buildWhere: 一覧と件数で同じ条件を使う
func buildWhere(f Filter) (string, []any) {
	sb := strings.Builder{}
	sb.WriteString(` WHERE 1=1`)
	args := []any{}
	if f.Kind != "" {
		sb.WriteString(` AND kind = ?`)
		args = append(args, string(f.Kind))
	}
	if f.UserCode != "" {
		sb.WriteString(` AND user_code = ?`)
		args = append(args, NormalizeUserCode(f.UserCode))
	}
	if len(f.Statuses) > 0 {
		sb.WriteString(` AND status IN (?` + strings.Repeat(`,?`, len(f.Statuses)-1) + `)`)
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}
	if f.Code != "" {
		sb.WriteString(` AND code = ?`)
		args = append(args, f.Code)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		sb.WriteString(` AND (code LIKE ? OR brand LIKE ? OR model LIKE ?)`)
		like := "%" + kw + "%"
		args = append(args, like, like, like)
	}
	if f.From != nil {
		sb.WriteString(` AND lend_at >= ?`)
		args = append(args, *f.From)
	}
	if f.To != nil {
		sb.WriteString(` AND lend_at < ?`)
		args = append(args, *f.To)
	}
	return sb.String(), args
}

func (s *SQLStore) List(ctx context.Context, f Filter, p Page) ([]Record, int64, error) {
	p = p.Normalize()
	where, args := buildWhere(f)

	var (
		out   []Record
		total int64
	)
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		q := fmt.Sprintf(`SELECT %s FROM lend_records%s ORDER BY lend_at DESC, id DESC LIMIT ? OFFSET ?`, selectColumns, where)
		rows, err := tx.QueryContext(ctx, q, append(args, p.Size, p.Offset())...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			r, err := scanRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, *r)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM lend_records`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update: 行ロックを取ってから状態を読み直し、expect と一致するときだけ更新する
func (s *SQLStore) Update(ctx context.Context, r *Record, expect Status) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		var cur string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM lend_records WHERE id = ? FOR UPDATE`, r.ID).Scan(&cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRecordNotFound
			}
			return err
		}
		if st, err := ParseStatus(cur); err != nil || st != expect {
			return ErrStatusChanged
		}
		const q = `
		UPDATE lend_records
		SET status = ?, actual_return_at = ?, expected_return_at = ?, cabinet_code = ?, location_code = ?,
			purpose = ?, updated_by = ?, updated_at = ?
		WHERE id = ?`
		_, err := tx.ExecContext(ctx, q,
			string(r.Status),
			timePtrOrNil(r.ActualReturnAt),
			timePtrOrNil(r.ExpectedReturnAt),
			strOrNil(r.CabinetCode),
			strOrNil(r.LocationCode),
			strOrNil(r.Purpose),
			strOrNil(r.UpdatedBy),
			timePtrOrNil(r.UpdatedAt),
			r.ID,
		)
		return err
	})
}

// helpers

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		v := nt.Time
		return &v
	}
	return nil
}

func timePtrOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func strOrNil(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
