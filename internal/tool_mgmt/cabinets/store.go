package cabinets

import (
	"context"
	"database/sql"
	"strings"
)

// SQLStore: MySQL の刀具庫マスタ（cabinets / cabinet_locations）。無効化済みは返さない
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) List(ctx context.Context) ([]Cabinet, error) {
	const q = `
		SELECT cabinet_code, cabinet_name, cabinet_type
		FROM cabinets
		WHERE is_disabled = 0
		ORDER BY cabinet_code
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Cabinet, 0, 8)
	for rows.Next() {
		c := Cabinet{LocList: []string{}}
		if err := rows.Scan(&c.Code, &c.Name, &c.Type); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return res, nil
	}

	locs, err := s.locations(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range res {
		if l, ok := locs[res[i].Code]; ok {
			res[i].LocList = l
		}
	}
	return res, nil
}

func (s *SQLStore) Get(ctx context.Context, code string) (*Cabinet, error) {
	const q = `
		SELECT cabinet_code, cabinet_name, cabinet_type
		FROM cabinets
		WHERE cabinet_code = ? AND is_disabled = 0
	`
	c := Cabinet{LocList: []string{}}
	err := s.db.QueryRowContext(ctx, q, code).Scan(&c.Code, &c.Name, &c.Type)
	if err == sql.ErrNoRows {
		return nil, ErrCabinetNotFound
	}
	if err != nil {
		return nil, err
	}

	locs, err := s.locations(ctx, code)
	if err != nil {
		return nil, err
	}
	if l, ok := locs[code]; ok {
		c.LocList = l
	}
	return &c, nil
}

// locations: 庫位を1行ずつ読み、刀具庫コードごとに sort_no 順で束ねる。code が空なら全件
func (s *SQLStore) locations(ctx context.Context, code string) (map[string][]string, error) {
	q := `
		SELECT cabinet_code, location_code
		FROM cabinet_locations
		WHERE is_disabled = 0`
	var args []any
	if code != "" {
		q += ` AND cabinet_code = ?`
		args = append(args, code)
	}
	q += ` ORDER BY cabinet_code, sort_no, location_code`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var cab, loc string
		if err := rows.Scan(&cab, &loc); err != nil {
			return nil, err
		}
		if loc = strings.TrimSpace(loc); loc != "" {
			out[cab] = append(out[cab], loc)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
