// Package sweep は返却予定日を過ぎた貸出を定期的に overdue へ移す。
package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"KCMS-gateway/internal/platform/metrics"
	"KCMS-gateway/internal/tool_mgmt/records"
)

// 更新者として記録する名前
const Operator = "system:overdue-sweep"

type Sweeper struct {
	repo records.Repository
	now  func() time.Time
}

func NewSweeper(repo records.Repository) *Sweeper {
	return &Sweeper{repo: repo, now: time.Now}
}

// RunOnce: borrowed を全ページ走査し、期限切れを overdue にする。更新件数を返す
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.now()
	f := records.Filter{Statuses: []records.Status{records.StatusBorrowed}}

	// 更新で borrowed から外れるので、先に全件集めてから更新する
	var due []records.Record
	for page := 1; ; page++ {
		rows, total, err := s.repo.List(ctx, f, records.Page{Num: page, Size: records.MaxPageSize})
		if err != nil {
			return 0, err
		}
		for i := range rows {
			if rows[i].MarkOverdue(now, Operator) {
				due = append(due, rows[i])
			}
		}
		if len(rows) == 0 || int64(page*records.MaxPageSize) >= total {
			break
		}
	}

	marked := 0
	for i := range due {
		err := s.repo.Update(ctx, &due[i], records.StatusBorrowed)
		if errors.Is(err, records.ErrStatusChanged) {
			continue
		}
		if err != nil {
			log.WithError(err).WithField("id", due[i].ID).Warn("overdue sweep: update failed")
			continue
		}
		marked++
	}
	metrics.OverdueMarked.Add(float64(marked))
	return marked, nil
}

// Start: schedule は 5 フィールドの cron 式。戻り値の Stop() で止める
func Start(schedule string, sw *Sweeper) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := sw.RunOnce(ctx)
		if err != nil {
			log.WithError(err).Error("overdue sweep failed")
			return
		}
		if n > 0 {
			log.WithField("marked", n).Info("overdue sweep finished")
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
