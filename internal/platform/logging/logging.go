// Package logging はプロセス全体の logrus 設定とリクエスト単位のロガー取得を担う。
package logging

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup: release は JSON、dev は人間向けテキスト
func Setup(level, mode string) {
	if mode == "release" {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
	log.SetOutput(os.Stdout)

	lv, err := log.ParseLevel(level)
	if err != nil {
		lv = log.InfoLevel
	}
	log.SetLevel(lv)
}

type ctxKey struct{}

// WithEntry: context にリクエスト単位のロガーを載せる
func WithEntry(ctx context.Context, e *log.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

// FromContext: 無ければ標準ロガー
func FromContext(ctx context.Context) *log.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*log.Entry); ok && e != nil {
		return e
	}
	return log.NewEntry(log.StandardLogger())
}
