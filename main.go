package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"KCMS-gateway/internal/mes"
	"KCMS-gateway/internal/platform/auth"
	"KCMS-gateway/internal/platform/config"
	"KCMS-gateway/internal/platform/db"
	"KCMS-gateway/internal/platform/logging"
	"KCMS-gateway/internal/platform/metrics"
	"KCMS-gateway/internal/platform/middleware"
	"KCMS-gateway/internal/platform/sweep"
	"KCMS-gateway/internal/roles"
	"KCMS-gateway/internal/tool_mgmt/cabinets"
	"KCMS-gateway/internal/tool_mgmt/lendrecords"
	"KCMS-gateway/internal/tool_mgmt/records"
	"KCMS-gateway/internal/tool_mgmt/returns"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "path to config yaml")
	flag.Parse()

	// 設定読み込み
	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logging.Setup(cfg.Log.Level, cfg.Mode)
	log.WithFields(log.Fields{"mode": cfg.Mode, "version": cfg.Version, "mock": cfg.MockMode()}).Info("starting")

	// MySQL（任意）
	var conn *sql.DB
	if cfg.DB.Enabled() {
		conn, err = db.Connect(cfg.DB)
		if err != nil {
			log.Fatal(err)
		}
		defer conn.Close()
		log.Infof("connected to DB: %s", cfg.DB.DBName)
	}

	// 貸出レコードの保存先: MES -> MySQL -> メモリ
	var (
		repo     records.Repository
		exporter lendrecords.Exporter
		src      cabinets.Source
	)
	switch {
	case !cfg.MockMode():
		token, err := mes.ResolveToken(cfg.Upstream.Token, cfg.Upstream.TokenFile)
		if err != nil {
			log.Fatal(err)
		}
		client := mes.NewClient(mes.Config{
			BaseURL:       cfg.Upstream.BaseURL,
			Token:         token,
			Timeout:       cfg.Upstream.Timeout,
			ExportTimeout: cfg.Upstream.ExportTimeout,
		})
		mesRepo := mes.NewRecordRepository(client)
		repo, exporter, src = mesRepo, mesRepo, mes.NewCabinetSource(client)
		log.Infof("upstream MES: %s", cfg.Upstream.BaseURL)
	case conn != nil:
		repo = records.NewSQLStore(conn)
		src = cabinets.NewSQLStore(conn)
	default:
		repo = records.NewMemStore(records.SeedRecords(time.Now())...)
		src = cabinets.NewMemSource(cabinets.DefaultCabinets()...)
		log.Warn("no upstream or database configured: serving fixture data")
	}

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), metrics.Handler())
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.HeaderRequestID},
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", metrics.Exposer())

	deps := roles.Deps{
		Records:  lendrecords.NewService(repo, exporter, src),
		Returns:  returns.NewService(repo, src),
		Cabinets: src,
	}

	// 認証（jwt_secret があるときだけ）
	if cfg.Auth.Enabled() {
		stores := auth.ChainStore{auth.NewConfigStore(cfg.Auth.Accounts)}
		if conn != nil {
			stores = append(stores, auth.NewSQLStore(conn))
		}
		authSvc := auth.NewService(stores, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		auth.RegisterRoutes(r, authSvc)
		deps.AuthSecret = authSvc.Secret()
	} else {
		log.Warn("auth.jwt_secret is empty: role prefixes are unauthenticated")
	}

	// 更新系の流量制限（redis.addr があるときだけ）
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		deps.Limiter = middleware.RateLimit(rdb, "mutation", cfg.Redis.Limit, cfg.Redis.Window, middleware.ClientIPKey)
	}

	roles.Mount(r, deps)

	// 期限切れの定期更新。MES が正のときは向こうに任せる
	if cfg.MockMode() && !cfg.Sweep.Disabled {
		c, err := sweep.Start(cfg.Sweep.Cron, sweep.NewSweeper(repo))
		if err != nil {
			log.Fatal(err)
		}
		defer c.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" {
			log.Infof("listening on https://%s", cfg.Server.Addr)
			err = srv.ListenAndServeTLS(cfg.Certificate.Cert, cfg.Certificate.Key)
		} else {
			log.Infof("listening on http://%s", cfg.Server.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err)
	}
}
