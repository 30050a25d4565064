// The overdue worker runs scheduled scans over the ledger and mails members
// whose loans are past due or approaching their due date.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/config"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/events"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/client"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/memstore"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/resilience"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/sqlite"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/notify"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/service"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	metrics := observability.NewMetrics()

	var ledgerStore port.LedgerStore
	if cfg.SQLitePath != "" {
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite store", zap.Error(err))
		}
		defer store.Close()
		ledgerStore = store
	} else {
		logger.Warn("no SQLITE_PATH set, scanning an empty in-memory ledger")
		ledgerStore = memstore.NewLedgerStore()
	}

	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("external-apis")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	members := client.NewMemberClient(httpClient, cfg.MemberAPIURL, cb, resilienceCfg)
	configs := client.NewStaticConfigProvider(cfg.InterestDefaults())

	ledgerSvc := service.NewLedgerService(ledgerStore, events.NopPublisher{}, metrics, logger)
	overdueSvc := service.NewOverdueService(ledgerSvc, configs, metrics, logger)

	sender := notify.NewSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		Sender:   cfg.SenderEmail,
	}, logger)

	// Notices go out concurrently, but the bulkhead keeps the SMTP
	// relay from seeing the whole batch at once.
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	scan := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		runScan(ctx, overdueSvc, members, sender, bulkhead, cfg.OverdueHorizonDays, logger)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.OverdueCronSpec, scan); err != nil {
		logger.Fatal("invalid cron spec",
			zap.String("spec", cfg.OverdueCronSpec),
			zap.Error(err),
		)
	}
	c.Start()
	logger.Info("overdue worker started",
		zap.String("cron", cfg.OverdueCronSpec),
		zap.Int("horizon_days", cfg.OverdueHorizonDays),
	)

	// One scan right away so a fresh deployment does not wait a day.
	scan()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx := c.Stop()
	<-ctx.Done()
	logger.Info("overdue worker stopped")
}

func runScan(ctx context.Context, overdueSvc *service.OverdueService, members port.MemberDirectory, sender *notify.Sender, bulkhead *resilience.Bulkhead, horizonDays int, logger *zap.Logger) {
	asOf := time.Now().UTC()

	var wg sync.WaitGroup
	dispatch := func(memberID string, send func(*domain.Member) error) {
		if err := bulkhead.Acquire(ctx); err != nil {
			logger.Error("notice dispatch aborted", zap.Error(err))
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer bulkhead.Release()
			notifyMember(ctx, members, logger, memberID, send)
		}()
	}

	overdue, err := overdueSvc.ListOverdue(ctx, "", asOf)
	if err != nil {
		logger.Error("overdue scan failed", zap.Error(err))
		return
	}
	for _, rec := range overdue {
		rec := rec
		dispatch(rec.LoanEntry.MemberID, func(m *domain.Member) error {
			return sender.SendOverdueNotice(m.Email, m.Name, rec)
		})
	}

	upcoming, err := overdueSvc.ListUpcomingDue(ctx, "", horizonDays, asOf)
	if err != nil {
		logger.Error("upcoming-due scan failed", zap.Error(err))
		wg.Wait()
		return
	}
	for _, up := range upcoming {
		up := up
		dispatch(up.LoanEntry.MemberID, func(m *domain.Member) error {
			return sender.SendUpcomingDueNotice(m.Email, m.Name, up)
		})
	}

	wg.Wait()
	logger.Info("scan complete",
		zap.Int("overdue", len(overdue)),
		zap.Int("upcoming", len(upcoming)),
	)
}

func notifyMember(ctx context.Context, members port.MemberDirectory, logger *zap.Logger, memberID string, send func(*domain.Member) error) {
	m, err := members.ResolveMember(ctx, memberID)
	if err != nil {
		logger.Error("failed to resolve member for notice",
			zap.String("member_id", memberID),
			zap.Error(err),
		)
		return
	}
	if m.Email == "" {
		logger.Warn("member has no e-mail address, skipping notice",
			zap.String("member_id", memberID),
		)
		return
	}
	if err := send(m); err != nil {
		logger.Error("failed to send notice",
			zap.String("member_id", memberID),
			zap.Error(err),
		)
	}
}
