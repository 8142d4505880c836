package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	verifyhttp "github.com/open-rails/verifykit/adapters/http"
	"github.com/open-rails/verifykit/core"
	smtpsender "github.com/open-rails/verifykit/email/smtp"
	jwtkit "github.com/open-rails/verifykit/jwt"
	pgmigrations "github.com/open-rails/verifykit/migrations/postgres"
	redislimiter "github.com/open-rails/verifykit/ratelimit/redis"
	"github.com/open-rails/verifykit/riverjobs"
)

type config struct {
	ListenAddr      string
	Issuer          string
	DBURL           string
	RedisURL        string
	MigrateOnStart  bool
	DurableDispatch bool
	PurgeCron       string
	TrustedProxies  []netip.Prefix

	SMTPHost string
	SMTPPort int
	SMTPFrom string
	SMTPUser string
	SMTPPass string
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	cmd := "serve"
	if len(os.Args) > 1 && strings.TrimSpace(os.Args[1]) != "" {
		cmd = strings.TrimSpace(os.Args[1])
	}

	switch cmd {
	case "serve":
		if err := runServe(cfg); err != nil {
			fatal(err)
		}
	case "migrate":
		if err := runMigrate(cfg); err != nil {
			fatal(err)
		}
	default:
		fatal(fmt.Errorf("unknown command %q (supported: serve, migrate)", cmd))
	}
}

func loadConfig() (*config, error) {
	c := &config{
		ListenAddr:      envOr("VERIFYKIT_LISTEN_ADDR", ":8080"),
		Issuer:          strings.TrimRight(strings.TrimSpace(os.Getenv("VERIFYKIT_ISSUER")), "/"),
		DBURL:           firstEnv("DB_URL", "DATABASE_URL"),
		RedisURL:        strings.TrimSpace(os.Getenv("REDIS_URL")),
		MigrateOnStart:  envBool("VERIFYKIT_MIGRATE_ON_START", true),
		DurableDispatch: envBool("VERIFYKIT_DURABLE_DISPATCH", false),
		PurgeCron:       envOr("VERIFYKIT_PURGE_CRON", "0 4 * * *"),

		SMTPHost: strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPFrom: strings.TrimSpace(os.Getenv("SMTP_FROM")),
		SMTPUser: strings.TrimSpace(os.Getenv("SMTP_USER")),
		SMTPPass: os.Getenv("SMTP_PASS"),
	}
	if c.Issuer == "" {
		return nil, fmt.Errorf("VERIFYKIT_ISSUER is required (e.g. http://issuer:8080 or http://localhost:8080)")
	}
	if c.DBURL == "" {
		return nil, fmt.Errorf("DB_URL (or DATABASE_URL) is required")
	}
	for _, p := range parseCSVEnv("VERIFYKIT_TRUSTED_PROXIES", nil) {
		pfx, err := parsePrefixOrAddr(p)
		if err != nil {
			return nil, fmt.Errorf("VERIFYKIT_TRUSTED_PROXIES: %q: %w", p, err)
		}
		c.TrustedProxies = append(c.TrustedProxies, pfx)
	}
	return c, nil
}

// parsePrefixOrAddr accepts a CIDR prefix or a bare address.
func parsePrefixOrAddr(s string) (netip.Prefix, error) {
	if pfx, err := netip.ParsePrefix(s); err == nil {
		return pfx, nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func runServe(cfg *config) error {
	ctx := context.Background()

	if cfg.MigrateOnStart {
		if err := runMigrations(ctx, cfg.DBURL); err != nil {
			return err
		}
	}

	pg, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	keySource, err := jwtkit.NewAutoKeySource()
	if err != nil {
		return fmt.Errorf("load jwt keys: %w", err)
	}

	svc, err := verifyhttp.NewService(core.Config{
		Issuer:            cfg.Issuer,
		ExpectedAudiences: parseCSVEnv("VERIFYKIT_EXPECTED_AUDIENCES", nil),
		Keys:              keySource,
	})
	if err != nil {
		return err
	}
	svc.WithPostgres(pg)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		svc.WithRedis(rdb)
		// Shared limiter so limits hold across instances.
		svc.WithRateLimiter(redislimiter.New(rdb, verifyhttp.ToRedisLimits(verifyhttp.DefaultRateLimits())))
	}

	// Behind a known ingress, attribute requests to the forwarded client
	// address instead of the proxy.
	if len(cfg.TrustedProxies) > 0 {
		svc.WithClientIPFunc(verifyhttp.ClientIPFromForwardedHeaders(cfg.TrustedProxies))
	}

	var sender core.EmailSender
	if cfg.SMTPHost != "" {
		sender = smtpsender.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
	}

	// The durable dispatcher must be configured before the sender:
	// WithEmailSender only spins up its in-process worker pool when no
	// dispatcher is set yet.
	if cfg.DurableDispatch {
		if sender == nil {
			return fmt.Errorf("VERIFYKIT_DURABLE_DISPATCH requires SMTP_HOST")
		}
		riverClient, err := startRiver(ctx, cfg, pg, svc.Core(), sender)
		if err != nil {
			return err
		}
		defer func() { _ = riverClient.Stop(context.Background()) }()
		svc.WithDispatcher(riverjobs.NewRiverDispatcher(riverClient))
	}
	if sender != nil {
		svc.WithEmailSender(sender)
	}

	apiH := svc.APIHandler()
	jwksH := svc.JWKSHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	// Public: consumers verify our tokens with keys fetched here.
	mux.Handle("/.well-known/jwks.json", jwksH)
	mux.Handle("/verify/", apiH)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func startRiver(ctx context.Context, cfg *config, pg *pgxpool.Pool, coreSvc *core.Service, sender core.EmailSender) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	riverjobs.RegisterSendVerificationEmailWorker(workers, sender, coreSvc.OutcomeRecorder())
	riverjobs.RegisterPurgeVerifiedCodesWorker(workers, coreSvc.ProfileStore())

	client, err := river.NewClient(riverpgxv5.New(pg), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}
	if err := riverjobs.AddPurgeVerifiedCodesPeriodicJob(client, cfg.PurgeCron, riverjobs.PurgeVerifiedCodesArgs{}, false); err != nil {
		return nil, err
	}
	if err := client.Start(ctx); err != nil {
		return nil, fmt.Errorf("start river client: %w", err)
	}
	return client, nil
}

func runMigrate(cfg *config) error {
	ctx := context.Background()
	return runMigrations(ctx, cfg.DBURL)
}

func runMigrations(ctx context.Context, dbURL string) error {
	sqlDB, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqlDB.Close()

	files, err := fs.Glob(pgmigrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no postgres migrations found")
	}
	sortStrings(files)

	for _, name := range files {
		sqlBytes, err := pgmigrations.FS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(sqlBytes)) == "" {
			continue
		}
		if _, err := sqlDB.ExecContext(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func sortStrings(v []string) {
	for i := 0; i < len(v); i++ {
		for j := i + 1; j < len(v); j++ {
			if v[j] < v[i] {
				v[i], v[j] = v[j], v[i]
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseCSVEnv(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func fatal(err error) {
	if err == nil {
		os.Exit(0)
	}
	if errors.Is(err, http.ErrServerClosed) {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
