// Package verifyhttp mounts the verification service on net/http.
package verifyhttp

import (
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	core "github.com/open-rails/verifykit/core"
	memorylimiter "github.com/open-rails/verifykit/ratelimit/memory"
	memorystore "github.com/open-rails/verifykit/storage/memory"
	pgstore "github.com/open-rails/verifykit/storage/pg"
	redisstore "github.com/open-rails/verifykit/storage/redis"
)

// Service wraps core.Service with net/http mounting helpers.
type Service struct {
	svc      *core.Service
	rd       *redis.Client
	rl       RateLimiter
	clientIP ClientIPFunc
}

// NewService constructs a core.Service and wraps it for net/http mounting.
// Returns an error if the core service fails to initialize (e.g., missing keys in production).
func NewService(cfg core.Config) (*Service, error) {
	coreSvc, err := core.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	// Default to in-memory ephemeral store for dev/single-instance use.
	coreSvc = coreSvc.WithEphemeralStore(memorystore.NewKV(), core.EphemeralMemory)
	s := &Service{
		svc:      coreSvc,
		rl:       memorylimiter.New(ToMemoryLimits(DefaultRateLimits())),
		clientIP: DefaultClientIP(),
	}
	return s, nil
}

func (s *Service) allow(r *http.Request, bucket string) bool {
	if s == nil {
		return true
	}
	if s.rl == nil {
		return true
	}
	ipFn := s.clientIP
	if ipFn == nil {
		ipFn = DefaultClientIP()
	}
	ip := ipFn(r)
	if strings.TrimSpace(ip) == "" {
		return true
	}
	key := "verify:" + bucket + ":ip:" + ip
	ok, err := s.rl.AllowNamed(bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func (s *Service) WithPostgres(pg *pgxpool.Pool) *Service {
	s.svc = s.svc.WithProfileStore(pgstore.NewProfileStore(pg))
	return s
}
func (s *Service) WithProfileStore(store core.ProfileStore) *Service {
	s.svc = s.svc.WithProfileStore(store)
	return s
}
func (s *Service) WithRedis(rd *redis.Client) *Service {
	s.rd = rd
	if rd != nil {
		s.svc = s.svc.WithEphemeralStore(redisstore.NewKV(rd), core.EphemeralRedis)
	}
	return s
}
func (s *Service) WithRateLimiter(rl RateLimiter) *Service { s.rl = rl; return s }
func (s *Service) DisableRateLimiter() *Service            { s.rl = nil; return s }
func (s *Service) WithClientIPFunc(fn ClientIPFunc) *Service {
	if fn == nil {
		s.clientIP = DefaultClientIP()
		return s
	}
	s.clientIP = fn
	return s
}
func (s *Service) WithEmailSender(es core.EmailSender) *Service {
	s.svc = s.svc.WithEmailSender(es)
	return s
}
func (s *Service) WithDispatcher(d core.Dispatcher) *Service {
	s.svc = s.svc.WithDispatcher(d)
	return s
}
func (s *Service) WithEventLogger(l core.VerificationEventLogger) *Service {
	s.svc = s.svc.WithEventLogger(l)
	return s
}
func (s *Service) WithEphemeralStore(store core.EphemeralStore, mode core.EphemeralMode) *Service {
	s.svc = s.svc.WithEphemeralStore(store, mode)
	return s
}

func (s *Service) Core() *core.Service { return s.svc }
