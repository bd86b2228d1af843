package fingerprintservice

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/dogefaucet/internal/config"
	"github.com/GlebRadaev/dogefaucet/internal/domain"
)

//go:generate mockgen -source=fingerprintservice.go -destination=mock_fingerprintservice.go -package=fingerprintservice

type Repo interface {
	Stats(ctx context.Context, fingerprint, ip string, exclude *uuid.UUID) (*domain.FingerprintStats, error)
	Save(ctx context.Context, fp *domain.DeviceFingerprint) error
}

var ErrMissingFingerprint = errors.New("fingerprint is required")

type Check struct {
	Fingerprint string
	UserAgent   string
	IP          string
	// UserID is set when the request carries a valid token.
	UserID *uuid.UUID
}

type Verdict struct {
	Allowed         bool
	Banned          bool
	TooManyAccounts bool
}

type Service struct {
	repo           Repo
	maxPerDevice   int
	maxPerIP       int
	userAgentLimit int
}

func New(cfg *config.Config, repo Repo) *Service {
	return &Service{
		repo:           repo,
		maxPerDevice:   cfg.MaxAccountsPerFingerprint,
		maxPerIP:       cfg.MaxAccountsPerIP,
		userAgentLimit: 512,
	}
}

// Validate decides whether the device may be used for another account. A
// passing check by a signed in user records the association.
func (s *Service) Validate(ctx context.Context, c Check) (*Verdict, error) {
	c.Fingerprint = strings.TrimSpace(c.Fingerprint)
	if c.Fingerprint == "" {
		return nil, ErrMissingFingerprint
	}
	c.UserAgent = truncate(c.UserAgent, s.userAgentLimit)

	stats, err := s.repo.Stats(ctx, c.Fingerprint, c.IP, c.UserID)
	if err != nil {
		return nil, err
	}

	if stats.Banned {
		zap.L().Warn("banned device seen", zap.String("fingerprint", c.Fingerprint), zap.String("ip", c.IP))
		return &Verdict{Banned: true}, nil
	}
	if stats.FingerprintAccounts >= s.maxPerDevice || stats.IPAccounts >= s.maxPerIP {
		zap.L().Info("too many accounts for device",
			zap.String("fingerprint", c.Fingerprint),
			zap.String("ip", c.IP),
			zap.Int("fingerprintAccounts", stats.FingerprintAccounts),
			zap.Int("ipAccounts", stats.IPAccounts),
		)
		return &Verdict{TooManyAccounts: true}, nil
	}

	if c.UserID != nil {
		err := s.repo.Save(ctx, &domain.DeviceFingerprint{
			UserID:      *c.UserID,
			Fingerprint: c.Fingerprint,
			IPAddress:   c.IP,
			UserAgent:   c.UserAgent,
		})
		if err != nil {
			return nil, err
		}
	}
	return &Verdict{Allowed: true}, nil
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
