// Package connections reports and manages a user's data-provider accounts.
package connections

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/kiranshivaraju/nichescout/internal/cache"
	"github.com/kiranshivaraju/nichescout/internal/connector"
)

// ErrInvalidToolkit is returned for toolkits outside RequiredToolkits and
// OptionalToolkits.
var ErrInvalidToolkit = errors.New("invalid toolkit")

var (
	RequiredToolkits = []string{"junglescout", "semrush"}
	OptionalToolkits = []string{"shopify"}
)

// ValidToolkits lists every toolkit a user may connect.
func ValidToolkits() []string {
	return slices.Concat(RequiredToolkits, OptionalToolkits)
}

// ToolkitStatus is one row of the connection summary.
type ToolkitStatus struct {
	Toolkit   string `json:"toolkit"`
	Connected bool   `json:"connected"`
	Required  bool   `json:"required"`
}

// Summary reports which toolkits the user has connected.
type Summary struct {
	Status            []ToolkitStatus `json:"status"`
	RequiredConnected int             `json:"requiredConnected"`
	RequiredTotal     int             `json:"requiredTotal"`
	OptionalConnected int             `json:"optionalConnected"`
	OptionalTotal     int             `json:"optionalTotal"`
	CanAnalyze        bool            `json:"canAnalyze"`
	ShopifyConnected  bool            `json:"shopifyConnected"`
}

// Service answers connection questions through the connector, caching
// summaries per user.
type Service struct {
	provider connector.Provider
	cache    cache.Cache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewService builds a Service. A nil cache or non-positive ttl disables caching.
func NewService(provider connector.Provider, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{provider: provider, cache: c, ttl: ttl, logger: logger}
}

// Status returns the user's connection summary.
func (s *Service) Status(ctx context.Context, userID string) (*Summary, error) {
	key := cache.ConnectionsKey(userID)
	if s.cacheEnabled() {
		var cached Summary
		found, err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err != nil {
			s.logger.Warn("connection cache read failed", "user_id", userID, "error", err)
		} else if found {
			return &cached, nil
		}
	}

	session, err := s.provider.CreateSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("creating connector session: %w", err)
	}
	conns, err := session.Toolkits(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing toolkits: %w", err)
	}

	summary := Summarize(conns)
	if s.cacheEnabled() {
		if err := cache.SetJSON(ctx, s.cache, key, summary, s.ttl); err != nil {
			s.logger.Warn("connection cache write failed", "user_id", userID, "error", err)
		}
	}
	return summary, nil
}

// AuthURL starts an authorization flow and returns where to send the user.
func (s *Service) AuthURL(ctx context.Context, userID, toolkit string) (string, error) {
	toolkit, err := normalize(toolkit)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateSession(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("creating connector session: %w", err)
	}
	req, err := session.Authorize(ctx, toolkit)
	if err != nil {
		return "", fmt.Errorf("authorizing %s: %w", toolkit, err)
	}
	if req.RedirectURL == "" {
		return "", fmt.Errorf("authorizing %s: %w", toolkit, connector.ErrNoRedirectURL)
	}
	return req.RedirectURL, nil
}

// Disconnect removes the user's account for toolkit and returns its id.
func (s *Service) Disconnect(ctx context.Context, userID, toolkit string) (string, error) {
	toolkit, err := normalize(toolkit)
	if err != nil {
		return "", err
	}

	session, err := s.provider.CreateSession(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("creating connector session: %w", err)
	}
	id, err := session.Disconnect(ctx, toolkit)
	if err != nil {
		return "", fmt.Errorf("disconnecting %s: %w", toolkit, err)
	}

	s.Invalidate(ctx, userID)
	s.logger.Info("toolkit disconnected", "user_id", userID, "toolkit", toolkit, "account_id", id)
	return id, nil
}

// Invalidate drops the user's cached summary.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if !s.cacheEnabled() {
		return
	}
	if err := s.cache.Delete(ctx, cache.ConnectionsKey(userID)); err != nil {
		s.logger.Warn("connection cache delete failed", "user_id", userID, "error", err)
	}
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

// Summarize folds the connector's account list into a Summary.
func Summarize(conns []connector.ToolkitConnection) *Summary {
	connected := make(map[string]bool, len(conns))
	for _, c := range conns {
		if c.Connected {
			connected[strings.ToLower(c.Toolkit)] = true
		}
	}

	sum := &Summary{
		Status:        make([]ToolkitStatus, 0, len(RequiredToolkits)+len(OptionalToolkits)),
		RequiredTotal: len(RequiredToolkits),
		OptionalTotal: len(OptionalToolkits),
	}
	for _, tk := range RequiredToolkits {
		sum.Status = append(sum.Status, ToolkitStatus{Toolkit: tk, Connected: connected[tk], Required: true})
		if connected[tk] {
			sum.RequiredConnected++
		}
	}
	for _, tk := range OptionalToolkits {
		sum.Status = append(sum.Status, ToolkitStatus{Toolkit: tk, Connected: connected[tk]})
		if connected[tk] {
			sum.OptionalConnected++
		}
	}
	sum.CanAnalyze = sum.RequiredConnected == sum.RequiredTotal
	sum.ShopifyConnected = connected["shopify"]
	return sum
}

func normalize(toolkit string) (string, error) {
	tk := strings.ToLower(strings.TrimSpace(toolkit))
	if !slices.Contains(ValidToolkits(), tk) {
		return "", fmt.Errorf("%w: %q", ErrInvalidToolkit, toolkit)
	}
	return tk, nil
}
