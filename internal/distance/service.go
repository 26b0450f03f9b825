package distance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/grocer-backend/internal/pricing"
	"github.com/angelmondragon/grocer-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/logger"
	"github.com/angelmondragon/grocer-backend/pkg/maps"
	"github.com/angelmondragon/grocer-backend/pkg/metrics"
	"github.com/angelmondragon/grocer-backend/pkg/redis"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// Reasons reported when a distance could not be determined.
const (
	ReasonMapsDisabled  = "maps client not configured"
	ReasonNoOrigin      = "supermarket has no coordinates"
	ReasonNoDestination = "no delivery address"
	ReasonNoMatch       = "address could not be located"
	ReasonLookupFailed  = "distance lookup failed"
)

// MapsClient is the subset of pkg/maps used to measure delivery distance.
type MapsClient interface {
	Geocode(ctx context.Context, address string) (*maps.GeocodeResult, error)
	RouteDistanceMeters(ctx context.Context, origin, destination maps.LatLng) (int64, error)
}

// Cache stores resolved geocodes and route lengths.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DistanceKey(origin, destination string) string
	GeocodeKey(fingerprint string) string
}

// Request describes one delivery leg. Destination wins over Address when set.
type Request struct {
	Origin      *maps.LatLng
	Address     string
	Destination *maps.LatLng
}

// Result is a route length, or the reason it is unavailable.
type Result struct {
	Km        decimal.Decimal
	Available bool
	Reason    string
}

// Distance converts the result to the fee engine input.
func (r Result) Distance() pricing.Distance {
	if !r.Available {
		return pricing.DistanceUnavailable()
	}
	return pricing.DistanceKm(r.Km)
}

func unavailable(reason string) Result {
	return Result{Km: decimal.Zero, Reason: reason}
}

// Service resolves delivery distances. Failures never surface as errors; they
// become an unavailable Result so a quote can still be produced.
type Service interface {
	Resolve(ctx context.Context, req Request) Result
}

type service struct {
	maps    MapsClient
	cache   Cache
	cfg     config.DistanceConfig
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

// NewService wires the distance resolver. A nil maps client is allowed and
// makes every lookup unavailable; cache and metrics are optional.
func NewService(client MapsClient, cache Cache, cfg config.DistanceConfig, m *metrics.CheckoutMetrics, logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{maps: client, cache: cache, cfg: cfg, metrics: m, logg: logg}
}

func (s *service) Resolve(ctx context.Context, req Request) Result {
	if s.maps == nil {
		return s.finish(ctx, unavailable(ReasonMapsDisabled), nil)
	}
	if req.Origin == nil {
		return s.finish(ctx, unavailable(ReasonNoOrigin), nil)
	}

	if s.cfg.LookupLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.LookupLimit)
		defer cancel()
	}

	dest := req.Destination
	if dest == nil {
		address := fingerprint(req.Address)
		if address == "" {
			return s.finish(ctx, unavailable(ReasonNoDestination), nil)
		}
		located, err := s.geocode(ctx, address)
		if err != nil {
			return s.finish(ctx, unavailable(reasonFor(err)), err)
		}
		dest = located
	}

	key := s.distanceKey(*req.Origin, *dest)
	if meters, ok := s.cachedMeters(ctx, key); ok {
		s.metrics.IncDistanceOutcome(metrics.DistanceOutcomeCached)
		return Result{Km: metersToKm(meters), Available: true}
	}

	var meters int64
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var callErr error
		meters, callErr = s.maps.RouteDistanceMeters(ctx, *req.Origin, *dest)
		return callErr
	})
	if err != nil {
		return s.finish(ctx, unavailable(reasonFor(err)), err)
	}
	s.store(ctx, key, strconv.FormatInt(meters, 10))

	return s.finish(ctx, Result{Km: metersToKm(meters), Available: true}, nil)
}

func (s *service) geocode(ctx context.Context, address string) (*maps.LatLng, error) {
	var key string
	if s.cache != nil {
		key = s.cache.GeocodeKey(address)
		if raw, err := s.cache.Get(ctx, key); err == nil {
			if loc, ok := parseLatLng(raw); ok {
				return &loc, nil
			}
		} else if !redis.IsMiss(err) {
			s.logg.Warn(ctx, "geocode cache read failed: "+err.Error())
		}
	}

	var result *maps.GeocodeResult
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var callErr error
		result, callErr = s.maps.Geocode(ctx, address)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if key != "" {
		s.store(ctx, key, result.Location.String())
	}
	return &result.Location, nil
}

// withRetry retries fn with exponential backoff while it fails with a
// retryable error. Terminal errors return immediately.
func (s *service) withRetry(ctx context.Context, fn func(context.Context) error) error {
	base := s.cfg.RetryBase
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.NewExponential(base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		s.metrics.IncDistanceAttempt()
		if err := fn(ctx); err != nil {
			if pkgerrors.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

func (s *service) cachedMeters(ctx context.Context, key string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) {
			s.logg.Warn(ctx, "distance cache read failed: "+err.Error())
		}
		return 0, false
	}
	meters, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return meters, true
}

func (s *service) store(ctx context.Context, key, value string) {
	if s.cache == nil || key == "" {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logg.Warn(ctx, "distance cache write failed: "+err.Error())
	}
}

func (s *service) distanceKey(origin, dest maps.LatLng) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.DistanceKey(origin.String(), dest.String())
}

func (s *service) finish(ctx context.Context, res Result, err error) Result {
	if res.Available {
		s.metrics.IncDistanceOutcome(metrics.DistanceOutcomeResolved)
		return res
	}
	s.metrics.IncDistanceOutcome(metrics.DistanceOutcomeUnavailable)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "reason", res.Reason), "distance unavailable: "+err.Error())
	}
	return res
}

func reasonFor(err error) string {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return ReasonNoMatch
	}
	return ReasonLookupFailed
}

func metersToKm(meters int64) decimal.Decimal {
	return decimal.NewFromInt(meters).Div(decimal.NewFromInt(1000))
}

// fingerprint normalizes an address so cosmetic differences share a cache entry.
func fingerprint(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

func parseLatLng(raw string) (maps.LatLng, bool) {
	var loc maps.LatLng
	if _, err := fmt.Sscanf(raw, "%f,%f", &loc.Latitude, &loc.Longitude); err != nil {
		return maps.LatLng{}, false
	}
	return loc, true
}
