package distance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/grocer-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/grocer-backend/pkg/errors"
	"github.com/angelmondragon/grocer-backend/pkg/maps"
	"github.com/angelmondragon/grocer-backend/pkg/metrics"
	"github.com/angelmondragon/grocer-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type fakeMaps struct {
	geocodeCalls int
	routeCalls   int
	geocodeErrs  []error
	routeErrs    []error
	location     maps.LatLng
	meters       int64
}

func (f *fakeMaps) Geocode(_ context.Context, _ string) (*maps.GeocodeResult, error) {
	f.geocodeCalls++
	if len(f.geocodeErrs) > 0 {
		err := f.geocodeErrs[0]
		f.geocodeErrs = f.geocodeErrs[1:]
		return nil, err
	}
	return &maps.GeocodeResult{Location: f.location}, nil
}

func (f *fakeMaps) RouteDistanceMeters(_ context.Context, _, _ maps.LatLng) (int64, error) {
	f.routeCalls++
	if len(f.routeErrs) > 0 {
		err := f.routeErrs[0]
		f.routeErrs = f.routeErrs[1:]
		return 0, err
	}
	return f.meters, nil
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return redis.NewFromRaw(raw)
}

func testConfig() config.DistanceConfig {
	return config.DistanceConfig{
		CacheTTL:    time.Hour,
		MaxRetries:  2,
		RetryBase:   time.Millisecond,
		LookupLimit: time.Second,
	}
}

var origin = &maps.LatLng{Latitude: 10.5, Longitude: -66.9}

func TestResolveGeocodesAndCaches(t *testing.T) {
	client := &fakeMaps{location: maps.LatLng{Latitude: 10.49, Longitude: -66.85}, meters: 5000}
	svc := NewService(client, newRedis(t), testConfig(), nil, nil)

	req := Request{Origin: origin, Address: "12  Market St"}
	got := svc.Resolve(context.Background(), req)
	if !got.Available || !got.Km.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected result %+v", got)
	}

	again := svc.Resolve(context.Background(), Request{Origin: origin, Address: "12 market st"})
	if !again.Available || !again.Km.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected cached result %+v", again)
	}
	if client.geocodeCalls != 1 || client.routeCalls != 1 {
		t.Fatalf("expected one upstream call each, got geocode=%d route=%d", client.geocodeCalls, client.routeCalls)
	}
}

func TestResolveUsesClientCoordinates(t *testing.T) {
	client := &fakeMaps{meters: 2500}
	svc := NewService(client, nil, testConfig(), nil, nil)

	got := svc.Resolve(context.Background(), Request{Origin: origin, Destination: &maps.LatLng{Latitude: 1, Longitude: 2}})
	if !got.Available || !got.Km.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected result %+v", got)
	}
	if client.geocodeCalls != 0 {
		t.Fatalf("geocode should be skipped, got %d calls", client.geocodeCalls)
	}
}

func TestResolveRetriesTransientFailures(t *testing.T) {
	transient := pkgerrors.New(pkgerrors.CodeDependency, "maps unavailable")
	client := &fakeMaps{meters: 1000, routeErrs: []error{transient, transient}}
	m := metrics.NewCheckoutMetrics(nil)
	svc := NewService(client, nil, testConfig(), m, nil)

	got := svc.Resolve(context.Background(), Request{Origin: origin, Destination: origin})
	if !got.Available {
		t.Fatalf("expected success after retries, got %+v", got)
	}
	if client.routeCalls != 3 {
		t.Fatalf("expected 3 route calls, got %d", client.routeCalls)
	}
}

func TestResolveGivesUpAfterMaxRetries(t *testing.T) {
	transient := pkgerrors.New(pkgerrors.CodeDependency, "maps unavailable")
	client := &fakeMaps{routeErrs: []error{transient, transient, transient, transient}}
	svc := NewService(client, nil, testConfig(), nil, nil)

	got := svc.Resolve(context.Background(), Request{Origin: origin, Destination: origin})
	if got.Available || got.Reason != ReasonLookupFailed {
		t.Fatalf("expected lookup failure, got %+v", got)
	}
	if client.routeCalls != 3 {
		t.Fatalf("expected 3 route calls, got %d", client.routeCalls)
	}
}

func TestResolveDoesNotRetryTerminalFailures(t *testing.T) {
	client := &fakeMaps{geocodeErrs: []error{pkgerrors.New(pkgerrors.CodeNotFound, "no match")}}
	svc := NewService(client, nil, testConfig(), nil, nil)

	got := svc.Resolve(context.Background(), Request{Origin: origin, Address: "nowhere"})
	if got.Available || got.Reason != ReasonNoMatch {
		t.Fatalf("expected no match, got %+v", got)
	}
	if client.geocodeCalls != 1 || client.routeCalls != 0 {
		t.Fatalf("unexpected calls geocode=%d route=%d", client.geocodeCalls, client.routeCalls)
	}
}

func TestResolveUntypedErrorIsTerminal(t *testing.T) {
	client := &fakeMaps{routeErrs: []error{errors.New("boom")}}
	svc := NewService(client, nil, testConfig(), nil, nil)

	got := svc.Resolve(context.Background(), Request{Origin: origin, Destination: origin})
	if got.Available || client.routeCalls != 1 {
		t.Fatalf("expected single failed call, got %+v calls=%d", got, client.routeCalls)
	}
}

func TestResolveUnavailableInputs(t *testing.T) {
	tests := []struct {
		name   string
		client MapsClient
		req    Request
		reason string
	}{
		{name: "no maps", client: nil, req: Request{Origin: origin, Address: "x"}, reason: ReasonMapsDisabled},
		{name: "no origin", client: &fakeMaps{}, req: Request{Address: "x"}, reason: ReasonNoOrigin},
		{name: "no destination", client: &fakeMaps{}, req: Request{Origin: origin, Address: "   "}, reason: ReasonNoDestination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewService(tt.client, nil, testConfig(), nil, nil).Resolve(context.Background(), tt.req)
			if got.Available || got.Reason != tt.reason {
				t.Fatalf("expected %q, got %+v", tt.reason, got)
			}
			if got.Distance().Available {
				t.Fatalf("pricing distance should be unavailable")
			}
		})
	}
}

func TestTrackerRejectsSupersededTokens(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newRedis(t), time.Minute)

	first, err := tracker.Begin(ctx, "session-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	second, err := tracker.Begin(ctx, "session-1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if second <= first {
		t.Fatalf("tokens must increase: %d then %d", first, second)
	}

	if err := tracker.Check(ctx, "session-1", first); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected superseded, got %v", err)
	}
	if err := tracker.Check(ctx, "session-1", second); err != nil {
		t.Fatalf("latest token rejected: %v", err)
	}
	if err := tracker.Check(ctx, "session-2", 1); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("unknown session should conflict, got %v", err)
	}
}

func TestTrackerSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newRedis(t), time.Minute)

	a, _ := tracker.Begin(ctx, "a")
	if _, err := tracker.Begin(ctx, "b"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tracker.Check(ctx, "a", a); err != nil {
		t.Fatalf("session a token rejected: %v", err)
	}
}
