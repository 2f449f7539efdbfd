package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/pricing"
)

var opsNow = time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

type fakeOps struct {
	arrivals, departures, inhouse int
	err                           error
	hook                          func(ctx context.Context) error
}

func (f fakeOps) call(ctx context.Context, n int) (int, error) {
	if f.hook != nil {
		if err := f.hook(ctx); err != nil {
			return 0, err
		}
	}
	return n, f.err
}

func (f fakeOps) CountArrivals(ctx context.Context, hotelID string, from, to time.Time) (int, error) {
	return f.call(ctx, f.arrivals)
}

func (f fakeOps) CountDepartures(ctx context.Context, hotelID string, from, to time.Time) (int, error) {
	return f.call(ctx, f.departures)
}

func (f fakeOps) CountInhouse(ctx context.Context, hotelID string) (int, error) {
	return f.call(ctx, f.inhouse)
}

type fakeWeatherProvider struct {
	wc   *models.WeatherContext
	err  error
	hook func(ctx context.Context) error
}

func (f fakeWeatherProvider) Context(ctx context.Context, hotelID string) (*models.WeatherContext, error) {
	if f.hook != nil {
		if err := f.hook(ctx); err != nil {
			return nil, err
		}
	}
	return f.wc, f.err
}

type fakeResolver struct {
	res  models.ResolvedForecast
	err  error
	hook func(ctx context.Context) error
}

func (f fakeResolver) Resolve(ctx context.Context, hotelID string) (models.ResolvedForecast, error) {
	if f.hook != nil {
		if err := f.hook(ctx); err != nil {
			return models.ResolvedForecast{}, err
		}
	}
	return f.res, f.err
}

type fakeTicketLister struct {
	refs []models.TicketRef
	err  error
	hook func(ctx context.Context) error
}

func (f fakeTicketLister) OpenAdvisoryTickets(ctx context.Context, hotelID string, since time.Time) ([]models.TicketRef, error) {
	if f.hook != nil {
		if err := f.hook(ctx); err != nil {
			return nil, err
		}
	}
	return f.refs, f.err
}

func rainyWeather() *models.WeatherContext {
	high := 35.0
	low := 10.0
	return &models.WeatherContext{
		SyncedAtUTC: opsNow.Add(-time.Hour),
		IsFresh:     true,
		Location:    "Lisbon",
		Next24h:     models.WeatherNext24h{Summary: "storm expected", RainRisk: models.RainRiskHigh, HighC: &high, LowC: &low},
	}
}

func snapshotForecast() models.ResolvedForecast {
	f := pricing.FallbackForecast("h1", "v1", opsNow.Add(-20*time.Minute))
	f.Source = pricing.SourceLive
	return models.ResolvedForecast{Mode: models.ForecastModeSnapshot, AgeMinutes: 20, Forecast: &f}
}

func newOpsService(ops OpsStore, w fakeWeatherProvider, p ForecastResolver, tickets AdvisoryTicketLister) *OpsContextService {
	return &OpsContextService{
		Ops:             ops,
		Weather:         w,
		Pricing:         p,
		Tickets:         tickets,
		Logger:          zerolog.Nop(),
		Timeout:         time.Second,
		ForecastVersion: "v1",
		Now:             func() time.Time { return opsNow },
	}
}

func TestOpsContextHappyPath(t *testing.T) {
	umbrellaID := AdvisoryID("Stage umbrellas at reception", models.AdvisoryPriorityHigh)
	tickets := fakeTicketLister{refs: []models.TicketRef{
		{TicketID: "t-new", Status: models.TicketStatusOpen, AdvisoryID: umbrellaID, CreatedAt: opsNow.Add(-time.Hour)},
		{TicketID: "t-old", Status: models.TicketStatusInProgress, AdvisoryID: umbrellaID, CreatedAt: opsNow.Add(-3 * time.Hour)},
	}}
	svc := newOpsService(
		fakeOps{arrivals: 25, departures: 5, inhouse: 10},
		fakeWeatherProvider{wc: rainyWeather()},
		fakeResolver{res: snapshotForecast()},
		tickets,
	)

	view, err := svc.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Degraded) != 0 {
		t.Fatalf("expected no degraded sections, got %v", view.Degraded)
	}
	if view.Ops.ArrivalsNext24h != 25 || view.Ops.DeparturesNext24h != 5 || view.Ops.InhouseNow != 10 {
		t.Fatalf("unexpected ops window: %+v", view.Ops)
	}
	if !view.Ops.WindowEndUTC.Equal(opsNow.Add(24 * time.Hour)) {
		t.Fatalf("unexpected window end %s", view.Ops.WindowEndUTC)
	}
	if view.Pricing.Mode != models.ForecastModeSnapshot || view.Weather == nil {
		t.Fatalf("unexpected sections: %+v", view)
	}
	if len(view.Advisories) == 0 || len(view.Advisories) > 5 {
		t.Fatalf("unexpected advisory count %d", len(view.Advisories))
	}

	var matched bool
	for _, a := range view.Advisories {
		if a.ID == umbrellaID {
			if a.CreatedTicket == nil || a.CreatedTicket.TicketID != "t-new" {
				t.Fatalf("expected newest ticket attached, got %+v", a.CreatedTicket)
			}
			matched = true
		} else if a.CreatedTicket != nil {
			t.Fatalf("unexpected ticket on %s", a.Title)
		}
	}
	if !matched {
		t.Fatalf("expected umbrella advisory in %+v", view.Advisories)
	}
}

func TestOpsContextDegradesEverySection(t *testing.T) {
	boom := errors.New("boom")
	svc := newOpsService(
		fakeOps{err: boom},
		fakeWeatherProvider{err: boom},
		fakeResolver{err: boom},
		fakeTicketLister{err: boom},
	)

	view, err := svc.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("expected a usable context, got %v", err)
	}
	want := []string{SectionOps, SectionPricing, SectionTickets, SectionWeather}
	if !reflect.DeepEqual(view.Degraded, want) {
		t.Fatalf("expected degraded %v, got %v", want, view.Degraded)
	}
	if view.Ops.ArrivalsNext24h != 0 || view.Weather != nil {
		t.Fatalf("expected defaults, got %+v", view)
	}
	if view.Pricing.Mode != models.ForecastModeLiveFallback || view.Pricing.Forecast == nil || view.Pricing.Forecast.Source != pricing.SourceFallback {
		t.Fatalf("expected fallback forecast, got %+v", view.Pricing)
	}
	if view.Pricing.Forecast.Summary.Confidence != models.ConfidenceLow {
		t.Fatalf("expected low confidence fallback")
	}
	if len(view.Advisories) != 0 {
		t.Fatalf("expected no advisories without weather, got %v", view.Advisories)
	}
}

func TestOpsContextKeepsUnpersistedForecast(t *testing.T) {
	res := snapshotForecast()
	res.Mode = models.ForecastModeLiveFallback
	svc := newOpsService(
		fakeOps{},
		fakeWeatherProvider{wc: rainyWeather()},
		fakeResolver{res: res, err: apierr.Persistence("append failed", errors.New("disk full"))},
		fakeTicketLister{},
	)
	view, err := svc.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Pricing.Forecast == nil || view.Pricing.Forecast.Source != pricing.SourceLive {
		t.Fatalf("expected the live forecast to be kept, got %+v", view.Pricing)
	}
	if !reflect.DeepEqual(view.Degraded, []string{SectionPricingSnapshot}) {
		t.Fatalf("unexpected degraded list %v", view.Degraded)
	}
}

func TestOpsContextGathersConcurrently(t *testing.T) {
	// Three ops counts plus weather, pricing and tickets must all be in flight at once.
	var arrived sync.WaitGroup
	arrived.Add(6)
	allIn := make(chan struct{})
	go func() {
		arrived.Wait()
		close(allIn)
	}()
	barrier := func(ctx context.Context) error {
		arrived.Done()
		select {
		case <-allIn:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("gathers ran sequentially")
		}
	}

	svc := newOpsService(
		fakeOps{arrivals: 1, hook: barrier},
		fakeWeatherProvider{wc: rainyWeather(), hook: barrier},
		fakeResolver{res: snapshotForecast(), hook: barrier},
		fakeTicketLister{hook: barrier},
	)
	svc.Timeout = 5 * time.Second

	view, err := svc.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Degraded) != 0 {
		t.Fatalf("expected concurrent gathers, got degraded %v", view.Degraded)
	}
}

func TestOpsContextTimesOutSlowDependency(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	svc := newOpsService(
		fakeOps{arrivals: 3},
		fakeWeatherProvider{wc: rainyWeather(), hook: slow},
		fakeResolver{res: snapshotForecast()},
		fakeTicketLister{},
	)
	svc.Timeout = 50 * time.Millisecond

	view, err := svc.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(view.Degraded, []string{SectionWeather}) {
		t.Fatalf("expected only weather degraded, got %v", view.Degraded)
	}
	if view.Ops.ArrivalsNext24h != 3 {
		t.Fatalf("expected other sections unaffected")
	}
}

func TestOpsContextBoundsPricing(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	stuck := func(ctx context.Context) error {
		<-release
		return nil
	}
	svc := newOpsService(
		fakeOps{arrivals: 3},
		fakeWeatherProvider{wc: rainyWeather()},
		fakeResolver{res: snapshotForecast(), hook: stuck},
		fakeTicketLister{},
	)
	svc.Timeout = 50 * time.Millisecond
	svc.PricingTimeout = 100 * time.Millisecond

	start := time.Now()
	view, err := svc.Get(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("pricing was not bounded, took %s", elapsed)
	}
	if !reflect.DeepEqual(view.Degraded, []string{SectionPricing}) {
		t.Fatalf("expected only pricing degraded, got %v", view.Degraded)
	}
	if view.Pricing.Forecast == nil || view.Pricing.Forecast.Source != pricing.SourceFallback {
		t.Fatalf("expected fallback forecast, got %+v", view.Pricing)
	}
}

func TestOpsContextPricingTimeoutDefaultsFromCallTimeout(t *testing.T) {
	svc := &OpsContextService{Timeout: 2 * time.Second}
	if got := svc.pricingTimeout(); got != 6*time.Second {
		t.Fatalf("expected 6s, got %s", got)
	}
	svc.PricingTimeout = time.Second
	if got := svc.pricingTimeout(); got != time.Second {
		t.Fatalf("expected explicit pricing timeout, got %s", got)
	}
}

func TestOpsContextRequiresHotel(t *testing.T) {
	svc := newOpsService(fakeOps{}, fakeWeatherProvider{}, fakeResolver{}, fakeTicketLister{})
	if _, err := svc.Get(context.Background(), ""); apierr.KindOf(err) != apierr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdvisoriesSkipsPricing(t *testing.T) {
	svc := newOpsService(
		fakeOps{arrivals: 25},
		fakeWeatherProvider{wc: rainyWeather()},
		fakeResolver{hook: func(ctx context.Context) error {
			t.Errorf("pricing must not be resolved for advisories")
			return nil
		}},
		fakeTicketLister{},
	)
	view, err := svc.Advisories(context.Background(), "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.Advisories) == 0 {
		t.Fatalf("expected advisories")
	}
}
