package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hotelops/backend/internal/advisory"
	"github.com/hotelops/backend/internal/apierr"
	"github.com/hotelops/backend/internal/metrics"
	"github.com/hotelops/backend/internal/models"
	"github.com/hotelops/backend/internal/pricing"
	"github.com/hotelops/backend/internal/weather"
)

const DefaultPricingTimeout = 10 * time.Second

const (
	SectionOps             = "ops"
	SectionWeather         = "weather"
	SectionPricing         = "pricing"
	SectionPricingSnapshot = "pricing_snapshot"
	SectionTickets         = "tickets"
)

type OpsStore interface {
	CountArrivals(ctx context.Context, hotelID string, from, to time.Time) (int, error)
	CountDepartures(ctx context.Context, hotelID string, from, to time.Time) (int, error)
	CountInhouse(ctx context.Context, hotelID string) (int, error)
}

type AdvisoryTicketLister interface {
	OpenAdvisoryTickets(ctx context.Context, hotelID string, since time.Time) ([]models.TicketRef, error)
}

type ForecastResolver interface {
	Resolve(ctx context.Context, hotelID string) (models.ResolvedForecast, error)
}

// OpsContextService assembles the operations context. Every section has a default, so apart
// from input validation Get always returns a usable view.
type OpsContextService struct {
	Ops             OpsStore
	Tickets         AdvisoryTicketLister
	Weather         weather.Provider
	Pricing         ForecastResolver
	Logger          zerolog.Logger
	Metrics         *metrics.Collector
	Timeout         time.Duration
	PricingTimeout  time.Duration
	DedupWindow     time.Duration
	ForecastVersion string
	Now             func() time.Time
}

type AdvisoryView struct {
	HotelID        string                  `json:"hotel_id"`
	GeneratedAtUTC time.Time               `json:"generated_at_utc"`
	Weather        *models.WeatherContext  `json:"weather"`
	Ops            models.OpsWindow        `json:"ops"`
	Advisories     []models.RoutedAdvisory `json:"advisories"`
	Degraded       []string                `json:"degraded"`
}

type gathered struct {
	ops      models.OpsWindow
	weather  *models.WeatherContext
	pricing  models.ResolvedForecast
	tickets  []models.TicketRef
	degraded []string
	mu       sync.Mutex
}

func (g *gathered) degrade(section string) {
	g.mu.Lock()
	g.degraded = append(g.degraded, section)
	g.mu.Unlock()
}

func (s *OpsContextService) Get(ctx context.Context, hotelID string) (models.OpsContextView, error) {
	if hotelID == "" {
		return models.OpsContextView{}, apierr.Validation("hotelId", "is required")
	}
	now := s.now().UTC()
	g := s.gather(ctx, hotelID, now, true)
	advisories := s.advisories(g, now)

	return models.OpsContextView{
		HotelID:        hotelID,
		GeneratedAtUTC: now,
		Ops:            g.ops,
		Weather:        g.weather,
		Pricing:        g.pricing,
		Advisories:     advisories,
		Degraded:       sortedSections(g.degraded),
	}, nil
}

// Advisories is Get without the pricing section.
func (s *OpsContextService) Advisories(ctx context.Context, hotelID string) (AdvisoryView, error) {
	if hotelID == "" {
		return AdvisoryView{}, apierr.Validation("hotelId", "is required")
	}
	now := s.now().UTC()
	g := s.gather(ctx, hotelID, now, false)
	return AdvisoryView{
		HotelID:        hotelID,
		GeneratedAtUTC: now,
		Weather:        g.weather,
		Ops:            g.ops,
		Advisories:     s.advisories(g, now),
		Degraded:       sortedSections(g.degraded),
	}, nil
}

// gather runs the section fetches concurrently so latency follows the slowest dependency.
// None of them returns an error to the group.
func (s *OpsContextService) gather(ctx context.Context, hotelID string, now time.Time, withPricing bool) *gathered {
	g := &gathered{}
	var eg errgroup.Group

	eg.Go(func() error {
		g.ops = s.opsWindow(ctx, hotelID, now, g)
		return nil
	})
	eg.Go(func() error {
		if s.Weather == nil {
			return nil
		}
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		wc, err := s.Weather.Context(callCtx, hotelID)
		if err != nil {
			s.dependencyDown(hotelID, SectionWeather, err)
			g.degrade(SectionWeather)
			return nil
		}
		g.weather = wc
		return nil
	})
	if withPricing {
		eg.Go(func() error {
			g.pricing = s.resolvePricing(ctx, hotelID, now, g)
			return nil
		})
	}
	eg.Go(func() error {
		callCtx, cancel := s.callContext(ctx)
		defer cancel()
		refs, err := s.Tickets.OpenAdvisoryTickets(callCtx, hotelID, now.Add(-s.dedupWindow()))
		if err != nil {
			s.dependencyDown(hotelID, SectionTickets, err)
			g.degrade(SectionTickets)
			return nil
		}
		g.tickets = refs
		return nil
	})

	_ = eg.Wait()
	return g
}

func (s *OpsContextService) opsWindow(ctx context.Context, hotelID string, now time.Time, g *gathered) models.OpsWindow {
	out := models.OpsWindow{WindowStartUTC: now, WindowEndUTC: now.Add(24 * time.Hour)}
	var (
		eg     errgroup.Group
		failed bool
		mu     sync.Mutex
	)
	count := func(dst *int, fn func(context.Context) (int, error)) {
		eg.Go(func() error {
			callCtx, cancel := s.callContext(ctx)
			defer cancel()
			n, err := fn(callCtx)
			if err != nil {
				s.dependencyDown(hotelID, SectionOps, err)
				mu.Lock()
				failed = true
				mu.Unlock()
				return nil
			}
			*dst = n
			return nil
		})
	}
	count(&out.ArrivalsNext24h, func(c context.Context) (int, error) {
		return s.Ops.CountArrivals(c, hotelID, out.WindowStartUTC, out.WindowEndUTC)
	})
	count(&out.DeparturesNext24h, func(c context.Context) (int, error) {
		return s.Ops.CountDepartures(c, hotelID, out.WindowStartUTC, out.WindowEndUTC)
	})
	count(&out.InhouseNow, func(c context.Context) (int, error) {
		return s.Ops.CountInhouse(c, hotelID)
	})
	_ = eg.Wait()

	if failed {
		g.degrade(SectionOps)
	}
	return out
}

type resolveOutcome struct {
	resolved models.ResolvedForecast
	err      error
}

// resolvePricing gives up at the pricing deadline even if the resolver ignores cancellation.
func (s *OpsContextService) resolvePricing(ctx context.Context, hotelID string, now time.Time, g *gathered) models.ResolvedForecast {
	callCtx, cancel := context.WithTimeout(ctx, s.pricingTimeout())
	defer cancel()

	done := make(chan resolveOutcome, 1)
	go func() {
		resolved, err := s.Pricing.Resolve(callCtx, hotelID)
		done <- resolveOutcome{resolved: resolved, err: err}
	}()

	var out resolveOutcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		out.err = callCtx.Err()
	}

	resolved, err := out.resolved, out.err
	if err == nil {
		return resolved
	}
	if resolved.Forecast != nil {
		// computed but not persisted
		s.dependencyDown(hotelID, SectionPricingSnapshot, err)
		g.degrade(SectionPricingSnapshot)
		return resolved
	}
	s.dependencyDown(hotelID, SectionPricing, err)
	g.degrade(SectionPricing)
	fallback := pricing.FallbackForecast(hotelID, s.ForecastVersion, now)
	return models.ResolvedForecast{
		Mode:     models.ForecastModeLiveFallback,
		Forecast: &fallback,
	}
}

// advisories derives and routes the advisory list and attaches tickets already opened for
// an advisory. Nothing is created here.
func (s *OpsContextService) advisories(g *gathered, now time.Time) []models.RoutedAdvisory {
	derived := advisory.Derive(g.weather, &g.ops, now)
	routed := RouteAdvisories(derived.Actions)

	byAdvisory := map[string]models.TicketRef{}
	for _, ref := range g.tickets {
		if ref.AdvisoryID == "" {
			continue
		}
		// refs arrive newest first
		if _, ok := byAdvisory[ref.AdvisoryID]; !ok {
			byAdvisory[ref.AdvisoryID] = ref
		}
	}
	for i := range routed {
		if ref, ok := byAdvisory[routed[i].ID]; ok {
			routed[i].CreatedTicket = &ref
		}
		s.Metrics.RecordAdvisory(string(routed[i].Priority))
	}
	return routed
}

func (s *OpsContextService) dependencyDown(hotelID, dependency string, err error) {
	s.Metrics.RecordDependencyFailure(dependency)
	s.Logger.Warn().Err(err).Str("hotel_id", hotelID).Str("dependency", dependency).Msg("context section degraded")
}

func (s *OpsContextService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

// pricingTimeout covers a snapshot lookup, a forecast and an append.
func (s *OpsContextService) pricingTimeout() time.Duration {
	if s.PricingTimeout > 0 {
		return s.PricingTimeout
	}
	if s.Timeout > 0 {
		return 3 * s.Timeout
	}
	return DefaultPricingTimeout
}

func (s *OpsContextService) dedupWindow() time.Duration {
	if s.DedupWindow <= 0 {
		return DefaultAdvisoryDedupWindow
	}
	return s.DedupWindow
}

func (s *OpsContextService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func sortedSections(sections []string) []string {
	out := append([]string{}, sections...)
	sort.Strings(out)
	return out
}
