package weather

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hotelops/backend/internal/models"
)

// CachedProvider keeps raw readings in Redis for TTL and applies freshness on every read.
// Redis errors fall through to Next.
type CachedProvider struct {
	Next       ReadingSource
	Redis      *goredis.Client
	TTL        time.Duration
	StaleAfter time.Duration
	Logger     zerolog.Logger
	Now        func() time.Time
}

func cacheKey(hotelID string) string {
	return "weather:reading:" + hotelID
}

func (c CachedProvider) Context(ctx context.Context, hotelID string) (*models.WeatherContext, error) {
	raw, err := c.Redis.Get(ctx, cacheKey(hotelID)).Bytes()
	if err == nil {
		if wc, ok := c.fromCache(raw); ok {
			return wc, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		c.Logger.Warn().Err(err).Str("hotel_id", hotelID).Msg("weather cache read failed")
	}

	reading, err := c.Next.Reading(ctx, hotelID)
	if err != nil || reading == nil {
		return nil, err
	}
	if b, err := json.Marshal(reading); err == nil {
		if err := c.Redis.Set(ctx, cacheKey(hotelID), b, c.TTL).Err(); err != nil {
			c.Logger.Warn().Err(err).Str("hotel_id", hotelID).Msg("weather cache write failed")
		}
	}
	return Normalize(*reading, c.now().UTC(), c.StaleAfter), nil
}

func (c CachedProvider) fromCache(raw []byte) (*models.WeatherContext, bool) {
	var r Reading
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false
	}
	return Normalize(r, c.now().UTC(), c.StaleAfter), true
}

func (c CachedProvider) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// NewRedisClient connects and pings, mirroring how the rest of the service fails fast on boot.
func NewRedisClient(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
