package profilesync

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/taxbridge/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("profilesync",
	fx.Provide(provideRedis),
	fx.Provide(NewLocker),
	fx.Provide(New),
)

// provideRedis returns nil when no redis address is configured; the locker
// degrades to always-acquire.
func provideRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
