package cache

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// InitRedis connects to Redis. url may be a redis:// URL or a bare
// host:port. On any failure it returns nil and callers fall back to
// in-process state.
func InitRedis(url string) *redis.Client {
	if url == "" {
		log.Println("[REDIS] REDIS_URL not set, sessions kept in memory")
		return nil
	}

	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			log.Printf("[REDIS] invalid REDIS_URL: %v", err)
			return nil
		}
		opts = parsed
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] unavailable: %v", err)
		client.Close()
		return nil
	}

	log.Println("[REDIS] connected")
	return client
}
