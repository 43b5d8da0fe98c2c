package rdx

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

// Connect opens the shared redis client. The cache is best-effort: callers
// treat a nil Conn or a redis error as a miss and fall through to Mongo.
func Connect(ctx context.Context) error {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}

	Conn = redis.NewClient(&redis.Options{Addr: addr})
	if err := Conn.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, caching disabled: %v", addr, err)
		Conn = nil
		return err
	}
	return nil
}

func Close() {
	if Conn != nil {
		_ = Conn.Close()
	}
}
