package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const streamAwards = "asteroid.awards"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishAward appends an award lifecycle event to the award stream for
// external consumers. Callers treat failures as best-effort.
func PublishAward(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamAwards,
		Values: payload,
	}).Result()
	return err
}
