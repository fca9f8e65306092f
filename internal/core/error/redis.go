package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to the unified AppError type with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(KindStorage, err, http.StatusNotFound, RedisNotFoundMessage)
	}

	return New(KindStorage, err, http.StatusBadGateway, RedisErrorMessage)
}
