package redislock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Alisaqulain/madarcrm-sub000/core"
	"github.com/Alisaqulain/madarcrm-sub000/core/demo"
)

const keyPrefix = "madarcrm:demo:lock:"

// unlockScript deletes the key only while it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker guards demo operations across API replicas and admin CLI runs.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	logger core.Logger
}

var _ demo.Locker = (*Locker)(nil) // interface compliance check

func NewClient(conf core.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

func New(client *redis.Client, ttl time.Duration, logger core.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Locker{client: client, ttl: ttl, logger: logger}
}

func (l *Locker) Lock(ctx context.Context, tenantID string) (func(), error) {
	key := keyPrefix + tenantID
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, "taking demo lock")
	}
	if !ok {
		return nil, demo.ErrBusy
	}

	return func() {
		if err := unlockScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn("releasing demo lock failed", err, map[string]interface{}{"tenant": tenantID})
		}
	}, nil
}
