// Package distlock is a Redis lock for work that must run on exactly one
// instance, such as the reminder scheduler tick. Acquisition is SET NX with
// a TTL so a crashed holder cannot wedge the lock; release checks ownership
// with a Lua script so an expired holder cannot free a successor's lock.
package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is one named distributed lock. Each instance carries its own
// ownership token; share a Lock between goroutines and the token no longer
// identifies a single holder.
type Lock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// New creates a lock on the given name.
func New(client *redis.Client, name string, ttl time.Duration) *Lock {
	b := make([]byte, 16)
	rand.Read(b)
	return &Lock{
		client: client,
		key:    "lock:" + name,
		token:  hex.EncodeToString(b),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock, reporting whether it succeeded.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring %s: %w", l.key, err)
	}
	return ok, nil
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Release frees the lock if this instance still owns it.
func (l *Lock) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result()
	if err != nil {
		return fmt.Errorf("releasing %s: %w", l.key, err)
	}
	return nil
}
