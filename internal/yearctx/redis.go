package yearctx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"brightsteps/portal/internal/academicyear"
)

// yearChangedChannel carries selection-change notifications; subscribers
// re-run their scoped queries when a message for their identity arrives.
const yearChangedChannel = "year_changed"

// RedisStore keeps one selected-year key per identity. Keys have no TTL:
// the selection outlives the session and is revalidated against the window
// on every load.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, userID string) (string, error) {
	value, err := s.client.Get(ctx, selectedYearKey(userID)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Save(ctx context.Context, userID, year string) error {
	return s.client.Set(ctx, selectedYearKey(userID), year, 0).Err()
}

func selectedYearKey(userID string) string {
	return fmt.Sprintf("selected_year:%s", userID)
}

// RedisNotifier publishes selection changes over pub/sub.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) YearChanged(ctx context.Context, userID string, year academicyear.Year) error {
	payload := fmt.Sprintf("%s %s", userID, year)
	return n.client.Publish(ctx, yearChangedChannel, payload).Err()
}
