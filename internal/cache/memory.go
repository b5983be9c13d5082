package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory - Cache внутри процесса для разработки и тестов.
// expirable.LRU имеет один TTL на весь кэш, поэтому на каждый TTL заводится
// своя корзина; ключ живет ровно в одной из них.
type Memory struct {
	mu      sync.Mutex
	size    int
	buckets map[time.Duration]*expirable.LRU[string, []byte]
}

var _ Cache = (*Memory)(nil)

// NewMemory создает кэш; size ограничивает число ключей в корзине (0 - без ограничения).
func NewMemory(size int) *Memory {
	return &Memory{
		size:    size,
		buckets: make(map[time.Duration]*expirable.LRU[string, []byte]),
	}
}

func (m *Memory) Set(ctx context.Context, key string, ttl time.Duration, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for d, b := range m.buckets {
		if d != ttl {
			b.Remove(key)
		}
	}
	bucket, ok := m.buckets[ttl]
	if !ok {
		bucket = expirable.NewLRU[string, []byte](m.size, nil, ttl)
		m.buckets[ttl] = bucket
	}
	bucket.Add(key, data)
	return nil
}

func (m *Memory) Get(ctx context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	var (
		data  []byte
		found bool
	)
	for _, b := range m.buckets {
		if data, found = b.Get(key); found {
			break
		}
	}
	m.mu.Unlock()

	if !found {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.buckets {
		b.Remove(key)
	}
	return nil
}
