package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GetJSON decodes the cached value at key into T. A miss returns nil, nil.
// An entry that no longer decodes is deleted and reported as a miss.
func GetJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		cacheMisses.WithLabelValues(family(key)).Inc()
		return nil, nil
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// 坏数据直接删掉，按未命中处理，调用方会回源重建
		if delErr := s.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("drop undecodable %s: %w", key, delErr)
		}
		cacheMisses.WithLabelValues(family(key)).Inc()
		return nil, nil
	}
	cacheHits.WithLabelValues(family(key)).Inc()
	return &out, nil
}

func SetJSON[T any](ctx context.Context, s Store, key string, v *T, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b), ttl)
}

// DeletePrefix enumerates live keys and deletes those starting with prefix.
// It returns the number of deleted keys.
func DeletePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	var matched []string
	err := s.Scan(ctx, func(key string) error {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	// 分批删除，避免单条 DEL 过大
	const batch = 256
	for i := 0; i < len(matched); i += batch {
		end := min(i+batch, len(matched))
		if err := s.Delete(ctx, matched[i:end]...); err != nil {
			return i, err
		}
	}
	cacheEvictions.WithLabelValues(family(prefix)).Add(float64(len(matched)))
	return len(matched), nil
}

// family maps "article:list:{...}" to "article:list" and "article:42" to "article".
func family(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) >= 2 && parts[1] == "list" {
		return parts[0] + ":list"
	}
	return parts[0]
}
