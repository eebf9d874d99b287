package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

func WrapLruCacheToGenerator(g IGenerator, size int, ttl time.Duration) IGenerator {
	if g == nil || size <= 0 || ttl <= 0 {
		return g
	}
	return &lruGenerator{
		next:  g,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

type lruGenerator struct {
	next  IGenerator
	cache *expirable.LRU[string, string]
}

func (l *lruGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)
	if cached, ok := l.cache.Get(key); ok {
		logutil.GetLogger(ctx).Debug("oracle cache hit", zap.Int("prompt_size", len(prompt)))
		return cached, nil
	}
	res, err := l.next.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if res != "" {
		l.cache.Add(key, res)
	}
	return res, nil
}

// Forget drops the cached response for prompt.
func (l *lruGenerator) Forget(prompt string) {
	l.cache.Remove(cacheKey(prompt))
}

func cacheKey(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return "review:" + hex.EncodeToString(hash[:])
}
