package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedProvider decorates an EmbeddingProvider with an in-memory TTL cache.
// Visitor queries repeat heavily ("what projects have you built?"), so a short
// cache avoids re-embedding identical text on every request.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *gocache.Cache
}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) EmbeddingProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(text, taskType)
	if cached, found := p.cache.Get(key); found {
		return cached.(*EmbeddingResponse), nil
	}

	resp, err := p.inner.Generate(text, taskType)
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, resp, gocache.DefaultExpiration)
	return resp, nil
}

func cacheKey(text string, taskType string) string {
	sum := sha256.Sum256([]byte(taskType + "|" + text))
	return hex.EncodeToString(sum[:])
}
