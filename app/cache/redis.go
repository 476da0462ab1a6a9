package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkarpov/news-comb/app/news"
)

// Cache wraps a Redis client for aggregate response caching. The cache is
// optional: when no Redis address is configured the handlers simply skip
// it.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
	}, nil
}

// GenerateNewsKey builds a deterministic cache key from the canonicalized
// query. Identical queries hit the same entry regardless of parameter
// arrival order.
func (c *Cache) GenerateNewsKey(params news.SearchParams, enabledSources []string, page int) string {
	var b strings.Builder

	b.WriteString(params.Keyword)
	b.WriteString("|")
	b.WriteString(params.Category)
	b.WriteString("|")
	b.WriteString(strings.Join(params.Categories, ","))
	b.WriteString("|")
	if params.DateRange != nil {
		b.WriteString(params.DateRange.From.Format("2006-01-02"))
		if params.DateRange.To != nil {
			b.WriteString("..")
			b.WriteString(params.DateRange.To.Format("2006-01-02"))
		}
	}
	b.WriteString("|")
	b.WriteString(strings.Join(enabledSources, ","))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(page))

	hash := sha256.Sum256([]byte(b.String()))
	return "news:" + hex.EncodeToString(hash[:])
}

func (c *Cache) GetArticles(ctx context.Context, key string) ([]news.Article, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var articles []news.Article
	if err := json.Unmarshal([]byte(val), &articles); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached articles: %w", err)
	}

	return articles, true, nil
}

func (c *Cache) SetArticles(ctx context.Context, key string, articles []news.Article) error {
	data, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("failed to encode articles: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}
