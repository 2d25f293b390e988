package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	CategoryListCacheTTL  = 15 * time.Minute
	AttributeListCacheTTL = 15 * time.Minute
)

const cacheKeyPrefix = "catalog"

// GormStore is the Postgres-backed Store. List reads of the category and
// attribute trees are cached in Redis when a client is configured.
type GormStore struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *logrus.Entry

	// pending collects cache patterns to drop once the surrounding
	// transaction commits. Nil outside a transaction.
	pending *pendingInvalidations
}

type pendingInvalidations struct {
	mu       sync.Mutex
	patterns map[string]struct{}
}

func (p *pendingInvalidations) add(pattern string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.patterns[pattern] = struct{}{}
}

func (p *pendingInvalidations) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.patterns))
	for pattern := range p.patterns {
		out = append(out, pattern)
	}
	return out
}

// NewGormStore creates a Store on top of an open gorm connection.
// redisClient may be nil, which disables caching.
func NewGormStore(db *gorm.DB, redisClient *redis.Client, logger *logrus.Logger) *GormStore {
	return &GormStore{
		db:     db,
		redis:  redisClient,
		logger: logger.WithField("component", "repository"),
	}
}

func (s *GormStore) Categories() CategoryRepository  { return &CategoryRepositoryImpl{s} }
func (s *GormStore) Attributes() AttributeRepository { return &AttributeRepositoryImpl{s} }
func (s *GormStore) Products() ProductRepository     { return &ProductRepositoryImpl{s} }
func (s *GormStore) Variants() VariantRepository     { return &VariantRepositoryImpl{s} }
func (s *GormStore) Batches() BatchRepository        { return &BatchRepositoryImpl{s} }

// WithTransaction runs fn in a database transaction. Cache invalidations
// requested inside fn are applied after commit so a concurrent reader
// cannot re-cache pre-commit rows.
func (s *GormStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.pending != nil {
		return fn(s)
	}

	pending := &pendingInvalidations{patterns: map[string]struct{}{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, redis: s.redis, logger: s.logger, pending: pending})
	})
	if err != nil {
		return err
	}

	for _, pattern := range pending.list() {
		s.deletePattern(ctx, pattern)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// translate maps gorm errors onto repository sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func cacheKey(parts ...string) string {
	return cacheKeyPrefix + ":" + strings.Join(parts, ":")
}

func (s *GormStore) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil || s.pending != nil {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).WithField("key", key).Debug("cache read failed")
		}
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (s *GormStore) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.redis == nil || s.pending != nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("cache write failed")
	}
}

// invalidate drops every cached key matching pattern, deferring to commit inside a transaction
func (s *GormStore) invalidate(ctx context.Context, pattern string) {
	if s.redis == nil {
		return
	}
	if s.pending != nil {
		s.pending.add(pattern)
		return
	}
	s.deletePattern(ctx, pattern)
}

func (s *GormStore) deletePattern(ctx context.Context, pattern string) {
	if s.redis == nil {
		return
	}
	iter := s.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.WithError(err).WithField("pattern", pattern).Warn("cache scan failed")
		return
	}
	if len(keys) > 0 {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			s.logger.WithError(err).WithField("pattern", pattern).Warn("cache invalidation failed")
		}
	}
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ Store = (*GormStore)(nil)
