package rulesource

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/common/logger"
	"field-validation/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	formKeyPrefix  = "formrules:form:"
	fieldKeyPrefix = "formrules:field:"
)

// Cached is a cache-aside decorator that keeps form definitions in redis.
// Cache failures are logged and never fail a lookup.
type Cached struct {
	next   Source
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(next Source, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "rule-cache"}),
	}
}

func (c *Cached) LoadForm(ctx context.Context, formID string) (*models.FormDefinition, error) {
	key := formKeyPrefix + formID

	raw, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var form models.FormDefinition
		jerr := json.Unmarshal([]byte(raw), &form)
		if jerr == nil {
			return &form, nil
		}
		c.logger.WithError(jerr).Warn("discarding undecodable cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		c.logger.WithError(err).Warn("rule cache read failed", map[string]interface{}{"key": key})
	}

	form, err := c.next.LoadForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(form)
	if err != nil {
		return form, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("rule cache write failed", map[string]interface{}{"key": key})
	}
	return form, nil
}

func (c *Cached) FormForField(ctx context.Context, fieldID string) (string, error) {
	key := fieldKeyPrefix + fieldID
	if val, err := c.redis.Get(ctx, key).Result(); err == nil {
		return val, nil
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WithError(err).Warn("rule cache read failed", map[string]interface{}{"key": key})
	}

	formID, err := c.next.FormForField(ctx, fieldID)
	if err != nil {
		return "", err
	}
	if err := c.redis.Set(ctx, key, formID, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("rule cache write failed", map[string]interface{}{"key": key})
	}
	return formID, nil
}

// Invalidate drops the cached definition of formID.
func (c *Cached) Invalidate(ctx context.Context, formID string) error {
	if err := c.redis.Del(ctx, formKeyPrefix+formID).Err(); err != nil {
		return apperrors.NewRuleCacheFailedError("invalidate", err)
	}
	return nil
}

func (c *Cached) Ping(ctx context.Context) error {
	return c.next.Ping(ctx)
}
