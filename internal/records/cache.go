package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
)

const (
	projectKeyPrefix = "mc:project:"  // cached project: mc:project:{id}
	contactKeyPrefix = "mc:contact:"  // cached contact: mc:contact:{id}
	projectListKey   = "mc:projects"  // cached project list for the dashboard index
	defaultCacheTTL  = 5 * time.Minute
)

// CachedStore is a read-through Redis cache in front of another Store.
// Reads are served from Redis when possible; every write goes to the inner
// store first and then refreshes or drops the affected keys.
//
// Cache failures are soft: a Redis error degrades to the inner store and the
// stale key is left to its TTL.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
}

// NewCachedStore wraps inner with a Redis cache.
func NewCachedStore(inner Store, client *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{inner: inner, client: client, ttl: ttl}
}

func (s *CachedStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	var p domain.Project
	if s.getCached(ctx, projectKeyPrefix+id, &p) {
		return &p, nil
	}
	got, err := s.inner.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, projectKeyPrefix+id, got)
	return got, nil
}

func (s *CachedStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	var list []domain.Project
	if s.getCached(ctx, projectListKey, &list) {
		return list, nil
	}
	list, err := s.inner.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, projectListKey, list)
	return list, nil
}

func (s *CachedStore) CreateProject(ctx context.Context, fields domain.ProjectPatch) (*domain.Project, error) {
	p, err := s.inner.CreateProject(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, projectKeyPrefix+p.ID, p)
	s.drop(ctx, projectListKey)
	return p, nil
}

func (s *CachedStore) UpdateProject(ctx context.Context, id string, fields domain.ProjectPatch) (*domain.Project, error) {
	p, err := s.inner.UpdateProject(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, projectKeyPrefix+id, p)
	s.drop(ctx, projectListKey)
	return p, nil
}

func (s *CachedStore) DeleteProject(ctx context.Context, id string) error {
	if err := s.inner.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.drop(ctx, projectKeyPrefix+id, projectListKey)
	return nil
}

func (s *CachedStore) GetContactsByIDs(ctx context.Context, ids []string) ([]domain.Contact, error) {
	if len(ids) == 0 {
		return []domain.Contact{}, nil
	}

	out := make([]domain.Contact, 0, len(ids))
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		var c domain.Contact
		if s.getCached(ctx, contactKeyPrefix+id, &c) {
			out = append(out, c)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.inner.GetContactsByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i := range fetched {
		s.setCached(ctx, contactKeyPrefix+fetched[i].ID, &fetched[i])
	}
	return append(out, fetched...), nil
}

func (s *CachedStore) CreateContact(ctx context.Context, fields domain.ContactPatch) (*domain.Contact, error) {
	c, err := s.inner.CreateContact(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, contactKeyPrefix+c.ID, c)
	return c, nil
}

func (s *CachedStore) UpdateContact(ctx context.Context, id string, fields domain.ContactPatch) (*domain.Contact, error) {
	c, err := s.inner.UpdateContact(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.setCached(ctx, contactKeyPrefix+id, c)
	return c, nil
}

func (s *CachedStore) DeleteContact(ctx context.Context, id string) error {
	if err := s.inner.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.drop(ctx, contactKeyPrefix+id)
	return nil
}

func (s *CachedStore) LinkContactToProject(ctx context.Context, projectID, contactID string) error {
	if err := s.inner.LinkContactToProject(ctx, projectID, contactID); err != nil {
		return err
	}
	s.drop(ctx, projectKeyPrefix+projectID, projectListKey)
	return nil
}

func (s *CachedStore) UnlinkContactFromProject(ctx context.Context, projectID, contactID string) error {
	if err := s.inner.UnlinkContactFromProject(ctx, projectID, contactID); err != nil {
		return err
	}
	s.drop(ctx, projectKeyPrefix+projectID, projectListKey)
	return nil
}

// WarmProjects refreshes the cached project list from the inner store.
// Run on a schedule so the first dashboard load of the day is warm.
func (s *CachedStore) WarmProjects(ctx context.Context) error {
	list, err := s.inner.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("warm project list: %w", err)
	}
	s.setCached(ctx, projectListKey, list)
	for i := range list {
		s.setCached(ctx, projectKeyPrefix+list[i].ID, &list[i])
	}
	return nil
}

func (s *CachedStore) getCached(ctx context.Context, key string, out interface{}) bool {
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		recordCacheMiss()
		return false
	}
	if err != nil {
		recordCacheMiss()
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		recordCacheMiss()
		return false
	}
	recordCacheHit()
	return true
}

func (s *CachedStore) setCached(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		NewLogger(ctx).LogWarnf("cache_set", "key=%s error=%v", key, err)
	}
}

func (s *CachedStore) drop(ctx context.Context, keys ...string) {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		NewLogger(ctx).LogWarnf("cache_drop", "keys=%v error=%v", keys, err)
	}
}
