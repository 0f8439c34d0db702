package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/joaquin771/rentalia/internal/apperror"
)

// RedisStore implements DocumentStore over Redis: one hash per collection
// (field = document id, value = JSON envelope) plus a pub/sub channel per
// collection that fans out change notifications. Every subscriber re-reads
// the full result set on each notification, so all clients converge on the
// same snapshot regardless of who wrote.
//
// Writes are not transactional across read-merge-write; concurrent editors
// of the same document resolve last-write-wins.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

type envelope struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Fields    map[string]any `json:"fields"`
}

func docKey(collection string) string     { return "docs:" + collection }
func docChannel(collection string) string { return "docs.changed:" + collection }

func (s *RedisStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	// Server-assigned creation time: the Redis clock, not the client's,
	// so ordering stays consistent across clients.
	now, err := s.rdb.Time(ctx).Result()
	if err != nil {
		return "", &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}

	env := envelope{ID: uuid.NewString(), CreatedAt: now.UTC(), Fields: fields}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}

	if err := s.rdb.HSet(ctx, docKey(collection), env.ID, raw).Err(); err != nil {
		return "", &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}
	s.notify(ctx, collection)
	return env.ID, nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	raw, err := s.rdb.HGet(ctx, docKey(collection), id).Result()
	if err == redis.Nil {
		return &apperror.WriteError{Kind: apperror.WriteNotFound, Cause: err}
	}
	if err != nil {
		return &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}

	// Field-level merge: absent keys keep their stored value, so immutable
	// metadata like createdBy survives a full form rewrite.
	for k, v := range fields {
		env.Fields[k] = v
	}

	updated, err := json.Marshal(env)
	if err != nil {
		return &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}
	if err := s.rdb.HSet(ctx, docKey(collection), id, updated).Err(); err != nil {
		return &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}
	s.notify(ctx, collection)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	n, err := s.rdb.HDel(ctx, docKey(collection), id).Result()
	if err != nil {
		return &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}
	if n == 0 {
		return &apperror.WriteError{Kind: apperror.WriteNotFound}
	}
	s.notify(ctx, collection)
	return nil
}

func (s *RedisStore) List(ctx context.Context, q Query) ([]Document, error) {
	entries, err := s.rdb.HGetAll(ctx, docKey(q.Collection)).Result()
	if err != nil {
		return nil, &apperror.WriteError{Kind: apperror.WriteNetwork, Cause: err}
	}

	docs := make([]Document, 0, len(entries))
	for _, raw := range entries {
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			log.Error().Err(err).Str("collection", q.Collection).Msg("documento corrupto, se omite")
			continue
		}
		doc := Document{ID: env.ID, CreatedAt: env.CreatedAt, Fields: env.Fields}
		if q.Matches(doc) {
			docs = append(docs, doc)
		}
	}
	sortDocs(docs, q)
	return docs, nil
}

func (s *RedisStore) Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (CancelFunc, error) {
	pubsub := s.rdb.Subscribe(ctx, docChannel(q.Collection))
	// Receive confirms the SUBSCRIBE reached the server; failing here is the
	// one-time establishment error, no retry.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, &apperror.SubscriptionError{Cause: err}
	}

	docs, err := s.List(ctx, q)
	if err != nil {
		_ = pubsub.Close()
		return nil, &apperror.SubscriptionError{Cause: err}
	}

	sub := newSubscription(fn)
	sub.deliver(docs)

	ch := pubsub.Channel()
	go func() {
		for range ch {
			docs, err := s.List(context.Background(), q)
			if err != nil {
				log.Error().Err(err).Str("collection", q.Collection).Msg("no se pudo refrescar la suscripcion")
				continue
			}
			sub.deliver(docs)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sub.close()
			_ = pubsub.Close()
		})
	}
	return cancel, nil
}

func (s *RedisStore) notify(ctx context.Context, collection string) {
	if err := s.rdb.Publish(ctx, docChannel(collection), "changed").Err(); err != nil {
		log.Error().Err(err).Str("collection", collection).Msg("no se pudo publicar el cambio")
	}
}
