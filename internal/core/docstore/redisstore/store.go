// Package redisstore implements docstore.Store on Redis.
//
// Each document is a JSON string at "<prefix>doc:<path>". The direct children of a
// path are tracked in the set "<prefix>idx:<path>" and every write is published on
// "<prefix>changes" so watchers in any process see it.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/redis/go-redis/v9"
)

type Options struct {
	URL            string
	Prefix         string
	PoolSize       int
	ConnectTimeout time.Duration
}

type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) (*Store, error) {
	if opts.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		redisOpts.PoolSize = opts.PoolSize
	}
	if opts.ConnectTimeout > 0 {
		redisOpts.DialTimeout = opts.ConnectTimeout
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewWithClient(client, opts.Prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Store {
	if prefix == "" {
		prefix = "genops:"
	}
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) docKey(path string) string {
	return s.prefix + "doc:" + path
}

func (s *Store) idxKey(path string) string {
	return s.prefix + "idx:" + path
}

func (s *Store) channel() string {
	return s.prefix + "changes"
}

func (s *Store) Get(ctx context.Context, rawPath string, dst any) (bool, error) {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return false, docstore.NewError(docstore.CodeInvalidArgument, "get", rawPath, err)
	}

	raw, err := s.client.Get(ctx, s.docKey(path)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, docstore.NewError(docstore.CodeUnavailable, "get", path, err)
	}

	if dst != nil {
		if err := json.Unmarshal(raw, dst); err != nil {
			return true, docstore.NewError(docstore.CodeInternal, "get", path, err)
		}
	}
	return true, nil
}

func (s *Store) Exists(ctx context.Context, rawPath string) (bool, error) {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return false, docstore.NewError(docstore.CodeInvalidArgument, "exists", rawPath, err)
	}

	n, err := s.client.Exists(ctx, s.docKey(path)).Result()
	if err != nil {
		return false, docstore.NewError(docstore.CodeUnavailable, "exists", path, err)
	}
	return n > 0, nil
}

func (s *Store) Set(ctx context.Context, rawPath string, value any) error {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return docstore.NewError(docstore.CodeInvalidArgument, "set", rawPath, err)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return docstore.NewError(docstore.CodeInvalidArgument, "set", path, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(path), raw, 0)
		s.index(ctx, pipe, path)
		return nil
	})
	if err != nil {
		return docstore.NewError(docstore.CodeUnavailable, "set", path, err)
	}

	s.publish(ctx, docstore.ChangeSet, path)
	return nil
}

func (s *Store) Update(ctx context.Context, rawPath string, fields map[string]any) error {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return docstore.NewError(docstore.CodeInvalidArgument, "update", rawPath, err)
	}

	key := s.docKey(path)
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}

		merged, err := docstore.Merge(current, fields)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, merged, 0)
			s.index(ctx, pipe, path)
			return nil
		})
		return err
	}

	const maxAttempts = 5
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if err == nil {
			s.publish(ctx, docstore.ChangeUpdate, path)
			return nil
		}
		if err != redis.TxFailedErr {
			return docstore.NewError(docstore.CodeUnavailable, "update", path, err)
		}
	}
	return docstore.NewError(docstore.CodeUnavailable, "update", path, err)
}

func (s *Store) Push(ctx context.Context, rawParent string, value any) (string, error) {
	parent, err := docstore.Clean(rawParent)
	if err != nil {
		return "", docstore.NewError(docstore.CodeInvalidArgument, "push", rawParent, err)
	}

	key := docstore.NewKey()
	if err := s.Set(ctx, docstore.Join(parent, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Remove(ctx context.Context, rawPath string) error {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return docstore.NewError(docstore.CodeInvalidArgument, "remove", rawPath, err)
	}

	keys, err := s.subtree(ctx, path)
	if err != nil {
		return docstore.NewError(docstore.CodeUnavailable, "remove", path, err)
	}

	parent, child := docstore.Parent(path)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, s.idxKey(parent), child)
		return nil
	})
	if err != nil {
		return docstore.NewError(docstore.CodeUnavailable, "remove", path, err)
	}

	s.publish(ctx, docstore.ChangeRemove, path)
	return nil
}

func (s *Store) Children(ctx context.Context, rawParent string) (map[string]json.RawMessage, error) {
	parent, err := docstore.Clean(rawParent)
	if err != nil {
		return nil, docstore.NewError(docstore.CodeInvalidArgument, "children", rawParent, err)
	}

	names, err := s.client.SMembers(ctx, s.idxKey(parent)).Result()
	if err != nil {
		return nil, docstore.NewError(docstore.CodeUnavailable, "children", parent, err)
	}

	result := make(map[string]json.RawMessage, len(names))
	if len(names) == 0 {
		return result, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = s.docKey(docstore.Join(parent, name))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, docstore.NewError(docstore.CodeUnavailable, "children", parent, err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// intermediate path without a document of its own
			continue
		}
		result[names[i]] = json.RawMessage(raw)
	}
	return result, nil
}

func (s *Store) Watch(ctx context.Context, prefix string) (<-chan docstore.Change, error) {
	pubsub := s.client.Subscribe(ctx, s.channel())
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, docstore.NewError(docstore.CodeUnavailable, "watch", prefix, err)
	}

	out := make(chan docstore.Change, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change docstore.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					s.logger.Warn("discarding malformed change message", "error", err)
					continue
				}
				if !docstore.Covers(prefix, change.Path) {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) index(ctx context.Context, pipe redis.Pipeliner, path string) {
	for _, pair := range docstore.Ancestors(path) {
		pipe.SAdd(ctx, s.idxKey(pair[0]), pair[1])
	}
}

// subtree collects the document and index keys of path and all of its descendants.
func (s *Store) subtree(ctx context.Context, path string) ([]string, error) {
	keys := []string{s.docKey(path), s.idxKey(path)}

	children, err := s.client.SMembers(ctx, s.idxKey(path)).Result()
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		nested, err := s.subtree(ctx, docstore.Join(path, child))
		if err != nil {
			return nil, err
		}
		keys = append(keys, nested...)
	}
	return keys, nil
}

func (s *Store) publish(ctx context.Context, kind docstore.ChangeKind, path string) {
	payload, err := json.Marshal(docstore.Change{Kind: kind, Path: path, At: time.Now().UTC()})
	if err != nil {
		return
	}
	if err := s.client.Publish(ctx, s.channel(), payload).Err(); err != nil {
		s.logger.Warn("failed to publish store change", "path", path, "error", err)
	}
}
