// Package guard enforces the store's access rules in front of any docstore.Store.
//
// Rules are evaluated against the role persisted in users/{uid}, never against the
// role the dashboard derives for display. Contexts marked with internal.ContextAsSystem
// bypass every rule.
package guard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
)

type access int

const (
	accessRead access = iota
	accessWrite
)

var (
	errSignedOut   = errors.New("no signed-in user")
	errAdminOnly   = errors.New("write requires the admin role")
	errOwnerOnly   = errors.New("only the owner may access these notifications")
	errUnknownRoot = errors.New("no rule allows access to this path")
)

// adminWritable lists the top level collections only admins may write.
var adminWritable = map[string]bool{
	"invoices": true,
	"shops":    true,
	"users":    true,
}

type Store struct {
	inner  docstore.Store
	logger *slog.Logger
}

func New(inner docstore.Store, logger *slog.Logger) *Store {
	return &Store{inner: inner, logger: logger}
}

func (s *Store) Get(ctx context.Context, path string, dst any) (bool, error) {
	if err := s.authorize(ctx, "get", path, accessRead); err != nil {
		return false, err
	}
	return s.inner.Get(ctx, path, dst)
}

func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := s.authorize(ctx, "exists", path, accessRead); err != nil {
		return false, err
	}
	return s.inner.Exists(ctx, path)
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	if err := s.authorize(ctx, "set", path, accessWrite); err != nil {
		return err
	}
	return s.inner.Set(ctx, path, value)
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := s.authorize(ctx, "update", path, accessWrite); err != nil {
		return err
	}
	return s.inner.Update(ctx, path, fields)
}

func (s *Store) Push(ctx context.Context, parent string, value any) (string, error) {
	if err := s.authorize(ctx, "push", parent, accessWrite); err != nil {
		return "", err
	}
	return s.inner.Push(ctx, parent, value)
}

func (s *Store) Remove(ctx context.Context, path string) error {
	if err := s.authorize(ctx, "remove", path, accessWrite); err != nil {
		return err
	}
	return s.inner.Remove(ctx, path)
}

func (s *Store) Children(ctx context.Context, parent string) (map[string]json.RawMessage, error) {
	if err := s.authorize(ctx, "children", parent, accessRead); err != nil {
		return nil, err
	}
	return s.inner.Children(ctx, parent)
}

func (s *Store) Watch(ctx context.Context, prefix string) (<-chan docstore.Change, error) {
	if err := s.authorize(ctx, "watch", prefix, accessRead); err != nil {
		return nil, err
	}
	return s.inner.Watch(ctx, prefix)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *Store) Close() error {
	return s.inner.Close()
}

func (s *Store) authorize(ctx context.Context, op, path string, mode access) error {
	if internal.IsSystemContext(ctx) {
		return nil
	}

	err := s.check(ctx, path, mode)
	if err == nil {
		return nil
	}
	if docstore.CodeOf(err) != "" {
		return err
	}

	s.logger.Warn("store access denied",
		"op", op,
		"path", path,
		"user_id", internal.UserIDFromContext(ctx),
		"reason", err.Error())
	return docstore.NewError(docstore.CodePermissionDenied, op, path, err)
}

func (s *Store) check(ctx context.Context, path string, mode access) error {
	uid := internal.UserIDFromContext(ctx)
	if uid == "" {
		return errSignedOut
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	root := segments[0]

	switch {
	case root == "notifications":
		if len(segments) < 2 || segments[1] != uid {
			return errOwnerOnly
		}
		return nil
	case adminWritable[root]:
		if mode == accessRead {
			return nil
		}
		admin, err := s.isStoredAdmin(ctx, uid)
		if err != nil {
			return err
		}
		if !admin {
			return errAdminOnly
		}
		return nil
	default:
		return errUnknownRoot
	}
}

func (s *Store) isStoredAdmin(ctx context.Context, uid string) (bool, error) {
	var profile struct {
		Role string `json:"role"`
	}
	found, err := s.inner.Get(ctx, docstore.Join("users", uid), &profile)
	if err != nil {
		return false, err
	}
	return found && strings.EqualFold(profile.Role, "admin"), nil
}
