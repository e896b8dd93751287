// Package gormstore implements docstore.Store on a relational "documents" table.
// It backs local development (sqlite) and deployments that already run Postgres.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/genops/internal/core/datamodel/document"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db          *gorm.DB
	broadcaster *docstore.Broadcaster
	logger      *slog.Logger
}

func New(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{
		db:          db,
		broadcaster: docstore.NewBroadcaster(64),
		logger:      logger,
	}
}

// AutoMigrate creates the documents table. Deployments use the goose migrations instead.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&document.Document{})
}

func (s *Store) Get(ctx context.Context, rawPath string, dst any) (bool, error) {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return false, docstore.NewError(docstore.CodeInvalidArgument, "get", rawPath, err)
	}

	var doc document.Document
	err = s.db.WithContext(ctx).Where("path = ?", path).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, docstore.NewError(docstore.CodeUnavailable, "get", path, err)
	}

	if dst != nil {
		if err := json.Unmarshal([]byte(doc.Body), dst); err != nil {
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

	var count int64
	if err := s.db.WithContext(ctx).Model(&document.Document{}).Where("path = ?", path).Count(&count).Error; err != nil {
		return false, docstore.NewError(docstore.CodeUnavailable, "exists", path, err)
	}
	return count > 0, nil
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

	if err := s.upsert(s.db.WithContext(ctx), path, raw); err != nil {
		return docstore.NewError(docstore.CodeUnavailable, "set", path, err)
	}

	s.broadcaster.Publish(docstore.Change{Kind: docstore.ChangeSet, Path: path, At: time.Now().UTC()})
	return nil
}

func (s *Store) Update(ctx context.Context, rawPath string, fields map[string]any) error {
	path, err := docstore.Clean(rawPath)
	if err != nil {
		return docstore.NewError(docstore.CodeInvalidArgument, "update", rawPath, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current document.Document
		err := tx.Where("path = ?", path).First(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		merged, err := docstore.Merge([]byte(current.Body), fields)
		if err != nil {
			return err
		}
		return s.upsert(tx, path, merged)
	})
	if err != nil {
		return docstore.NewError(docstore.CodeUnavailable, "update", path, err)
	}

	s.broadcaster.Publish(docstore.Change{Kind: docstore.ChangeUpdate, Path: path, At: time.Now().UTC()})
	return nil
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

	err = s.db.WithContext(ctx).
		Where("path = ? OR path LIKE ? ESCAPE '\\'", path, escapeLike(path)+"/%").
		Delete(&document.Document{}).Error
	if err != nil {
		return docstore.NewError(docstore.CodeUnavailable, "remove", path, err)
	}

	s.broadcaster.Publish(docstore.Change{Kind: docstore.ChangeRemove, Path: path, At: time.Now().UTC()})
	return nil
}

func (s *Store) Children(ctx context.Context, rawParent string) (map[string]json.RawMessage, error) {
	parent, err := docstore.Clean(rawParent)
	if err != nil {
		return nil, docstore.NewError(docstore.CodeInvalidArgument, "children", rawParent, err)
	}

	var docs []document.Document
	if err := s.db.WithContext(ctx).Where("parent = ?", parent).Order("path ASC").Find(&docs).Error; err != nil {
		return nil, docstore.NewError(docstore.CodeUnavailable, "children", parent, err)
	}

	result := make(map[string]json.RawMessage, len(docs))
	for _, doc := range docs {
		_, key := docstore.Parent(doc.Path)
		result[key] = json.RawMessage(doc.Body)
	}
	return result, nil
}

// Watch only observes writes made through this process.
func (s *Store) Watch(ctx context.Context, prefix string) (<-chan docstore.Change, error) {
	return s.broadcaster.Subscribe(ctx, strings.Trim(prefix, "/")), nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	s.broadcaster.Close()
	return nil
}

func (s *Store) upsert(tx *gorm.DB, path string, body []byte) error {
	parent, _ := docstore.Parent(path)
	doc := document.Document{
		Path:      path,
		Parent:    parent,
		Body:      string(body),
		UpdatedAt: time.Now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"parent", "body", "updated_at"}),
	}).Create(&doc).Error
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
