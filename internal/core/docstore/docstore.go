// Package docstore defines the realtime document store the dashboard persists into.
//
// Documents are JSON objects addressed by slash separated paths such as
// "invoices/INV-0001" or "notifications/{uid}/{key}". Backends keep an index of the
// direct children of every path so collections can be listed, and publish a Change
// for every write so callers can follow the store in realtime.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ErrorCode string

const (
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeUnavailable      ErrorCode = "UNAVAILABLE"
	CodeInternal         ErrorCode = "INTERNAL"
)

// Error is returned by every Store operation that fails.
type Error struct {
	Code ErrorCode
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Code, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code ErrorCode, op, path string, err error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// CodeOf extracts the store error code from err, or "" when err is not a store error.
func CodeOf(err error) ErrorCode {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Code
	}
	return ""
}

func IsPermissionDenied(err error) bool {
	return CodeOf(err) == CodePermissionDenied
}

type ChangeKind string

const (
	ChangeSet    ChangeKind = "set"
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
)

// Change describes a single write observed on the store.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Path string     `json:"path"`
	At   time.Time  `json:"at"`
}

// Store is the document store contract shared by all backends.
type Store interface {
	// Get decodes the document at path into dst and reports whether it exists.
	Get(ctx context.Context, path string, dst any) (bool, error)
	Exists(ctx context.Context, path string) (bool, error)
	// Set replaces the document at path.
	Set(ctx context.Context, path string, value any) error
	// Update merges fields into the document at path, creating it when missing.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Push stores value under a generated, time ordered key below parent and returns the key.
	Push(ctx context.Context, parent string, value any) (string, error)
	// Remove deletes the document at path and everything below it.
	Remove(ctx context.Context, path string) error
	// Children returns the raw documents directly below parent keyed by their last segment.
	Children(ctx context.Context, parent string) (map[string]json.RawMessage, error)
	// Watch streams changes at or below prefix until ctx is cancelled.
	Watch(ctx context.Context, prefix string) (<-chan Change, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewKey returns a push key. Keys sort in creation order.
func NewKey() string {
	id, err := uuid.NewV7()
	if err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return strings.ReplaceAll(id.String(), "-", "")
}

const forbiddenKeyChars = ".#$[]"

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Clean validates path and strips surrounding slashes.
func Clean(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", errors.New("empty path")
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return "", fmt.Errorf("empty segment in %q", path)
		}
		if strings.ContainsAny(segment, forbiddenKeyChars) {
			return "", fmt.Errorf("segment %q contains one of %q", segment, forbiddenKeyChars)
		}
	}
	return path, nil
}

// ValidKey reports whether key can be used as a single path segment.
func ValidKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, "/"+forbiddenKeyChars)
}

// Parent returns the parent path and last segment of a cleaned path.
// The parent of a top level path is "".
func Parent(path string) (parent, key string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}

// Ancestors returns every (parent, child) pair from path up to the root.
func Ancestors(path string) [][2]string {
	var pairs [][2]string
	for current := path; current != ""; {
		parent, key := Parent(current)
		pairs = append(pairs, [2]string{parent, key})
		current = parent
	}
	return pairs
}

// Covers reports whether path is prefix itself or lies below it.
func Covers(prefix, path string) bool {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Merge applies fields onto the JSON object raw. A nil field value deletes the key.
func Merge(raw []byte, fields map[string]any) ([]byte, error) {
	doc := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode existing document: %w", err)
		}
	}
	for key, value := range fields {
		if value == nil {
			delete(doc, key)
			continue
		}
		doc[key] = value
	}
	return json.Marshal(doc)
}
