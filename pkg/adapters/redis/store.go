// Package redis stores notes in Redis: one hash per note plus a set indexing identities.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lomber1/notes-web/pkg/core"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "notes:"

const (
	fieldTitle    = "title"
	fieldBody     = "body"
	fieldColor    = "color"
	fieldArchived = "archived"
	fieldCreated  = "created"
	fieldUpdated  = "updated"
)

// Store implements core.Store on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ core.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithNow overrides the timestamp source.
func WithNow(fn func() time.Time) Option {
	return func(s *Store) {
		s.now = fn
	}
}

// NewStore connects to redisURL (redis://host:port/db) and checks the connection.
func NewStore(redisURL string, opts ...Option) (*Store, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(ropts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client, opts...), nil
}

// NewStoreWithClient creates a store from an existing client.
func NewStoreWithClient(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) noteKey(id core.NoteID) string {
	return s.prefix + "note:" + id.String()
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) CreateNote(ctx context.Context, content core.Content, color core.Color) (core.NoteID, error) {
	if !color.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}

	id := core.NoteID(uuid.NewString())
	now := s.stamp()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.noteKey(id),
			fieldTitle, content.Title,
			fieldBody, content.Body,
			fieldColor, string(color),
			fieldArchived, "0",
			fieldCreated, now,
			fieldUpdated, now,
		)
		pipe.SAdd(ctx, s.indexKey(), id.String())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create note: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateNote(ctx context.Context, id core.NoteID, content core.Content, color core.Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return s.set(ctx, id,
		fieldTitle, content.Title,
		fieldBody, content.Body,
		fieldColor, string(color),
	)
}

func (s *Store) SetColor(ctx context.Context, id core.NoteID, color core.Color) error {
	if !color.Valid() {
		return fmt.Errorf("%w: %q", core.ErrInvalidColor, color)
	}
	return s.set(ctx, id, fieldColor, string(color))
}

func (s *Store) ArchiveNote(ctx context.Context, id core.NoteID) error {
	return s.set(ctx, id, fieldArchived, "1")
}

func (s *Store) UnarchiveNote(ctx context.Context, id core.NoteID) error {
	return s.set(ctx, id, fieldArchived, "0")
}

func (s *Store) DeleteNote(ctx context.Context, id core.NoteID) error {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.noteKey(id))
		pipe.SRem(ctx, s.indexKey(), id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, id core.NoteID) (core.Note, error) {
	fields, err := s.client.HGetAll(ctx, s.noteKey(id)).Result()
	if err != nil {
		return core.Note{}, fmt.Errorf("get note: %w", err)
	}
	if len(fields) == 0 {
		return core.Note{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return decode(id, fields)
}

func (s *Store) ListNotes(ctx context.Context) ([]core.Note, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	sort.Strings(members)

	cmds := make([]*redis.MapStringStringCmd, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, m := range members {
			cmds[i] = pipe.HGetAll(ctx, s.noteKey(core.NoteID(m)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes := make([]core.Note, 0, len(members))
	for i, m := range members {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			// Indexed but gone: a delete raced the listing.
			continue
		}
		n, err := decode(core.NoteID(m), fields)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// set writes fields on an existing note. The existence check and the write run under
// WATCH so a concurrent delete cannot resurrect the hash.
func (s *Store) set(ctx context.Context, id core.NoteID, values ...any) error {
	key := s.noteKey(id)
	values = append(values, fieldUpdated, s.stamp())

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values...)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func decode(id core.NoteID, fields map[string]string) (core.Note, error) {
	n := core.Note{
		ID: id,
		Content: core.Content{
			Title: fields[fieldTitle],
			Body:  fields[fieldBody],
		},
		Color: core.Color(fields[fieldColor]),
	}

	if v, ok := fields[fieldArchived]; ok {
		archived, err := strconv.ParseBool(v)
		if err != nil {
			return core.Note{}, fmt.Errorf("note %s: archived flag %q: %w", id, v, err)
		}
		n.Archived = archived
	}
	for field, dst := range map[string]*time.Time{fieldCreated: &n.CreatedAt, fieldUpdated: &n.UpdatedAt} {
		v, ok := fields[field]
		if !ok {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return core.Note{}, fmt.Errorf("note %s: %s timestamp %q: %w", id, field, v, err)
		}
		*dst = t
	}
	return n, nil
}
