package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"companion-bot/internal/llm"
	"companion-bot/internal/storage"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ErrCorrupt means the persisted history exists but cannot be decoded.
var ErrCorrupt = errors.New("history: corrupt persisted data")

// Turn is one recorded message. Turns are never mutated after Append.
type Turn struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// record is the persisted shape, kept compatible with files written by the
// earlier bot versions.
type record struct {
	Role      Role   `json:"role"`
	Parts     []part `json:"parts"`
	Timestamp string `json:"timestamp"`
}

type part struct {
	Text string `json:"text"`
}

// Store is the single owner of the conversation log. Every operation runs
// under one mutex, and Append holds it across its read and write.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	key string
	now func() time.Time
}

func NewStore(kv storage.KV, key string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		kv:  kv,
		key: key,
		now: func() time.Time { return time.Now().In(loc) },
	}
}

func (s *Store) Load(ctx context.Context) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUnlocked(ctx)
}

func (s *Store) Append(ctx context.Context, role Role, text string) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns, err := s.loadUnlocked(ctx)
	if err != nil {
		return Turn{}, err
	}
	t := Turn{Role: role, Text: text, Timestamp: s.now()}
	turns = append(turns, t)
	if err := s.saveUnlocked(ctx, turns); err != nil {
		return Turn{}, err
	}
	return t, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *Store) loadUnlocked(ctx context.Context) ([]Turn, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if raw == "" {
		return []Turn{}, nil
	}
	var recs []record
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	turns := make([]Turn, 0, len(recs))
	for i, r := range recs {
		ts, err := time.Parse(time.RFC3339Nano, r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: turn %d timestamp: %v", ErrCorrupt, i, err)
		}
		var text string
		for _, p := range r.Parts {
			text += p.Text
		}
		turns = append(turns, Turn{Role: r.Role, Text: text, Timestamp: ts})
	}
	return turns, nil
}

func (s *Store) saveUnlocked(ctx context.Context, turns []Turn) error {
	recs := make([]record, 0, len(turns))
	for _, t := range turns {
		recs = append(recs, record{
			Role:      t.Role,
			Parts:     []part{{Text: t.Text}},
			Timestamp: t.Timestamp.Format(time.RFC3339Nano),
		})
	}
	b, err := json.MarshalIndent(recs, "", "    ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Messages converts turns into the ordered chat context for an llm.Client.
func Messages(turns []Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		role := llm.RoleUser
		if t.Role == RoleModel {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}

// Last returns the most recent turn, if any.
func Last(turns []Turn) (Turn, bool) {
	if len(turns) == 0 {
		return Turn{}, false
	}
	return turns[len(turns)-1], true
}
