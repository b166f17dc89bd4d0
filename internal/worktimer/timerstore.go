package worktimer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ActiveTimerKey is the durable slot holding the active timer.
const ActiveTimerKey = "active_timer"

// KV is the durable client-local key-value store. Only TimerStore uses it.
type KV interface {
	GetState(key string) (value string, ok bool, err error)
	SetState(key, value string) error
	DeleteState(key string) error
}

// TimerStore reads and writes the active timer record and nothing else.
type TimerStore struct {
	kv     KV
	logger *slog.Logger
}

// NewTimerStore wraps kv. A nil logger discards.
func NewTimerStore(kv KV, logger *slog.Logger) *TimerStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TimerStore{kv: kv, logger: logger}
}

// Load returns the persisted timer. A malformed record is treated as
// absent and the slot is cleared; Load never fails.
func (s *TimerStore) Load() (ActiveTimer, bool) {
	raw, ok, err := s.kv.GetState(ActiveTimerKey)
	if err != nil {
		s.logger.Warn("read active timer", "error", err)
		return ActiveTimer{}, false
	}
	if !ok {
		return ActiveTimer{}, false
	}

	timer, err := decodeTimer(raw)
	if err != nil {
		s.logger.Warn("discarding active timer record", "error", err)
		if err := s.kv.DeleteState(ActiveTimerKey); err != nil {
			s.logger.Warn("clear corrupt active timer", "error", err)
		}
		return ActiveTimer{}, false
	}
	return timer, true
}

// Save persists t, overwriting any previous value.
func (s *TimerStore) Save(t ActiveTimer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode active timer: %w", err)
	}
	if err := s.kv.SetState(ActiveTimerKey, string(data)); err != nil {
		return fmt.Errorf("save active timer: %w", err)
	}
	return nil
}

// Clear removes the persisted timer.
func (s *TimerStore) Clear() error {
	if err := s.kv.DeleteState(ActiveTimerKey); err != nil {
		return fmt.Errorf("clear active timer: %w", err)
	}
	return nil
}

func decodeTimer(raw string) (ActiveTimer, error) {
	var t ActiveTimer
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return ActiveTimer{}, &RecoveryCorruptionError{Raw: raw, Err: err}
	}
	if t.WorkItemID == "" {
		return ActiveTimer{}, &RecoveryCorruptionError{Raw: raw, Err: errors.New("missing workItemId")}
	}
	if t.StartedAt.IsZero() {
		return ActiveTimer{}, &RecoveryCorruptionError{Raw: raw, Err: errors.New("missing startedAt")}
	}
	return t, nil
}

// MemoryKV is an in-process KV for tests and ephemeral sessions.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) GetState(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) SetState(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) DeleteState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
