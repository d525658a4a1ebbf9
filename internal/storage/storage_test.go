package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type memBackend struct {
	data map[string][]byte
}

func newMemBackend() *memBackend { return &memBackend{data: make(map[string][]byte)} }

func (m *memBackend) Read(ns, key string) ([]byte, bool) {
	v, ok := m.data[ns+"/"+key]
	return v, ok
}

func (m *memBackend) Write(ns, key string, blob []byte) error {
	m.data[ns+"/"+key] = blob
	return nil
}

func jsonEncode(b Blob) []byte {
	out, _ := json.Marshal(b)
	return out
}

func jsonDecode(raw []byte) (Blob, bool) {
	var b Blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return Blob{}, false
	}
	return b, true
}

func TestLoadReturnsFalseOnMissingData(t *testing.T) {
	s := New(newMemBackend(), func() uint64 { return 0 }, jsonEncode, jsonDecode)
	_, ok := s.Load()
	require.False(t, ok)
}

func TestLoadReturnsFalseOnMagicMismatch(t *testing.T) {
	be := newMemBackend()
	be.data[namespace+"/"+key] = jsonEncode(Blob{Magic: 0xDEAD, Sequence: 1})
	s := New(be, func() uint64 { return 0 }, jsonEncode, jsonDecode)
	_, ok := s.Load()
	require.False(t, ok)
}

// TestSequenceMonotonicity verifies that across any sequence of SaveNow
// calls, loaded sequence values strictly increase.
func TestSequenceMonotonicity(t *testing.T) {
	be := newMemBackend()
	s := New(be, func() uint64 { return 0 }, jsonEncode, jsonDecode)

	var last uint32
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveNow(Blob{ActiveProfile: i}))
		loaded, ok := s.Load()
		require.True(t, ok)
		require.Greater(t, loaded.Sequence, last)
		last = loaded.Sequence
	}
}

// TestDebounceCommitsOnce verifies saves at t=0,1000,4000ms debounce to
// exactly one commit at t=9000ms (5s after the last change), with
// HasPendingWrite true until then.
func TestDebounceCommitsOnce(t *testing.T) {
	now := uint64(0)
	be := newMemBackend()
	s := New(be, func() uint64 { return now }, jsonEncode, jsonDecode)

	now = 0
	s.Save(Blob{ActiveProfile: 1})
	s.Task(now)
	require.True(t, s.HasPendingWrite())

	now = 1000
	s.Save(Blob{ActiveProfile: 2})
	s.Task(now)
	require.True(t, s.HasPendingWrite())

	now = 4000
	s.Save(Blob{ActiveProfile: 3})
	s.Task(now)
	require.True(t, s.HasPendingWrite())

	now = 8999
	s.Task(now)
	require.True(t, s.HasPendingWrite(), "still not 5s past the last change at 4000ms")

	now = 9000
	s.Task(now)
	require.False(t, s.HasPendingWrite())

	loaded, ok := s.Load()
	require.True(t, ok)
	require.Equal(t, 3, loaded.ActiveProfile)
}

// TestFlushPendingCommitsImmediately exercises the orderly-shutdown path
// used by cmd/corebridge: a pending debounced Save is committed without
// waiting for the 5s window.
func TestFlushPendingCommitsImmediately(t *testing.T) {
	now := uint64(0)
	be := newMemBackend()
	s := New(be, func() uint64 { return now }, jsonEncode, jsonDecode)

	s.Save(Blob{ActiveProfile: 5})
	require.True(t, s.HasPendingWrite())

	s.FlushPending()
	require.False(t, s.HasPendingWrite())

	loaded, ok := s.Load()
	require.True(t, ok)
	require.Equal(t, 5, loaded.ActiveProfile)
}

func TestFlushPendingNoopWhenNothingPending(t *testing.T) {
	s := New(newMemBackend(), func() uint64 { return 0 }, jsonEncode, jsonDecode)
	s.FlushPending() // must not panic or write anything
	require.False(t, s.HasPendingWrite())
}

func TestCurrentReflectsLastCommit(t *testing.T) {
	s := New(newMemBackend(), func() uint64 { return 0 }, jsonEncode, jsonDecode)
	require.NoError(t, s.SaveNow(Blob{ActiveProfile: 7}))
	require.Equal(t, 7, s.Current().ActiveProfile)
}
