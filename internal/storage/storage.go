// Package storage persists the settings blob (active profile, custom
// profiles, per-app fields) to a non-volatile backing store under a fixed
// namespace/key. Writes are debounced in memory: a burst of Save calls
// commits once, 5s after the last change, so repeated profile edits don't
// wear out flash.
package storage

const (
	magic          = 0x4A505331 // "JPS1"
	maxCustomProfiles = 4

	debounceMs = 5000
)

// Backend is the non-volatile key/value store collaborator; a real build
// wires this to NVS/flash, tests use an in-memory fake.
type Backend interface {
	Read(namespace, key string) ([]byte, bool)
	Write(namespace, key string, blob []byte) error
}

const namespace = "joypad"
const key = "settings"

// ProfileSlot is one custom profile entry in the blob.
type ProfileSlot struct {
	Name string
	Data []byte // opaque, encoded elsewhere
}

// Blob is the fixed-shape settings record. Encode/Decode are the
// marshal/unmarshal boundary to Backend's opaque byte storage.
type Blob struct {
	Magic          uint32
	Sequence       uint32
	ActiveProfile  int
	CustomProfiles []ProfileSlot // len <= maxCustomProfiles
	AppFields      map[string]string
}

func newDefaultBlob() Blob {
	return Blob{Magic: magic, Sequence: 0, ActiveProfile: 0, AppFields: make(map[string]string)}
}

// Clock abstracts the monotonic millisecond clock the debounce timer reads;
// production wires this to the scheduler's tick time.
type Clock func() uint64

// Store owns the in-memory pending copy and debounce timer.
type Store struct {
	backend Backend
	clock   Clock
	encode  func(Blob) []byte
	decode  func([]byte) (Blob, bool)

	current     Blob
	pending     *Blob
	lastChangeMs uint64
}

// New returns a Store. encode/decode are injected so the pipeline never
// assumes a specific wire format for the opaque blob.
func New(backend Backend, clock Clock, encode func(Blob) []byte, decode func([]byte) (Blob, bool)) *Store {
	return &Store{backend: backend, clock: clock, encode: encode, decode: decode, current: newDefaultBlob()}
}

// Load reads the blob from the backend. Returns false if the store is
// empty or the magic doesn't match, in which case the caller should
// proceed with in-memory defaults; the next Save writes a fresh valid blob.
func (s *Store) Load() (Blob, bool) {
	raw, ok := s.backend.Read(namespace, key)
	if !ok {
		s.current = newDefaultBlob()
		return s.current, false
	}
	b, ok := s.decode(raw)
	if !ok || b.Magic != magic {
		s.current = newDefaultBlob()
		return s.current, false
	}
	s.current = b
	return b, true
}

// Save stages copy for a debounced commit: if no further Save arrives
// within debounceMs, Task commits it.
func (s *Store) Save(copy Blob) {
	s.pending = &copy
	s.lastChangeMs = s.clock()
}

// SaveNow commits copy synchronously, bumping the sequence. Used for
// explicit saves and BT-disconnect save points.
func (s *Store) SaveNow(copy Blob) error {
	copy.Magic = magic
	copy.Sequence = s.current.Sequence + 1
	if err := s.backend.Write(namespace, key, s.encode(copy)); err != nil {
		return err
	}
	s.current = copy
	s.pending = nil
	return nil
}

// HasPendingWrite reports whether a debounced Save is still waiting to commit.
func (s *Store) HasPendingWrite() bool {
	return s.pending != nil
}

// FlushPending commits any pending debounced write immediately, ignoring
// the debounce timer. Used on an orderly shutdown so in-flight edits
// aren't lost waiting for the 5s window; a BT-disconnect should call
// SaveNow directly instead, per the forced-commit-on-disconnect lifecycle
// rule.
func (s *Store) FlushPending() {
	if s.pending == nil {
		return
	}
	pending := *s.pending
	_ = s.SaveNow(pending)
}

// Current returns the last-committed blob without touching the backend.
func (s *Store) Current() Blob {
	return s.current
}

// Task commits the pending copy once debounceMs has elapsed since the last
// Save call with no further changes.
func (s *Store) Task(nowMs uint64) {
	if s.pending == nil {
		return
	}
	if nowMs-s.lastChangeMs < debounceMs {
		return
	}
	pending := *s.pending
	_ = s.SaveNow(pending)
}
