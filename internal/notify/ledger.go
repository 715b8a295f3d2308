package notify

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

const (
	dayLayout    = "20060102"
	keySeparator = "_"
)

// Key identifies one dispatched reminder.
type Key struct {
	EntryID int
	Day     string
	Kind    Kind
}

// DayKey formats the local calendar day of t.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

func (k Key) String() string {
	return strings.Join([]string{k.Day, string(k.Kind), strconv.Itoa(k.EntryID)}, keySeparator)
}

// Ledger remembers which reminders were already dispatched.
type Ledger interface {
	Seen(k Key) (bool, error)
	Mark(k Key) error
}

// MemoryLedger is a Ledger that lives as long as the process.
type MemoryLedger struct {
	mu   sync.Mutex
	keys map[Key]struct{}
}

// NewMemoryLedger returns an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{keys: make(map[Key]struct{})}
}

// Seen implements Ledger.
func (l *MemoryLedger) Seen(k Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[k]
	return ok, nil
}

// Mark implements Ledger. Keys of other days are dropped.
func (l *MemoryLedger) Mark(k Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for old := range l.keys {
		if old.Day != k.Day {
			delete(l.keys, old)
		}
	}
	l.keys[k] = struct{}{}
	return nil
}

// DiskLedger persists dispatch records so an app reload does not re-alert.
// Records are stored one file per key under a directory per day.
type DiskLedger struct {
	d *diskv.Diskv

	mu       sync.Mutex
	prunedAt string
}

// NewDiskLedger opens (or creates) a ledger rooted at basePath.
func NewDiskLedger(basePath string) *DiskLedger {
	return &DiskLedger{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      config.LedgerCacheSize,
		FilePerm:          config.FilePermUserRW,
		PathPerm:          config.DirPermUserRWX,
	})}
}

// Seen implements Ledger.
func (l *DiskLedger) Seen(k Key) (bool, error) {
	return l.d.Has(k.String()), nil
}

// Mark implements Ledger. The first mark of a day erases older days.
func (l *DiskLedger) Mark(k Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.prunedAt != k.Day {
		l.prune(k.Day)
		l.prunedAt = k.Day
	}
	if err := l.d.Write(k.String(), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		return fmt.Errorf("%s: %w", config.ErrLedgerWrite, err)
	}
	return nil
}

// Len returns the number of stored records.
func (l *DiskLedger) Len() int {
	n := 0
	for range l.d.Keys(nil) {
		n++
	}
	return n
}

func (l *DiskLedger) prune(day string) {
	var stale []string
	for key := range l.d.Keys(nil) {
		if !strings.HasPrefix(key, day+keySeparator) {
			stale = append(stale, key)
		}
	}
	for _, key := range stale {
		_ = l.d.Erase(key)
	}
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, keySeparator)
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(append(append([]string(nil), pk.Path...), pk.FileName), keySeparator)
}
