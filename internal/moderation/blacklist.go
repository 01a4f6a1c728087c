package moderation

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type blacklistStore interface {
	InsertBlacklistEntry(ctx context.Context, entry string) error
	GetBlacklist(ctx context.Context) ([]string, error)
}

// Blacklist is the set of known-bad identifiers (crypto addresses and
// URLs). The in-memory set answers lookups; every insert writes through
// to the store. Check-then-insert is atomic under the mutex.
type Blacklist struct {
	store   blacklistStore
	mu      sync.RWMutex
	entries map[string]struct{}
	logger  *log.Entry
}

var (
	schemePattern = regexp.MustCompile(`(?i)^https?://`)
	addrPattern   = regexp.MustCompile(`\b(?:0x[a-fA-F0-9]{40}|[13][a-km-zA-HJ-NP-Z1-9]{25,34}|bc1[a-z0-9]{25,59})\b`)
	urlPattern    = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s<>"]+|\b[a-z0-9][a-z0-9-]*(?:\.[a-z0-9-]+)+(?:/[^\s<>"]*)?`)
)

func NewBlacklist(store blacklistStore) *Blacklist {
	return &Blacklist{
		store:   store,
		entries: map[string]struct{}{},
		logger:  log.WithField("component", "blacklist"),
	}
}

// Start loads the persisted set into memory.
func (b *Blacklist) Start(ctx context.Context) error {
	persisted, err := b.store.GetBlacklist(ctx)
	if err != nil {
		return errors.Wrap(err, "load blacklist")
	}
	b.mu.Lock()
	for _, entry := range persisted {
		b.entries[Normalize(entry)] = struct{}{}
	}
	b.mu.Unlock()
	b.logger.WithField("entries", len(persisted)).Debug("loaded blacklist")
	return nil
}

func (b *Blacklist) Stop(ctx context.Context) error {
	_ = ctx
	return nil
}

type seedFile struct {
	Entries []string `yaml:"entries"`
}

// LoadSeed merges a YAML seed list into the set, skipping entries that
// are already known.
func (b *Blacklist) LoadSeed(ctx context.Context, data []byte) error {
	seed := seedFile{}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "unmarshal blacklist seed")
	}
	added := 0
	for _, entry := range seed.Entries {
		ok, err := b.Add(ctx, entry)
		if err != nil {
			return err
		}
		if ok {
			added++
		}
	}
	b.logger.WithField("added", added).Debug("seeded blacklist")
	return nil
}

// Add normalizes and inserts an identifier. Returns false when the
// normalized entry is already present.
func (b *Blacklist) Add(ctx context.Context, raw string) (bool, error) {
	normalized := Normalize(raw)
	if normalized == "" {
		return false, errors.New("empty blacklist entry")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.entries[normalized]; exists {
		return false, nil
	}
	if err := b.store.InsertBlacklistEntry(ctx, normalized); err != nil {
		return false, errors.Wrap(err, "persist blacklist entry")
	}
	b.entries[normalized] = struct{}{}
	return true, nil
}

func (b *Blacklist) Contains(raw string) bool {
	normalized := Normalize(raw)
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[normalized]
	return ok
}

// Scan reports whether the text contains any blacklisted identifier.
// Token extraction uses the same normalization as Add, so the two
// paths cannot drift apart.
func (b *Blacklist) Scan(text string) bool {
	for _, token := range addrPattern.FindAllString(text, -1) {
		if b.Contains(token) {
			return true
		}
	}
	for _, token := range urlPattern.FindAllString(text, -1) {
		if b.Contains(token) {
			return true
		}
	}
	return false
}

func (b *Blacklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Normalize canonicalizes an identifier: crypto addresses are kept
// verbatim, URLs lose their scheme, "www." prefix and trailing
// slashes and are lowercased.
func Normalize(raw string) string {
	token := strings.TrimSpace(raw)
	if addrPattern.FindString(token) == token {
		return token
	}
	token = strings.ToLower(token)
	token = schemePattern.ReplaceAllString(token, "")
	token = strings.TrimPrefix(token, "www.")
	return strings.TrimRight(token, "/")
}
