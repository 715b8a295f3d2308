// Package identity issues and persists the pseudonymous client tag that
// partitions the user's collection on the backend.
package identity

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"sync"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// Pattern matches every identity this package can issue.
var Pattern = regexp.MustCompile(`^(GGO|SAO|ALO|SLF|UNIT)-\d{4}$`)

// Provider returns the install's identity, creating it on first use.
type Provider struct {
	Store Store

	// Rand is the random source for new identities. Nil uses the global source.
	Rand *rand.Rand

	mu     sync.Mutex
	cached string
}

// NewProvider returns a Provider backed by store.
func NewProvider(store Store) *Provider {
	return &Provider{Store: store}
}

// GetOrCreate returns the persisted identity, generating and saving a new one
// when none exists. Every later call returns the same value.
func (p *Provider) GetOrCreate() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	id, err := p.Store.Load()
	switch {
	case err == nil:
		slog.Debug(config.MsgIdentityLoaded,
			config.LogKeyComponent, config.CompIdentity,
			config.LogKeyIdentity, id)
		p.cached = id
		return id, nil
	case !errors.Is(err, ErrNotFound):
		return "", err
	}

	id = Generate(p.Rand)
	if err := p.Store.Save(id); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrIdentityStore, err)
	}

	slog.Info(config.MsgIdentityCreated,
		config.LogKeyComponent, config.CompIdentity,
		config.LogKeyIdentity, id)
	p.cached = id
	return id, nil
}

// Generate draws a uniform prefix and a uniform number in [1000, 9999].
func Generate(r *rand.Rand) string {
	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}
	prefix := config.IdentityPrefixes[intN(len(config.IdentityPrefixes))]
	number := config.IdentityNumberMin + intN(config.IdentityNumberMax-config.IdentityNumberMin+1)
	return fmt.Sprintf(config.FormatIdentity, prefix, number)
}
