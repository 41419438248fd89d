package promptpack

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"RigorScore/internal/domain"
)

// Catalog keeps a mapping from pack identifiers to locked prompt packs.
type Catalog struct {
	mu     sync.RWMutex
	packs  map[string]domain.PromptPack
	latest map[domain.UseCase]string
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		packs:  map[string]domain.PromptPack{},
		latest: map[domain.UseCase]string{},
	}
}

// Register adds a pack. An identifier can be registered only once; the last
// registered version of a use case becomes its default.
func (c *Catalog) Register(pack domain.PromptPack) error {
	if err := Validate(pack); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.packs == nil {
		c.packs = map[string]domain.PromptPack{}
		c.latest = map[domain.UseCase]string{}
	}
	id := pack.ID()
	if _, exists := c.packs[id]; exists {
		return fmt.Errorf("prompt pack %s is already registered and locked", id)
	}
	c.packs[id] = pack
	c.latest[pack.UseCase] = id
	return nil
}

// Resolve returns a pack by "<use-case>@<version>", or the default version for a bare use case.
func (c *Catalog) Resolve(id string) (domain.PromptPack, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	useCase, version := domain.ParsePackID(id)
	if version == "" {
		latest, ok := c.latest[useCase]
		if !ok {
			return domain.PromptPack{}, fmt.Errorf("resolve %q: %w", id, domain.ErrPromptPackNotFound)
		}
		return c.packs[latest], nil
	}
	if pack, ok := c.packs[domain.PackID(useCase, version)]; ok {
		return pack, nil
	}
	return domain.PromptPack{}, fmt.Errorf("resolve %q: %w", id, domain.ErrPromptPackNotFound)
}

// List returns every registered pack ordered by identifier.
func (c *Catalog) List() []domain.PromptPack {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.PromptPack, 0, len(c.packs))
	for _, p := range c.packs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Validate checks the structural rules of a pack.
func Validate(pack domain.PromptPack) error {
	known := false
	for _, uc := range domain.UseCases() {
		if uc == pack.UseCase {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown use case %q", pack.UseCase)
	}
	if strings.TrimSpace(pack.Version) == "" || strings.Contains(pack.Version, "@") {
		return fmt.Errorf("invalid version %q for use case %s", pack.Version, pack.UseCase)
	}

	seen := map[string]struct{}{}
	for _, c := range pack.Criteria() {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("pack %s: criterion without name", pack.ID())
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("pack %s: duplicate criterion %q", pack.ID(), name)
		}
		seen[name] = struct{}{}
		switch c.Category {
		case domain.CategoryCompleteness, domain.CategoryQuality, domain.CategoryConsistency:
		default:
			return fmt.Errorf("pack %s: criterion %q has unknown category %q", pack.ID(), name, c.Category)
		}
	}
	return nil
}
