package promptpack

import (
	"errors"
	"testing"

	"RigorScore/internal/domain"
)

func TestCatalogResolve(t *testing.T) {
	t.Parallel()

	c := NewBuiltinCatalog()
	pack, err := c.Resolve("post-mortem@v1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if pack.UseCase != domain.UseCasePostMortem || len(pack.Criteria()) == 0 {
		t.Fatalf("unexpected pack: %+v", pack)
	}

	if _, err := c.Resolve("post-mortem@v9"); !errors.Is(err, domain.ErrPromptPackNotFound) {
		t.Fatalf("expected ErrPromptPackNotFound, got %v", err)
	}
	if _, err := c.Resolve("unknown"); !errors.Is(err, domain.ErrPromptPackNotFound) {
		t.Fatalf("expected ErrPromptPackNotFound for bare unknown, got %v", err)
	}
}

func TestCatalogBareUseCaseResolvesLatest(t *testing.T) {
	t.Parallel()

	c := NewBuiltinCatalog()
	v2 := domain.NewPromptPack(domain.UseCasePostMortem, "v2", "",
		domain.Criterion{Name: "timeline of events", Category: domain.CategoryCompleteness})
	if err := c.Register(v2); err != nil {
		t.Fatalf("register v2: %v", err)
	}

	pack, err := c.Resolve("post-mortem")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if pack.Version != "v2" {
		t.Fatalf("expected latest v2, got %s", pack.Version)
	}

	old, err := c.Resolve("post-mortem@v1")
	if err != nil || len(old.Criteria()) != 6 {
		t.Fatalf("v1 must remain resolvable and unchanged: %v", err)
	}
}

func TestCatalogRejectsReRegistration(t *testing.T) {
	t.Parallel()

	c := NewBuiltinCatalog()
	dup := domain.NewPromptPack(domain.UseCaseRiskAssessment, "v1", "")
	if err := c.Register(dup); err == nil {
		t.Fatalf("locked pack must not be replaced")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]domain.PromptPack{
		"unknown use case": domain.NewPromptPack("brainstorm", "v1", ""),
		"empty version":    domain.NewPromptPack(domain.UseCasePostMortem, "", ""),
		"duplicate": domain.NewPromptPack(domain.UseCasePostMortem, "v3", "",
			domain.Criterion{Name: "a", Category: domain.CategoryQuality},
			domain.Criterion{Name: "a", Category: domain.CategoryQuality}),
		"bad category": domain.NewPromptPack(domain.UseCasePostMortem, "v3", "",
			domain.Criterion{Name: "a", Category: "style"}),
	}
	for name, pack := range cases {
		if err := Validate(pack); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestListIsSorted(t *testing.T) {
	t.Parallel()

	packs := NewBuiltinCatalog().List()
	if len(packs) != 4 {
		t.Fatalf("expected 4 builtin packs, got %d", len(packs))
	}
	for i := 1; i < len(packs); i++ {
		if packs[i-1].ID() > packs[i].ID() {
			t.Fatalf("list not sorted: %s before %s", packs[i-1].ID(), packs[i].ID())
		}
	}
}
