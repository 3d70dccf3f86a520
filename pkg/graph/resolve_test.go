package graph

import (
	"reflect"
	"testing"

	"github.com/lychee-graph/lychee/pkg/common"
)

func validResult(index int, entities []common.RawEntity, rels []common.RawRelationship) common.ExtractionResult {
	return common.ExtractionResult{
		ChunkID:       "doc-" + string(rune('0'+index)),
		ChunkIndex:    index,
		Entities:      entities,
		Relationships: rels,
		Valid:         true,
	}
}

func TestResolve_MergesSpellingVariants(t *testing.T) {
	results := []common.ExtractionResult{
		validResult(0, []common.RawEntity{
			{Name: "OpenAI", Type: "Organization", Description: "AI lab"},
		}, nil),
		validResult(1, []common.RawEntity{
			{Name: "OpenAI Inc.", Type: "organization", Description: "AI research laboratory in SF"},
		}, nil),
	}

	entities, _, dangling := Resolve(results)
	if dangling != 0 {
		t.Fatalf("unexpected dangling count %d", dangling)
	}
	if len(entities) != 1 {
		t.Fatalf("expected 1 canonical entity, got %d", len(entities))
	}

	e := entities[0]
	if e.Name != "OpenAI" {
		t.Fatalf("first-seen spelling must win, got %q", e.Name)
	}
	if !reflect.DeepEqual(e.Aliases, []string{"OpenAI", "OpenAI Inc."}) {
		t.Fatalf("unexpected aliases %v", e.Aliases)
	}
	if e.Description != "AI research laboratory in SF" {
		t.Fatalf("longest description must win, got %q", e.Description)
	}
}

func TestResolve_DescriptionTieKeepsFirstSeen(t *testing.T) {
	results := []common.ExtractionResult{
		validResult(0, []common.RawEntity{{Name: "Go", Type: "Concept", Description: "aaaa"}}, nil),
		validResult(1, []common.RawEntity{{Name: "Go", Type: "Concept", Description: "bbbb"}}, nil),
	}

	entities, _, _ := Resolve(results)
	if entities[0].Description != "aaaa" {
		t.Fatalf("equal-length description must keep first seen, got %q", entities[0].Description)
	}
}

func TestResolve_DistinctTypesStaySeparate(t *testing.T) {
	results := []common.ExtractionResult{
		validResult(0, []common.RawEntity{
			{Name: "Mercury", Type: "Planet"},
			{Name: "Mercury", Type: "Element"},
		}, nil),
	}

	entities, _, _ := Resolve(results)
	if len(entities) != 2 {
		t.Fatalf("same name with different types must not merge, got %d", len(entities))
	}
}

func TestResolve_GroupsRelationshipsWithSupport(t *testing.T) {
	rel := common.RawRelationship{SourceName: "Alice", TargetName: "Acme", Type: "works_for", Description: "employee"}
	results := []common.ExtractionResult{
		validResult(0, []common.RawEntity{
			{Name: "Alice", Type: "Person"},
			{Name: "Acme", Type: "Organization"},
		}, []common.RawRelationship{rel}),
		validResult(1, []common.RawEntity{
			{Name: "Alice", Type: "Person"},
			{Name: "Acme", Type: "Organization"},
		}, []common.RawRelationship{rel}),
	}

	_, rels, dangling := Resolve(results)
	if dangling != 0 {
		t.Fatalf("unexpected dangling count %d", dangling)
	}
	if len(rels) != 1 {
		t.Fatalf("expected 1 grouped relationship, got %d", len(rels))
	}
	if rels[0].SupportCount != 2 {
		t.Fatalf("expected support 2, got %d", rels[0].SupportCount)
	}
	if rels[0].Source.Name != "Alice" || rels[0].Target.Name != "Acme" {
		t.Fatalf("unexpected endpoints %+v", rels[0])
	}
}

func TestResolve_CountsDanglingRelationships(t *testing.T) {
	results := []common.ExtractionResult{
		validResult(0, []common.RawEntity{
			{Name: "Alice", Type: "Person"},
		}, []common.RawRelationship{
			{SourceName: "Alice", TargetName: "Ghost Corp", Type: "works_for"},
			{SourceName: "Nobody", TargetName: "Alice", Type: "knows"},
		}),
	}

	entities, rels, dangling := Resolve(results)
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if len(rels) != 0 {
		t.Fatalf("dangling relationships must be dropped, got %d", len(rels))
	}
	if dangling != 2 {
		t.Fatalf("expected 2 dangling, got %d", dangling)
	}
}

func TestResolve_IgnoresInvalidResults(t *testing.T) {
	results := []common.ExtractionResult{
		validResult(0, []common.RawEntity{{Name: "Alice", Type: "Person"}}, nil),
		{ChunkID: "doc-1", ChunkIndex: 1, Valid: false, Entities: []common.RawEntity{{Name: "Mallory", Type: "Person"}}},
	}

	entities, _, _ := Resolve(results)
	if len(entities) != 1 || entities[0].Name != "Alice" {
		t.Fatalf("invalid results must be ignored, got %+v", entities)
	}
}

func TestResolve_PermutationDeterministic(t *testing.T) {
	a := validResult(0, []common.RawEntity{
		{Name: "Alice", Type: "Person", Description: "short"},
		{Name: "Acme", Type: "Organization"},
	}, []common.RawRelationship{
		{SourceName: "Alice", TargetName: "Acme", Type: "works_for"},
	})
	b := validResult(1, []common.RawEntity{
		{Name: "alice", Type: "person", Description: "a longer description"},
		{Name: "Bob", Type: "Person"},
	}, []common.RawRelationship{
		{SourceName: "Bob", TargetName: "alice", Type: "knows"},
	})

	ents1, rels1, d1 := Resolve([]common.ExtractionResult{a, b})
	ents2, rels2, d2 := Resolve([]common.ExtractionResult{b, a})

	if d1 != d2 {
		t.Fatalf("dangling counts differ: %d vs %d", d1, d2)
	}
	if !reflect.DeepEqual(ents1, ents2) {
		t.Fatalf("entity resolution depends on input order:\n%+v\n%+v", ents1, ents2)
	}
	if len(rels1) != len(rels2) {
		t.Fatalf("relationship counts differ: %d vs %d", len(rels1), len(rels2))
	}
	for i := range rels1 {
		if rels1[i].ID != rels2[i].ID || rels1[i].SupportCount != rels2[i].SupportCount {
			t.Fatalf("relationship %d differs across permutations", i)
		}
	}
}
