package ecs

import "testing"

func TestQueryMatchAndIteration(t *testing.T) {
	// Scenario 6: include {A,B} exclude {T} visits exactly the entities
	// whose archetype carries A and B and not T, across several archetypes
	// that differ by tag or by a third component.
	schema := NewSchema()
	idA, _ := RegisterComponent[testA](schema)
	idB, _ := RegisterComponent[testB](schema)
	idC, _ := RegisterComponent[posComp](schema)
	tagID, _ := RegisterTag[testTagT](schema)
	w := NewWorld(schema, WorldOptions{})

	match := w.CreateEntity(NewDefinition().WithComponent(idA).WithComponent(idB))
	matchWithExtra := w.CreateEntity(NewDefinition().WithComponent(idA).WithComponent(idB).WithComponent(idC))
	_ = w.CreateEntity(NewDefinition().WithComponent(idA).WithComponent(idB).WithTag(tagID))
	_ = w.CreateEntity(NewDefinition().WithComponent(idA))

	q := NewQuery(
		NewDefinition().WithComponent(idA).WithComponent(idB),
		NewDefinition().WithTag(tagID),
	)

	seen := map[uint32]bool{}
	q.IterChunks(w, func(view ChunkView) bool {
		for row := 0; row < view.Len(); row++ {
			seen[view.SlotAt(row)] = true
		}
		return true
	})

	if !seen[match.Slot] || !seen[matchWithExtra.Slot] {
		t.Fatal("expected both matching entities visited")
	}
	if len(seen) != 2 {
		t.Fatalf("expected exactly 2 matching entities, got %d", len(seen))
	}
	if got := q.Count(w); got != 2 {
		t.Fatalf("expected Count() == 2, got %d", got)
	}
}

func TestQueryIterChunksLocksAndUnlocksTheWorld(t *testing.T) {
	schema := NewSchema()
	idA, _ := RegisterComponent[testA](schema)
	w := NewWorld(schema, WorldOptions{})
	w.CreateEntity(NewDefinition().WithComponent(idA))

	q := NewQuery(NewDefinition().WithComponent(idA), NewDefinition())

	sawLocked := false
	q.IterChunks(w, func(view ChunkView) bool {
		sawLocked = w.Locked()
		return true
	})
	if !sawLocked {
		t.Fatal("expected the world to be locked during chunk iteration")
	}
	if w.Locked() {
		t.Fatal("expected the world unlocked once iteration finishes")
	}
}

func TestQueryIterChunksStopsEarly(t *testing.T) {
	schema := NewSchema()
	idA, _ := RegisterComponent[testA](schema)
	w := NewWorld(schema, WorldOptions{ChunkCapacity: 2})
	for i := 0; i < 5; i++ {
		w.CreateEntity(NewDefinition().WithComponent(idA))
	}

	q := NewQuery(NewDefinition().WithComponent(idA), NewDefinition())
	visited := 0
	q.IterChunks(w, func(view ChunkView) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("expected iteration to stop after the first chunk, got %d visits", visited)
	}
}

func TestQueryMatchChecksEachIDSpaceIndependently(t *testing.T) {
	schema := NewSchema()
	idA, _ := RegisterComponent[testA](schema)
	idArr, _ := RegisterArray[testA](schema)

	// A component id and an array id can share the same small integer
	// value; Match must not confuse the two id spaces.
	def := NewDefinition().WithArray(idArr)
	q := NewQuery(NewDefinition().WithComponent(idA), NewDefinition())
	if q.Match(def) {
		t.Fatal("expected a definition carrying only the array id to not match a component-id query")
	}
}
