/*
Package ecs implements an archetype-based Entity-Component-System storage
core: entities, defined by the exact set of component, array and tag types
they carry, are grouped into archetypes that hold their component data in
contiguous, chunked, struct-of-arrays rows.

Core Concepts:

  - Entity: a (slot, generation) handle into the World's entity index.
  - Schema: a process-owned registry that assigns dense ids to component,
    array and tag types and records their sizes and row offsets.
  - Definition: the triple of BitMasks (components, arrays, tags) that
    selects an entity's archetype.
  - Archetype: the storage bucket for every entity sharing one Definition,
    organized as a list of fixed-capacity Chunks plus parallel array
    columns.
  - Query: a mask predicate over archetypes, yielding chunk views for bulk
    iteration.

Basic usage:

	schema := ecs.NewSchema()
	position, _ := ecs.RegisterComponent[Position](schema)
	velocity, _ := ecs.RegisterComponent[Velocity](schema)

	w := ecs.NewWorld(schema, ecs.WorldOptions{})

	e := w.CreateEntity(ecs.NewDefinition().WithComponent(position).WithComponent(velocity))
	ecs.SetComponent(w, e, position, Position{X: 1})

	q := ecs.NewQuery(ecs.NewDefinition().WithComponent(position).WithComponent(velocity), ecs.NewDefinition())
	q.IterChunks(w, func(view ecs.ChunkView) bool {
		pos := ecs.ChunkColumn[Position](view, position)
		for i := range pos {
			pos[i].X += 1
		}
		return true
	})

Structural changes (create, destroy, add/remove component or array, set
parent, enable/disable) are serialized by World ownership: a single writer
mutates the World, while read-only queries may run concurrently across
archetype chunks between writer passes. Serialization, message dispatch,
query-builder convenience helpers beyond the mask predicate, and debug
formatting are treated as external collaborators and are out of scope for
the core; only the on-disk binary shape is specified here (serialize.go).
*/
package ecs
