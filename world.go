package ecs

import "unsafe"

// defaultInitialCapacity is the entity slot table's pre-sized capacity
// when WorldOptions.InitialCapacity is left at zero.
const defaultInitialCapacity = 1024

// WorldOptions configures a World at construction time.
type WorldOptions struct {
	// ChunkCapacity overrides DefaultChunkCapacity for every archetype this
	// World creates. Zero means use the default.
	ChunkCapacity int
	// InitialCapacity pre-sizes the entity slot table to avoid repeated
	// reallocation while the World fills up. Zero means use
	// defaultInitialCapacity.
	InitialCapacity int
}

// worldOperation is a deferred structural change, captured as a closure so
// the Enqueue* family can replay arbitrary generic calls without a
// separate operation type per call shape.
type worldOperation func(*World) error

// World owns one Schema, one EntityIndex, and the set of archetypes that
// currently exist for it. All structural-change operations assume a
// single writer (see the concurrency model this core documents); the
// lock/unlock pair below only guards against re-entrant structural
// changes attempted from within an in-flight query pass over the same
// World, mirroring how a caller embedding a query loop would serialize
// writes against it.
type World struct {
	schema          *Schema
	index           *EntityIndex
	chunkCapacity   int
	archetypes      map[uint64][]*Archetype
	archetypesByID  []*Archetype
	nextArchetypeID archetypeID
	lockDepth       int
	queue           []worldOperation
}

// NewWorld constructs a World over schema with the given options. The
// empty Definition's archetype is created eagerly so CreateEntity(NewDefinition())
// never pays archetype-creation cost on the first call.
func NewWorld(schema *Schema, opts WorldOptions) *World {
	capacity := opts.ChunkCapacity
	if capacity <= 0 {
		capacity = DefaultChunkCapacity
	}
	initialCapacity := opts.InitialCapacity
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	w := &World{
		schema:          schema,
		index:           NewEntityIndexWithCapacity(initialCapacity),
		chunkCapacity:   capacity,
		archetypes:      make(map[uint64][]*Archetype),
		nextArchetypeID: 1,
	}
	w.getOrCreateArchetype(NewDefinition())
	return w
}

// Schema returns the World's Schema.
func (w *World) Schema() *Schema { return w.schema }

// Archetypes returns every archetype the World has created, in creation
// order, for diagnostics and serialization.
func (w *World) Archetypes() []*Archetype { return w.archetypesByID }

func (w *World) getOrCreateArchetype(def Definition) *Archetype {
	h := def.hash()
	for _, a := range w.archetypes[h] {
		if a.Definition().Equals(def) {
			return a
		}
	}
	a := newArchetype(w.nextArchetypeID, def, w.schema, w.chunkCapacity)
	w.nextArchetypeID++
	w.archetypes[h] = append(w.archetypes[h], a)
	w.archetypesByID = append(w.archetypesByID, a)
	return a
}

// Locked reports whether the World is currently inside a Lock/Unlock
// span; Enqueue* calls made while locked are deferred instead of applied.
func (w *World) Locked() bool { return w.lockDepth > 0 }

// Lock marks the start of a read-only pass (e.g. query iteration) during
// which structural changes must not be applied in place. Calls nest.
func (w *World) Lock() { w.lockDepth++ }

// Unlock ends one Lock span. Once the depth returns to zero, every
// operation queued by an Enqueue* call made while locked is replayed in
// submission order.
func (w *World) Unlock() {
	if w.lockDepth == 0 {
		return
	}
	w.lockDepth--
	if w.lockDepth > 0 {
		return
	}
	ops := w.queue
	w.queue = nil
	for _, op := range ops {
		if err := op(w); err != nil {
			panic(wrapCoreBug(err))
		}
	}
}

func (w *World) enqueue(op worldOperation) { w.queue = append(w.queue, op) }

// resolve validates e and returns its slot, or EntityNotFoundError.
func (w *World) resolve(e Entity) (*slot, error) { return w.index.resolve(e) }

// CreateEntity allocates a new entity in the archetype for def.
func (w *World) CreateEntity(def Definition) Entity {
	e := w.index.alloc()
	a := w.getOrCreateArchetype(def)
	chunkIndex, row := a.Insert(e.Slot)
	s := &w.index.slots[e.Slot]
	s.archetype, s.chunkIndex, s.row = a, chunkIndex, row
	return e
}

// Destroy detaches e from any parent/children, frees its array handles
// and row storage, and returns its slot to the free list with a bumped
// generation. Children are orphaned (unlinked, left as roots) rather than
// recursively destroyed.
func (w *World) Destroy(e Entity) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	if s.onDestroy != nil {
		s.onDestroy(e)
	}
	for _, child := range w.index.children(e.Slot) {
		w.index.unlinkChild(child)
	}
	w.index.unlinkChild(e.Slot)

	movedSlot, moved := s.archetype.Remove(s.chunkIndex, s.row)
	if moved {
		ms := &w.index.slots[movedSlot]
		ms.chunkIndex, ms.row = s.chunkIndex, s.row
	}
	w.index.free(e.Slot)
	return nil
}

// EnqueueDestroy performs Destroy immediately if the World is unlocked,
// or defers it until the matching Unlock otherwise.
func (w *World) EnqueueDestroy(e Entity) error {
	if !w.Locked() {
		return w.Destroy(e)
	}
	w.enqueue(func(w *World) error { return w.Destroy(e) })
	return StorageLockedError{}
}

// move implements the cross-archetype move algorithm shared by every
// add/remove/enable/disable operation: insert a zero-initialized row in
// the target archetype, copy shared component bytes and transfer shared
// array handle ownership from the source row, then swap-remove the
// source row and fix up whichever entity it displaced.
func (w *World) move(e Entity, s *slot, target Definition) (dst *Archetype, dstChunk, dstRow int) {
	src := s.archetype
	dst = w.getOrCreateArchetype(target)
	dstChunk, dstRow = dst.Insert(e.Slot)
	src.CopyRowInto(s.chunkIndex, s.row, dst, dstChunk, dstRow)

	movedSlot, moved := src.Remove(s.chunkIndex, s.row)
	if moved {
		ms := &w.index.slots[movedSlot]
		ms.chunkIndex, ms.row = s.chunkIndex, s.row
	}
	s.archetype, s.chunkIndex, s.row = dst, dstChunk, dstRow
	return dst, dstChunk, dstRow
}

// AddComponent moves e into the archetype that also carries component id,
// writing value into the new cell. It fails with DuplicateComponentError
// if e already carries id; the source row is left untouched in that case.
func AddComponent[T any](w *World, e Entity, id ComponentID, value T) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if def.HasComponent(id) {
		return DuplicateComponentError{Entity: e, ID: id}
	}
	dst, dc, dr := w.move(e, s, def.WithComponent(id))
	ptr := dst.ComponentPtr(dc, dr, id)
	copyBytes(ptr, unsafe.Pointer(&value), int(unsafe.Sizeof(value)))
	return nil
}

// EnqueueAddComponent performs AddComponent immediately if unlocked, or
// defers it until Unlock.
func EnqueueAddComponent[T any](w *World, e Entity, id ComponentID, value T) error {
	if !w.Locked() {
		return AddComponent[T](w, e, id, value)
	}
	w.enqueue(func(w *World) error { return AddComponent[T](w, e, id, value) })
	return StorageLockedError{}
}

// RemoveComponent moves e into the archetype without component id. It
// fails with MissingComponentError if e does not carry id.
func RemoveComponent(w *World, e Entity, id ComponentID) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if !def.HasComponent(id) {
		return MissingComponentError{Entity: e, ID: id}
	}
	w.move(e, s, def.WithoutComponent(id))
	return nil
}

// EnqueueRemoveComponent performs RemoveComponent immediately if
// unlocked, or defers it until Unlock.
func EnqueueRemoveComponent(w *World, e Entity, id ComponentID) error {
	if !w.Locked() {
		return RemoveComponent(w, e, id)
	}
	w.enqueue(func(w *World) error { return RemoveComponent(w, e, id) })
	return StorageLockedError{}
}

// AddArray moves e into the archetype that also carries array id; the new
// attachment starts empty.
func (w *World) AddArray(e Entity, id ArrayID) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if def.HasArray(id) {
		return DuplicateArrayError{Entity: e, ID: id}
	}
	w.move(e, s, def.WithArray(id))
	return nil
}

// EnqueueAddArray performs AddArray immediately if unlocked, or defers it
// until Unlock.
func (w *World) EnqueueAddArray(e Entity, id ArrayID) error {
	if !w.Locked() {
		return w.AddArray(e, id)
	}
	w.enqueue(func(w *World) error { return w.AddArray(e, id) })
	return StorageLockedError{}
}

// RemoveArray moves e into the archetype without array id; the owned
// buffer is released in the process.
func (w *World) RemoveArray(e Entity, id ArrayID) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if !def.HasArray(id) {
		return MissingArrayError{Entity: e, ID: id}
	}
	w.move(e, s, def.WithoutArray(id))
	return nil
}

// EnqueueRemoveArray performs RemoveArray immediately if unlocked, or
// defers it until Unlock.
func (w *World) EnqueueRemoveArray(e Entity, id ArrayID) error {
	if !w.Locked() {
		return w.RemoveArray(e, id)
	}
	w.enqueue(func(w *World) error { return w.RemoveArray(e, id) })
	return StorageLockedError{}
}

// AddTag moves e into the archetype that also carries tag id.
func (w *World) AddTag(e Entity, id TagID) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if def.HasTag(id) {
		return DuplicateTagError{Entity: e, ID: id}
	}
	w.move(e, s, def.WithTag(id))
	return nil
}

// RemoveTag moves e into the archetype without tag id.
func (w *World) RemoveTag(e Entity, id TagID) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if !def.HasTag(id) {
		return MissingTagError{Entity: e, ID: id}
	}
	w.move(e, s, def.WithoutTag(id))
	return nil
}

// Enable clears the reserved disabled tag, moving e back into the
// archetype matching its pre-disable definition.
func (w *World) Enable(e Entity) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if !def.Disabled() {
		return nil
	}
	w.move(e, s, def.WithoutTag(DisabledTagID))
	return nil
}

// Disable sets the reserved disabled tag, moving e into the corresponding
// disabled archetype.
func (w *World) Disable(e Entity) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	def := s.archetype.Definition()
	if def.Disabled() {
		return nil
	}
	w.move(e, s, def.WithTag(DisabledTagID))
	return nil
}

// EnqueueEnable performs Enable immediately if unlocked, or defers it
// until Unlock.
func (w *World) EnqueueEnable(e Entity) error {
	if !w.Locked() {
		return w.Enable(e)
	}
	w.enqueue(func(w *World) error { return w.Enable(e) })
	return StorageLockedError{}
}

// EnqueueDisable performs Disable immediately if unlocked, or defers it
// until Unlock.
func (w *World) EnqueueDisable(e Entity) error {
	if !w.Locked() {
		return w.Disable(e)
	}
	w.enqueue(func(w *World) error { return w.Disable(e) })
	return StorageLockedError{}
}

// SetParent detaches e from its current parent (if any) and inserts it at
// the head of parent's child list. It fails with CycleInParentageError,
// leaving the parentage graph untouched, if parent is e itself or a
// descendant of e.
func (w *World) SetParent(e, parent Entity) error {
	if _, err := w.resolve(e); err != nil {
		return err
	}
	if _, err := w.resolve(parent); err != nil {
		return err
	}
	if e == parent || w.index.isAncestor(e.Slot, parent.Slot) {
		return CycleInParentageError{Child: e, Parent: parent}
	}
	w.index.unlinkChild(e.Slot)
	w.index.linkChild(parent.Slot, e.Slot)
	return nil
}

// EnqueueSetParent performs SetParent immediately if unlocked, or defers
// it until Unlock.
func (w *World) EnqueueSetParent(e, parent Entity) error {
	if !w.Locked() {
		return w.SetParent(e, parent)
	}
	w.enqueue(func(w *World) error { return w.SetParent(e, parent) })
	return StorageLockedError{}
}

// Parent returns e's current parent, or NullEntity if e is a root.
func (w *World) Parent(e Entity) (Entity, error) {
	s, err := w.resolve(e)
	if err != nil {
		return NullEntity, err
	}
	if s.parent == noSlot {
		return NullEntity, nil
	}
	return Entity{Slot: s.parent, Generation: w.index.slots[s.parent].generation}, nil
}

// Children returns e's direct children in head-insertion order (most
// recently parented first).
func (w *World) Children(e Entity) ([]Entity, error) {
	if _, err := w.resolve(e); err != nil {
		return nil, err
	}
	ids := w.index.children(e.Slot)
	out := make([]Entity, len(ids))
	for i, id := range ids {
		out[i] = Entity{Slot: id, Generation: w.index.slots[id].generation}
	}
	return out, nil
}

// GetComponent returns a pointer to e's component id, typed as T. The
// caller must pass the same T the id was registered with.
func GetComponent[T any](w *World, e Entity, id ComponentID) (*T, error) {
	s, err := w.resolve(e)
	if err != nil {
		return nil, err
	}
	if !s.archetype.Definition().HasComponent(id) {
		return nil, MissingComponentError{Entity: e, ID: id}
	}
	ptr := s.archetype.ComponentPtr(s.chunkIndex, s.row, id)
	return (*T)(ptr), nil
}

// SetComponent overwrites e's component id with value.
func SetComponent[T any](w *World, e Entity, id ComponentID, value T) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	if !s.archetype.Definition().HasComponent(id) {
		return MissingComponentError{Entity: e, ID: id}
	}
	ptr := s.archetype.ComponentPtr(s.chunkIndex, s.row, id)
	copyBytes(ptr, unsafe.Pointer(&value), int(unsafe.Sizeof(value)))
	return nil
}

// SetDestroyCallback registers cb to be invoked with e's handle when e is
// destroyed, just before its row storage is released. Registering a new
// callback replaces any previously registered one; passing nil clears it.
func (w *World) SetDestroyCallback(e Entity, cb EntityDestroyCallback) error {
	s, err := w.resolve(e)
	if err != nil {
		return err
	}
	s.onDestroy = cb
	return nil
}

// ArrayHandleFor returns a pointer to e's ArrayHandle for array id, for
// in-place Append/Truncate.
func (w *World) ArrayHandleFor(e Entity, id ArrayID) (*ArrayHandle, error) {
	s, err := w.resolve(e)
	if err != nil {
		return nil, err
	}
	if !s.archetype.Definition().HasArray(id) {
		return nil, MissingArrayError{Entity: e, ID: id}
	}
	return s.archetype.ArrayHandleAt(s.chunkIndex, s.row, id), nil
}
