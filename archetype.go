package ecs

import "unsafe"

// archetypeID identifies an Archetype within one World. Ids are assigned
// in creation order starting at 1; 0 is never a live archetype id.
type archetypeID uint32

// Archetype is the storage bucket for every entity sharing one Definition.
// Component data lives in a list of fixed-capacity Chunks (struct-of-arrays
// per chunk); array attachments live in parallel flat columns indexed by
// the same (chunk index, row) coordinate as components, via the global
// row number chunkIndex*chunkCapacity+row.
//
// Invariants maintained by every method below:
//   - every chunk before the one holding the last row is full, and every
//     chunk after it is empty (chunks emptied by Remove are kept and reused);
//   - for every array id in definition.Arrays, len(arrayColumns[id]) == entityCount;
//   - entityCount == sum of chunk.RowCount() across chunks.
type Archetype struct {
	id             archetypeID
	definition     Definition
	schema         *Schema
	chunkCapacity  int
	chunks         []*Chunk
	componentIDs   []ComponentID          // ascending, defines column order
	componentSizes []int32                // parallel to componentIDs
	columnOf       [BitMaskCapacity]int16 // ComponentID -> column index, -1 if absent
	arrayIDs       []ArrayID              // ascending
	arrayColumns   map[ArrayID][]ArrayHandle
	entityCount    int
}

func newArchetype(id archetypeID, def Definition, schema *Schema, chunkCapacity int) *Archetype {
	a := &Archetype{
		id:            id,
		definition:    def,
		schema:        schema,
		chunkCapacity: chunkCapacity,
		arrayColumns:  make(map[ArrayID][]ArrayHandle),
	}
	for i := range a.columnOf {
		a.columnOf[i] = -1
	}
	def.Components.Iter(func(id int) bool {
		cid := ComponentID(id)
		a.columnOf[cid] = int16(len(a.componentIDs))
		a.componentIDs = append(a.componentIDs, cid)
		a.componentSizes = append(a.componentSizes, schema.ComponentSizeOf(cid))
		return true
	})
	def.Arrays.Iter(func(id int) bool {
		aid := ArrayID(id)
		a.arrayIDs = append(a.arrayIDs, aid)
		a.arrayColumns[aid] = nil
		return true
	})
	return a
}

// ID returns the archetype's stable id within its World.
func (a *Archetype) ID() uint32 { return uint32(a.id) }

// Definition returns the archetype's definition.
func (a *Archetype) Definition() Definition { return a.definition }

// EntityCount returns the number of entities currently stored.
func (a *Archetype) EntityCount() int { return a.entityCount }

// Chunks returns the archetype's chunk list for read-only iteration. The
// slice and its Chunks must not be mutated by the caller.
func (a *Archetype) Chunks() []*Chunk { return a.chunks }

// columnIndex returns the column index for component id, or -1 if the
// archetype's definition does not include it.
func (a *Archetype) columnIndex(id ComponentID) int { return int(a.columnOf[id]) }

func (a *Archetype) globalRow(chunkIndex, row int) int {
	return chunkIndex*a.chunkCapacity + row
}

// Insert appends a new, zero-initialized row for entitySlot right after
// the archetype's current last row, allocating a fresh chunk only if every
// existing chunk is full, and extends every array column with a fresh
// zero-length handle. It returns the row's coordinates.
func (a *Archetype) Insert(entitySlot uint32) (chunkIndex, row int) {
	chunkIndex = a.entityCount / a.chunkCapacity
	if chunkIndex == len(a.chunks) {
		a.chunks = append(a.chunks, newChunk(a.chunkCapacity, a.componentSizes))
	}
	row, err := a.chunks[chunkIndex].PushRow(entitySlot)
	if err != nil {
		// Unreachable: the chunk above was just ensured to have room.
		panic(wrapCoreBug(err))
	}
	for _, id := range a.arrayIDs {
		a.arrayColumns[id] = append(a.arrayColumns[id], newArrayHandle(a.schema.ArraySizeOf(id)))
	}
	a.entityCount++
	return chunkIndex, row
}

// Remove deletes the row at (chunkIndex, row) by swapping the archetype's
// true last row into its place — even when that last row lives in a
// different chunk — so that every chunk but the last stays full. It
// returns the entity slot id that was moved into the vacated row, and
// false if the removed row already was the last row (nothing moved).
func (a *Archetype) Remove(chunkIndex, row int) (movedSlot uint32, moved bool) {
	lastGlobal := a.entityCount - 1
	lastChunkIndex := lastGlobal / a.chunkCapacity
	lastChunk := a.chunks[lastChunkIndex]
	lastRow := lastGlobal % a.chunkCapacity

	if chunkIndex == lastChunkIndex && row == lastRow {
		lastChunk.PopLastRow()
	} else {
		target := a.chunks[chunkIndex]
		target.CopyRow(row, lastChunk, lastRow)
		movedSlot = target.EntitySlotAt(row)
		moved = true
		lastChunk.PopLastRow()
	}

	srcGlobal := a.globalRow(lastChunkIndex, lastRow)
	dstGlobal := a.globalRow(chunkIndex, row)
	for _, id := range a.arrayIDs {
		col := a.arrayColumns[id]
		if srcGlobal != dstGlobal {
			col[dstGlobal] = col[srcGlobal]
		}
		col[len(col)-1] = ArrayHandle{}
		a.arrayColumns[id] = col[:len(col)-1]
	}
	a.entityCount--
	return movedSlot, moved
}

// ComponentPtr returns a mutable pointer to component id's cell at
// (chunkIndex, row). The caller must ensure id is present in a's
// definition; this is never checked against user input directly, only
// against definitions the structural-change engine itself computed.
func (a *Archetype) ComponentPtr(chunkIndex, row int, id ComponentID) unsafe.Pointer {
	return a.chunks[chunkIndex].ComponentPtr(a.columnIndex(id), row)
}

// ArrayHandleAt returns a pointer to the ArrayHandle stored for array id at
// the given chunk/row coordinate, for in-place mutation (Append/Truncate).
func (a *Archetype) ArrayHandleAt(chunkIndex, row int, id ArrayID) *ArrayHandle {
	global := a.globalRow(chunkIndex, row)
	return &a.arrayColumns[id][global]
}

// CopyRowInto copies component bytes and transfers array handle ownership
// for every id shared between a and dest, from (srcChunk, srcRow) in a to
// (dstChunk, dstRow) in dest — which must already have been allocated by a
// prior dest.Insert. Ids in dest's definition that a does not carry are
// left zero-initialized (as Insert leaves them); ids in a's definition
// that dest does not carry are dropped without any destructor, matching
// the plain-bytes component model.
func (a *Archetype) CopyRowInto(srcChunk, srcRow int, dest *Archetype, dstChunk, dstRow int) {
	shared := a.definition.Components.Intersect(dest.definition.Components)
	shared.Iter(func(id int) bool {
		cid := ComponentID(id)
		srcCol := a.columnIndex(cid)
		dstCol := dest.columnIndex(cid)
		size := int(a.componentSizes[srcCol])
		srcPtr := a.chunks[srcChunk].ComponentPtr(srcCol, srcRow)
		dstPtr := dest.chunks[dstChunk].ComponentPtr(dstCol, dstRow)
		copyBytes(dstPtr, srcPtr, size)
		return true
	})

	srcGlobal := a.globalRow(srcChunk, srcRow)
	dstGlobal := dest.globalRow(dstChunk, dstRow)
	sharedArrays := a.definition.Arrays.Intersect(dest.definition.Arrays)
	sharedArrays.Iter(func(id int) bool {
		aid := ArrayID(id)
		dest.arrayColumns[aid][dstGlobal] = a.arrayColumns[aid][srcGlobal]
		a.arrayColumns[aid][srcGlobal] = ArrayHandle{}
		return true
	})
}

// ChunkView is a read-only view over one archetype chunk, handed out by
// query iteration. It exposes typed column access through ChunkColumn.
type ChunkView struct {
	archetype *Archetype
	chunk     *Chunk
}

// Len returns the number of live rows in the view.
func (v ChunkView) Len() int { return v.chunk.RowCount() }

// SlotAt returns the entity slot id stored at row.
func (v ChunkView) SlotAt(row int) uint32 { return v.chunk.EntitySlotAt(row) }

// Archetype returns the archetype the view belongs to.
func (v ChunkView) Archetype() *Archetype { return v.archetype }

// IterChunks yields a ChunkView per chunk holding at least one row, for
// use by Query iteration and any other bulk reader.
func (a *Archetype) IterChunks(yield func(ChunkView) bool) {
	for _, c := range a.chunks {
		if c.RowCount() == 0 {
			continue
		}
		if !yield(ChunkView{archetype: a, chunk: c}) {
			return
		}
	}
}

// ChunkColumn returns the typed, live-length slice for component id within
// view. T's size must match the component's registered size; callers get
// this for free by registering T itself through RegisterComponent[T].
func ChunkColumn[T any](view ChunkView, id ComponentID) []T {
	col := view.archetype.columnIndex(id)
	bytes := view.chunk.ComponentColumn(col)
	return bytesToSlice[T](bytes)
}
