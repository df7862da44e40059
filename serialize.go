package ecs

import (
	"encoding/binary"
	"io"
)

// worldFormatVersion is the only format version this build writes and
// reads. A future incompatible layout change bumps this and readWorld
// rejects older/newer values with VersionUnsupportedError.
const worldFormatVersion uint32 = 1

var worldSignature = [6]byte{'#', 'W', 'O', 'R', 'L', 'D'}

// Serialize writes a 10-byte signature, the schema payload, and the world
// payload (entity count plus one record per archetype in ascending id
// order) to w, in the exact shape this core defines as its on-disk
// persistence contract.
func (w *World) Serialize(out io.Writer) error {
	if err := writeSignature(out); err != nil {
		return err
	}
	if err := writeSchema(out, w.schema); err != nil {
		return err
	}
	return writeWorldPayload(out, w)
}

// Deserialize replaces w's schema and every archetype/entity with the
// contents read from r. On a signature mismatch or unsupported version,
// w is left unmodified and the error is returned.
func (w *World) Deserialize(in io.Reader) error {
	if err := readSignature(in); err != nil {
		return err
	}
	schema, err := readSchema(in)
	if err != nil {
		return err
	}
	loaded, err := readWorldPayload(in, schema)
	if err != nil {
		return err
	}
	*w = *loaded
	return nil
}

func writeSignature(out io.Writer) error {
	if _, err := out.Write(worldSignature[:]); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, worldFormatVersion)
}

func readSignature(in io.Reader) error {
	var got [6]byte
	if _, err := io.ReadFull(in, got[:]); err != nil {
		return err
	}
	if got != worldSignature {
		return SignatureMismatchError{Got: got}
	}
	var version uint32
	if err := binary.Read(in, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != worldFormatVersion {
		return VersionUnsupportedError{Version: version}
	}
	return nil
}

// writeSchema writes the schema payload described in spec §6: counts, row
// size, three masks with ids [0, count) set for components, arrays and
// tags (see rangeMask), offsets, sizes, then hashes.
func writeSchema(out io.Writer, s *Schema) error {
	header := []any{
		uint8(s.components.count), uint8(s.arrays.count), uint8(s.tags.count),
		s.componentSize,
	}
	for _, v := range header {
		if err := binary.Write(out, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	registered := []BitMask{rangeMask(s.components.count), rangeMask(s.arrays.count), rangeMask(s.tags.count)}
	for _, mask := range registered {
		if err := binary.Write(out, binary.LittleEndian, mask); err != nil {
			return err
		}
	}

	if err := binary.Write(out, binary.LittleEndian, s.components.offset); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, s.components.size); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, s.arrays.size); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, s.components.hashOf); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, s.arrays.hashOf); err != nil {
		return err
	}
	return binary.Write(out, binary.LittleEndian, s.tags.hashOf)
}

// readSchema reads a schema payload written by writeSchema into a fresh
// Schema, rebuilding the id spaces' count/size/offset/hash arrays. The
// type->id maps are left empty: a deserialized schema is addressed by id.
// Registering a Go type on it does not find the restored id for that
// type; it assigns the next free id after the restored ones.
func readSchema(in io.Reader) (*Schema, error) {
	s := NewSchema()

	var componentCount, arrayCount, tagCount uint8
	if err := binary.Read(in, binary.LittleEndian, &componentCount); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &arrayCount); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &tagCount); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &s.componentSize); err != nil {
		return nil, err
	}

	var discard [3]BitMask
	for i := range discard {
		if err := binary.Read(in, binary.LittleEndian, &discard[i]); err != nil {
			return nil, err
		}
	}

	if err := binary.Read(in, binary.LittleEndian, &s.components.offset); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &s.components.size); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &s.arrays.size); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &s.components.hashOf); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &s.arrays.hashOf); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &s.tags.hashOf); err != nil {
		return nil, err
	}

	s.components.count = int(componentCount)
	s.arrays.count = int(arrayCount)
	s.tags.count = int(tagCount)
	s.state = schemaPopulated
	return s, nil
}

// writeWorldPayload writes the entity count followed by one record per
// archetype in ascending id order: the archetype's Definition, its entity
// count, then for every entity (in the order it lives in the archetype)
// its slot id, generation, parent/sibling links, raw component row bytes,
// and length-prefixed array buffers.
func writeWorldPayload(out io.Writer, w *World) error {
	totalEntities := 0
	for _, a := range w.archetypesByID {
		totalEntities += a.EntityCount()
	}
	if err := binary.Write(out, binary.LittleEndian, int32(totalEntities)); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, int32(len(w.archetypesByID))); err != nil {
		return err
	}

	for _, a := range w.archetypesByID {
		if err := writeArchetypeRecord(out, w, a); err != nil {
			return err
		}
	}
	return nil
}

func writeArchetypeRecord(out io.Writer, w *World, a *Archetype) error {
	if err := binary.Write(out, binary.LittleEndian, a.Definition()); err != nil {
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, int32(a.EntityCount())); err != nil {
		return err
	}

	for chunkIndex, c := range a.chunks {
		for row := 0; row < c.RowCount(); row++ {
			slotID := c.EntitySlotAt(row)
			s := &w.index.slots[slotID]
			if err := writeEntityRecord(out, w, a, chunkIndex, row, slotID, s, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeEntityRecord(out io.Writer, w *World, a *Archetype, chunkIndex, row int, slotID uint32, s *slot, c *Chunk) error {
	fields := []any{slotID, s.generation, s.parent, s.firstChild, s.nextSibling, s.prevSibling}
	for _, f := range fields {
		if err := binary.Write(out, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	for _, cid := range a.componentIDs {
		size := int(w.schema.ComponentSizeOf(cid))
		cell := c.ComponentPtr(a.columnIndex(cid), row)
		buf := unsafeBytes(cell, size)
		if _, err := out.Write(buf); err != nil {
			return err
		}
	}

	global := a.globalRow(chunkIndex, row)
	for _, aid := range a.arrayIDs {
		h := a.arrayColumns[aid][global]
		if err := binary.Write(out, binary.LittleEndian, int32(len(h.data))); err != nil {
			return err
		}
		if len(h.data) > 0 {
			if _, err := out.Write(h.data); err != nil {
				return err
			}
		}
	}
	return nil
}

// readWorldPayload rebuilds a World from bytes written by
// writeWorldPayload. Entities are recreated via normal Archetype.Insert
// calls against archetypes derived from each record's Definition, so the
// resulting World satisfies the same invariants a live one would.
func readWorldPayload(in io.Reader, schema *Schema) (*World, error) {
	w := NewWorld(schema, WorldOptions{})

	var totalEntities, archetypeCount int32
	if err := binary.Read(in, binary.LittleEndian, &totalEntities); err != nil {
		return nil, err
	}
	if err := binary.Read(in, binary.LittleEndian, &archetypeCount); err != nil {
		return nil, err
	}

	type pendingLink struct {
		slotID                                       uint32
		generation                                   uint32
		parent, firstChild, nextSibling, prevSibling uint32
	}
	var links []pendingLink

	for i := int32(0); i < archetypeCount; i++ {
		var def Definition
		if err := binary.Read(in, binary.LittleEndian, &def); err != nil {
			return nil, err
		}
		var entityCount int32
		if err := binary.Read(in, binary.LittleEndian, &entityCount); err != nil {
			return nil, err
		}
		arch := w.getOrCreateArchetype(def)

		for j := int32(0); j < entityCount; j++ {
			var rec pendingLink
			fields := []any{&rec.slotID, &rec.generation, &rec.parent, &rec.firstChild, &rec.nextSibling, &rec.prevSibling}
			for _, f := range fields {
				if err := binary.Read(in, binary.LittleEndian, f); err != nil {
					return nil, err
				}
			}

			for len(w.index.slots) <= int(rec.slotID) {
				w.index.slots = append(w.index.slots, slot{generation: 1, parent: noSlot, firstChild: noSlot, nextSibling: noSlot, prevSibling: noSlot})
			}
			chunkIndex, row := arch.Insert(rec.slotID)
			s := &w.index.slots[rec.slotID]
			s.archetype, s.chunkIndex, s.row, s.generation = arch, chunkIndex, row, rec.generation

			for _, cid := range arch.componentIDs {
				size := int(schema.ComponentSizeOf(cid))
				buf := make([]byte, size)
				if _, err := io.ReadFull(in, buf); err != nil {
					return nil, err
				}
				cell := arch.ComponentPtr(chunkIndex, row, cid)
				copyBytes(cell, unsafeAddr(buf), size)
			}

			for _, aid := range arch.arrayIDs {
				var length int32
				if err := binary.Read(in, binary.LittleEndian, &length); err != nil {
					return nil, err
				}
				h := arch.ArrayHandleAt(chunkIndex, row, aid)
				*h = newArrayHandle(schema.ArraySizeOf(aid))
				if length > 0 {
					buf := make([]byte, length)
					if _, err := io.ReadFull(in, buf); err != nil {
						return nil, err
					}
					h.data = buf
				}
			}

			links = append(links, rec)
		}
	}

	for _, rec := range links {
		s := &w.index.slots[rec.slotID]
		s.parent, s.firstChild, s.nextSibling, s.prevSibling = rec.parent, rec.firstChild, rec.nextSibling, rec.prevSibling
	}
	// childCount isn't persisted directly; recompute it from the restored
	// parent links rather than walking each parent's sibling chain.
	for _, rec := range links {
		if rec.parent != noSlot {
			w.index.slots[rec.parent].childCount++
		}
	}

	// Growing the slot table to fit out-of-order slot ids can leave gaps
	// for ids no record claimed: slots that were free when the world was
	// serialized. Their generations are not persisted; they keep the
	// generation 1 a fresh slot gets and go on the free list for the next
	// alloc.
	for id := range w.index.slots {
		if !w.index.slots[id].live() {
			w.index.freeList = append(w.index.freeList, uint32(id))
		}
	}

	return w, nil
}
