package party

import (
	"encoding/binary"
	"errors"
	"io"
	"sort"
)

// IDSlice is a sorted slice of IDs.
type IDSlice []ID

// NewIDSlice returns a sorted copy of the given IDs.
//
// An error is returned if an ID is repeated, or if an ID is 0.
func NewIDSlice(ids []ID) (IDSlice, error) {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	sort.Sort(out)
	for i, id := range out {
		if id == 0 {
			return nil, errors.New("party.NewIDSlice: IDs start at 1")
		}
		if i > 0 && out[i-1] == id {
			return nil, errors.New("party.NewIDSlice: duplicate ID " + id.String())
		}
	}
	return out, nil
}

// RangeIDs returns the IDSlice {1, …, n}.
func RangeIDs(n int) IDSlice {
	out := make(IDSlice, n)
	for i := range out {
		out[i] = ID(i + 1)
	}
	return out
}

func (ids IDSlice) Len() int           { return len(ids) }
func (ids IDSlice) Less(i, j int) bool { return ids[i] < ids[j] }
func (ids IDSlice) Swap(i, j int)      { ids[i], ids[j] = ids[j], ids[i] }

// Contains returns true if ids contains id.
// Assumes that ids is sorted.
func (ids IDSlice) Contains(id ID) bool {
	_, ok := ids.search(id)
	return ok
}

func (ids IDSlice) search(x ID) (int, bool) {
	index := sort.Search(len(ids), func(i int) bool { return ids[i] >= x })
	if index >= 0 && index < len(ids) && ids[index] == x {
		return index, true
	}
	return 0, false
}

// Copy returns a copy of ids.
func (ids IDSlice) Copy() IDSlice {
	out := make(IDSlice, len(ids))
	copy(out, ids)
	return out
}

// WriteTo implements io.WriterTo, for use within the hash.Hash function.
func (ids IDSlice) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, uint32(len(ids))); err != nil {
		return 0, err
	}
	nAll := int64(4)
	for _, id := range ids {
		n, err := w.Write(id.Bytes())
		nAll += int64(n)
		if err != nil {
			return nAll, err
		}
	}
	return nAll, nil
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (IDSlice) Domain() string {
	return "IDSlice"
}
