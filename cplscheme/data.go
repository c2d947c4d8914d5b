package cplscheme

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Data is the view of an exchanged field that a coupling scheme needs. The
// value buffer stays owned by the data item; schemes never keep it beyond
// their own lifetime.
type Data interface {
	ID() int
	Name() string
	MeshName() string
	Values() []float64
}

// CouplingData wraps a data item registered for sending or receiving.
type CouplingData struct {
	data       Data
	oldValues  *History
	initialize bool
}

// NewCouplingData wraps a data item. If initialize is set, the value is
// exchanged once before the first regular timestep.
func NewCouplingData(data Data, initialize bool) *CouplingData {
	return &CouplingData{
		data:       data,
		oldValues:  &History{},
		initialize: initialize,
	}
}

// Data returns the wrapped data item.
func (d *CouplingData) Data() Data {
	return d.data
}

// Values returns the borrowed value buffer of the data item.
func (d *CouplingData) Values() []float64 {
	return d.data.Values()
}

// OldValues returns the values of previous timesteps.
func (d *CouplingData) OldValues() *History {
	return d.oldValues
}

// Initialize tells if the data has to be exchanged before the first timestep.
func (d *CouplingData) Initialize() bool {
	return d.initialize
}

// A DataMap maps data ids to coupling data. Iteration is always in ascending
// id order, so that both participants walk their maps identically.
type DataMap struct {
	entries map[int]*CouplingData
	ids     []int
}

// NewDataMap creates an empty map.
func NewDataMap() *DataMap {
	return &DataMap{entries: make(map[int]*CouplingData)}
}

// Len returns the number of entries.
func (m *DataMap) Len() int {
	return len(m.ids)
}

// Get returns the entry with the id, or nil.
func (m *DataMap) Get(id int) *CouplingData {
	return m.entries[id]
}

// Contains tells if the id has an entry.
func (m *DataMap) Contains(id int) bool {
	_, ok := m.entries[id]
	return ok
}

// IDs returns the ids in ascending order.
func (m *DataMap) IDs() []int {
	ids := make([]int, len(m.ids))
	copy(ids, m.ids)

	return ids
}

// Each calls f for every entry in ascending id order.
func (m *DataMap) Each(f func(id int, d *CouplingData)) {
	for _, id := range m.ids {
		f(id, m.entries[id])
	}
}

// insert adds an entry and reports false if the id is taken.
func (m *DataMap) insert(id int, d *CouplingData) bool {
	if _, ok := m.entries[id]; ok {
		return false
	}

	m.entries[id] = d

	pos := sort.SearchInts(m.ids, id)
	m.ids = append(m.ids, 0)
	copy(m.ids[pos+1:], m.ids[pos:])
	m.ids[pos] = id

	return true
}

// History keeps the values of previous timesteps of one data item, one column
// per retained timestep. Column 0 holds the most recent values.
type History struct {
	rows int
	cols int
	m    *mat.Dense
}

// Rows returns the number of values per column.
func (h *History) Rows() int {
	return h.rows
}

// Cols returns the number of retained columns.
func (h *History) Cols() int {
	return h.cols
}

// AppendZeros adds n zero columns with the given number of rows. The row count
// must match the existing columns.
func (h *History) AppendZeros(rows, n int) {
	if n <= 0 {
		return
	}

	if h.cols > 0 && rows != h.rows {
		panic("history row count mismatch")
	}

	h.rows = rows
	h.cols += n

	if rows == 0 {
		return
	}

	grown := mat.NewDense(h.rows, h.cols, nil)
	if h.m != nil {
		grown.Copy(h.m)
	}

	h.m = grown
}

// Column returns a copy of column j.
func (h *History) Column(j int) []float64 {
	h.mustHaveColumn(j)

	if h.rows == 0 {
		return []float64{}
	}

	return mat.Col(nil, j, h.m)
}

// SetColumn overwrites column j.
func (h *History) SetColumn(j int, values []float64) {
	h.mustHaveColumn(j)

	if len(values) != h.rows {
		panic("history row count mismatch")
	}

	if h.rows == 0 {
		return
	}

	h.m.SetCol(j, values)
}

// ShiftSetFirst moves every column one position to the right, dropping the
// last column, and stores values as column 0.
func (h *History) ShiftSetFirst(values []float64) {
	h.mustHaveColumn(0)

	if h.rows == 0 {
		return
	}

	for j := h.cols - 1; j > 0; j-- {
		h.m.SetCol(j, mat.Col(nil, j-1, h.m))
	}

	h.SetColumn(0, values)
}

func (h *History) mustHaveColumn(j int) {
	if j < 0 || j >= h.cols {
		panic("history column out of range")
	}
}
