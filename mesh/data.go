// Package mesh holds the data items that participants exchange. Coupling
// schemes only borrow the value buffers; the data items own them.
package mesh

import "fmt"

// Data is a named numeric field defined on a mesh.
type Data struct {
	id       int
	name     string
	meshName string
	values   []float64
}

// NewData creates a zero-initialized data item with size values.
func NewData(id int, name, meshName string, size int) *Data {
	if size < 0 {
		panic(fmt.Sprintf("data %s has negative size %d", name, size))
	}

	return &Data{
		id:       id,
		name:     name,
		meshName: meshName,
		values:   make([]float64, size),
	}
}

// ID returns the stable identifier of the data item.
func (d *Data) ID() int {
	return d.id
}

// Name returns the name of the data item.
func (d *Data) Name() string {
	return d.name
}

// MeshName returns the name of the mesh the data is defined on.
func (d *Data) MeshName() string {
	return d.meshName
}

// Values returns the value buffer. Writes through the returned slice change
// the data item.
func (d *Data) Values() []float64 {
	return d.values
}

// Resize replaces the buffer with a zeroed one of the given size.
func (d *Data) Resize(size int) {
	d.values = make([]float64, size)
}

// A Set indexes data items by id and by name.
type Set struct {
	byID   map[int]*Data
	byName map[string]*Data
	order  []*Data
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{
		byID:   make(map[int]*Data),
		byName: make(map[string]*Data),
	}
}

// Add registers a data item. Ids and names must be unique.
func (s *Set) Add(d *Data) error {
	if _, ok := s.byID[d.ID()]; ok {
		return fmt.Errorf("mesh: data id %d registered twice", d.ID())
	}

	if _, ok := s.byName[d.Name()]; ok {
		return fmt.Errorf("mesh: data %q registered twice", d.Name())
	}

	s.byID[d.ID()] = d
	s.byName[d.Name()] = d
	s.order = append(s.order, d)

	return nil
}

// ByID returns the data item with the id, or nil.
func (s *Set) ByID(id int) *Data {
	return s.byID[id]
}

// ByName returns the data item with the name, or nil.
func (s *Set) ByName(name string) *Data {
	return s.byName[name]
}

// All returns the data items in registration order.
func (s *Set) All() []*Data {
	return s.order
}
