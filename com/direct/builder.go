package direct

// Builder can build direct connections.
type Builder struct {
	bufferSize int
}

// MakeBuilder creates a builder with a buffer that holds 1024 values per
// direction.
func MakeBuilder() Builder {
	return Builder{
		bufferSize: 1024,
	}
}

// WithBufferSize sets how many values a side can queue before Send blocks.
// A size of 0 makes every send wait for the matching receive.
func (b Builder) WithBufferSize(n int) Builder {
	b.bufferSize = n
	return b
}

// Build creates the two connected ends, named name+".A" and name+".B".
func (b Builder) Build(name string) (*Endpoint, *Endpoint) {
	if b.bufferSize < 0 {
		panic("buffer size must not be negative")
	}

	l := &link{
		name: name,
		done: make(chan struct{}),
	}

	aToB := make(chan any, b.bufferSize)
	bToA := make(chan any, b.bufferSize)

	a := &Endpoint{link: l, name: name + ".A", in: bToA, out: aToB}
	c := &Endpoint{link: l, name: name + ".B", in: aToB, out: bToA}

	return a, c
}
