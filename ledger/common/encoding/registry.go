package encoding

import (
	"fmt"
	"sort"
)

// Layout describes one version of a record's fixed byte layout.
type Layout struct {
	Kind    Kind
	Name    string
	Version uint16
	// Size is the total length in bytes including the discriminator. For an
	// open layout it is the minimum length; open layouts end with a byte array
	// whose size is given by a header field.
	Size int
	Open bool

	Discriminator Discriminator
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s:%s/v%d(%d)", l.Kind, l.Name, l.Version, l.Size)
}

// Registry maps (record, total length) to a layout version. It is the single
// table deciding which layout decodes a given byte blob.
//
// A Registry is not safe for concurrent registration; once populated it is
// safe for concurrent lookups.
type Registry struct {
	byDiscriminator map[Discriminator][]*Layout
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byDiscriminator: make(map[Discriminator][]*Layout),
	}
}

// Register adds a layout version. The discriminator is derived from the
// layout's kind and name.
//
// It errors when the (record, size) pair is already taken, or when a second
// open layout is registered for the same record.
func (r *Registry) Register(l Layout) (*Layout, error) {
	if l.Size < DiscriminatorLen {
		return nil, fmt.Errorf("layout %s/v%d is shorter than its discriminator", l.Name, l.Version)
	}
	l.Discriminator = DiscriminatorFor(l.Kind, l.Name)

	existing := r.byDiscriminator[l.Discriminator]
	for _, e := range existing {
		if e.Name != l.Name || e.Kind != l.Kind {
			return nil, fmt.Errorf("discriminator collision between %s and %s", e, &l)
		}
		if e.Version == l.Version {
			return nil, fmt.Errorf("layout version %d of %s already registered", l.Version, l.Name)
		}
		if e.Size == l.Size && e.Open == l.Open {
			return nil, fmt.Errorf("layout %s already registered with total length %d", l.Name, l.Size)
		}
		if e.Open && l.Open {
			return nil, fmt.Errorf("record %s already has an open layout", l.Name)
		}
	}

	layout := &l
	existing = append(existing, layout)
	sort.Slice(existing, func(i, j int) bool {
		return existing[i].Size < existing[j].Size
	})
	r.byDiscriminator[l.Discriminator] = existing
	return layout, nil
}

// mustRegister is Register for the built in tables.
func (r *Registry) mustRegister(l Layout) *Layout {
	layout, err := r.Register(l)
	if err != nil {
		panic(err)
	}
	return layout
}

// Resolve selects the layout for data by its discriminator and total length.
//
// Expected errors:
//   - ErrUnknownDiscriminator if no registered record carries the discriminator
//   - LayoutError if data is shorter than a discriminator
//   - UnknownLayoutVersionError if the length matches no version of the record
func (r *Registry) Resolve(data []byte) (*Layout, error) {
	if len(data) < DiscriminatorLen {
		return nil, NewLayoutErrorf("data of %d bytes is shorter than a discriminator", len(data))
	}
	var d Discriminator
	copy(d[:], data[:DiscriminatorLen])

	layouts, ok := r.byDiscriminator[d]
	if !ok {
		return nil, fmt.Errorf("no record for discriminator %x: %w", d[:], ErrUnknownDiscriminator)
	}
	return selectByLength(layouts, len(data))
}

// ResolveAs selects the layout for data that is expected to hold the named record.
//
// Expected errors:
//   - DiscriminatorMismatchError if data carries a different discriminator
//   - LayoutError if data is shorter than a discriminator
//   - UnknownLayoutVersionError if the length matches no version of the record
func (r *Registry) ResolveAs(kind Kind, name string, data []byte) (*Layout, error) {
	if len(data) < DiscriminatorLen {
		return nil, NewLayoutErrorf("%s data of %d bytes is shorter than a discriminator", name, len(data))
	}
	expected := DiscriminatorFor(kind, name)
	var actual Discriminator
	copy(actual[:], data[:DiscriminatorLen])
	if actual != expected {
		return nil, DiscriminatorMismatchError{
			Record:   name,
			Expected: expected,
			Actual:   actual,
		}
	}

	layouts, ok := r.byDiscriminator[expected]
	if !ok {
		return nil, UnknownLayoutVersionError{Record: name, Length: len(data)}
	}
	return selectByLength(layouts, len(data))
}

// selectByLength prefers an exact match of a closed layout and falls back to
// the open layout, if any, that fits.
func selectByLength(layouts []*Layout, length int) (*Layout, error) {
	var open *Layout
	for _, l := range layouts {
		if l.Open {
			open = l
			continue
		}
		if l.Size == length {
			return l, nil
		}
	}
	if open != nil && length >= open.Size {
		return open, nil
	}

	known := make([]int, 0, len(layouts))
	for _, l := range layouts {
		known = append(known, l.Size)
	}
	return nil, UnknownLayoutVersionError{
		Record: layouts[0].Name,
		Length: length,
		Known:  known,
	}
}

// Layouts returns every registered layout ordered by kind, name and version.
func (r *Registry) Layouts() []*Layout {
	var all []*Layout
	for _, layouts := range r.byDiscriminator {
		all = append(all, layouts...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Kind != all[j].Kind {
			return all[i].Kind < all[j].Kind
		}
		if all[i].Name != all[j].Name {
			return all[i].Name < all[j].Name
		}
		return all[i].Version < all[j].Version
	})
	return all
}

// Lookup returns the named layout version.
func (r *Registry) Lookup(kind Kind, name string, version uint16) (*Layout, bool) {
	for _, l := range r.byDiscriminator[DiscriminatorFor(kind, name)] {
		if l.Version == version {
			return l, true
		}
	}
	return nil, false
}
