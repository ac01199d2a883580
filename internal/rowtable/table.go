// Package rowtable holds fixed-width, named, typed row data in column form.
//
// Every column is either float32 or int32 and has a fixed width (components per row).
// Rows are addressed by index; columns by field name.
package rowtable

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Kind is the scalar type of a column.
type Kind uint8

const (
	Float Kind = iota
	Int
)

func (k Kind) String() string {
	if k == Int {
		return "int32"
	}
	return "float32"
}

// Field declares one named column.
type Field struct {
	Name  string
	Kind  Kind
	Width int
}

// Schema is an ordered set of fields.
type Schema []Field

// Lookup returns the field with the given name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Column is one dense column. Only the slice matching Kind is populated.
type Column struct {
	Field
	Floats []float32
	Ints   []int32
}

// Float returns row i of a float column as a sub-slice (not a copy).
func (c *Column) Float(i int) []float32 {
	return c.Floats[i*c.Width : (i+1)*c.Width]
}

// Int returns row i of an int column as a sub-slice (not a copy).
func (c *Column) Int(i int) []int32 {
	return c.Ints[i*c.Width : (i+1)*c.Width]
}

// Table is a set of columns sharing a row count.
type Table struct {
	n     int
	cols  []*Column
	index map[string]int
}

// New allocates a zero-filled table with n rows.
func New(schema Schema, n int) (*Table, error) {
	t := &Table{n: n, index: make(map[string]int, len(schema))}
	for _, f := range schema {
		if f.Width <= 0 {
			return nil, errors.Errorf("rowtable: field %q has width %d", f.Name, f.Width)
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, errors.Errorf("rowtable: duplicate field %q", f.Name)
		}
		c := &Column{Field: f}
		if f.Kind == Int {
			c.Ints = make([]int32, n*f.Width)
		} else {
			c.Floats = make([]float32, n*f.Width)
		}
		t.index[f.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New for schemas known to be valid.
func MustNew(schema Schema, n int) *Table {
	t, err := New(schema, n)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Len() int { return t.n }

func (t *Table) Schema() Schema {
	s := make(Schema, len(t.cols))
	for i, c := range t.cols {
		s[i] = c.Field
	}
	return s
}

func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// Columns returns all columns in schema order.
func (t *Table) Columns() []*Column {
	return t.cols
}

// Gather returns a new table holding the given rows, in the given order.
func (t *Table) Gather(rows []int) *Table {
	out := MustNew(t.Schema(), len(rows))
	for ci, c := range t.cols {
		dst := out.cols[ci]
		w := c.Width
		for r, src := range rows {
			if c.Kind == Int {
				copy(dst.Ints[r*w:(r+1)*w], c.Ints[src*w:(src+1)*w])
			} else {
				copy(dst.Floats[r*w:(r+1)*w], c.Floats[src*w:(src+1)*w])
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	rows := make([]int, t.n)
	for i := range rows {
		rows[i] = i
	}
	return t.Gather(rows)
}

// Rename returns a deep copy with columns renamed per names. Unlisted columns keep
// their name.
func (t *Table) Rename(names map[string]string) (*Table, error) {
	schema := t.Schema()
	for i, f := range schema {
		if to, ok := names[f.Name]; ok {
			schema[i].Name = to
		}
	}
	out, err := New(schema, t.n)
	if err != nil {
		return nil, err
	}
	for ci, c := range t.cols {
		copy(out.cols[ci].Floats, c.Floats)
		copy(out.cols[ci].Ints, c.Ints)
	}
	return out, nil
}

// AppendRowKey appends the exact bit pattern of row i, over every column, to dst.
func (t *Table) AppendRowKey(dst []byte, i int) []byte {
	for _, c := range t.cols {
		if c.Kind == Int {
			for _, v := range c.Int(i) {
				dst = binary.LittleEndian.AppendUint32(dst, uint32(v))
			}
		} else {
			for _, v := range c.Float(i) {
				dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
			}
		}
	}
	return dst
}

// Unique collapses bit-identical rows. It returns the first-occurrence row of every
// distinct row (in order of first occurrence) and, for every input row, the index of
// its distinct row in that list.
func (t *Table) Unique() (firsts []int, inverse []int) {
	seen := make(map[string]int, t.n)
	inverse = make([]int, t.n)
	var key []byte
	for i := 0; i < t.n; i++ {
		key = t.AppendRowKey(key[:0], i)
		if u, ok := seen[string(key)]; ok {
			inverse[i] = u
			continue
		}
		u := len(firsts)
		seen[string(key)] = u
		firsts = append(firsts, i)
		inverse[i] = u
	}
	return firsts, inverse
}
