package data

import (
	"fmt"

	"github.com/leengari/tablestore/internal/domain/types"
)

// Val is one named entry of a datum.
// Shape is a width hint for strings; zero means "no hint".
type Val struct {
	Name  string
	Value types.Value
	Shape int
}

// Datum is a titled, ordered collection of named values.
// All datums sharing a title are rows of the same table.
type Datum struct {
	Title string
	Vals  []Val

	record func(*Datum) error
}

// NewDatum creates an empty datum for the given table title
func NewDatum(title string) *Datum {
	return &Datum{Title: title}
}

// NewBoundDatum creates a datum whose Record method hands it to fn.
func NewBoundDatum(title string, fn func(*Datum) error) *Datum {
	return &Datum{Title: title, record: fn}
}

// AddVal appends a value without a shape hint and returns the datum for chaining
func (d *Datum) AddVal(name string, v types.Value) *Datum {
	return d.AddShapedVal(name, v, 0)
}

// AddShapedVal appends a value with a width hint. Negative hints are treated as zero.
func (d *Datum) AddShapedVal(name string, v types.Value, shape int) *Datum {
	if shape < 0 {
		shape = 0
	}
	d.Vals = append(d.Vals, Val{Name: name, Value: v, Shape: shape})
	return d
}

// Get returns the first value with the given name
func (d *Datum) Get(name string) (types.Value, bool) {
	for _, v := range d.Vals {
		if v.Name == name {
			return v.Value, true
		}
	}
	return types.Value{}, false
}

// Record hands the datum to the recorder it was created by
func (d *Datum) Record() error {
	if d.record == nil {
		return fmt.Errorf("datum %q is not bound to a recorder", d.Title)
	}
	return d.record(d)
}
