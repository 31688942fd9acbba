package handlers

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/zjrosen/worksets/internal/log"
)

// Object is a target whose named properties can be read and replaced.
type Object interface {
	Get(name string) (any, error)
	Set(name string, value any) error
}

// Deleter is implemented by objects whose properties can be absent. Injecting
// into a missing property of a Deleter is allowed; reversing it deletes the
// property again.
type Deleter interface {
	Delete(name string) error
}

// Injection describes replacing Object's property Name with Value.
type Injection struct {
	Object Object
	Name   string
	Value  any
}

// Inject builds an Injection.
func Inject(obj Object, name string, value any) Injection {
	return Injection{Object: obj, Name: name, Value: value}
}

// Override is the record of one replaced property.
type Override struct {
	Object   Object
	Name     string
	Injected any
	Original any
	// Absent is set when the property did not exist before injection.
	Absent bool
}

// Overrides tracks property replacements by label.
//
// Reversing an override writes back the value captured when it was created,
// whatever the property holds at that moment. Two overrides stacked on the
// same property therefore restore in whichever order they are reversed:
// reversing the newer one restores the older replacement, not the original.
type Overrides struct {
	*Registry[Injection, Override]
}

// NewOverrides creates an empty override registry.
func NewOverrides(opts ...Option) *Overrides {
	opts = append([]Option{WithName("injections")}, opts...)
	return &Overrides{Registry: New[Injection, Override](injectionOps{}, opts...)}
}

type injectionOps struct{}

func (injectionOps) Create(inj Injection) ([]Override, error) {
	if inj.Object == nil || inj.Name == "" {
		return nil, fmt.Errorf("injection %q: %w", inj.Name, ErrMalformed)
	}

	var absent bool
	original, err := inj.Object.Get(inj.Name)
	if err != nil {
		_, canDelete := inj.Object.(Deleter)
		if !canDelete || !errors.Is(err, ErrNoProperty) {
			return nil, fmt.Errorf("injection %q: %w", inj.Name, err)
		}
		absent = true
	}
	if err := inj.Object.Set(inj.Name, inj.Value); err != nil {
		return nil, fmt.Errorf("injection %q: %w", inj.Name, err)
	}

	log.Debug(log.CatInjections, "Injected", "property", inj.Name)
	return []Override{{Object: inj.Object, Name: inj.Name, Injected: inj.Value, Original: original, Absent: absent}}, nil
}

func (injectionOps) Reverse(o Override) error {
	if o.Absent {
		if err := o.Object.(Deleter).Delete(o.Name); err != nil {
			return fmt.Errorf("restore %q: %w", o.Name, err)
		}
		log.Debug(log.CatInjections, "Removed", "property", o.Name)
		return nil
	}
	if err := o.Object.Set(o.Name, o.Original); err != nil {
		return fmt.Errorf("restore %q: %w", o.Name, err)
	}
	log.Debug(log.CatInjections, "Restored", "property", o.Name)
	return nil
}

// Table is a map-backed Object whose keys may be absent. Not safe for
// concurrent use.
type Table map[string]any

// Get returns the value stored under name.
func (t Table) Get(name string) (any, error) {
	v, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNoProperty)
	}
	return v, nil
}

// Set stores value under name.
func (t Table) Set(name string, value any) error {
	t[name] = value
	return nil
}

// Delete removes name.
func (t Table) Delete(name string) error {
	delete(t, name)
	return nil
}

// fieldObject exposes the exported fields of a struct as properties.
type fieldObject struct {
	v reflect.Value
}

// Fields returns an Object over the exported fields of the struct ptr points
// to. Function-valued fields act as overridable methods.
func Fields(ptr any) (Object, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("fields of %T: want non-nil struct pointer: %w", ptr, ErrMalformed)
	}
	return fieldObject{v: v.Elem()}, nil
}

// MustFields is like Fields but panics on error.
func MustFields(ptr any) Object {
	obj, err := Fields(ptr)
	if err != nil {
		panic(err)
	}
	return obj
}

func (o fieldObject) field(name string) (reflect.Value, error) {
	f := o.v.FieldByName(name)
	if !f.IsValid() || !f.CanSet() {
		return reflect.Value{}, fmt.Errorf("%s.%s: %w", o.v.Type(), name, ErrNoProperty)
	}
	return f, nil
}

func (o fieldObject) Get(name string) (any, error) {
	f, err := o.field(name)
	if err != nil {
		return nil, err
	}
	return f.Interface(), nil
}

func (o fieldObject) Set(name string, value any) error {
	f, err := o.field(name)
	if err != nil {
		return err
	}
	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(f.Type()) {
		return fmt.Errorf("%s.%s: cannot assign %s to %s: %w", o.v.Type(), name, rv.Type(), f.Type(), ErrMalformed)
	}
	f.Set(rv)
	return nil
}
