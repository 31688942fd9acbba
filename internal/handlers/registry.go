package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/worksets/internal/log"
	"github.com/zjrosen/worksets/internal/tracing"
)

// GenericLabel is the label used by Add.
const GenericLabel = "generic"

var (
	// ErrUnimplemented indicates a registry built without a create or reverse step.
	ErrUnimplemented = errors.New("handlers: unimplemented operation")
	// ErrMalformed indicates a description that cannot be registered.
	ErrMalformed = errors.New("handlers: malformed description")
	// ErrNoProperty indicates an override target without the named property.
	ErrNoProperty = errors.New("handlers: no such property")
)

// Ops is the per-kind behaviour of a Registry.
// Create performs the registration a description asks for and returns one
// record per resource it allocated. Reverse undoes a single record.
type Ops[D, R any] interface {
	Create(desc D) ([]R, error)
	Reverse(rec R) error
}

// Funcs adapts two functions to Ops. A nil function fails with ErrUnimplemented.
type Funcs[D, R any] struct {
	CreateFunc  func(D) ([]R, error)
	ReverseFunc func(R) error
}

// Create calls CreateFunc.
func (f Funcs[D, R]) Create(desc D) ([]R, error) {
	if f.CreateFunc == nil {
		return nil, fmt.Errorf("create: %w", ErrUnimplemented)
	}
	return f.CreateFunc(desc)
}

// Reverse calls ReverseFunc.
func (f Funcs[D, R]) Reverse(rec R) error {
	if f.ReverseFunc == nil {
		return fmt.Errorf("reverse: %w", ErrUnimplemented)
	}
	return f.ReverseFunc(rec)
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	name   string
	tracer trace.Tracer
}

// WithName sets the name used in logs, spans and errors.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithTracer sets the tracer used for add/remove spans.
// Defaults to the global otel tracer provider.
func WithTracer(t trace.Tracer) Option { return func(o *options) { o.tracer = t } }

// Registry stores records under labels and reverses them on removal.
//
// The mutex guards the label map only; it is never held while Create or
// Reverse run, so a callback may call back into the registry.
type Registry[D, R any] struct {
	mu      sync.Mutex
	storage map[string][]R
	ops     Ops[D, R]
	name    string
	tracer  trace.Tracer
}

// New creates an empty registry driven by ops.
// A nil ops yields a registry whose every registration fails with ErrUnimplemented.
func New[D, R any](ops Ops[D, R], opts ...Option) *Registry[D, R] {
	o := options{name: "handlers"}
	for _, fn := range opts {
		fn(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("github.com/zjrosen/worksets/internal/handlers")
	}
	return &Registry[D, R]{
		storage: make(map[string][]R),
		ops:     ops,
		name:    o.name,
		tracer:  o.tracer,
	}
}

// Name returns the registry name.
func (r *Registry[D, R]) Name() string { return r.name }

// Add registers descs under GenericLabel.
func (r *Registry[D, R]) Add(descs ...D) error {
	return r.AddWithLabel(GenericLabel, descs...)
}

// AddWithLabel creates every description in order and appends the produced
// records to label. If a description fails, records produced before it stay
// registered and the error is returned.
func (r *Registry[D, R]) AddWithLabel(label string, descs ...D) (err error) {
	_, span := r.tracer.Start(context.Background(), tracing.SpanRegistryAdd, trace.WithAttributes(
		attribute.String(tracing.AttrRegistry, r.name),
		attribute.String(tracing.AttrLabel, label),
		attribute.Int(tracing.AttrDescriptions, len(descs)),
	))
	defer func() { endSpan(span, err) }()

	if r.ops == nil {
		return fmt.Errorf("%s: add %q: %w", r.name, label, ErrUnimplemented)
	}

	added := 0
	for i, desc := range descs {
		recs, createErr := r.ops.Create(desc)
		r.append(label, recs)
		added += len(recs)
		if createErr != nil {
			err = fmt.Errorf("%s: add %q: description %d: %w", r.name, label, i, createErr)
			log.ErrorErr(log.CatRegistry, "Registration failed", createErr,
				"registry", r.name, "label", label, "index", i)
			span.SetAttributes(attribute.Int(tracing.AttrRecords, added))
			return err
		}
	}

	span.SetAttributes(attribute.Int(tracing.AttrRecords, added))
	log.Debug(log.CatRegistry, "Added", "registry", r.name, "label", label, "records", added)
	return nil
}

func (r *Registry[D, R]) append(label string, recs []R) {
	if len(recs) == 0 {
		return
	}
	r.mu.Lock()
	r.storage[label] = append(r.storage[label], recs...)
	r.mu.Unlock()
}

// RemoveWithLabel reverses every record under label, oldest first, and drops
// the label. Unknown labels are a no-op. Reverse failures do not stop the
// walk; they are joined into the returned error.
func (r *Registry[D, R]) RemoveWithLabel(label string) (err error) {
	r.mu.Lock()
	recs, ok := r.storage[label]
	delete(r.storage, label)
	r.mu.Unlock()

	if !ok {
		return nil
	}

	_, span := r.tracer.Start(context.Background(), tracing.SpanRegistryRemove, trace.WithAttributes(
		attribute.String(tracing.AttrRegistry, r.name),
		attribute.String(tracing.AttrLabel, label),
		attribute.Int(tracing.AttrRecords, len(recs)),
	))
	defer func() { endSpan(span, err) }()

	var errs []error
	for _, rec := range recs {
		if revErr := r.ops.Reverse(rec); revErr != nil {
			log.ErrorErr(log.CatRegistry, "Reverse failed", revErr, "registry", r.name, "label", label)
			errs = append(errs, revErr)
		}
	}

	log.Debug(log.CatRegistry, "Removed", "registry", r.name, "label", label, "records", len(recs))
	if len(errs) > 0 {
		return fmt.Errorf("%s: remove %q: %w", r.name, label, errors.Join(errs...))
	}
	return nil
}

// Destroy removes every label. Safe to call on an empty registry.
func (r *Registry[D, R]) Destroy() error {
	var errs []error
	for _, label := range r.Labels() {
		if err := r.RemoveWithLabel(label); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Labels returns the live labels in lexicographic order.
func (r *Registry[D, R]) Labels() []string {
	r.mu.Lock()
	labels := make([]string, 0, len(r.storage))
	for label := range r.storage {
		labels = append(labels, label)
	}
	r.mu.Unlock()

	slices.Sort(labels)
	return labels
}

// Records returns a copy of the records under label, in registration order.
func (r *Registry[D, R]) Records(label string) []R {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.storage[label])
}

// Len returns the number of records under label.
func (r *Registry[D, R]) Len(label string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.storage[label])
}

// Empty reports whether no label holds a record.
func (r *Registry[D, R]) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.storage) == 0
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
