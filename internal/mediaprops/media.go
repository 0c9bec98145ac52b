package mediaprops

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"mediaprops/internal/logger"
	"mediaprops/internal/native"
)

// Media dispatches property operations to a native engine.
//
// Every operation resolves and checks its path first, then makes one or more
// engine calls. Nothing is cached between calls and compound operations
// (Copy, ClearMany, WriteAll) are not atomic.
type Media struct {
	engine native.Engine
	log    *logger.Logger
}

// Option configures a Media.
type Option func(*Media)

// WithLogger logs every dispatch at debug level.
func WithLogger(log *logger.Logger) Option {
	return func(m *Media) {
		m.log = log
	}
}

// New returns a Media backed by engine.
func New(engine native.Engine, opts ...Option) *Media {
	m := &Media{engine: engine}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Media) debug(format string, args ...interface{}) {
	if m.log != nil {
		m.log.Debug(format, args...)
	}
}

// Read returns the value of p on the file at path. ok is false when the
// property has no value.
func Read[T Value](m *Media, path string, p Property[T]) (value T, ok bool, err error) {
	v, ok, err := m.ReadValue(path, p.desc)
	if err != nil || !ok {
		return value, false, err
	}
	return v.(T), true, nil
}

// ReadRequired is Read that fails with *PropertyAbsentError instead of
// reporting absence.
func ReadRequired[T Value](m *Media, path string, p Property[T]) (T, error) {
	abs, err := Resolve(path)
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok, err := m.read(abs, p.desc)
	if err != nil {
		var zero T
		return zero, err
	}
	if !ok {
		var zero T
		return zero, &PropertyAbsentError{Path: abs, Property: p.desc}
	}
	return v.(T), nil
}

// ReadOrDefault is Read that substitutes def for an absent value.
func ReadOrDefault[T Value](m *Media, path string, p Property[T], def T) (T, error) {
	v, ok, err := Read(m, path, p)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Write sets p to value. Negative values for unsigned properties fail with
// *InvalidArgumentError before the engine is called.
func Write[T Value](m *Media, path string, p Property[T], value T) error {
	return m.WriteValue(path, p.desc, value)
}

// WriteOptional writes *value, or clears p when value is nil.
func WriteOptional[T Value](m *Media, path string, p Property[T], value *T) error {
	if value == nil {
		return m.Clear(path, p.desc)
	}
	return m.WriteValue(path, p.desc, *value)
}

// ReadValue is the untyped form of Read. The value is a string for
// KindString properties and an int for KindUint ones.
func (m *Media) ReadValue(path string, d *Descriptor) (any, bool, error) {
	abs, err := Resolve(path)
	if err != nil {
		return nil, false, err
	}
	return m.read(abs, d)
}

func (m *Media) read(abs string, d *Descriptor) (any, bool, error) {
	m.debug("read %s (%s) from %s", d.ident, d.kind, abs)

	switch d.kind {
	case KindString:
		s, ok, err := m.engine.ReadString(abs, d.ordinal)
		if err != nil {
			return nil, false, translate(abs, err)
		}
		if !ok {
			return nil, false, nil
		}
		return s, true, nil

	case KindUint:
		n, err := m.engine.ReadUint(abs, d.ordinal)
		if err != nil {
			return nil, false, translate(abs, err)
		}
		if n == native.NullUint {
			return nil, false, nil
		}
		if n < 0 || n > math.MaxUint32 {
			return nil, false, &IOError{
				Path:        abs,
				Description: fmt.Sprintf("engine returned out of range value %d for %s", n, d.name),
			}
		}
		return int(n), true, nil
	}

	return nil, false, fmt.Errorf("property %s has unknown kind %d", d.ident, d.kind)
}

// WriteValue is the untyped form of Write. A nil value clears the property.
func (m *Media) WriteValue(path string, d *Descriptor, value any) error {
	abs, err := Resolve(path)
	if err != nil {
		return err
	}
	return m.write(abs, d, value)
}

func (m *Media) write(abs string, d *Descriptor, value any) error {
	if value == nil {
		return m.clear(abs, d)
	}

	v, err := coerce(d, value)
	if err != nil {
		return err
	}

	m.debug("write %s=%v to %s", d.ident, v, abs)

	switch d.kind {
	case KindString:
		err = m.engine.WriteString(abs, d.ordinal, v.(string))
	case KindUint:
		err = m.engine.WriteUint(abs, d.ordinal, v.(uint32))
	}
	return translate(abs, err)
}

// Has reports whether d currently has a value on the file.
func (m *Media) Has(path string, d *Descriptor) (bool, error) {
	abs, err := Resolve(path)
	if err != nil {
		return false, err
	}

	m.debug("has %s on %s", d.ident, abs)
	ok, err := m.engine.HasProperty(abs, d.ordinal)
	if err != nil {
		return false, translate(abs, err)
	}
	return ok, nil
}

// Clear removes the value of d. Clearing an absent property succeeds.
func (m *Media) Clear(path string, d *Descriptor) error {
	abs, err := Resolve(path)
	if err != nil {
		return err
	}
	return m.clear(abs, d)
}

func (m *Media) clear(abs string, d *Descriptor) error {
	m.debug("clear %s on %s", d.ident, abs)
	return translate(abs, m.engine.Clear(abs, d.ordinal))
}

// ClearMany clears each descriptor independently. A failure on one does not
// stop the others; all failures are returned together.
func (m *Media) ClearMany(path string, descs ...*Descriptor) error {
	abs, err := Resolve(path)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, d := range descs {
		if err := m.clear(abs, d); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ClearAll removes every property the engine can clear.
func (m *Media) ClearAll(path string) error {
	abs, err := Resolve(path)
	if err != nil {
		return err
	}

	m.debug("clear all on %s", abs)
	return translate(abs, m.engine.ClearAll(abs))
}

// Copy sets d on dst to its value on src, clearing it on dst when src has
// none. The read and the write are separate engine calls.
func (m *Media) Copy(src, dst string, d *Descriptor) error {
	srcAbs, err := Resolve(src)
	if err != nil {
		return err
	}
	dstAbs, err := Resolve(dst)
	if err != nil {
		return err
	}

	v, ok, err := m.read(srcAbs, d)
	if err != nil {
		return err
	}
	if !ok {
		v = nil
	}
	return m.write(dstAbs, d, v)
}

// IsMediaFile reports whether the engine recognizes the file as a media container.
func (m *Media) IsMediaFile(path string) (bool, error) {
	abs, err := Resolve(path)
	if err != nil {
		return false, err
	}

	ok, err := m.engine.IsValidMediaFile(abs)
	if err != nil {
		return false, translate(abs, err)
	}
	return ok, nil
}

// ReadAll returns every registry property currently set on the file.
func (m *Media) ReadAll(path string) (PropertyMap, error) {
	abs, err := Resolve(path)
	if err != nil {
		return PropertyMap{}, err
	}

	raw, err := m.engine.ReadAll(abs)
	if err != nil {
		return PropertyMap{}, translate(abs, err)
	}

	props := NewPropertyMap()
	for ordinal, value := range raw {
		d, ok := ByOrdinal(ordinal)
		if !ok {
			m.debug("ignoring unknown ordinal %d on %s", ordinal, abs)
			continue
		}
		v, ok := fromEngine(d, value)
		if !ok {
			m.debug("ignoring %s value %v (%T) on %s", d.ident, value, value, abs)
			continue
		}
		props.values[d] = v
	}
	return props, nil
}

// WriteAll writes every entry of props. All values are checked before the
// first write, so an invalid argument leaves the file untouched; engine
// failures on individual properties do not stop the rest.
func (m *Media) WriteAll(path string, props PropertyMap) error {
	abs, err := Resolve(path)
	if err != nil {
		return err
	}

	descs := props.Descriptors()
	for _, d := range descs {
		if _, err := coerce(d, props.values[d]); err != nil {
			return err
		}
	}

	var result *multierror.Error
	for _, d := range descs {
		if err := m.write(abs, d, props.values[d]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
