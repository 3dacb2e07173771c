// Package titlecss sanitizes operator-supplied CSS attached to user titles
// and the title markup it is eventually rendered into.
//
// SanitizeCSS reduces a free-form declaration block to an allowlisted,
// verified-safe "prop: value; prop: value" string. SanitizeMarkup is the
// independent render-side check: a bluemonday policy that keeps a handful of
// inline tags and lets span carry only the same declarations.
//
// Both are also available as named policies on a Sanitizer, which applies
// them to struct fields tagged with `sanitize:"css"` or `sanitize:"markup"`.
// The default Sanitizer comes with both policies and can be replaced with
// SetDefault.
package titlecss

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Names of the policies registered on the default Sanitizer.
const (
	PolicyCSS    = "css"
	PolicyMarkup = "markup"
)

const reservedPolicyPanicMsg = `policy name "-" is reserved for skipping sanitization`

// ErrPolicyNotFound is returned when a requested policy is not registered.
var ErrPolicyNotFound = errors.New("sanitization policy not found")

var defaultSanitizer atomic.Pointer[Sanitizer]

func init() {
	defaultSanitizer.Store(New(
		WithPolicy(PolicyCSS, PolicyFunc(SanitizeCSS)),
		WithPolicy(PolicyMarkup, markupPolicy),
	))
}

// Default returns the default Sanitizer.
func Default() *Sanitizer { return defaultSanitizer.Load() }

// SetDefault replaces the Sanitizer used by the package-level functions.
func SetDefault(s *Sanitizer) {
	defaultSanitizer.Store(s)
}

// SanitizeString applies the named policy of the default Sanitizer.
func SanitizeString(policy string, input string) (string, error) {
	return Default().SanitizeString(policy, input)
}

// SanitizeStruct sanitizes tagged fields using the default Sanitizer.
func SanitizeStruct(v any) error {
	return Default().SanitizeStruct(v)
}

// Policy transforms untrusted input into its safe form.
// [bluemonday.Policy] satisfies it.
type Policy interface {
	Sanitize(s string) string
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(s string) string

// Sanitize implements Policy.
func (f PolicyFunc) Sanitize(s string) string {
	return f(s)
}

// Sanitizer holds named policies and applies them to strings or to the
// tagged string fields of a struct.
type Sanitizer struct {
	mu       sync.RWMutex
	tagKey   string
	policies map[string]Policy
}

// Opt configures a Sanitizer.
type Opt func(*Sanitizer)

// New creates a Sanitizer with no policies.
func New(opts ...Opt) *Sanitizer {
	s := &Sanitizer{
		tagKey:   "sanitize",
		policies: make(map[string]Policy),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithPolicy registers a policy under name. The name "-" is reserved.
func WithPolicy(name string, policy Policy) Opt {
	return func(s *Sanitizer) {
		if name == "-" {
			panic(reservedPolicyPanicMsg)
		}

		s.policies[name] = policy
	}
}

// WithTagKey sets the struct tag key read by SanitizeStruct.
func WithTagKey(key string) Opt {
	return func(s *Sanitizer) {
		s.tagKey = key
	}
}

// Add registers a policy after construction. The name "-" is reserved.
func (s *Sanitizer) Add(name string, policy Policy) {
	if name == "-" {
		panic(reservedPolicyPanicMsg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[name] = policy
}

// Remove unregisters a policy.
func (s *Sanitizer) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.policies, name)
}

// SanitizeString applies the named policy to input.
func (s *Sanitizer) SanitizeString(policy string, input string) (string, error) {
	p, err := s.policy(policy)
	if err != nil {
		return "", err
	}
	return p.Sanitize(input), nil
}

func (s *Sanitizer) policy(name string) (Policy, error) {
	s.mu.RLock()
	p, ok := s.policies[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("policy %q: %w", name, ErrPolicyNotFound)
	}
	return p, nil
}

// SanitizeStruct rewrites every string field of v carrying a policy tag,
// descending into nested structs, pointers, slices, arrays, maps and
// interfaces. A tag of "-" skips the field and everything below it.
// v must be a pointer to a struct; nil is accepted and ignored.
func (s *Sanitizer) SanitizeStruct(v any) error {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("expected pointer to struct, got %T", v)
	}

	return s.walk(rv.Elem())
}

func (s *Sanitizer) walk(rv reflect.Value) error {
	if !rv.IsValid() || rv.IsZero() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rv.NumField(); i++ {
			field := rv.Field(i)
			if !field.CanSet() {
				continue
			}
			if err := s.walkField(field, rt.Field(i).Tag.Get(s.tagKey)); err != nil {
				return err
			}
		}
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		if rv.Kind() == reflect.Interface {
			return s.walk(reflect.ValueOf(rv.Interface()))
		}
		return s.walk(rv.Elem())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := s.walk(rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		// Map values are not addressable; sanitize a copy and store it back.
		for _, key := range rv.MapKeys() {
			val := rv.MapIndex(key)
			if !val.CanInterface() {
				continue
			}
			cp := reflect.New(val.Type()).Elem()
			cp.Set(val)
			if err := s.walk(cp); err != nil {
				return err
			}
			rv.SetMapIndex(key, cp)
		}
	}

	return nil
}

func (s *Sanitizer) walkField(field reflect.Value, tag string) error {
	if tag == "-" {
		return nil
	}

	if field.Kind() != reflect.String {
		return s.walk(field)
	}
	if tag == "" {
		return nil
	}

	p, err := s.policy(tag)
	if err != nil {
		return err
	}
	field.SetString(p.Sanitize(field.String()))
	return nil
}
