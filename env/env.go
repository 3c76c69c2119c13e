// Package env implements ordered, replayable environment variable
// transformations. A Pipeline owns a base environment snapshot and a
// sequence of Handlers; executing the pipeline applies every handler in
// insertion order and yields the final environment mapping.
package env

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Operation identifies one kind of environment mutation.
type Operation int

const (
	// Set overwrites the value of a variable.
	Set Operation = iota
	// Append adds a value at the end of a variable, path-separator joined.
	Append
	// Prepend adds a value at the front of a variable, path-separator joined.
	Prepend
	// Delete unsets a variable. Deleting an absent variable is not an error.
	Delete
	// Clear resets the whole working environment to empty.
	Clear
)

var operationNames = map[Operation]string{
	Set:     "set",
	Append:  "append",
	Prepend: "prepend",
	Delete:  "delete",
	Clear:   "clear",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// FromString parses the textual form used in configuration files.
func (op *Operation) FromString(s string) error {
	for candidate, name := range operationNames {
		if name == strings.ToLower(s) {
			*op = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown environment operation `%s`", s)
}

// Handler describes a single environment mutation. Handlers are immutable
// once constructed; NewHandler rejects combinations that would only fail
// later, at execution time.
type Handler struct {
	op    Operation
	key   string
	value string
}

// NewHandler builds a Handler and validates its fields against the
// operation: key is required for everything but Clear, value is required
// for Set, Append and Prepend.
func NewHandler(op Operation, key, value string) (Handler, error) {
	switch op {
	case Set, Append, Prepend, Delete, Clear:
	default:
		return Handler{}, fmt.Errorf("unknown environment operation %d", int(op))
	}

	if key == "" && op != Clear {
		return Handler{}, fmt.Errorf("the key must be specified for operation %s", op)
	}
	if value == "" && (op == Set || op == Append || op == Prepend) {
		return Handler{}, fmt.Errorf("the value must be specified for operation %s", op)
	}

	return Handler{op: op, key: key, value: value}, nil
}

// MustHandler is NewHandler for statically known arguments.
func MustHandler(op Operation, key, value string) Handler {
	h, err := NewHandler(op, key, value)
	if err != nil {
		panic(err)
	}
	return h
}

// Op returns the operation performed by the handler.
func (h Handler) Op() Operation { return h.op }

// Key returns the name of the affected variable, empty for Clear.
func (h Handler) Key() string { return h.key }

// Value returns the value used by the operation, empty where unused.
func (h Handler) Value() string { return h.value }

// Execute applies the handler to environ in place. Append and Prepend
// join with the platform path list separator when the variable already
// holds a non-empty value.
func (h Handler) Execute(environ map[string]string) {
	sep := string(os.PathListSeparator)

	switch h.op {
	case Set:
		log.Debugf("Set environment entry %s = %s", h.key, h.value)
		environ[h.key] = h.value
	case Append:
		if cur, ok := environ[h.key]; ok && cur != "" {
			environ[h.key] = cur + sep + h.value
		} else {
			environ[h.key] = h.value
		}
		log.Debugf("Append %s to environment variable %s", h.value, h.key)
	case Prepend:
		if cur, ok := environ[h.key]; ok && cur != "" {
			environ[h.key] = h.value + sep + cur
		} else {
			environ[h.key] = h.value
		}
		log.Debugf("Prepend %s to environment variable %s", h.value, h.key)
	case Delete:
		if _, ok := environ[h.key]; ok {
			log.Debugf("Delete environment variable %s", h.key)
			delete(environ, h.key)
		}
	case Clear:
		log.Debug("Clear whole environment")
		for key := range environ {
			delete(environ, key)
		}
	}
}

// Pipeline is an ordered log of Handlers applied against a base
// environment snapshot. Later handlers observe the effects of earlier
// ones. Executing a pipeline never mutates the pipeline itself.
type Pipeline struct {
	base     map[string]string
	handlers []Handler
}

// NewPipeline creates a pipeline over a copy of base. A nil base is
// treated as an empty environment.
func NewPipeline(base map[string]string, handlers ...Handler) *Pipeline {
	p := &Pipeline{base: map[string]string{}}
	for key, value := range base {
		p.base[key] = value
	}
	p.Add(handlers...)
	return p
}

// SystemPipeline creates a pipeline seeded from the live process
// environment.
func SystemPipeline(handlers ...Handler) *Pipeline {
	base := map[string]string{}
	for _, entry := range os.Environ() {
		key, value, _ := strings.Cut(entry, "=")
		base[key] = value
	}
	return NewPipeline(base, handlers...)
}

// Add appends handlers to the log. It does not affect mappings already
// returned by Execute.
func (p *Pipeline) Add(handlers ...Handler) {
	p.handlers = append(p.handlers, handlers...)
}

// Handlers returns a copy of the handler log.
func (p *Pipeline) Handlers() []Handler {
	out := make([]Handler, len(p.handlers))
	copy(out, p.handlers)
	return out
}

// Execute computes the final environment. It is a pure function of the
// base snapshot and the handler log and can be called repeatedly.
func (p *Pipeline) Execute() map[string]string {
	environ := map[string]string{}
	for key, value := range p.base {
		environ[key] = value
	}
	for _, handler := range p.handlers {
		handler.Execute(environ)
	}
	return environ
}

// Copy returns a deep copy: the new pipeline owns an independent handler
// log and base snapshot, so the two evolve independently.
func (p *Pipeline) Copy() *Pipeline {
	return NewPipeline(p.base, p.handlers...)
}
