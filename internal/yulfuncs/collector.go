// Package yulfuncs collects named IR functions that may be requested many
// times during generation but must be emitted exactly once.
package yulfuncs

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// stub marks a function whose body is being generated right now.
const stub = "<<stub>>"

// ErrMisnamedFunction is returned when a generated body does not define the requested name.
var ErrMisnamedFunction = errors.New("generated function is not properly named")

// Collector is the deduplication ledger shared by every utility front-end of a compilation.
// It is safe for concurrent use.
type Collector struct {
	mu        sync.Mutex
	functions map[string]string
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{functions: make(map[string]string)}
}

// CreateFunction returns name, invoking creator only the first time name is requested.
// The creator may request further functions (including name itself, which then
// resolves to the pending entry instead of recursing).
func (c *Collector) CreateFunction(name string, creator func() (string, error)) (string, error) {
	c.mu.Lock()
	if _, ok := c.functions[name]; ok {
		c.mu.Unlock()
		return name, nil
	}
	c.functions[name] = stub
	c.mu.Unlock()

	body, err := creator()
	if err == nil && !strings.Contains(body, "function "+name+"(") {
		err = fmt.Errorf("%w: %s", ErrMisnamedFunction, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		delete(c.functions, name)
		return "", err
	}
	c.functions[name] = body
	return name, nil
}

// Contains reports whether name was requested (generated or in progress).
func (c *Collector) Contains(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.functions[name]
	return ok
}

// Len reports the number of requested functions.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.functions)
}

// Names returns the requested function names sorted.
func (c *Collector) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.functions))
	for name := range c.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Body returns the generated body of name.
func (c *Collector) Body(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.functions[name]
	if !ok || body == stub {
		return "", false
	}
	return body, true
}

// RequestedFunctions concatenates every completed body sorted by name.
// Bodies still in progress are skipped.
func (c *Collector) RequestedFunctions() string {
	var sb strings.Builder
	for _, name := range c.Names() {
		body, ok := c.Body(name)
		if !ok {
			continue
		}
		sb.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
