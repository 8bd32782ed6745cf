package config

import "sort"

// Namespace is an immutable set of resolved options keyed by option name
type Namespace struct {
	values map[string]interface{}
}

// NewNamespace merges option layers into a namespace. Later layers win.
// Nil values in a layer are skipped so an unset option never masks an
// earlier layer.
func NewNamespace(layers ...map[string]interface{}) Namespace {
	values := make(map[string]interface{})
	for _, layer := range layers {
		for k, v := range layer {
			if v == nil {
				continue
			}
			values[k] = v
		}
	}
	return Namespace{values: values}
}

// Get returns the option value for key
func (n Namespace) Get(key string) (interface{}, bool) {
	v, ok := n.values[key]
	return v, ok
}

// Keys returns the option names in sorted order
func (n Namespace) Keys() []string {
	keys := make([]string, 0, len(n.values))
	for k := range n.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of options
func (n Namespace) Len() int {
	return len(n.values)
}
