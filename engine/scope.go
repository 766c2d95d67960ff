package engine

import (
	"strconv"
	"strings"

	"github.com/systemd-glance/glance/data"
)

type scope []data.Map // a chain of variable frames, outermost first

// push returns a new chain with m as its deepest frame.  The receiver is never
// modified, so sibling loop iterations cannot see each other's bindings.
func (s scope) push(m data.Map) scope {
	var chain = make(scope, len(s), len(s)+1)
	copy(chain, s)
	return append(chain, m)
}

// lookup checks the variable frames, deepest out, for the given name.  Within
// a frame an exact key wins; otherwise a dotted name such as "service.name" or
// "items.0" walks into maps and lists from its first segment.
func (s scope) lookup(name string) (data.Value, bool) {
	for i := range s {
		var frame = s[len(s)-i-1]
		if val, ok := frame[name]; ok {
			return val, true
		}
		if val, ok := walk(frame, name); ok {
			return val, true
		}
	}
	return data.Undefined{}, false
}

func walk(frame data.Map, name string) (data.Value, bool) {
	var parts = strings.Split(name, ".")
	if len(parts) < 2 {
		return nil, false
	}
	ref, ok := frame[parts[0]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		switch obj := ref.(type) {
		case data.Map:
			if ref, ok = obj[part]; !ok {
				return nil, false
			}
		case data.List:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(obj) {
				return nil, false
			}
			ref = obj[index]
		default:
			return nil, false
		}
	}
	return ref, true
}
