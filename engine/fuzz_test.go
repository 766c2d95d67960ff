package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/systemd-glance/glance/data"
	"github.com/systemd-glance/glance/errortypes"
)

func FuzzResolve(f *testing.F) {
	for _, seed := range []string{
		"",
		"Hello {{$name}}!",
		"{{if $a == 1}}A{{elseif $a > 1}}B{{else}}C{{endif}}",
		"{{for x in $xs}}[{{$x}}]{{end}}",
		"{{for x in [1, 2]}}{{if $x == 2}}{{$x}}{{endif}}{{end}}",
		"{{for x in []}}{{for y in $xs}}{{end}}{{end}}",
		"a\n{{if}}\n{{endif}}",
	} {
		f.Add(seed)
	}
	var vars = data.Map{
		"name": data.String("World"),
		"a":    data.Int(1),
		"xs":   data.List{data.Int(1), data.String("two")},
	}
	f.Fuzz(func(t *testing.T, body string) {
		result, err := Resolve(body, vars, MaxDepth(4))
		if err != nil {
			var e *errortypes.Error
			if !errors.As(err, &e) {
				t.Fatalf("%q: unexpected error type %T: %v", body, err, err)
			}
			if e.Pos.Line < 1 || e.Pos.Line > strings.Count(body, "\n")+1 {
				t.Fatalf("%q: line %d out of range", body, e.Pos.Line)
			}
			return
		}
		if !strings.Contains(body, "{{") && result != body {
			t.Fatalf("%q: marker-free body changed to %q", body, result)
		}
	})
}
