package parse

import (
	"errors"
	"strings"
	"testing"

	"github.com/systemd-glance/glance/errortypes"
)

func TestReplaceVars(t *testing.T) {
	var values = map[string]string{
		"a":            "1",
		"service.name": `"nginx"`,
	}
	var repl = func(name string) (string, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return "", errors.New("missing " + name)
	}
	var tests = []struct{ input, output string }{
		{`$a == 1`, `1 == 1`},
		{`$service.name == "nginx"`, `"nginx" == "nginx"`},
		{`"$a" == $a`, `"$a" == 1`},
		{`'it\'s $a' == $a`, `'it\'s $a' == 1`},
		{`"say \"$a\"" != $a`, `"say \"$a\"" != 1`},
		{`$ == 1`, `$ == 1`},
	}
	for _, test := range tests {
		got, err := ReplaceVars(test.input, repl)
		if err != nil {
			t.Errorf("%s: %v", test.input, err)
			continue
		}
		if got != test.output {
			t.Errorf("%s: expected %s, got %s", test.input, test.output, got)
		}
	}

	if _, err := ReplaceVars(`$missing == 1`, repl); err == nil || err.Error() != "missing missing" {
		t.Errorf("expected the replacement error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	var tests = []struct {
		name string
		body string
		kind errortypes.Kind // zero when the body is valid
		line int
	}{
		{"plain", "hello", 0, 0},
		{"variables", "{{$a}} {{$b.c}}", 0, 0},
		{"if chain", "{{if $a == 1}}a{{elseif $a == 2}}b{{else}}c{{endif}}", 0, 0},
		{"nested", "{{for x in $xs}}{{if $x > 0}}{{for y in [1, 2]}}{{$y}}{{end}}{{endif}}{{end}}", 0, 0},
		{"inline map list", `{{for x in [{"a": 1}]}}{{end}}`, 0, 0},

		{"unknown command", "a\n{{bogus}}", errortypes.UnknownCommand, 2},
		{"if without predicate", "{{if}}{{endif}}", errortypes.InvalidDirective, 1},
		{"single-token if", "{{if $a}}{{endif}}", errortypes.InvalidDirective, 1},
		{"single-token elseif", "{{if $a == 1}}\n{{elseif $b}}{{endif}}", errortypes.InvalidDirective, 2},
		{"else with args", "{{if $a == 1}}\n{{else $b}}{{endif}}", errortypes.InvalidDirective, 2},
		{"else after else", "{{if $a == 1}}{{else}}\n{{else}}{{endif}}", errortypes.InvalidDirective, 2},
		{"elseif after else", "{{if $a == 1}}{{else}}\n\n{{elseif $b == 1}}{{endif}}", errortypes.InvalidDirective, 3},
		{"end with args", "{{for x in $xs}}{{end x}}", errortypes.InvalidDirective, 1},
		{"short for", "{{for x in}}{{end}}", errortypes.InvalidDirective, 1},
		{"for without in", "{{for x of $xs}}{{end}}", errortypes.InvalidIterable, 1},
		{"inline not list", `{{for x in "abc"}}{{end}}`, errortypes.InvalidIterable, 1},
		{"inline bad json", `{{for x in [1,}}{{end}}`, errortypes.InvalidIterable, 1},
		{"bad predicate", "\n{{if $a ==}}{{endif}}", errortypes.PredicateEvaluationError, 2},
		{"stray endif", "a\nb\n{{endif}}", errortypes.UnmatchedDirective, 3},
		{"stray end", "{{end}}", errortypes.UnmatchedDirective, 1},
		{"stray else", "{{else}}", errortypes.UnmatchedDirective, 1},
		{"crossed", "{{if $a == 1}}{{for x in $xs}}{{endif}}{{end}}", errortypes.UnmatchedDirective, 1},
		{"unclosed if", "x\n{{if $a == 1}}", errortypes.UnmatchedDirective, 2},
		{"unclosed for", "{{for x in $xs}}\n{{if $x == 1}}{{endif}}", errortypes.UnmatchedDirective, 1},
	}
	for _, test := range tests {
		err := Check("test", test.body)
		if test.kind == 0 {
			if err != nil {
				t.Errorf("%s: unexpected error %v", test.name, err)
			}
			continue
		}
		var e *errortypes.Error
		if !errors.As(err, &e) {
			t.Errorf("%s: expected a template error, got %v", test.name, err)
			continue
		}
		if e.Kind != test.kind {
			t.Errorf("%s: expected %v, got %v", test.name, test.kind, e.Kind)
		}
		if e.Pos.Line != test.line {
			t.Errorf("%s: expected line %d, got %d", test.name, test.line, e.Pos.Line)
		}
		if !strings.HasPrefix(e.Error(), "template test:") {
			t.Errorf("%s: unexpected message %q", test.name, e.Error())
		}
	}
}
