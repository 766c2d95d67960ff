/*
Package glance renders dashboard widgets for systemd services from directive
templates.

Template syntax

A template is plain text with {{...}} directives:

  {{$name}}                            interpolation
  {{if $a == 1}} ... {{endif}}
  {{if ...}} ... {{elseif ...}} ... {{else}} ... {{endif}}
  {{for item in $list}} ... {{end}}
  {{for item in [1, 2, 3]}} ... {{end}}

Predicates support ==, !=, <, <=, >, >=, &&, || and ! over strings, numbers,
booleans, null, lists and maps.  They are evaluated by a small dedicated
grammar; nothing in a template is ever executed as code.

Usage example

On startup, load every *.html template in a directory and watch it for
changes:

  templates, err := glance.NewBundle().
      WatchFiles(true).                      // reload templates on change
      AddGlobalsFile("templates/globals.txt").
      AddTemplateDir("templates").           // service.html => "service"
      Compile()

To render a template:

  out, err := templates.ResolveByName("service", data.Map{
      "service.name": data.String("nginx"),
  })

Values may be prepared as plain Go values and converted with data.New.
Resolution failures are *errortypes.Error values carrying the kind of failure
and the line of the offending directive.

Sub-packages

The engine package resolves bodies directly and parse exposes the directive
scanner and predicate parser.  The systemd, i18n and widget packages make up
the HTTP widget served by cmd/glance.
*/
package glance
