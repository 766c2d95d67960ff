// Package template holds loaded template bodies by name.
package template

// Template is a named template body.  A Template is never modified once it
// has been added to a Store; reloading replaces it with a new value.
type Template struct {
	Name string // e.g. "service"
	File string // source file, empty for templates added from strings
	Body string
}
