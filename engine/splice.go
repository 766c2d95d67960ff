package engine

// splice returns text with removeLength bytes at index replaced by insert.
// A negative removeLength is treated as zero, index is clamped to the text,
// and a range running past the end stops at the end.
func splice(text string, index, removeLength int, insert string) string {
	if removeLength < 0 {
		removeLength = 0
	}
	if index < 0 {
		index = 0
	}
	if index > len(text) {
		index = len(text)
	}
	var end = index + removeLength
	if end > len(text) {
		end = len(text)
	}
	return text[:index] + insert + text[end:]
}
