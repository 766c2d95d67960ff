package engine

import "testing"

func TestSplice(t *testing.T) {
	var tests = []struct {
		text          string
		index, remove int
		insert        string
		result        string
	}{
		{"hello", 0, 0, "", "hello"},
		{"hello", 0, 0, ">", ">hello"},
		{"hello", 5, 0, "!", "hello!"},
		{"hello", 1, 3, "ipp", "hippo"},
		{"hello", 1, -3, "-", "h-ello"},
		{"hello", -2, 1, "j", "jello"},
		{"hello", 3, 10, "p", "help"},
		{"hello", 10, 1, "!", "hello!"},
		{"", 0, 4, "x", "x"},
	}
	for _, test := range tests {
		result := splice(test.text, test.index, test.remove, test.insert)
		if result != test.result {
			t.Errorf("splice(%q, %d, %d, %q): expected %q, got %q",
				test.text, test.index, test.remove, test.insert, test.result, result)
		}
	}
}
