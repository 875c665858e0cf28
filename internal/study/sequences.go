package study

// sequences is the fixed table of presentation orders: a balanced Latin
// square (Williams design) over the five cases, giving ten rows in which
// every case appears twice in every position and follows every other
// case exactly twice. Rows are addressed by the sequence index the
// balancer assigns (0-9).
var sequences = [][]string{
	{"case-1", "case-2", "case-5", "case-3", "case-4"},
	{"case-2", "case-3", "case-1", "case-4", "case-5"},
	{"case-3", "case-4", "case-2", "case-5", "case-1"},
	{"case-4", "case-5", "case-3", "case-1", "case-2"},
	{"case-5", "case-1", "case-4", "case-2", "case-3"},
	{"case-4", "case-3", "case-5", "case-2", "case-1"},
	{"case-5", "case-4", "case-1", "case-3", "case-2"},
	{"case-1", "case-5", "case-2", "case-4", "case-3"},
	{"case-2", "case-1", "case-3", "case-5", "case-4"},
	{"case-3", "case-2", "case-4", "case-1", "case-5"},
}

// SequenceCount is the number of rows in the sequence table.
const SequenceCount = 10

// SequenceRow returns the case order for a sequence index, or false if
// the index is outside the table.
func SequenceRow(index int) ([]string, bool) {
	if index < 0 || index >= len(sequences) {
		return nil, false
	}
	row := make([]string, len(sequences[index]))
	copy(row, sequences[index])
	return row, true
}
