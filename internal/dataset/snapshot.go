package dataset

import (
	"slices"
	"time"
)

// AllMethods selects every detection method.
const AllMethods = "All"

// Snapshot is an immutable parsed archive table. It is safe for
// concurrent use once returned by Parse or LoadFile.
type Snapshot struct {
	header   []string
	columns  map[string]int
	records  []Record
	byKey    map[string]int
	methods  []string
	source   string
	modTime  time.Time
	loadedAt time.Time
	skipped  int
}

func (s *Snapshot) add(r Record) {
	r.ID = len(s.records) + 1
	if _, dup := s.byKey[r.Key]; !dup && r.Key != "" {
		s.byKey[r.Key] = len(s.records)
	}
	s.records = append(s.records, r)
}

// buildMethods lists distinct methods in reverse order of first appearance.
// Rows without a method are only reachable through AllMethods.
func (s *Snapshot) buildMethods() {
	seen := make(map[string]struct{})
	var firstSeen []string
	for i := range s.records {
		m := s.records[i].DetectionMethod
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		firstSeen = append(firstSeen, m)
	}
	slices.Reverse(firstSeen)
	s.methods = append([]string{AllMethods}, firstSeen...)
}

// Len returns the number of canonical records.
func (s *Snapshot) Len() int { return len(s.records) }

// Records returns a copy of all canonical records in ID order.
func (s *Snapshot) Records() []Record {
	return slices.Clone(s.records)
}

// Header returns a copy of the original CSV header.
func (s *Snapshot) Header() []string {
	return slices.Clone(s.header)
}

// Source is the file the snapshot was loaded from, empty when parsed from a reader.
func (s *Snapshot) Source() string { return s.source }

// ModTime is the modification time of the source file.
func (s *Snapshot) ModTime() time.Time { return s.modTime }

// LoadedAt is when the snapshot was parsed.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Skipped is the number of malformed rows ignored during parsing.
func (s *Snapshot) Skipped() int { return s.skipped }

// Lookup finds a planet by name, ignoring case and surrounding whitespace.
func (s *Snapshot) Lookup(name string) (Record, bool) {
	idx, ok := s.byKey[normalizeKey(name)]
	if !ok {
		return Record{}, false
	}
	return s.records[idx], true
}

// Methods returns "All" followed by the distinct detection methods.
func (s *Snapshot) Methods() []string {
	return slices.Clone(s.methods)
}

// HasMethod reports whether method is selectable.
func (s *Snapshot) HasMethod(method string) bool {
	return slices.Contains(s.methods, method)
}

// Filter returns the records discovered with method, or all records for
// AllMethods. An unknown method yields an empty slice.
func (s *Snapshot) Filter(method string) []Record {
	if method == AllMethods {
		return s.Records()
	}
	var out []Record
	for i := range s.records {
		if s.records[i].DetectionMethod == method {
			out = append(out, s.records[i])
		}
	}
	return out
}
