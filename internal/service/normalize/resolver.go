package normalize

import (
	"strings"
	"sync"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
)

// IDScheme names which directory identifier a source id is matched against.
type IDScheme string

const (
	SchemeGatePass     IDScheme = "gate_pass"
	SchemeDeviceID     IDScheme = "device_id"
	SchemeEmployeeCode IDScheme = "employee_code"
)

// DefaultSchemes is the lookup priority used when a format does not narrow it.
var DefaultSchemes = []IDScheme{SchemeGatePass, SchemeDeviceID, SchemeEmployeeCode}

// Snapshot is an immutable index over a directory listing. It is built once per request
// and may be shared by any number of resolvers.
type Snapshot struct {
	index map[IDScheme]map[string]directory.Entry
	size  int
}

// NewSnapshot indexes entries under every identifier they carry.
func NewSnapshot(entries []directory.Entry) *Snapshot {
	s := &Snapshot{
		index: map[IDScheme]map[string]directory.Entry{
			SchemeGatePass:     {},
			SchemeDeviceID:     {},
			SchemeEmployeeCode: {},
		},
		size: len(entries),
	}
	for _, e := range entries {
		if e.EmployeeID == "" {
			continue
		}
		s.put(SchemeGatePass, e.GatePassNo, e)
		s.put(SchemeDeviceID, e.DeviceID, e)
		s.put(SchemeEmployeeCode, e.EmployeeCode, e)
		// The canonical id itself is accepted as a direct code.
		s.put(SchemeEmployeeCode, e.EmployeeID, e)
	}
	return s
}

func (s *Snapshot) put(scheme IDScheme, raw string, e directory.Entry) {
	key := NormalizeID(raw)
	if key == "" {
		return
	}
	if _, exists := s.index[scheme][key]; exists {
		return
	}
	s.index[scheme][key] = e
}

// Len returns the number of entries the snapshot was built from.
func (s *Snapshot) Len() int {
	return s.size
}

func (s *Snapshot) lookup(key string, schemes []IDScheme) (directory.Entry, bool) {
	for _, scheme := range schemes {
		if e, ok := s.index[scheme][key]; ok {
			return e, true
		}
	}
	return directory.Entry{}, false
}

// Resolver maps source identifiers to canonical employee ids for a single run and
// remembers the identifiers it could not map.
type Resolver struct {
	snapshot *Snapshot
	schemes  []IDScheme

	mu         sync.Mutex
	seen       map[string]struct{}
	unresolved []string
}

// NewResolver creates a per-run resolver. With no schemes the DefaultSchemes order applies.
func NewResolver(snapshot *Snapshot, schemes ...IDScheme) *Resolver {
	if snapshot == nil {
		snapshot = NewSnapshot(nil)
	}
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	return &Resolver{
		snapshot: snapshot,
		schemes:  schemes,
		seen:     make(map[string]struct{}),
	}
}

// Resolve returns the canonical employee id for rawID or "" when the directory has no match.
func (r *Resolver) Resolve(rawID string) string {
	e, ok := r.Lookup(rawID)
	if !ok {
		return ""
	}
	return e.EmployeeID
}

// Lookup is Resolve returning the whole directory entry.
func (r *Resolver) Lookup(rawID string) (directory.Entry, bool) {
	key := NormalizeID(rawID)
	if key == "" {
		return directory.Entry{}, false
	}
	if e, ok := r.snapshot.lookup(key, r.schemes); ok {
		return e, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.seen[key]; !dup {
		r.seen[key] = struct{}{}
		r.unresolved = append(r.unresolved, strings.TrimSpace(rawID))
	}
	return directory.Entry{}, false
}

// Unresolved returns the distinct identifiers that failed to resolve, in first-seen order.
func (r *Resolver) Unresolved() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.unresolved))
	copy(out, r.unresolved)
	return out
}

// NormalizeID folds the spellings one identifier takes across exports: surrounding
// whitespace, letter case, leading zeros and the ".0" a spreadsheet adds to numeric cells.
func NormalizeID(raw string) string {
	s := strings.ToUpper(cellvalue.Clean(raw))
	if s == "" {
		return ""
	}
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" && isDigits(s[:i]) {
		s = s[:i]
	}
	if isDigits(s) {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
