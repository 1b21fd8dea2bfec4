package normalize

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/service/normalize/parser"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Layout families.
const (
	LayoutBlock    = "block"
	LayoutColumnar = "columnar"
)

var ErrUnknownFormat = errors.New("unknown attendance format")

// Format bundles everything that differs between exports.
type Format struct {
	Key           string
	Layout        string
	Parser        parser.Parser
	Policy        ConsolidationPolicy
	Statuses      StatusTable
	StandardHours decimal.Decimal
	// ShiftHours overrides StandardHours for specific shift codes.
	ShiftHours  map[string]decimal.Decimal
	ShiftPolicy ShiftPolicy
}

// StandardFor returns the standard day length used for overtime on the given shift.
func (f Format) StandardFor(shift string) decimal.Decimal {
	if h, ok := f.ShiftHours[shift]; ok {
		return h
	}
	if f.StandardHours.IsZero() {
		return DefaultStandardHours
	}
	return f.StandardHours
}

// Registry selects a format per branch. Unknown branches get the default format.
type Registry struct {
	formats  map[string]Format
	branches map[string]string
	fallback string
}

// NewRegistry returns a registry holding the built-in formats and branch mapping.
func NewRegistry() *Registry {
	r := &Registry{
		formats:  make(map[string]Format),
		branches: make(map[string]string),
		fallback: FormatCrystal,
	}
	for _, f := range builtinFormats() {
		r.Register(f)
	}
	r.branches[branchKey("Vedanta Plant II")] = FormatGateRegister
	r.branches[branchKey("Lanjigarh")] = FormatInOut
	return r
}

// LoadRegistry builds the built-in registry and applies the YAML overrides at path, if any.
func LoadRegistry(path string) (*Registry, error) {
	r := NewRegistry()
	if path == "" {
		return r, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open format overrides: %w", err)
	}
	defer f.Close()
	if err := r.LoadOverrides(f); err != nil {
		return nil, fmt.Errorf("failed to load format overrides %s: %w", path, err)
	}
	return r, nil
}

// Register adds or replaces a format.
func (r *Registry) Register(f Format) {
	r.formats[f.Key] = f
}

// MapBranch routes a branch to a registered format.
func (r *Registry) MapBranch(branch, key string) error {
	if _, ok := r.formats[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFormat, key)
	}
	r.branches[branchKey(branch)] = key
	return nil
}

// ForBranch returns the format for branch.
func (r *Registry) ForBranch(branch string) Format {
	if key, ok := r.branches[branchKey(branch)]; ok {
		return r.formats[key]
	}
	return r.formats[r.fallback]
}

// Format looks a format up by key.
func (r *Registry) Format(key string) (Format, bool) {
	f, ok := r.formats[key]
	return f, ok
}

// Default returns the key of the fallback format.
func (r *Registry) Default() string {
	return r.fallback
}

// Formats returns every format sorted by key.
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.formats))
	for _, f := range r.formats {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Branches lists the normalized branch keys routed to format key.
func (r *Registry) Branches(key string) []string {
	var out []string
	for b, k := range r.branches {
		if k == key {
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}

func branchKey(branch string) string {
	return strings.ToUpper(cellvalue.Clean(branch))
}

type overrideFile struct {
	Default  string                    `yaml:"default"`
	Branches map[string]string         `yaml:"branches"`
	Formats  map[string]formatOverride `yaml:"formats"`
}

type formatOverride struct {
	StandardHours *float64           `yaml:"standard_hours"`
	ShiftHours    map[string]float64 `yaml:"shift_hours"`
	ShiftPolicy   string             `yaml:"shift_policy"`
	Policy        string             `yaml:"policy"`
	Statuses      map[string]string  `yaml:"statuses"`
	Skip          []string           `yaml:"skip"`
}

var canonicalStatuses = map[string]attendance.Status{
	strings.ToUpper(string(attendance.StatusPresent)):      attendance.StatusPresent,
	strings.ToUpper(string(attendance.StatusAbsent)):       attendance.StatusAbsent,
	strings.ToUpper(string(attendance.StatusHalfDay)):      attendance.StatusHalfDay,
	strings.ToUpper(string(attendance.StatusHoliday)):      attendance.StatusHoliday,
	strings.ToUpper(string(attendance.StatusOnLeave)):      attendance.StatusOnLeave,
	strings.ToUpper(string(attendance.StatusWorkFromHome)): attendance.StatusWorkFromHome,
}

// LoadOverrides applies a YAML document of branch routes and per-format tuning:
//
//	default: crystal
//	branches:
//	  Vedanta Plant III: gate-register
//	formats:
//	  gate-register:
//	    standard_hours: 8
//	    shift_hours: {C: 8.5}
//	    shift_policy: recompute
//	    statuses: {OD: On Leave}
//	    skip: [T]
func (r *Registry) LoadOverrides(rd io.Reader) error {
	var doc overrideFile
	if err := yaml.NewDecoder(rd).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to decode overrides: %w", err)
	}

	for key, o := range doc.Formats {
		f, ok := r.formats[key]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFormat, key)
		}
		if err := applyOverride(&f, o); err != nil {
			return fmt.Errorf("format %s: %w", key, err)
		}
		r.formats[key] = f
	}

	for branch, key := range doc.Branches {
		if err := r.MapBranch(branch, key); err != nil {
			return err
		}
	}

	if doc.Default != "" {
		if _, ok := r.formats[doc.Default]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFormat, doc.Default)
		}
		r.fallback = doc.Default
	}
	return nil
}

func applyOverride(f *Format, o formatOverride) error {
	if o.StandardHours != nil {
		f.StandardHours = decimal.NewFromFloat(*o.StandardHours)
	}
	if len(o.ShiftHours) > 0 {
		hours := make(map[string]decimal.Decimal, len(f.ShiftHours)+len(o.ShiftHours))
		for k, v := range f.ShiftHours {
			hours[k] = v
		}
		for k, v := range o.ShiftHours {
			hours[strings.ToUpper(k)] = decimal.NewFromFloat(v)
		}
		f.ShiftHours = hours
	}

	switch ShiftPolicy(o.ShiftPolicy) {
	case "":
	case ShiftRecompute, ShiftTrustSource:
		f.ShiftPolicy = ShiftPolicy(o.ShiftPolicy)
	default:
		return fmt.Errorf("unknown shift policy %q", o.ShiftPolicy)
	}

	switch ConsolidationPolicy(o.Policy) {
	case "":
	case PolicyFirstLast, PolicyPaired:
		f.Policy = ConsolidationPolicy(o.Policy)
	default:
		return fmt.Errorf("unknown consolidation policy %q", o.Policy)
	}

	if len(o.Statuses) > 0 || len(o.Skip) > 0 {
		codes := make(map[string]attendance.Status, len(o.Statuses))
		for token, name := range o.Statuses {
			status, ok := canonicalStatuses[strings.ToUpper(cellvalue.Clean(name))]
			if !ok {
				return fmt.Errorf("unknown status %q for token %q", name, token)
			}
			codes[token] = status
		}
		f.Statuses = f.Statuses.With(codes, o.Skip...)
	}
	return nil
}
