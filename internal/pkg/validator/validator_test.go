package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"\t\n", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // v7
		"9b2c1d3e-4f5a-4b6c-9d7e-8f9a0b1c2d3e", // v4
		"9B2C1D3E-4F5A-4B6C-9D7E-8F9A0B1C2D3E", // uppercase
	}
	invalid := []string{
		"9b2c1d3e-4f5a-0b6c-9d7e-8f9a0b1c2d3e", // version 0
		"0188d0f27b8c7b4a8a2b6b8b8b8b8b8b",     // missing dashes
		"g188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", // invalid hex
		"missing",
		"",
	}
	for _, uuid := range valid {
		if !IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = false, want true", uuid)
		}
	}
	for _, uuid := range invalid {
		if IsValidUUID(uuid) {
			t.Errorf("IsValidUUID(%q) = true, want false", uuid)
		}
	}
}

func TestParseDate(t *testing.T) {
	valid := []string{"2025-07-01", "2024-02-29", " 2025-07-31 "}
	invalid := []string{"01/07/2025", "2025-13-01", "2025-02-29", "2025-7-1", ""}
	for _, s := range valid {
		if _, ok := ParseDate(s); !ok {
			t.Errorf("ParseDate(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if _, ok := ParseDate(s); ok {
			t.Errorf("ParseDate(%q) = true, want false", s)
		}
	}
}

func TestHasExtension(t *testing.T) {
	allowed := []string{".xlsx", ".csv"}
	cases := []struct {
		filename string
		want     bool
	}{
		{"export.csv", true},
		{"EXPORT.XLSX", true},
		{"register.pdf", false},
		{"csv", false},
		{"", false},
	}
	for _, c := range cases {
		if got := HasExtension(c.filename, allowed); got != c.want {
			t.Errorf("HasExtension(%q) = %v, want %v", c.filename, got, c.want)
		}
	}
}

func TestValidationErrors_Err(t *testing.T) {
	var errs ValidationErrors
	if errs.Err() != nil {
		t.Errorf("empty ValidationErrors.Err() = %v, want nil", errs.Err())
	}
	errs.Add("branch", "branch is required")
	if errs.Err() == nil || errs.Err().Error() != "branch: branch is required" {
		t.Errorf("ValidationErrors.Err() = %v, want branch error", errs.Err())
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "company", Message: "company is required"},
		{Field: "from_date", Message: "invalid"},
	}
	got := errs.Error()
	want := "company: company is required; from_date: invalid"
	if got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}

func TestValidationErrors_ToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "company", Message: "required"},
		{Field: "file", Message: "invalid file type"},
	}
	got := errs.ToMap()
	want := map[string]string{"company": "required", "file": "invalid file type"}
	if len(got) != len(want) {
		t.Errorf("ValidationErrors.ToMap() length = %d, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ValidationErrors.ToMap()[%q] = %q, want %q", k, got[k], v)
		}
	}
}
