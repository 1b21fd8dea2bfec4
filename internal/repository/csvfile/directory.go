package csvfile

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/jszwec/csvutil"
)

type directoryRepositoryImpl struct {
	entries []directory.Entry
}

// NewDirectoryRepository loads a directory export with the columns employee_id,
// employee_code, attendance_device_id, gate_pass_no, employee_name and company.
// Missing optional columns are left blank.
func NewDirectoryRepository(path string) (directory.Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}
	entries, err := ParseDirectory(data)
	if err != nil {
		return nil, err
	}
	return &directoryRepositoryImpl{entries: entries}, nil
}

// ParseDirectory decodes a directory CSV. Rows without an employee_id are dropped.
func ParseDirectory(data []byte) ([]directory.Entry, error) {
	var rows []directory.Entry
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse directory file: %w", err)
	}

	entries := rows[:0]
	for _, e := range rows {
		e.EmployeeID = strings.TrimSpace(e.EmployeeID)
		if e.EmployeeID == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ListEntries implements directory.Repository. Entries without a company belong to every
// company.
func (r *directoryRepositoryImpl) ListEntries(ctx context.Context, company string) ([]directory.Entry, error) {
	var out []directory.Entry
	for _, e := range r.entries {
		if e.Company == "" || strings.EqualFold(strings.TrimSpace(e.Company), strings.TrimSpace(company)) {
			out = append(out, e)
		}
	}
	return out, nil
}
