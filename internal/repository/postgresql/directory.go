package postgresql

import (
	"context"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/database"
)

type directoryRepositoryImpl struct {
	db *database.DB
}

func NewDirectoryRepository(db *database.DB) directory.Repository {
	return &directoryRepositoryImpl{db: db}
}

// ListEntries implements directory.Repository.
func (r *directoryRepositoryImpl) ListEntries(ctx context.Context, company string) ([]directory.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id,
			COALESCE(employee_code, ''), COALESCE(attendance_device_id, ''), COALESCE(gate_pass_no, ''),
			COALESCE(employee_name, ''), company
		FROM employees
		WHERE company = $1 AND status = $2
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, company, "Active")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []directory.Entry
	for rows.Next() {
		var e directory.Entry
		err := rows.Scan(&e.EmployeeID, &e.EmployeeCode, &e.DeviceID, &e.GatePassNo, &e.DisplayName, &e.Company)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
