package directory

// Entry is one row of the personnel directory snapshot. Any of the source identifiers
// may be blank; EmployeeID is the canonical identifier written to attendance records.
type Entry struct {
	EmployeeID   string `json:"employee_id" csv:"employee_id"`
	EmployeeCode string `json:"employee_code" csv:"employee_code"`
	DeviceID     string `json:"device_id" csv:"attendance_device_id"`
	GatePassNo   string `json:"gate_pass_no" csv:"gate_pass_no"`
	DisplayName  string `json:"display_name" csv:"employee_name"`
	Company      string `json:"company" csv:"company"`
}
