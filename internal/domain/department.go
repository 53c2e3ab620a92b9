package domain

// Department is the organizational unit a ticket is routed to.
type Department string

const (
	DepartmentMarketing Department = "MARKETING"
	DepartmentFinancial Department = "FINANCIAL"
	DepartmentTechnical Department = "TECHNICAL"
)

// Departments lists every routable department.
var Departments = []Department{DepartmentMarketing, DepartmentFinancial, DepartmentTechnical}

// Valid reports whether d is one of the fixed departments.
func (d Department) Valid() bool {
	switch d {
	case DepartmentMarketing, DepartmentFinancial, DepartmentTechnical:
		return true
	}
	return false
}
