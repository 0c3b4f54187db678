package gateway

// Department is a department as returned by the department service.
type Department struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// DepartmentRequest creates or replaces a department.
type DepartmentRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Employee is an employee as returned by the employee service. Department
// is only populated by Get.
type Employee struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Position     string      `json:"position"`
	DepartmentID int64       `json:"departmentId"`
	Department   *Department `json:"department,omitempty"`
}

// EmployeeRequest creates or replaces an employee.
type EmployeeRequest struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	DepartmentID int64  `json:"departmentId"`
}

// EmployeeFilter narrows an employee listing. Zero values are omitted.
type EmployeeFilter struct {
	Name         string
	DepartmentID int64
	Page         int
	Size         int
}

// page is the paginated envelope the services return for listings.
type page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}
