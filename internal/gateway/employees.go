package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Employees is the employee service API.
type Employees struct {
	c *Client
}

func (f EmployeeFilter) query() url.Values {
	q := url.Values{}
	if f.Name != "" {
		q.Set("name", f.Name)
	}
	if f.DepartmentID != 0 {
		q.Set("departmentId", strconv.FormatInt(f.DepartmentID, 10))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		q.Set("size", strconv.Itoa(f.Size))
	}
	return q
}

// List returns the employees matching filter.
func (e *Employees) List(ctx context.Context, filter EmployeeFilter) ([]Employee, error) {
	var raw json.RawMessage
	if err := e.c.do(ctx, http.MethodGet, employeesPath, filter.query(), nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[Employee](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode employees: %w", err)
	}
	return items, nil
}

// Get returns one employee together with its department.
func (e *Employees) Get(ctx context.Context, id int64) (*Employee, error) {
	var out Employee
	if err := e.c.do(ctx, http.MethodGet, idPath(employeesPath, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds an employee. Requires the ADMIN role.
func (e *Employees) Create(ctx context.Context, req EmployeeRequest) (*Employee, error) {
	var out Employee
	if err := e.c.do(ctx, http.MethodPost, employeesPath, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an employee. Requires the ADMIN role.
func (e *Employees) Update(ctx context.Context, id int64, req EmployeeRequest) (*Employee, error) {
	var out Employee
	if err := e.c.do(ctx, http.MethodPut, idPath(employeesPath, id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an employee. Requires the ADMIN role.
func (e *Employees) Delete(ctx context.Context, id int64) error {
	return e.c.do(ctx, http.MethodDelete, idPath(employeesPath, id), nil, nil, nil)
}
