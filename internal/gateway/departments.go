package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Departments is the department service API.
type Departments struct {
	c *Client
}

// List returns all departments.
func (d *Departments) List(ctx context.Context) ([]Department, error) {
	var raw json.RawMessage
	if err := d.c.do(ctx, http.MethodGet, departmentsPath, nil, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[Department](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode departments: %w", err)
	}
	return items, nil
}

// Get returns one department.
func (d *Departments) Get(ctx context.Context, id int64) (*Department, error) {
	var out Department
	if err := d.c.do(ctx, http.MethodGet, idPath(departmentsPath, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds a department. Requires the ADMIN role.
func (d *Departments) Create(ctx context.Context, req DepartmentRequest) (*Department, error) {
	var out Department
	if err := d.c.do(ctx, http.MethodPost, departmentsPath, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a department. Requires the ADMIN role.
func (d *Departments) Update(ctx context.Context, id int64, req DepartmentRequest) (*Department, error) {
	var out Department
	if err := d.c.do(ctx, http.MethodPut, idPath(departmentsPath, id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a department. Requires the ADMIN role.
func (d *Departments) Delete(ctx context.Context, id int64) error {
	return d.c.do(ctx, http.MethodDelete, idPath(departmentsPath, id), nil, nil, nil)
}
