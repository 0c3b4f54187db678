package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartments(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == departmentsPath:
			writeJSON(w, http.StatusOK, map[string]any{
				"content":       []Department{{ID: 1, Name: "Engineering", Location: "Berlin"}},
				"totalElements": 1,
			})
		case r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, Department{ID: 1, Name: "Engineering", Location: "Berlin"})
		case r.Method == http.MethodPost:
			writeJSON(w, http.StatusCreated, Department{ID: 2, Name: "Sales", Location: "Paris"})
		case r.Method == http.MethodPut:
			writeJSON(w, http.StatusOK, Department{ID: 2, Name: "Sales", Location: "Lyon"})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	repo, _ := newRepo(t, "a.b.c")
	departments := NewClient(g.URL+"/", repo).Departments
	ctx := context.Background()

	list, err := departments.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Department{{ID: 1, Name: "Engineering", Location: "Berlin"}}, list)

	got, err := departments.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Engineering", got.Name)
	assert.Equal(t, "/department-service/departments/1", g.last().Path)

	created, err := departments.Create(ctx, DepartmentRequest{Name: "Sales", Location: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
	assert.Equal(t, map[string]any{"name": "Sales", "location": "Paris"}, g.last().Body)

	updated, err := departments.Update(ctx, 2, DepartmentRequest{Name: "Sales", Location: "Lyon"})
	require.NoError(t, err)
	assert.Equal(t, "Lyon", updated.Location)
	assert.Equal(t, http.MethodPut, g.last().Method)

	require.NoError(t, departments.Delete(ctx, 2))
	assert.Equal(t, "/department-service/departments/2", g.last().Path)
}

func TestEmployees(t *testing.T) {
	g := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == employeesPath:
			writeJSON(w, http.StatusOK, []Employee{{ID: 5, Name: "Ada", Position: "Engineer", DepartmentID: 1}})
		case r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, Employee{
				ID: 5, Name: "Ada", Position: "Engineer", DepartmentID: 1,
				Department: &Department{ID: 1, Name: "Engineering", Location: "Berlin"},
			})
		case r.Method == http.MethodPost, r.Method == http.MethodPut:
			writeJSON(w, http.StatusOK, Employee{ID: 5, Name: "Ada", Position: "Lead", DepartmentID: 1})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	repo, _ := newRepo(t, "a.b.c")
	employees := NewClient(g.URL, repo).Employees
	ctx := context.Background()

	t.Run("list with filter", func(t *testing.T) {
		list, err := employees.List(ctx, EmployeeFilter{Name: "Ada Lovelace", DepartmentID: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Ada", list[0].Name)
		assert.Equal(t, "departmentId=1&name=Ada+Lovelace", g.last().Query)
	})

	t.Run("list without filter", func(t *testing.T) {
		_, err := employees.List(ctx, EmployeeFilter{})
		require.NoError(t, err)
		assert.Empty(t, g.last().Query)
	})

	t.Run("get includes department", func(t *testing.T) {
		emp, err := employees.Get(ctx, 5)
		require.NoError(t, err)
		require.NotNil(t, emp.Department)
		assert.Equal(t, "Engineering", emp.Department.Name)
	})

	t.Run("create and update", func(t *testing.T) {
		_, err := employees.Create(ctx, EmployeeRequest{Name: "Ada", Position: "Engineer", DepartmentID: 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "Ada", "position": "Engineer", "departmentId": float64(1)}, g.last().Body)

		updated, err := employees.Update(ctx, 5, EmployeeRequest{Name: "Ada", Position: "Lead", DepartmentID: 1})
		require.NoError(t, err)
		assert.Equal(t, "Lead", updated.Position)
		assert.Equal(t, "/employee-service/employees/5", g.last().Path)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, employees.Delete(ctx, 5))
		assert.Equal(t, http.MethodDelete, g.last().Method)
	})
}

func TestDecodeList(t *testing.T) {
	items, err := decodeList[Department]([]byte(` [{"id":1,"name":"A","location":"B"}]`))
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = decodeList[Department]([]byte(`{"content":[],"totalElements":0}`))
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = decodeList[Department]([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, items)

	_, err = decodeList[Department]([]byte(`"nope"`))
	assert.Error(t, err)
}
