package employee

import "context"

// Directory is the read side consumed by payroll generation.
type Directory interface {
	ListActive(ctx context.Context) ([]Employee, error)
	GetByID(ctx context.Context, id string) (*Employee, error)
}

type EmployeeRepository interface {
	Directory
	Create(ctx context.Context, e *Employee) error
}
