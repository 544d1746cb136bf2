package catalog

import "context"

// MemCatalog is an in-memory catalog for tests and single-instance
// development. Qualifications preserve roster order, which is the slot
// search tie-break.
type MemCatalog struct {
	Services []Service
	Staff    []Staff
	// Qualified maps service id to staff ids, roster order.
	Qualified map[int][]int
}

func NewMemCatalog() *MemCatalog {
	return &MemCatalog{Qualified: make(map[int][]int)}
}

func (m *MemCatalog) AddService(s Service) {
	m.Services = append(m.Services, s)
}

func (m *MemCatalog) AddStaff(s Staff, serviceIDs ...int) {
	m.Staff = append(m.Staff, s)
	for _, svcID := range serviceIDs {
		m.Qualified[svcID] = append(m.Qualified[svcID], s.ID)
	}
}

func (m *MemCatalog) ServiceByCode(ctx context.Context, code string) (Service, error) {
	for _, s := range m.Services {
		if s.Code == code {
			return s, nil
		}
	}
	return Service{}, ErrServiceNotFound
}

func (m *MemCatalog) ServiceByID(ctx context.Context, id int) (Service, error) {
	for _, s := range m.Services {
		if s.ID == id {
			return s, nil
		}
	}
	return Service{}, ErrServiceNotFound
}

func (m *MemCatalog) ListServices(ctx context.Context) ([]Service, error) {
	out := make([]Service, len(m.Services))
	copy(out, m.Services)
	return out, nil
}

func (m *MemCatalog) StaffQualifiedFor(ctx context.Context, serviceID int) ([]Staff, error) {
	var out []Staff
	for _, id := range m.Qualified[serviceID] {
		for _, st := range m.Staff {
			if st.ID == id {
				out = append(out, st)
			}
		}
	}
	return out, nil
}

func (m *MemCatalog) StaffByID(ctx context.Context, id int) (Staff, error) {
	for _, st := range m.Staff {
		if st.ID == id {
			return st, nil
		}
	}
	return Staff{}, ErrStaffNotFound
}

func (m *MemCatalog) IsQualified(ctx context.Context, staffID, serviceID int) (bool, error) {
	for _, id := range m.Qualified[serviceID] {
		if id == staffID {
			return true, nil
		}
	}
	return false, nil
}
