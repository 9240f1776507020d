package services

import (
	"strings"
	"time"

	"github.com/kizunavi/kizunavi/internal/models"
)

type CompanyStore interface {
	AddCompany(c *models.Company)
	GetCompany(id string) *models.Company
	ListCompanies() []*models.Company
	UpdateCompany(c *models.Company) bool
	AddEmployee(e *models.Employee)
	ListEmployeesByCompany(companyID string) []*models.Employee
}

// CompanyService handles the customer/employee master.
type CompanyService struct {
	store CompanyStore
	now   func() time.Time
	idGen func(prefix string, n int) string
}

// CompanyRegistration is the master-data entry form payload.
type CompanyRegistration struct {
	Name           string             `json:"name"`
	NameKana       string             `json:"name_kana"`
	Address        string             `json:"address"`
	PostalCode     string             `json:"postal_code"`
	Industry       string             `json:"industry"`
	PhoneNumber    string             `json:"phone_number"`
	Email          string             `json:"email"`
	ContractModel  string             `json:"contract_model"`
	ContractDate   string             `json:"contract_date"`
	PaymentCycle   string             `json:"payment_cycle"`
	SalesPersonIDs []string           `json:"sales_person_ids"`
	Employees      []EmployeeRegister `json:"employees"`
}

type EmployeeRegister struct {
	Email   string         `json:"email"`
	Name    string         `json:"name"`
	IDType  string         `json:"id_type"`
	Profile models.Profile `json:"profile"`
}

func NewCompanyService(store CompanyStore) *CompanyService {
	return &CompanyService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func(prefix string, n int) string { return prefix + shortID(n) },
	}
}

// Register validates and stores a company with its employee roster. Required
// fields are checked before anything is written.
func (s *CompanyService) Register(reg CompanyRegistration) (*models.Company, error) {
	if strings.TrimSpace(reg.Name) == "" {
		return nil, NewInvalidError("company name required")
	}
	if strings.TrimSpace(reg.Email) == "" {
		return nil, NewInvalidError("company email required")
	}
	for _, e := range reg.Employees {
		if strings.TrimSpace(e.Email) == "" || strings.TrimSpace(e.Name) == "" {
			return nil, NewInvalidError("employee name and email required")
		}
	}
	c := &models.Company{
		ID:             s.idGen("c", 7),
		Name:           strings.TrimSpace(reg.Name),
		NameKana:       reg.NameKana,
		Address:        reg.Address,
		PostalCode:     reg.PostalCode,
		Industry:       reg.Industry,
		PhoneNumber:    reg.PhoneNumber,
		Email:          strings.TrimSpace(reg.Email),
		ContractModel:  reg.ContractModel,
		ContractDate:   reg.ContractDate,
		PaymentCycle:   reg.PaymentCycle,
		SalesPersonIDs: reg.SalesPersonIDs,
		CreatedAt:      s.now(),
	}
	s.store.AddCompany(c)
	for _, e := range reg.Employees {
		emp := &models.Employee{
			ID:        s.idGen("e", 7),
			Email:     strings.TrimSpace(e.Email),
			Name:      strings.TrimSpace(e.Name),
			CompanyID: c.ID,
			IDType:    e.IDType,
			Profile:   e.Profile,
		}
		s.store.AddEmployee(emp)
		c.Employees = append(c.Employees, emp)
	}
	s.store.UpdateCompany(c)
	return c, nil
}

func (s *CompanyService) Get(id string) (*models.Company, error) {
	c := s.store.GetCompany(id)
	if c == nil {
		return nil, NewNotFoundError("company not found")
	}
	return c, nil
}

func (s *CompanyService) List() []*models.Company {
	return s.store.ListCompanies()
}

// AddEmployees appends roster entries to an existing company.
func (s *CompanyService) AddEmployees(companyID string, regs []EmployeeRegister) ([]*models.Employee, error) {
	c := s.store.GetCompany(companyID)
	if c == nil {
		return nil, NewNotFoundError("company not found")
	}
	out := make([]*models.Employee, 0, len(regs))
	for _, e := range regs {
		if strings.TrimSpace(e.Email) == "" || strings.TrimSpace(e.Name) == "" {
			return nil, NewInvalidError("employee name and email required")
		}
		emp := &models.Employee{
			ID:        s.idGen("e", 7),
			Email:     strings.TrimSpace(e.Email),
			Name:      strings.TrimSpace(e.Name),
			CompanyID: companyID,
			IDType:    e.IDType,
			Profile:   e.Profile,
		}
		s.store.AddEmployee(emp)
		out = append(out, emp)
	}
	return out, nil
}

func (s *CompanyService) Employees(companyID string) []*models.Employee {
	return s.store.ListEmployeesByCompany(companyID)
}
