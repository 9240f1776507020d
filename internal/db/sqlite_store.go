// Package db provides the sqlite-backed Store implementation.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/store"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func logErr(prefix string, err error) {
	if err != nil {
		log.Error().Err(err).Str("op", prefix).Msg("sqlite store")
	}
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		logErr("encode json", err)
		return "null"
	}
	return string(b)
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func (s *SQLiteStore) FindUserByEmail(email string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, company_id, role, pass_hash, profile, created_at FROM users WHERE email = ?`,
		strings.TrimSpace(email))
	return scanUser(row)
}

func (s *SQLiteStore) GetUser(id string) (*models.User, error) {
	row := s.db.QueryRow(
		`SELECT id, email, company_id, role, pass_hash, profile, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role string
	var profile sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.CompanyID, &role, &u.PassHash, &profile, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	if profile.Valid && profile.String != "" {
		var p models.Profile
		if err := json.Unmarshal([]byte(profile.String), &p); err == nil {
			u.Profile = &p
		} else {
			logErr("decode user profile", err)
		}
	}
	return &u, nil
}

func (s *SQLiteStore) AddUser(u *models.User) error {
	var profile any
	if u.Profile != nil {
		profile = encodeJSON(u.Profile)
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, company_id, role, pass_hash, profile, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.CompanyID, string(u.Role), u.PassHash, profile, u.CreatedAt)
	return err
}

func (s *SQLiteStore) ListQuestions() []*models.Question {
	rows, err := s.db.Query(`SELECT id, text, type, category, note, ord FROM questions ORDER BY ord`)
	if err != nil {
		logErr("list questions", err)
		return nil
	}
	defer rows.Close()
	var out []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			logErr("scan question", err)
			continue
		}
		out = append(out, q)
	}
	logErr("list questions rows", rows.Err())
	return out
}

func (s *SQLiteStore) GetQuestion(id string) *models.Question {
	row := s.db.QueryRow(`SELECT id, text, type, category, note, ord FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logErr("get question", err)
		return nil
	}
	return q
}

type rowScanner interface{ Scan(dest ...any) error }

func scanQuestion(r rowScanner) (*models.Question, error) {
	var q models.Question
	var typ string
	if err := r.Scan(&q.ID, &q.Text, &typ, &q.Category, &q.Note, &q.Order); err != nil {
		return nil, err
	}
	q.Type = models.QuestionType(typ)
	return &q, nil
}

func (s *SQLiteStore) PutQuestion(q *models.Question) {
	_, err := s.db.Exec(
		`INSERT INTO questions (id, text, type, category, note, ord) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET text = excluded.text, type = excluded.type,
		 category = excluded.category, note = excluded.note, ord = excluded.ord`,
		q.ID, q.Text, string(q.Type), q.Category, q.Note, q.Order)
	logErr("put question", err)
}

func (s *SQLiteStore) AddSurvey(sv *models.Survey) {
	_, err := s.db.Exec(
		`INSERT INTO surveys (id, title, company_id, deadline, status, target_employee_count,
		 implementation_date, questions, created_at, published_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sv.ID, sv.Title, sv.CompanyID, sv.Deadline, string(sv.Status), sv.TargetEmployeeCount,
		sv.ImplementationDate, encodeJSON(sv.Questions), sv.CreatedAt,
		toNullTime(sv.PublishedAt), toNullTime(sv.CompletedAt))
	logErr("add survey", err)
}

func (s *SQLiteStore) GetSurvey(id string) *models.Survey {
	row := s.db.QueryRow(
		`SELECT id, title, company_id, deadline, status, target_employee_count,
		 implementation_date, questions, created_at, published_at, completed_at
		 FROM surveys WHERE id = ?`, id)
	sv, err := scanSurvey(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logErr("get survey", err)
		return nil
	}
	return sv
}

func scanSurvey(r rowScanner) (*models.Survey, error) {
	var sv models.Survey
	var status, questions string
	var published, completed sql.NullTime
	err := r.Scan(&sv.ID, &sv.Title, &sv.CompanyID, &sv.Deadline, &status, &sv.TargetEmployeeCount,
		&sv.ImplementationDate, &questions, &sv.CreatedAt, &published, &completed)
	if err != nil {
		return nil, err
	}
	sv.Status = models.SurveyStatus(status)
	sv.PublishedAt = fromNullTime(published)
	sv.CompletedAt = fromNullTime(completed)
	if err := json.Unmarshal([]byte(questions), &sv.Questions); err != nil {
		return nil, fmt.Errorf("decode survey questions: %w", err)
	}
	return &sv, nil
}

func (s *SQLiteStore) UpdateSurvey(sv *models.Survey) bool {
	res, err := s.db.Exec(
		`UPDATE surveys SET title = ?, deadline = ?, status = ?, target_employee_count = ?,
		 implementation_date = ?, questions = ?, published_at = ?, completed_at = ? WHERE id = ?`,
		sv.Title, sv.Deadline, string(sv.Status), sv.TargetEmployeeCount,
		sv.ImplementationDate, encodeJSON(sv.Questions),
		toNullTime(sv.PublishedAt), toNullTime(sv.CompletedAt), sv.ID)
	if err != nil {
		logErr("update survey", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) ListSurveysByCompany(companyID string) []*models.Survey {
	rows, err := s.db.Query(
		`SELECT id, title, company_id, deadline, status, target_employee_count,
		 implementation_date, questions, created_at, published_at, completed_at
		 FROM surveys WHERE company_id = ? ORDER BY created_at`, companyID)
	if err != nil {
		logErr("list surveys", err)
		return nil
	}
	defer rows.Close()
	var out []*models.Survey
	for rows.Next() {
		sv, err := scanSurvey(rows)
		if err != nil {
			logErr("scan survey", err)
			continue
		}
		out = append(out, sv)
	}
	logErr("list surveys rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddAccessToken(t *models.AccessToken) {
	_, err := s.db.Exec(
		`INSERT INTO access_tokens (token, survey_id, employee_id, used, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.Token, t.SurveyID, t.EmployeeID, t.Used, t.CreatedAt)
	logErr("add access token", err)
}

func (s *SQLiteStore) GetAccessToken(token string) *models.AccessToken {
	row := s.db.QueryRow(
		`SELECT token, survey_id, employee_id, used, created_at FROM access_tokens WHERE token = ?`, token)
	var t models.AccessToken
	err := row.Scan(&t.Token, &t.SurveyID, &t.EmployeeID, &t.Used, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logErr("get access token", err)
		return nil
	}
	return &t
}

func (s *SQLiteStore) MarkTokenUsed(token string) bool {
	res, err := s.db.Exec(`UPDATE access_tokens SET used = 1 WHERE token = ?`, token)
	if err != nil {
		logErr("mark token used", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) AddSurveyResponse(r *models.SurveyResponse) error {
	_, err := s.db.Exec(
		`INSERT INTO survey_responses (id, survey_id, employee_id, answers, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.SurveyID, r.EmployeeID, encodeJSON(r.Answers), r.SubmittedAt)
	return err
}

func (s *SQLiteStore) GetResponseByEmployee(surveyID, employeeID string) *models.SurveyResponse {
	if employeeID == "" {
		return nil
	}
	row := s.db.QueryRow(
		`SELECT id, survey_id, employee_id, answers, submitted_at FROM survey_responses
		 WHERE survey_id = ? AND employee_id = ?`, surveyID, employeeID)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logErr("get response", err)
		return nil
	}
	return r
}

func scanResponse(r rowScanner) (*models.SurveyResponse, error) {
	var resp models.SurveyResponse
	var answers string
	if err := r.Scan(&resp.ID, &resp.SurveyID, &resp.EmployeeID, &answers, &resp.SubmittedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &resp.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return &resp, nil
}

func (s *SQLiteStore) ListResponsesBySurvey(surveyID string) []*models.SurveyResponse {
	rows, err := s.db.Query(
		`SELECT id, survey_id, employee_id, answers, submitted_at FROM survey_responses
		 WHERE survey_id = ? ORDER BY submitted_at`, surveyID)
	if err != nil {
		logErr("list responses", err)
		return nil
	}
	defer rows.Close()
	var out []*models.SurveyResponse
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			logErr("scan response", err)
			continue
		}
		out = append(out, r)
	}
	logErr("list responses rows", rows.Err())
	return out
}

func (s *SQLiteStore) AddCompany(c *models.Company) {
	_, err := s.db.Exec(
		`INSERT INTO companies (id, name, name_kana, address, postal_code, industry, phone_number,
		 email, contract_model, contract_date, payment_cycle, sales_person_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.NameKana, c.Address, c.PostalCode, c.Industry, c.PhoneNumber,
		c.Email, c.ContractModel, c.ContractDate, c.PaymentCycle, encodeJSON(c.SalesPersonIDs), c.CreatedAt)
	logErr("add company", err)
}

func (s *SQLiteStore) GetCompany(id string) *models.Company {
	row := s.db.QueryRow(companySelect+` WHERE id = ?`, id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		logErr("get company", err)
		return nil
	}
	c.Employees = s.ListEmployeesByCompany(c.ID)
	return c
}

const companySelect = `SELECT id, name, name_kana, address, postal_code, industry, phone_number,
 email, contract_model, contract_date, payment_cycle, sales_person_ids, created_at FROM companies`

func scanCompany(r rowScanner) (*models.Company, error) {
	var c models.Company
	var sales string
	err := r.Scan(&c.ID, &c.Name, &c.NameKana, &c.Address, &c.PostalCode, &c.Industry, &c.PhoneNumber,
		&c.Email, &c.ContractModel, &c.ContractDate, &c.PaymentCycle, &sales, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sales), &c.SalesPersonIDs); err != nil {
		logErr("decode sales person ids", err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListCompanies() []*models.Company {
	rows, err := s.db.Query(companySelect + ` ORDER BY id`)
	if err != nil {
		logErr("list companies", err)
		return nil
	}
	defer rows.Close()
	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			logErr("scan company", err)
			continue
		}
		out = append(out, c)
	}
	logErr("list companies rows", rows.Err())
	for _, c := range out {
		c.Employees = s.ListEmployeesByCompany(c.ID)
	}
	return out
}

func (s *SQLiteStore) UpdateCompany(c *models.Company) bool {
	res, err := s.db.Exec(
		`UPDATE companies SET name = ?, name_kana = ?, address = ?, postal_code = ?, industry = ?,
		 phone_number = ?, email = ?, contract_model = ?, contract_date = ?, payment_cycle = ?,
		 sales_person_ids = ? WHERE id = ?`,
		c.Name, c.NameKana, c.Address, c.PostalCode, c.Industry, c.PhoneNumber, c.Email,
		c.ContractModel, c.ContractDate, c.PaymentCycle, encodeJSON(c.SalesPersonIDs), c.ID)
	if err != nil {
		logErr("update company", err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *SQLiteStore) AddEmployee(e *models.Employee) {
	_, err := s.db.Exec(
		`INSERT INTO employees (id, email, name, company_id, id_type, profile) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Email, e.Name, e.CompanyID, e.IDType, encodeJSON(e.Profile))
	logErr("add employee", err)
}

func (s *SQLiteStore) ListEmployeesByCompany(companyID string) []*models.Employee {
	rows, err := s.db.Query(
		`SELECT id, email, name, company_id, id_type, profile FROM employees WHERE company_id = ? ORDER BY id`,
		companyID)
	if err != nil {
		logErr("list employees", err)
		return nil
	}
	defer rows.Close()
	var out []*models.Employee
	for rows.Next() {
		var e models.Employee
		var profile string
		if err := rows.Scan(&e.ID, &e.Email, &e.Name, &e.CompanyID, &e.IDType, &profile); err != nil {
			logErr("scan employee", err)
			continue
		}
		if err := json.Unmarshal([]byte(profile), &e.Profile); err != nil {
			logErr("decode employee profile", err)
		}
		out = append(out, &e)
	}
	logErr("list employees rows", rows.Err())
	return out
}

// SeedQuestions inserts the catalog only when the questions table is empty.
func (s *SQLiteStore) SeedQuestions(qs []*models.Question) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		logErr("count questions", err)
		return
	}
	if n > 0 {
		return
	}
	for _, q := range qs {
		s.PutQuestion(q)
	}
}
