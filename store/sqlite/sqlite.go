/*
Package sqlite provides a SQLite-backed implementation of the collaborators
the premium engine reads from and writes to.

PURPOSE:
  Persists employees, standard reward history, bonus records with their
  premium snapshots, monthly premium snapshots and data-quality
  acknowledgements. The calculators never touch the database: they get
  snapshots from here and hand results back.

INTERFACES IMPLEMENTED:
  premium.BonusHistory: prior bonus records for caps and frequency counts

KEY TABLES:
  employees:               Employee snapshot incl. qualification/loss dates
  reward_history:          Standard monthly reward revisions per kind
  bonus_records:           Bonus payments and their calculated premiums
  monthly_premiums:        One premium snapshot per employee and month
  issue_acknowledgements:  Overlay matched to data-quality issue ids

IDEMPOTENCY:
  Monthly snapshots are upserted on (employee_id, year_month) and bonus
  records on id, so recomputing and re-saving overwrite in place. An
  edited bonus keeps its rowid, which is its saving order (Seq).

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, with WAL mode for concurrent readers.

USAGE:
  store, err := sqlite.New("./data/shaho.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  eval, err := premium.EvaluateBonus(ctx, store, emp, gross, payDate, rates, "")

SEE ALSO:
  - premium/frequency.go: BonusHistory and the exclusion predicates
  - quality/ack.go: Acknowledgement overlay
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/shaho-engine/generic"
	"github.com/warp/shaho-engine/premium"
	"github.com/warp/shaho-engine/quality"
)

// Store implements the persistence collaborators using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		is_insured BOOLEAN NOT NULL DEFAULT FALSE,
		health_standard_monthly INTEGER,
		pension_standard_monthly INTEGER,
		health_grade INTEGER,
		pension_grade INTEGER,
		premium_treatment TEXT NOT NULL DEFAULT 'normal',
		health_qualification_date TEXT,
		pension_qualification_date TEXT,
		health_loss_date TEXT,
		pension_loss_date TEXT,
		hire_date TEXT,
		retire_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Standard reward history (one row per revision and kind)
	CREATE TABLE IF NOT EXISTS reward_history (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		insurance_kind TEXT NOT NULL,
		applied_from TEXT NOT NULL,
		standard_monthly_reward INTEGER NOT NULL,
		decision_kind TEXT NOT NULL,
		grade INTEGER,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reward_history_employee
		ON reward_history(employee_id, insurance_kind, applied_from);

	-- Bonus payments with their premium snapshot
	CREATE TABLE IF NOT EXISTS bonus_records (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		pay_date TEXT NOT NULL,
		gross_amount INTEGER NOT NULL,
		standard_bonus_amount INTEGER NOT NULL,
		employee_total TEXT NOT NULL,
		employer_total TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Hot path: frequency counts and cumulative sums per employee
	CREATE INDEX IF NOT EXISTS idx_bonus_records_employee_date
		ON bonus_records(employee_id, pay_date);

	-- Monthly premium snapshots
	CREATE TABLE IF NOT EXISTS monthly_premiums (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		year_month TEXT NOT NULL,
		calc_date TEXT NOT NULL,
		employee_total TEXT NOT NULL,
		employer_total TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(employee_id, year_month)
	);

	CREATE INDEX IF NOT EXISTS idx_monthly_premiums_month
		ON monthly_premiums(year_month);

	-- Data-quality acknowledgements
	CREATE TABLE IF NOT EXISTS issue_acknowledgements (
		issue_id TEXT PRIMARY KEY,
		acknowledged_by TEXT NOT NULL,
		acknowledged_at TEXT NOT NULL,
		note TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes all data. Used by tests and demos.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"issue_acknowledgements", "monthly_premiums", "bonus_records", "reward_history", "employees"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

const employeeColumns = `id, name, birth_date, is_insured,
	health_standard_monthly, pension_standard_monthly, health_grade, pension_grade,
	premium_treatment,
	health_qualification_date, pension_qualification_date, health_loss_date, pension_loss_date,
	hire_date, retire_date`

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp premium.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (` + employeeColumns + `, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			birth_date = excluded.birth_date,
			is_insured = excluded.is_insured,
			health_standard_monthly = excluded.health_standard_monthly,
			pension_standard_monthly = excluded.pension_standard_monthly,
			health_grade = excluded.health_grade,
			pension_grade = excluded.pension_grade,
			premium_treatment = excluded.premium_treatment,
			health_qualification_date = excluded.health_qualification_date,
			pension_qualification_date = excluded.pension_qualification_date,
			health_loss_date = excluded.health_loss_date,
			pension_loss_date = excluded.pension_loss_date,
			hire_date = excluded.hire_date,
			retire_date = excluded.retire_date,
			updated_at = excluded.updated_at
	`

	treatment := emp.PremiumTreatment
	if treatment == "" {
		treatment = premium.TreatmentNormal
	}

	now := nowString()
	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), emp.Name, emp.BirthDate.String(), emp.IsInsured,
		nullInt64(emp.HealthStandardMonthly), nullInt64(emp.PensionStandardMonthly),
		nullInt(emp.HealthGrade), nullInt(emp.PensionGrade),
		string(treatment),
		nullDate(emp.HealthQualificationDate), nullDate(emp.PensionQualificationDate),
		nullDate(emp.HealthLossDate), nullDate(emp.PensionLossDate),
		nullDate(emp.HireDate), nullDate(emp.RetireDate),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (premium.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", string(id))
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return premium.Employee{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	return emp, err
}

// ListEmployees returns all employees ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]premium.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []premium.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee and, by cascade, its history.
func (s *Store) DeleteEmployee(ctx context.Context, id generic.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (premium.Employee, error) {
	var (
		emp                       premium.Employee
		id, birth, treatment      string
		healthStd, pensionStd     sql.NullInt64
		healthGrade, pensionGrade sql.NullInt64
		healthQual, pensionQual   sql.NullString
		healthLoss, pensionLoss   sql.NullString
		hire, retire              sql.NullString
	)
	err := row.Scan(&id, &emp.Name, &birth, &emp.IsInsured,
		&healthStd, &pensionStd, &healthGrade, &pensionGrade,
		&treatment,
		&healthQual, &pensionQual, &healthLoss, &pensionLoss,
		&hire, &retire,
	)
	if err != nil {
		return premium.Employee{}, err
	}

	emp.ID = generic.EmployeeID(id)
	emp.BirthDate, _ = generic.ParseDate(birth)
	emp.PremiumTreatment = premium.PremiumTreatment(treatment)
	emp.HealthStandardMonthly = int64Ptr(healthStd)
	emp.PensionStandardMonthly = int64Ptr(pensionStd)
	emp.HealthGrade = intPtr(healthGrade)
	emp.PensionGrade = intPtr(pensionGrade)
	emp.HealthQualificationDate = datePtr(healthQual)
	emp.PensionQualificationDate = datePtr(pensionQual)
	emp.HealthLossDate = datePtr(healthLoss)
	emp.PensionLossDate = datePtr(pensionLoss)
	emp.HireDate = datePtr(hire)
	emp.RetireDate = datePtr(retire)
	return emp, nil
}

// =============================================================================
// REWARD HISTORY STORE
// =============================================================================

const rewardColumns = `id, employee_id, insurance_kind, applied_from, standard_monthly_reward, decision_kind, grade`

// AddReward appends a revision. An empty ID is assigned.
func (s *Store) AddReward(ctx context.Context, e premium.RewardEntry) (premium.RewardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	query := `
		INSERT INTO reward_history (` + rewardColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, string(e.EmployeeID), string(e.Kind), e.AppliedFrom.String(),
		e.StandardMonthlyReward, string(e.DecisionKind), nullInt(e.Grade),
		nowString(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return premium.RewardEntry{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, e.EmployeeID)
		}
		return premium.RewardEntry{}, fmt.Errorf("failed to add reward: %w", err)
	}
	return e, nil
}

// ListRewards returns an employee's history in application order.
// Revisions for the same month keep insertion order.
func (s *Store) ListRewards(ctx context.Context, employeeID generic.EmployeeID) ([]premium.RewardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRewards(ctx,
		"SELECT "+rewardColumns+" FROM reward_history WHERE employee_id = ? ORDER BY applied_from, seq",
		string(employeeID))
}

// RewardHistories returns every employee's history keyed by employee.
func (s *Store) RewardHistories(ctx context.Context) (map[generic.EmployeeID][]premium.RewardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.queryRewards(ctx,
		"SELECT "+rewardColumns+" FROM reward_history ORDER BY employee_id, applied_from, seq")
	if err != nil {
		return nil, err
	}

	out := make(map[generic.EmployeeID][]premium.RewardEntry)
	for _, e := range entries {
		out[e.EmployeeID] = append(out[e.EmployeeID], e)
	}
	return out, nil
}

func (s *Store) queryRewards(ctx context.Context, query string, args ...any) ([]premium.RewardEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reward history: %w", err)
	}
	defer rows.Close()

	var entries []premium.RewardEntry
	for rows.Next() {
		var (
			e                      premium.RewardEntry
			empID, kind, from, dec string
			grade                  sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &empID, &kind, &from, &e.StandardMonthlyReward, &dec, &grade); err != nil {
			return nil, err
		}
		e.EmployeeID = generic.EmployeeID(empID)
		e.Kind = premium.InsuranceKind(kind)
		e.AppliedFrom, _ = generic.ParseYearMonth(from)
		e.DecisionKind = premium.DecisionKind(dec)
		e.Grade = intPtr(grade)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// BONUS STORE (premium.BonusHistory interface)
// =============================================================================

// BonusSnapshot is a saved bonus with the premiums calculated at save time.
type BonusSnapshot struct {
	premium.BonusRecord
	Result    premium.BonusResult
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveBonus inserts or replaces a bonus record. An empty ID is assigned.
func (s *Store) SaveBonus(ctx context.Context, rec premium.BonusRecord, result premium.BonusResult) (BonusSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return BonusSnapshot{}, fmt.Errorf("failed to encode bonus result: %w", err)
	}

	query := `
		INSERT INTO bonus_records
		(id, employee_id, pay_date, gross_amount, standard_bonus_amount,
		 employee_total, employer_total, result_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pay_date = excluded.pay_date,
			gross_amount = excluded.gross_amount,
			standard_bonus_amount = excluded.standard_bonus_amount,
			employee_total = excluded.employee_total,
			employer_total = excluded.employer_total,
			result_json = excluded.result_json,
			updated_at = excluded.updated_at
		RETURNING rowid
	`

	now := time.Now().UTC().Truncate(time.Second)
	err = s.db.QueryRowContext(ctx, query,
		rec.ID, string(rec.EmployeeID), rec.PayDate.String(), rec.GrossAmount, rec.StandardBonusAmount,
		decimalString(result.EmployeeTotal), decimalString(result.EmployerTotal), string(resultJSON),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	).Scan(&rec.Seq)
	if err != nil {
		if isForeignKeyError(err) {
			return BonusSnapshot{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, rec.EmployeeID)
		}
		return BonusSnapshot{}, fmt.Errorf("failed to save bonus: %w", err)
	}
	return BonusSnapshot{BonusRecord: rec, Result: result, CreatedAt: now, UpdatedAt: now}, nil
}

// ListBonuses returns the employee's bonus records ordered by pay date,
// then saving order.
func (s *Store) ListBonuses(ctx context.Context, employeeID generic.EmployeeID) ([]premium.BonusRecord, error) {
	snaps, err := s.ListBonusSnapshots(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	records := make([]premium.BonusRecord, len(snaps))
	for i, snap := range snaps {
		records[i] = snap.BonusRecord
	}
	return records, nil
}

// ListBonusSnapshots returns the employee's bonuses with their premiums.
func (s *Store) ListBonusSnapshots(ctx context.Context, employeeID generic.EmployeeID) ([]BonusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryBonuses(ctx, bonusSelect+" WHERE employee_id = ? ORDER BY pay_date, rowid", string(employeeID))
}

// GetBonus retrieves one bonus by ID.
func (s *Store) GetBonus(ctx context.Context, id string) (BonusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps, err := s.queryBonuses(ctx, bonusSelect+" WHERE id = ?", id)
	if err != nil {
		return BonusSnapshot{}, err
	}
	if len(snaps) == 0 {
		return BonusSnapshot{}, fmt.Errorf("%w: %s", generic.ErrBonusNotFound, id)
	}
	return snaps[0], nil
}

// DeleteBonus removes a bonus record.
func (s *Store) DeleteBonus(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM bonus_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete bonus: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrBonusNotFound, id)
	}
	return nil
}

const bonusSelect = `
	SELECT id, rowid, employee_id, pay_date, gross_amount, standard_bonus_amount, result_json, created_at, updated_at
	FROM bonus_records`

func (s *Store) queryBonuses(ctx context.Context, query string, args ...any) ([]BonusSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bonuses: %w", err)
	}
	defer rows.Close()

	var snaps []BonusSnapshot
	for rows.Next() {
		var (
			snap                                         BonusSnapshot
			empID, payDate, resultJSON, created, updated string
		)
		if err := rows.Scan(&snap.ID, &snap.Seq, &empID, &payDate, &snap.GrossAmount, &snap.StandardBonusAmount,
			&resultJSON, &created, &updated); err != nil {
			return nil, err
		}
		snap.EmployeeID = generic.EmployeeID(empID)
		snap.PayDate, _ = generic.ParseDate(payDate)
		if err := json.Unmarshal([]byte(resultJSON), &snap.Result); err != nil {
			return nil, fmt.Errorf("failed to decode bonus %s: %w", snap.ID, err)
		}
		snap.CreatedAt, _ = time.Parse(time.RFC3339, created)
		snap.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// =============================================================================
// MONTHLY PREMIUM STORE
// =============================================================================

// SaveMonthlyPremiums upserts snapshots atomically, one per employee and month.
func (s *Store) SaveMonthlyPremiums(ctx context.Context, results []premium.MonthlyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO monthly_premiums
		(id, employee_id, year_month, calc_date, employee_total, employer_total, result_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, year_month) DO UPDATE SET
			calc_date = excluded.calc_date,
			employee_total = excluded.employee_total,
			employer_total = excluded.employer_total,
			result_json = excluded.result_json,
			updated_at = excluded.updated_at
	`

	now := nowString()
	for _, r := range results {
		resultJSON, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode premium for %s: %w", r.EmployeeID, err)
		}
		_, err = sqlTx.ExecContext(ctx, query,
			uuid.NewString(), string(r.EmployeeID), r.YearMonth.String(), r.CalcDate.String(),
			decimalString(r.EmployeeTotal), decimalString(r.EmployerTotal), string(resultJSON),
			now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save premium for %s: %w", r.EmployeeID, err)
		}
	}

	return sqlTx.Commit()
}

// GetMonthlyPremium returns the saved snapshot for an employee and month.
// The bool is false when none was saved.
func (s *Store) GetMonthlyPremium(ctx context.Context, employeeID generic.EmployeeID, ym generic.YearMonth) (premium.MonthlyResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var resultJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT result_json FROM monthly_premiums WHERE employee_id = ? AND year_month = ?",
		string(employeeID), ym.String(),
	).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return premium.MonthlyResult{}, false, nil
	}
	if err != nil {
		return premium.MonthlyResult{}, false, fmt.Errorf("failed to query premium: %w", err)
	}

	var res premium.MonthlyResult
	if err := json.Unmarshal([]byte(resultJSON), &res); err != nil {
		return premium.MonthlyResult{}, false, fmt.Errorf("failed to decode premium: %w", err)
	}
	return res, true, nil
}

// MonthlyTotals sums the saved employee and employer shares for a month.
func (s *Store) MonthlyTotals(ctx context.Context, ym generic.YearMonth) (employee, employer decimal.Decimal, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT employee_total, employer_total FROM monthly_premiums WHERE year_month = ?", ym.String())
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to query premiums: %w", err)
	}
	defer rows.Close()

	employee, employer = decimal.Zero, decimal.Zero
	for rows.Next() {
		var ee, er string
		if err := rows.Scan(&ee, &er); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		employee = employee.Add(generic.MustParseDecimal(ee))
		employer = employer.Add(generic.MustParseDecimal(er))
	}
	return employee, employer, rows.Err()
}

// =============================================================================
// ACKNOWLEDGEMENT STORE
// =============================================================================

// SaveAcknowledgement inserts or replaces the acknowledgement of an issue id.
func (s *Store) SaveAcknowledgement(ctx context.Context, a quality.Acknowledgement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.AcknowledgedAt.IsZero() {
		a.AcknowledgedAt = time.Now()
	}

	query := `
		INSERT INTO issue_acknowledgements (issue_id, acknowledged_by, acknowledged_at, note)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(issue_id) DO UPDATE SET
			acknowledged_by = excluded.acknowledged_by,
			acknowledged_at = excluded.acknowledged_at,
			note = excluded.note
	`
	_, err := s.db.ExecContext(ctx, query,
		a.IssueID, a.AcknowledgedBy, a.AcknowledgedAt.UTC().Format(time.RFC3339), nullString(a.Note))
	if err != nil {
		return fmt.Errorf("failed to save acknowledgement: %w", err)
	}
	return nil
}

// ListAcknowledgements returns all acknowledgements ordered by issue id.
func (s *Store) ListAcknowledgements(ctx context.Context) ([]quality.Acknowledgement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT issue_id, acknowledged_by, acknowledged_at, note FROM issue_acknowledgements ORDER BY issue_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query acknowledgements: %w", err)
	}
	defer rows.Close()

	var acks []quality.Acknowledgement
	for rows.Next() {
		var (
			a    quality.Acknowledgement
			at   string
			note sql.NullString
		)
		if err := rows.Scan(&a.IssueID, &a.AcknowledgedBy, &at, &note); err != nil {
			return nil, err
		}
		a.AcknowledgedAt, _ = time.Parse(time.RFC3339, at)
		a.Note = note.String
		acks = append(acks, a)
	}
	return acks, rows.Err()
}

// DeleteAcknowledgements removes the given issue ids and reports how many
// existed.
func (s *Store) DeleteAcknowledgements(ctx context.Context, issueIDs []string) (int, error) {
	if len(issueIDs) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(issueIDs)), ",")
	args := make([]any, len(issueIDs))
	for i, id := range issueIDs {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM issue_acknowledgements WHERE issue_id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete acknowledgements: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Helper functions

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func datePtr(ns sql.NullString) *generic.Date {
	if !ns.Valid {
		return nil
	}
	d, err := generic.ParseDate(ns.String)
	if err != nil {
		return nil
	}
	return &d
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func decimalString(d decimal.Decimal) string {
	return d.String()
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
