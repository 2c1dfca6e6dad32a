// Package storage is the SQLite persistence backend. It satisfies the
// store ports with hand-written SQL over database/sql; migrations ship
// embedded and run on open.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"expensehub/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// runMigrations applies any pending schema migrations on its own
// short-lived connection so the repository's pool never sees a
// half-migrated schema.
func runMigrations(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("embedded migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) GetActor(ctx context.Context, id int64) (core.Actor, error) {
	var a core.Actor
	var role string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, role FROM actors WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Actor{}, &core.NotFoundError{Entity: "actor", ID: id}
	}
	if err != nil {
		return core.Actor{}, fmt.Errorf("get actor: %w", err)
	}
	a.Role, err = core.ParseRole(role)
	if err != nil {
		return core.Actor{}, fmt.Errorf("actor %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) InsertActor(ctx context.Context, a core.Actor) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO actors (name, role) VALUES (?, ?)`, a.Name, string(a.Role))
	if err != nil {
		return 0, fmt.Errorf("insert actor: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListAdminIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM actors WHERE role = 'admin' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list admin ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) GetTeam(ctx context.Context, id int64) (core.Team, error) {
	var t core.Team
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, manager_id FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &t.ManagerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Team{}, &core.NotFoundError{Entity: "team", ID: id}
	}
	if err != nil {
		return core.Team{}, fmt.Errorf("get team: %w", err)
	}
	t.MemberIDs, err = r.teamMembers(ctx, t.ID)
	if err != nil {
		return core.Team{}, err
	}
	return t, nil
}

func (r *SQLiteRepository) InsertTeam(ctx context.Context, t core.Team) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert team: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO teams (name, manager_id) VALUES (?, ?)`, t.Name, t.ManagerID)
	if err != nil {
		return 0, fmt.Errorf("insert team: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("team id: %w", err)
	}
	for _, userID := range t.MemberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO team_members (team_id, user_id) VALUES (?, ?)`, id, userID); err != nil {
			return 0, fmt.Errorf("insert team member %d: %w", userID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert team: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListTeamsManagedBy(ctx context.Context, managerID int64) ([]core.Team, error) {
	return r.listTeams(ctx,
		`SELECT id, name, manager_id FROM teams WHERE manager_id = ? ORDER BY id`, managerID)
}

func (r *SQLiteRepository) ListTeamsForMember(ctx context.Context, userID int64) ([]core.Team, error) {
	return r.listTeams(ctx,
		`SELECT t.id, t.name, t.manager_id
		 FROM teams t JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = ? ORDER BY t.id`, userID)
}

func (r *SQLiteRepository) listTeams(ctx context.Context, query string, arg int64) ([]core.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []core.Team
	for rows.Next() {
		var t core.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.ManagerID); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	for i := range teams {
		teams[i].MemberIDs, err = r.teamMembers(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return teams, nil
}

func (r *SQLiteRepository) teamMembers(ctx context.Context, teamID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM team_members WHERE team_id = ? ORDER BY user_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, parent_id, is_active FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, parent_id, is_active FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, parent_id, is_active) VALUES (?, ?, ?)`,
		c.Name, c.ParentID, c.IsActive)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	return res.LastInsertId()
}

const expenseColumns = `id, owner_id, category_id, amount_cents, expense_date,
	description, status, approver_id, approved_at, team_id`

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, &core.NotFoundError{Entity: "expense", ID: id}
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (owner_id, category_id, amount_cents, expense_date,
		 description, status, approver_id, approved_at, team_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.CategoryID, e.Amount.Cents, e.Date.String(),
		e.Description, string(e.Status), e.ApproverID, formatTimePtr(e.ApprovedAt), e.TeamID)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"owner_id", e.OwnerID,
		"amount_cents", e.Amount.Cents,
		"status", e.Status)
	return id, nil
}

func (r *SQLiteRepository) UpdateExpenseDraft(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET category_id = ?, amount_cents = ?, expense_date = ?, description = ?,
		     team_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.CategoryID, e.Amount.Cents, e.Date.String(), e.Description, e.TeamID, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "expense", ID: e.ID}
	}
	return nil
}

// UpdateExpenseStatus writes the status only when the row still holds the
// expected one. A losing writer gets core.ConflictError, never a silent
// last-write-wins.
func (r *SQLiteRepository) UpdateExpenseStatus(ctx context.Context, id int64, from, to core.Status, approverID *int64, approvedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET status = ?, approver_id = ?, approved_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		string(to), approverID, formatTimePtr(approvedAt), id, string(from))
	if err != nil {
		return fmt.Errorf("update expense status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense status rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: distinguish a missing row from a lost race.
	var current string
	err = r.db.QueryRowContext(ctx,
		`SELECT status FROM expenses WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return &core.NotFoundError{Entity: "expense", ID: id}
	}
	if err != nil {
		return fmt.Errorf("read expense status: %w", err)
	}
	return &core.ConflictError{ExpenseID: id, Expected: from}
}

func (r *SQLiteRepository) ListExpensesByOwner(ctx context.Context, ownerID int64, from, to core.Date) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE owner_id = ? AND expense_date >= ? AND expense_date <= ?
		 ORDER BY expense_date, id`,
		ownerID, from.String(), to.String())
}

func (r *SQLiteRepository) ListExpensesByDateRange(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	return r.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE expense_date >= ? AND expense_date <= ?
		 ORDER BY expense_date, id`,
		from.String(), to.String())
}

func (r *SQLiteRepository) listExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const budgetColumns = `id, owner_id, category_id, amount_cents, period,
	start_date, end_date, alert_threshold, is_active, last_alert_tier`

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, &core.NotFoundError{Entity: "budget", ID: id}
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) InsertBudget(ctx context.Context, b core.Budget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner_id, category_id, amount_cents, period,
		 start_date, end_date, alert_threshold, is_active, last_alert_tier)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.CategoryID, b.Amount.Cents, string(b.Period),
		b.StartDate.String(), b.EndDate.String(), b.AlertThreshold, b.IsActive, b.LastAlertTier)
	if err != nil {
		return 0, fmt.Errorf("insert budget: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) DeactivateBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate budget rows: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	return nil
}

func (r *SQLiteRepository) ListActiveBudgetsByOwner(ctx context.Context, ownerID int64) ([]core.Budget, error) {
	return r.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE owner_id = ? AND is_active = 1 ORDER BY id`, ownerID)
}

func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context) ([]core.Budget, error) {
	return r.listBudgets(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE is_active = 1 ORDER BY id`)
}

func (r *SQLiteRepository) listBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetBudgetAlertTier(ctx context.Context, id int64, tier int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET last_alert_tier = ? WHERE id = ?`, tier, id)
	if err != nil {
		return fmt.Errorf("set budget alert tier: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set budget alert tier rows: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	return nil
}

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n core.Notification) error {
	meta, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("marshal notification metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert notification: %w", err)
	}
	defer tx.Rollback()

	for _, userID := range n.UserIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (user_id, type, title, message, metadata)
			 VALUES (?, ?, ?, ?, ?)`,
			userID, string(n.Type), n.Title, n.Message, string(meta)); err != nil {
			return fmt.Errorf("insert notification for user %d: %w", userID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification stored",
		"type", n.Type,
		"recipients", len(n.UserIDs))
	return nil
}

func (r *SQLiteRepository) ListNotificationsForUser(ctx context.Context, userID int64, limit int) ([]core.StoredNotification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, metadata, is_read, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.StoredNotification
	for rows.Next() {
		var n core.StoredNotification
		var typ, meta string
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &meta, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = core.NotificationType(typ)
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &n.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var date, status string
	var approvedAt sql.NullString
	if err := row.Scan(&e.ID, &e.OwnerID, &e.CategoryID, &e.Amount.Cents, &date,
		&e.Description, &status, &e.ApproverID, &approvedAt, &e.TeamID); err != nil {
		return core.Expense{}, err
	}

	var err error
	e.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d date: %w", e.ID, err)
	}
	e.Status, err = core.ParseStatus(status)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	if approvedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, approvedAt.String)
		if err != nil {
			return core.Expense{}, fmt.Errorf("expense %d approved_at: %w", e.ID, err)
		}
		e.ApprovedAt = &t
	}
	return e, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var period, start, end string
	if err := row.Scan(&b.ID, &b.OwnerID, &b.CategoryID, &b.Amount.Cents, &period,
		&start, &end, &b.AlertThreshold, &b.IsActive, &b.LastAlertTier); err != nil {
		return core.Budget{}, err
	}

	var err error
	b.Period, err = core.ParsePeriod(period)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d: %w", b.ID, err)
	}
	b.StartDate, err = core.ParseDate(start)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d start_date: %w", b.ID, err)
	}
	b.EndDate, err = core.ParseDate(end)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %d end_date: %w", b.ID, err)
	}
	return b, nil
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
