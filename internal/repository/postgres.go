package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/beverages-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	usersEmailKey      = "users_email_key"
	usersEmployeeIDKey = "users_employee_id_key"
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, name, email, password_hash, role, department, COALESCE(employee_id, ''), quota, active, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Department,
		&u.EmployeeID, &u.Quota, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, department, employee_id, quota, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Department,
		u.EmployeeID, u.Quota, u.Active, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return mapUserWriteError("create user", err)
	}
	return nil
}

func mapUserWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case usersEmailKey:
			return ErrDuplicateEmail
		case usersEmployeeIDKey:
			return ErrDuplicateEmployeeID
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers возвращает страницу пользователей, упорядоченных по имени.
func (r *PostgresRepository) ListUsers(ctx context.Context, page model.PageRequest) (model.Page[model.User], error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return model.Page[model.User]{}, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.Size, page.Offset(),
	)
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return model.Page[model.User]{}, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.User]{}, fmt.Errorf("rows error: %w", err)
	}

	return model.NewPage(users, page, total), nil
}

// UpdateUser заменяет изменяемые поля пользователя.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *model.User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET name = $2, email = $3, password_hash = $4, role = $5, department = $6,
		     employee_id = NULLIF($7, ''), quota = $8, active = $9, updated_at = $10
		 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Department,
		u.EmployeeID, u.Quota, u.Active, u.UpdatedAt,
	)
	if err != nil {
		return mapUserWriteError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers возвращает число пользователей.
func (r *PostgresRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

const beverageColumns = `id, name, name_ar, description, description_ar, category, price_cents, image,
	available, average_rating, rating_count, total_orders, created_at, updated_at`

func scanBeverage(row rowScanner) (*model.Beverage, error) {
	var (
		b          model.Beverage
		category   string
		priceCents int64
	)
	err := row.Scan(&b.ID, &b.Name, &b.NameAr, &b.Description, &b.DescriptionAr, &category, &priceCents,
		&b.Image, &b.Available, &b.AverageRating, &b.RatingCount, &b.TotalOrders, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Category = model.Category(category)
	b.Price = fromCents(priceCents)
	return &b, nil
}

// CreateBeverage сохраняет новый напиток.
func (r *PostgresRepository) CreateBeverage(ctx context.Context, b *model.Beverage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO beverages (id, name, name_ar, description, description_ar, category, price_cents, image,
		                        available, average_rating, rating_count, total_orders, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		b.ID, b.Name, b.NameAr, b.Description, b.DescriptionAr, string(b.Category), toCents(b.Price), b.Image,
		b.Available, b.AverageRating, b.RatingCount, b.TotalOrders, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create beverage: %w", err)
	}
	return nil
}

// GetBeverage возвращает напиток по идентификатору.
func (r *PostgresRepository) GetBeverage(ctx context.Context, id string) (*model.Beverage, error) {
	b, err := scanBeverage(r.pool.QueryRow(ctx, `SELECT `+beverageColumns+` FROM beverages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get beverage: %w", err)
	}
	return b, nil
}

// ListBeverages возвращает страницу каталога с учётом фильтра.
func (r *PostgresRepository) ListBeverages(ctx context.Context, f model.BeverageFilter, page model.PageRequest) (model.Page[model.Beverage], error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, string(f.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Available != nil {
		args = append(args, *f.Available)
		conds = append(conds, fmt.Sprintf("available = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR name_ar ILIKE $%d)", len(args), len(args)))
	}
	where := whereClause(conds)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM beverages`+where, args...).Scan(&total); err != nil {
		return model.Page[model.Beverage]{}, fmt.Errorf("count beverages: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM beverages%s ORDER BY name, id LIMIT $%d OFFSET $%d`,
			beverageColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return model.Page[model.Beverage]{}, fmt.Errorf("select beverages: %w", err)
	}
	defer rows.Close()

	var res []model.Beverage
	for rows.Next() {
		b, err := scanBeverage(rows)
		if err != nil {
			return model.Page[model.Beverage]{}, fmt.Errorf("scan beverage: %w", err)
		}
		res = append(res, *b)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Beverage]{}, fmt.Errorf("rows error: %w", err)
	}

	return model.NewPage(res, page, total), nil
}

// UpdateBeverage заменяет редактируемые поля напитка. Счётчики не затрагиваются.
func (r *PostgresRepository) UpdateBeverage(ctx context.Context, b *model.Beverage) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE beverages
		 SET name = $2, name_ar = $3, description = $4, description_ar = $5, category = $6,
		     price_cents = $7, image = $8, available = $9, updated_at = $10
		 WHERE id = $1`,
		b.ID, b.Name, b.NameAr, b.Description, b.DescriptionAr, string(b.Category),
		toCents(b.Price), b.Image, b.Available, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update beverage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementBeverageOrders увеличивает счётчик заказанных порций напитка.
func (r *PostgresRepository) IncrementBeverageOrders(ctx context.Context, id string, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE beverages SET total_orders = total_orders + $2 WHERE id = $1`,
		id, quantity,
	)
	if err != nil {
		return fmt.Errorf("increment beverage orders: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBeverageRating учитывает новую оценку в среднем рейтинге напитка.
func (r *PostgresRepository) AddBeverageRating(ctx context.Context, id string, stars int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE beverages
		 SET average_rating = (average_rating * rating_count + $2) / (rating_count + 1),
		     rating_count = rating_count + 1
		 WHERE id = $1`,
		id, float64(stars),
	)
	if err != nil {
		return fmt.Errorf("add beverage rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const orderColumns = `id, employee_id, employee_name, department, items, total_cents, status, notes, order_date,
	completed_date, rating, rating_comment, worker_id, worker_name, created_at, updated_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o          model.Order
		status     string
		totalCents int64
	)
	err := row.Scan(&o.ID, &o.EmployeeID, &o.EmployeeName, &o.Department, &o.Items, &totalCents, &status,
		&o.Notes, &o.OrderDate, &o.CompletedDate, &o.Rating, &o.RatingComment, &o.WorkerID, &o.WorkerName,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Status = model.OrderStatus(status)
	o.TotalPrice = fromCents(totalCents)
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var res []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		res = append(res, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// CreateOrder сохраняет новый заказ одной вставкой.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO orders (id, employee_id, employee_name, department, items, total_cents, status, notes,
		                     order_date, completed_date, rating, rating_comment, worker_id, worker_name,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		o.ID, o.EmployeeID, o.EmployeeName, o.Department, o.Items, toCents(o.TotalPrice), string(o.Status),
		o.Notes, o.OrderDate, o.CompletedDate, o.Rating, o.RatingComment, o.WorkerID, o.WorkerName,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateOrder заменяет изменяемые поля заказа, если его статус всё ещё равен expected.
func (r *PostgresRepository) UpdateOrder(ctx context.Context, o *model.Order, expected model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET status = $3, completed_date = $4, rating = $5, rating_comment = $6,
		     worker_id = $7, worker_name = $8, updated_at = $9
		 WHERE id = $1 AND status = $2`,
		o.ID, string(expected), string(o.Status), o.CompletedDate, o.Rating, o.RatingComment,
		o.WorkerID, o.WorkerName, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStaleOrder
}

// SetOrderRating сохраняет оценку выданного заказа, если он ещё не оценён.
func (r *PostgresRepository) SetOrderRating(ctx context.Context, o *model.Order) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders
		 SET rating = $2, rating_comment = $3, updated_at = $4
		 WHERE id = $1 AND status = $5 AND rating IS NULL`,
		o.ID, o.Rating, o.RatingComment, o.UpdatedAt, string(model.OrderStatusDelivered),
	)
	if err != nil {
		return fmt.Errorf("set order rating: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		status string
		rating *int
	)
	err = r.pool.QueryRow(ctx, `SELECT status, rating FROM orders WHERE id = $1`, o.ID).Scan(&status, &rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if rating != nil {
		return ErrAlreadyRated
	}
	return ErrStaleOrder
}

// ListOrders возвращает страницу заказов, новые первыми.
func (r *PostgresRepository) ListOrders(ctx context.Context, f model.OrderFilter, page model.PageRequest) (model.Page[model.Order], error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.EmployeeID != "" {
		args = append(args, f.EmployeeID)
		conds = append(conds, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	where := whereClause(conds)

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, page.Size, page.Offset())
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY order_date DESC, id LIMIT $%d OFFSET $%d`,
			orderColumns, where, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("select orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return model.Page[model.Order]{}, err
	}
	return model.NewPage(orders, page, total), nil
}

// ListPendingUnassigned возвращает ожидающие заказы без назначенного работника, старые первыми.
func (r *PostgresRepository) ListPendingUnassigned(ctx context.Context) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 AND worker_id = '' ORDER BY order_date`,
		string(model.OrderStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("select pending orders: %w", err)
	}
	return collectOrders(rows)
}

// ListOrdersInRange возвращает заказы, оформленные в интервале [start, end].
func (r *PostgresRepository) ListOrdersInRange(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_date >= $1 AND order_date <= $2 ORDER BY order_date DESC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("select orders in range: %w", err)
	}
	return collectOrders(rows)
}

const notificationColumns = `id, user_id, title, body, type, data, read, sent, created_at`

func scanNotification(row rowScanner) (*model.Notification, error) {
	var n model.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Type, &n.Data, &n.Read, &n.Sent, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNotifications(rows pgx.Rows) ([]model.Notification, error) {
	defer rows.Close()

	var res []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		res = append(res, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// CreateNotification сохраняет уведомление.
func (r *PostgresRepository) CreateNotification(ctx context.Context, n *model.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, body, type, data, read, sent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.UserID, n.Title, n.Body, n.Type, data, n.Read, n.Sent, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListNotificationsByUser возвращает страницу уведомлений пользователя, новые первыми.
func (r *PostgresRepository) ListNotificationsByUser(ctx context.Context, userID string, page model.PageRequest) (model.Page[model.Notification], error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return model.Page[model.Notification]{}, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		userID, page.Size, page.Offset(),
	)
	if err != nil {
		return model.Page[model.Notification]{}, fmt.Errorf("select notifications: %w", err)
	}

	res, err := collectNotifications(rows)
	if err != nil {
		return model.Page[model.Notification]{}, err
	}
	return model.NewPage(res, page, total), nil
}

// MarkNotificationRead помечает уведомление пользователя прочитанным.
func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUnsentNotifications возвращает не более limit неотправленных уведомлений после курсора, старые первыми.
func (r *PostgresRepository) ListUnsentNotifications(ctx context.Context, after model.NotificationCursor, limit int) ([]model.Notification, error) {
	conds := []string{"NOT sent"}
	args := []any{limit}
	if after.ID != "" {
		conds = append(conds, "(created_at, id) > ($2, $3)")
		args = append(args, after.CreatedAt, after.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications`+whereClause(conds)+` ORDER BY created_at, id LIMIT $1`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select unsent notifications: %w", err)
	}
	return collectNotifications(rows)
}

// MarkNotificationSent помечает уведомление отправленным.
func (r *PostgresRepository) MarkNotificationSent(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// Денежные суммы хранятся в центах, как и в схеме БД.
func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
