package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateEntry is returned when a unique index rejects a write.
var ErrDuplicateEntry = errors.New("duplicate entry")

const mysqlErrDuplicateEntry = 1062

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, username, email, hashed_password, avatar, is_verified, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (username, email, hashed_password, avatar, is_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.Avatar,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEntry
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE email = ?
	`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE username = ?
	`
	return r.findOne(ctx, query, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

// MarkVerified flips is_verified for the given email. A second call matches no
// rows and leaves the record untouched.
func (r *UserRepository) MarkVerified(ctx context.Context, email string) error {
	query := `
		UPDATE users SET is_verified = TRUE, updated_at = ?
		WHERE email = ? AND (is_verified IS NULL OR is_verified = FALSE)
	`
	_, err := r.db.ExecContext(ctx, query, time.Now(), email)
	return err
}

func (r *UserRepository) SetAvatarURL(ctx context.Context, email, url string) (*entity.User, error) {
	query := `UPDATE users SET avatar = ?, updated_at = ? WHERE email = ?`
	if _, err := r.db.ExecContext(ctx, query, url, time.Now(), email); err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, email)
}

func (r *UserRepository) SetPasswordHash(ctx context.Context, email, hash string) error {
	query := `UPDATE users SET hashed_password = ?, updated_at = ? WHERE email = ?`
	_, err := r.db.ExecContext(ctx, query, hash, time.Now(), email)
	return err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row rowScanner) (*entity.User, error) {
	user := &entity.User{}
	var verified sql.NullBool
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.Avatar,
		&verified,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.IsVerified = verified.Valid && verified.Bool
	return user, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}
