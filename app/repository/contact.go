package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

const (
	contactColumns = `id, name, surname, email, phone, birthday, user_id, created_at, updated_at`
	birthdayKey    = `(MONTH(birthday) * 100 + DAYOFMONTH(birthday))`
)

type ContactFilter struct {
	Name    string
	Surname string
	Email   string
	Skip    int
	Limit   int
}

// BirthdayWindow is an inclusive range of month*100+day keys. When Start is
// greater than End the range wraps past December 31.
type BirthdayWindow struct {
	Start int
	End   int
	All   bool
}

func (w BirthdayWindow) Wraps() bool {
	return w.Start > w.End
}

type ContactRepository struct {
	db DBTX
}

func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	query := `
		INSERT INTO contacts (name, surname, email, phone, birthday, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		contact.Name,
		contact.Surname,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.UserID,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	contact.ID = uint64(id)
	return nil
}

// ExistsForOwner probes for a contact of the same owner sharing the email or
// the phone number.
func (r *ContactRepository) ExistsForOwner(ctx context.Context, userID uint64, email, phone string) (bool, error) {
	query := `
		SELECT 1 FROM contacts
		WHERE user_id = ? AND (email = ? OR phone = ?)
		LIMIT 1
	`
	var one int
	err := r.db.QueryRowContext(ctx, query, userID, email, phone).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ContactRepository) List(ctx context.Context, userID uint64, filter ContactFilter) ([]*entity.Contact, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ?`)
	args := []any{userID}

	if filter.Name != "" {
		sb.WriteString(` AND LOWER(name) LIKE ?`)
		args = append(args, containsPattern(filter.Name))
	}
	if filter.Surname != "" {
		sb.WriteString(` AND LOWER(surname) LIKE ?`)
		args = append(args, containsPattern(filter.Surname))
	}
	if filter.Email != "" {
		sb.WriteString(` AND LOWER(email) LIKE ?`)
		args = append(args, containsPattern(filter.Email))
	}

	sb.WriteString(` ORDER BY id LIMIT ? OFFSET ?`)
	args = append(args, filter.Limit, filter.Skip)

	return r.query(ctx, sb.String(), args...)
}

// FindOwned is the only lookup by id. Every read and mutation of a single
// contact goes through it so the owner predicate cannot be skipped.
func (r *ContactRepository) FindOwned(ctx context.Context, id, userID uint64) (*entity.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts WHERE id = ? AND user_id = ?
	`
	contact, err := scanContact(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *entity.Contact) error {
	query := `
		UPDATE contacts SET
			name = ?,
			surname = ?,
			email = ?,
			phone = ?,
			birthday = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		contact.Name,
		contact.Surname,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.UpdatedAt,
		contact.ID,
		contact.UserID,
	)
	return err
}

func (r *ContactRepository) Delete(ctx context.Context, id, userID uint64) error {
	query := `DELETE FROM contacts WHERE id = ? AND user_id = ?`
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}

// UpcomingBirthdays returns the owner's contacts whose birthday key falls in
// the window, ordered by (month, day) ascending. A window crossing the year
// boundary therefore lists January birthdays before December ones.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, userID uint64, window BirthdayWindow) ([]*entity.Contact, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ?`)
	args := []any{userID}

	switch {
	case window.All:
	case window.Wraps():
		sb.WriteString(` AND (` + birthdayKey + ` >= ? OR ` + birthdayKey + ` <= ?)`)
		args = append(args, window.Start, window.End)
	default:
		sb.WriteString(` AND ` + birthdayKey + ` BETWEEN ? AND ?`)
		args = append(args, window.Start, window.End)
	}

	sb.WriteString(` ORDER BY ` + birthdayKey + `, id`)

	return r.query(ctx, sb.String(), args...)
}

func (r *ContactRepository) query(ctx context.Context, query string, args ...any) ([]*entity.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]*entity.Contact, 0)
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func scanContact(row rowScanner) (*entity.Contact, error) {
	contact := &entity.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.Name,
		&contact.Surname,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&contact.UserID,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(value)) + "%"
}
