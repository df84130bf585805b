// internal/blogapi/store.go
//
// Persistence for accounts and posts.

package blogapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	errNotFound   = errors.New("not found")
	errEmailTaken = errors.New("email already exists")
)

// User matches the users table shape.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"`
}

// IDString is the user id as it appears in tokens and posts.user_id.
func (u *User) IDString() string { return strconv.FormatInt(u.ID, 10) }

// Post is a stored post with its owner joined in.
type Post struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	User   User   `json:"User"`
	Title  string `json:"title"`
	Desc   string `json:"desc"`
	Image  string `json:"image"`
}

// Store wraps the SQL handle.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ------------------------------- users -------------------------------------

// CreateUser inserts a user; the email must be unused.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(email)=lower(?)`, u.Email).Scan(&exists)
	switch {
	case err == nil:
		return errEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("lookup email: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (first_name, last_name, email, phone, password_hash, created_at) VALUES (?,?,?,?,?,?)`,
		u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return errEmailTaken
		}
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, phone, password_hash FROM users WHERE lower(email)=lower(?)`, email))
}

func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, phone, password_hash FROM users WHERE id=?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ------------------------------- posts -------------------------------------

const postColumns = `p.id, p.user_id, p.title, p.description, p.image,
	COALESCE(u.id, 0), COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
	COALESCE(u.email, ''), COALESCE(u.phone, '')`

const postFrom = `FROM posts p LEFT JOIN users u ON CAST(u.id AS TEXT) = p.user_id`

type scanner interface{ Scan(dest ...any) error }

func scanPost(sc scanner) (*Post, error) {
	var p Post
	if err := sc.Scan(&p.ID, &p.UserID, &p.Title, &p.Desc, &p.Image,
		&p.User.ID, &p.User.FirstName, &p.User.LastName, &p.User.Email, &p.User.Phone); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) queryPosts(ctx context.Context, q string, args ...any) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CreatePost inserts p and fills its id and owner.
func (s *Store) CreatePost(ctx context.Context, p *Post) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (user_id, title, description, image, created_at) VALUES (?,?,?,?,?)`,
		p.UserID, p.Title, p.Desc, p.Image, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := s.Post(ctx, id)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Post loads one post.
func (s *Store) Post(ctx context.Context, id int64) (*Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` `+postFrom+` WHERE p.id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return p, err
}

// ListPosts returns page (1-based) of size posts in creation order and
// the total count.
func (s *Store) ListPosts(ctx context.Context, page, size int) ([]Post, int, error) {
	if page < 1 {
		page = 1
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM posts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := s.queryPosts(ctx,
		`SELECT `+postColumns+` `+postFrom+` ORDER BY p.id ASC LIMIT ? OFFSET ?`, size, (page-1)*size)
	return items, total, err
}

// PostsByUser returns every post owned by userID, newest first.
func (s *Store) PostsByUser(ctx context.Context, userID string) ([]Post, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` `+postFrom+` WHERE p.user_id=? ORDER BY p.id DESC`, userID)
}

// UpdatePost sets title and description, and image when non-empty.
func (s *Store) UpdatePost(ctx context.Context, id int64, title, desc, image string) (*Post, error) {
	q := `UPDATE posts SET title=?, description=? WHERE id=?`
	args := []any{title, desc, id}
	if image != "" {
		q = `UPDATE posts SET title=?, description=?, image=? WHERE id=?`
		args = []any{title, desc, image, id}
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	return s.Post(ctx, id)
}

func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errNotFound
	}
	return nil
}
