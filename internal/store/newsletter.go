package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"victoria-kids-api/internal/models"
)

// GetSubscriberByEmail retrieves a newsletter subscriber
func (s *Store) GetSubscriberByEmail(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	var sub models.NewsletterSubscriber
	err := s.db.GetContext(ctx, &sub,
		"SELECT * FROM newsletter_subscribers WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subscriber %s: %w", email, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscriber inserts a new active subscriber
func (s *Store) CreateSubscriber(ctx context.Context, sub *models.NewsletterSubscriber) error {
	query := `
		INSERT INTO newsletter_subscribers (email, name, status, source)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query, sub.Email, sub.Name, sub.Status, sub.Source).
		Scan(&sub.ID, &sub.CreatedAt)
}

// UpdateSubscriberStatus changes a subscriber's status (and optionally
// name/source on resubscribe)
func (s *Store) UpdateSubscriberStatus(ctx context.Context, id int64, status, name, source string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE newsletter_subscribers SET status = $1, name = $2, source = $3 WHERE id = $4",
		status, name, source, id)
	return err
}

// UnsubscribeByEmail flips a subscriber to unsubscribed
func (s *Store) UnsubscribeByEmail(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE newsletter_subscribers SET status = $1 WHERE email = $2",
		models.SubscriberStatusUnsubscribed, email)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("subscriber %s: %w", email, models.ErrNotFound)
	}
	return nil
}

// SubscriberFilter narrows admin subscriber listings
type SubscriberFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ListSubscribers retrieves a filtered page of subscribers
func (s *Store) ListSubscribers(ctx context.Context, f SubscriberFilter) ([]models.NewsletterSubscriber, int, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	n := 0

	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.Status != "" {
		conds = append(conds, "status = "+arg(f.Status))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(email ILIKE %s OR name ILIKE %s)", p, p))
	}

	where := strings.Join(conds, " AND ")

	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	query := fmt.Sprintf(`
		SELECT * FROM newsletter_subscribers
		WHERE %s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, where, f.Limit, offset)

	var subs []models.NewsletterSubscriber
	if err := s.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM newsletter_subscribers WHERE %s", where)
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}
