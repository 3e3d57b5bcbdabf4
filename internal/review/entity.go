// GreatK Platform | 2026
// entity.go

package review

import (
	"time"
)

// Review is one user's testimonial. Each user gets a single review;
// posting again replaces the previous one.
type Review struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Username  string    `db:"username"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
