package domain

import "time"

// User is the slice of the marketplace users table the hub needs: identity
// verification at authenticate time and display names for presence events.
type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Avatar    *string   `db:"avatar"`
	CreatedAt time.Time `db:"created_at"`
}

func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
