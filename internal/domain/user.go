package domain

type User struct {
	ID          string `db:"id"`
	Email       string `db:"email"`
	Name        string `db:"name"`
	Hash        string `db:"password_hash"`
	Role        string `db:"role"` // "customer" or "admin"
	DateOfBirth string `db:"date_of_birth"` // 2006-01-02, empty when unknown
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == "admin" }
