package domain

const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
	RoleCashier    = "cashier"
)

type User struct {
	ID        int64   `json:"id" db:"id"`
	Username  string  `json:"username" db:"username"`
	FullName  string  `json:"full_name" db:"full_name"`
	Email     string  `json:"email" db:"email"`
	Password  string  `json:"-" db:"password"`
	Role      string  `json:"role" db:"role"`
	IsActive  bool    `json:"is_active" db:"is_active"`
	LastLogin *string `json:"last_login,omitempty" db:"last_login"`
	CreatedAt string  `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt string  `json:"updated_at,omitempty" db:"updated_at"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RolePharmacist, RoleCashier:
		return true
	}
	return false
}
