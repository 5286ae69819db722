// internal/domain/identity/entity.go
package identity

// Identity is the authenticated principal passed explicitly into every
// scoped operation. It is present after sign-in and absent after sign-out;
// nothing in the core reads it from ambient state.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == "admin"
}

type SignUpRequest struct {
	FirstName       string `json:"first_name" binding:"required,max=255"`
	LastName        string `json:"last_name" binding:"required,max=255"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Phone           string `json:"phone" binding:"max=20"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Identity Identity `json:"identity"`
	Token    string   `json:"token"`
}
