package authview

// LoginForm holds the state of the login modal between attempts.
type LoginForm struct {
	Email string
	Error string
}

// RegisterForm holds the state of the registration modal between attempts.
type RegisterForm struct {
	Name        string
	Email       string
	FieldErrors map[string]string
	Error       string
}
