package auth

type RegisterDTO struct {
	Username string `json:"username" binding:"required,max=30"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginDTO struct {
	Token string `json:"token" binding:"required"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordDTO struct {
	Password string `json:"password" binding:"required,min=8"`
}
