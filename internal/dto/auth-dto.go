package dto

type LoginDTO struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ProfileDTO struct {
	ID           uint64  `json:"id"`
	Fio          string  `json:"fio"`
	Login        string  `json:"login"`
	Role         string  `json:"role"`
	DepartmentID *uint64 `json:"department_id,omitempty"`
}
