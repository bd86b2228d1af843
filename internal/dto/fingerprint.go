package dto

type FingerprintRequestDTO struct {
	Fingerprint string `json:"fingerprint" example:"1x9k2l"`
	UserAgent   string `json:"userAgent" example:"Mozilla/5.0"`
}

type FingerprintResponseDTO struct {
	Success         bool `json:"success" example:"true"`
	Banned          bool `json:"banned,omitempty" example:"false"`
	TooManyAccounts bool `json:"tooManyAccounts,omitempty" example:"false"`
}
