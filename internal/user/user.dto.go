package user

type CreateUserRequest struct {
	ClerkID  string `json:"clerkId" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type UpdateProfileRequest struct {
	Username            string   `json:"username,omitempty"`
	ImageURL            string   `json:"imageUrl,omitempty"`
	OnboardingCompleted *bool    `json:"onboardingCompleted,omitempty"`
	FocusAreas          []string `json:"focusAreas,omitempty"`
	ExperienceLevel     string   `json:"experienceLevel,omitempty"`
	PreferredStyle      string   `json:"preferredStyle,omitempty"`
}
