package model

// UserProfile is the public projection of a user owned by the external directory.
type UserProfile struct {
	ID              string  `json:"id"`
	Username        *string `json:"username"`
	ProfileImageURL string  `json:"profile_image_url"`
}

func (p UserProfile) HasUsername() bool {
	return p.Username != nil && *p.Username != ""
}

func (p UserProfile) DisplayName() string {
	if !p.HasUsername() {
		return p.ID
	}
	return *p.Username
}
