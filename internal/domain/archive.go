package domain

// Archive identifies the snapshot being browsed. The caller owns it.
type Archive struct {
	ID   string
	Name string
	Repo string
	Time string
}

func (archive Archive) DisplayName() string {
	if archive.Name != "" {
		return archive.Name
	}
	return archive.ID
}
