package catalog

// Deck is the renderable payload for a shared deck reference.
type Deck struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Format    string `json:"format,omitempty"`
	CardCount int    `json:"card_count"`
	CoverURL  string `json:"cover_url,omitempty"`
}

// Card is the renderable payload for a shared card reference.
type Card struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SetCode  string `json:"set_code,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Collection is the renderable payload for a shared collection reference.
type Collection struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   int    `json:"owner_id"`
	CardCount int    `json:"card_count"`
}

// User is the directory entry embedded in chat-list rows.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
