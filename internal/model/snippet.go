package model

import "time"

const (
	LanguagePython     = "python"
	LanguageJavaScript = "javascript"
)

func IsSupportedLanguage(language string) bool {
	switch language {
	case LanguagePython, LanguageJavaScript:
		return true
	}
	return false
}

// SnippetMetadata : реляционная часть сниппета
type SnippetMetadata struct {
	ID         int64     `db:"id" json:"-"`
	UUID       string    `db:"uuid" json:"uuid"`
	Title      string    `db:"title" json:"title"`
	Language   string    `db:"language" json:"language"`
	IsPrivate  bool      `db:"is_private" json:"is_private"`
	OwnerID    int64     `db:"user_id" json:"user_id"`
	DocumentID string    `db:"mongodb_id" json:"-"`
	Tags       []Tag     `db:"-" json:"tags"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// SnippetDocument : содержимое сниппета в документном хранилище
type SnippetDocument struct {
	ID          string    `bson:"-" json:"id"`
	Content     string    `bson:"content" json:"content"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

type Tag struct {
	ID        int64     `db:"id" json:"-"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// Snippet : метаданные и содержимое вместе, то что отдаётся наружу
type Snippet struct {
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	Language    string    `json:"language"`
	IsPrivate   bool      `json:"is_private"`
	OwnerID     int64     `json:"user_id"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewSnippet(meta *SnippetMetadata, doc *SnippetDocument) *Snippet {
	tags := make([]string, 0, len(meta.Tags))
	for _, tag := range meta.Tags {
		tags = append(tags, tag.Name)
	}

	return &Snippet{
		UUID:        meta.UUID,
		Title:       meta.Title,
		Language:    meta.Language,
		IsPrivate:   meta.IsPrivate,
		OwnerID:     meta.OwnerID,
		Content:     doc.Content,
		Description: doc.Description,
		Tags:        tags,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
	}
}

type CreateSnippetInput struct {
	Title       string
	Language    string
	IsPrivate   bool
	Content     string
	Description string
	Tags        []string
	OwnerID     int64
}

// UpdateSnippetInput : nil означает "не менять"
type UpdateSnippetInput struct {
	Title       *string
	Language    *string
	IsPrivate   *bool
	Tags        *[]string
	Content     *string
	Description *string
}

func (in UpdateSnippetInput) HasDocumentChanges() bool {
	return in.Content != nil || in.Description != nil
}

type SnippetFilter struct {
	Language string
	Tag      string
	OwnerID  int64
	Limit    int
	Offset   int
}

const (
	FavoritesSortDateAdded   = "date_added"
	FavoritesSortSnippetDate = "snippet_date"
	FavoritesSortTitle       = "title"
)

// FavoritesFilter : пустой SortBy означает FavoritesSortDateAdded
type FavoritesFilter struct {
	Language string
	Tag      string
	SortBy   string
	Limit    int
	Offset   int
}

func IsSupportedFavoritesSort(sortBy string) bool {
	switch sortBy {
	case "", FavoritesSortDateAdded, FavoritesSortSnippetDate, FavoritesSortTitle:
		return true
	}
	return false
}

// SnippetSearchItem : результат поиска по названию, только метаданные
type SnippetSearchItem struct {
	UUID     string `db:"uuid" json:"uuid"`
	Title    string `db:"title" json:"title"`
	Language string `db:"language" json:"language"`
}
