package requestresponse

import "snippet-sharing-server/internal/model"

// CreateSnippetRequest : тело запроса на создание сниппета
type CreateSnippetRequest struct {
	Title       string   `json:"title" example:"quicksort"`
	Language    string   `json:"language" example:"python"`
	IsPrivate   bool     `json:"is_private" example:"false"`
	Content     string   `json:"content" example:"def qs(xs): ..."`
	Description string   `json:"description" example:"быстрая сортировка"`
	Tags        []string `json:"tags" example:"sorting,algorithms"`
}

// UpdateSnippetRequest : отсутствующие поля не меняются
type UpdateSnippetRequest struct {
	Title       *string   `json:"title,omitempty"`
	Language    *string   `json:"language,omitempty"`
	IsPrivate   *bool     `json:"is_private,omitempty"`
	Content     *string   `json:"content,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (r UpdateSnippetRequest) ToInput() model.UpdateSnippetInput {
	return model.UpdateSnippetInput{
		Title:       r.Title,
		Language:    r.Language,
		IsPrivate:   r.IsPrivate,
		Tags:        r.Tags,
		Content:     r.Content,
		Description: r.Description,
	}
}

type SnippetResponse struct {
	Response *model.Snippet `json:"response"`
}

// SnippetListResponse : страница сниппетов
type SnippetListResponse struct {
	Response []model.Snippet `json:"response"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// FavoriteRequest : тело запроса на добавление в избранное
type FavoriteRequest struct {
	UUID string `json:"uuid" example:"6f1c1c2e-6f5b-4d7a-9a53-2f1f0a0b0c0d"`
}

// FavoritesListResponse : страница избранного
type FavoritesListResponse struct {
	Response []model.Snippet `json:"response"`
	SortBy   string          `json:"sort_by"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

type SearchResponse struct {
	Response []model.SnippetSearchItem `json:"response"`
}
