package ports

import (
	"context"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
)

// SnippetRepository : SQL слой метаданных сниппетов
type SnippetRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, snippet *model.SnippetMetadata) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.SnippetMetadata, error)
	List(ctx context.Context, exec sqlx.ExtContext, filter model.SnippetFilter, requester model.Requester) ([]model.SnippetMetadata, error)
	Update(ctx context.Context, exec sqlx.ExtContext, snippet *model.SnippetMetadata) error
	ReplaceTags(ctx context.Context, exec sqlx.ExtContext, snippetID int64, tags []model.Tag) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	AddFavorite(ctx context.Context, exec sqlx.ExtContext, userID, snippetID int64) error
	RemoveFavorite(ctx context.Context, exec sqlx.ExtContext, userID, snippetID int64) (bool, error)
	ListFavorites(ctx context.Context, exec sqlx.ExtContext, filter model.FavoritesFilter, requester model.Requester) ([]model.SnippetMetadata, error)
	SearchByTitle(ctx context.Context, exec sqlx.ExtContext, title string, limit int, requester model.Requester) ([]model.SnippetSearchItem, error)
}

type TagRepository interface {
	FindByNames(ctx context.Context, exec sqlx.ExtContext, names []string) ([]model.Tag, error)
	GetOrCreate(ctx context.Context, exec sqlx.ExtContext, name string) (*model.Tag, error)
	DeleteUnused(ctx context.Context, exec sqlx.ExtContext) (int64, error)
}

// DocumentStore : содержимое сниппетов (MongoDB или S3)
type DocumentStore interface {
	Create(ctx context.Context, content, description string) (*model.SnippetDocument, error)
	GetByID(ctx context.Context, id string) (*model.SnippetDocument, error)
	Update(ctx context.Context, id string, content, description *string) error
	Delete(ctx context.Context, id string) error
}

type SnippetService interface {
	Create(ctx context.Context, in model.CreateSnippetInput) (*model.Snippet, error)
	Get(ctx context.Context, uuid string, requester model.Requester) (*model.Snippet, error)
	List(ctx context.Context, filter model.SnippetFilter, requester model.Requester) ([]model.Snippet, error)
	Update(ctx context.Context, uuid string, in model.UpdateSnippetInput, requester model.Requester) (*model.Snippet, error)
	Delete(ctx context.Context, uuid string, requester model.Requester) error
	AddFavorite(ctx context.Context, uuid string, requester model.Requester) error
	RemoveFavorite(ctx context.Context, uuid string, requester model.Requester) error
	ListFavorites(ctx context.Context, filter model.FavoritesFilter, requester model.Requester) ([]model.Snippet, error)
	Search(ctx context.Context, title string, limit int, requester model.Requester) ([]model.SnippetSearchItem, error)
}
