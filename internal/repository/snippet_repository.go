package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

const (
	snippetColumns         = `s.id, s.uuid, s.title, s.language, s.is_private, s.user_id, s.mongodb_id, s.created_at, s.updated_at`
	uniqueTitleConstraint  = "uq_snippets_user_title"
	defaultSnippetPageSize = 20
	maxSnippetPageSize     = 100
)

type SnippetRepository struct{}

func NewSnippetRepository() *SnippetRepository {
	return &SnippetRepository{}
}

// Create : вставляет метаданные. Повтор названия у того же владельца - model.ErrSnippetAlreadyExists
func (r *SnippetRepository) Create(ctx context.Context, exec sqlx.ExtContext, snippet *model.SnippetMetadata) error {
	query := `
	INSERT INTO snippets (uuid, title, language, is_private, user_id, mongodb_id)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at, updated_at
	`

	err := exec.QueryRowxContext(ctx, query,
		snippet.UUID,
		snippet.Title,
		snippet.Language,
		snippet.IsPrivate,
		snippet.OwnerID,
		snippet.DocumentID,
	).Scan(&snippet.ID, &snippet.CreatedAt, &snippet.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, uniqueTitleConstraint) {
			return model.ErrSnippetAlreadyExists
		}
		return util.LogError("[SnippetRepo] ошибка вставки сниппета в БД", err)
	}

	return nil
}

// GetByUUID : метаданные сниппета вместе с тегами в порядке их добавления
func (r *SnippetRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.SnippetMetadata, error) {
	query := `SELECT ` + snippetColumns + ` FROM snippets s WHERE s.uuid = $1`

	var snippet model.SnippetMetadata
	if err := sqlx.GetContext(ctx, exec, &snippet, query, uuid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSnippetNotFound
		}
		return nil, util.LogError("[SnippetRepo] не удалось получить сниппет", err)
	}

	tags, err := r.tagsFor(ctx, exec, []int64{snippet.ID})
	if err != nil {
		return nil, err
	}
	snippet.Tags = tags[snippet.ID]

	return &snippet, nil
}

// List : публичные сниппеты и приватные сниппеты запрашивающего; администратор видит все
func (r *SnippetRepository) List(ctx context.Context, exec sqlx.ExtContext, filter model.SnippetFilter, requester model.Requester) ([]model.SnippetMetadata, error) {
	var q queryArgs

	conditions := visibilityConditions(&q, requester)
	if filter.Language != "" {
		conditions = append(conditions, "s.language = "+q.arg(filter.Language))
	}
	if filter.OwnerID != 0 {
		conditions = append(conditions, "s.user_id = "+q.arg(filter.OwnerID))
	}
	if filter.Tag != "" {
		conditions = append(conditions, tagCondition(&q, filter.Tag))
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)

	query := `SELECT ` + snippetColumns + ` FROM snippets s`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC LIMIT ` + q.arg(limit) + ` OFFSET ` + q.arg(offset)

	var snippets []model.SnippetMetadata
	if err := sqlx.SelectContext(ctx, exec, &snippets, query, q.args...); err != nil {
		return nil, util.LogError("[SnippetRepo] не удалось получить список сниппетов", err)
	}

	return r.withTags(ctx, exec, snippets)
}

// AddFavorite : повторное добавление - model.ErrFavoriteAlreadyExists
func (r *SnippetRepository) AddFavorite(ctx context.Context, exec sqlx.ExtContext, userID, snippetID int64) error {
	query := `
	INSERT INTO snippet_favorites (user_id, snippet_id)
	VALUES ($1, $2)
	ON CONFLICT (user_id, snippet_id) DO NOTHING
	`

	result, err := exec.ExecContext(ctx, query, userID, snippetID)
	if err != nil {
		return util.LogError("[SnippetRepo] не удалось добавить сниппет в избранное", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[SnippetRepo] не удалось проверить добавление в избранное", err)
	}
	if rowsAffected == 0 {
		return model.ErrFavoriteAlreadyExists
	}

	return nil
}

// RemoveFavorite : false, если сниппета в избранном не было
func (r *SnippetRepository) RemoveFavorite(ctx context.Context, exec sqlx.ExtContext, userID, snippetID int64) (bool, error) {
	result, err := exec.ExecContext(ctx,
		`DELETE FROM snippet_favorites WHERE user_id = $1 AND snippet_id = $2`, userID, snippetID)
	if err != nil {
		return false, util.LogError("[SnippetRepo] не удалось удалить сниппет из избранного", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[SnippetRepo] не удалось проверить удаление из избранного", err)
	}

	return rowsAffected > 0, nil
}

// ListFavorites : избранное requester.UserID. Сниппеты, ставшие чужими приватными, не показываются
func (r *SnippetRepository) ListFavorites(ctx context.Context, exec sqlx.ExtContext, filter model.FavoritesFilter, requester model.Requester) ([]model.SnippetMetadata, error) {
	var q queryArgs

	conditions := []string{"f.user_id = " + q.arg(requester.UserID)}
	conditions = append(conditions, visibilityConditions(&q, requester)...)
	if filter.Language != "" {
		conditions = append(conditions, "s.language = "+q.arg(filter.Language))
	}
	if filter.Tag != "" {
		conditions = append(conditions, tagCondition(&q, filter.Tag))
	}

	var orderBy string
	switch filter.SortBy {
	case model.FavoritesSortSnippetDate:
		orderBy = "s.created_at DESC, s.id DESC"
	case model.FavoritesSortTitle:
		orderBy = "s.title ASC, s.id ASC"
	default:
		orderBy = "f.created_at DESC, s.id DESC"
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)

	query := `SELECT ` + snippetColumns + ` FROM snippets s
	JOIN snippet_favorites f ON f.snippet_id = s.id
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY ` + orderBy + ` LIMIT ` + q.arg(limit) + ` OFFSET ` + q.arg(offset)

	var snippets []model.SnippetMetadata
	if err := sqlx.SelectContext(ctx, exec, &snippets, query, q.args...); err != nil {
		return nil, util.LogError("[SnippetRepo] не удалось получить избранное", err)
	}

	return r.withTags(ctx, exec, snippets)
}

// SearchByTitle : подстрока без учёта регистра, % и _ в запросе ищутся буквально
func (r *SnippetRepository) SearchByTitle(ctx context.Context, exec sqlx.ExtContext, title string, limit int, requester model.Requester) ([]model.SnippetSearchItem, error) {
	var q queryArgs

	conditions := []string{`s.title ILIKE ` + q.arg("%"+likeEscaper.Replace(title)+"%") + ` ESCAPE '\'`}
	conditions = append(conditions, visibilityConditions(&q, requester)...)

	limit, _ = pageBounds(limit, 0)

	query := `SELECT s.uuid, s.title, s.language FROM snippets s
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY s.title ASC, s.id ASC LIMIT ` + q.arg(limit)

	items := []model.SnippetSearchItem{}
	if err := sqlx.SelectContext(ctx, exec, &items, query, q.args...); err != nil {
		return nil, util.LogError("[SnippetRepo] ошибка поиска сниппетов по названию", err)
	}

	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// queryArgs : позиционные параметры $1..$n в порядке добавления
type queryArgs struct {
	args []any
}

func (q *queryArgs) arg(value any) string {
	q.args = append(q.args, value)
	return fmt.Sprintf("$%d", len(q.args))
}

func visibilityConditions(q *queryArgs, requester model.Requester) []string {
	if requester.IsAdmin {
		return nil
	}
	return []string{fmt.Sprintf("(s.is_private = FALSE OR s.user_id = %s)", q.arg(requester.UserID))}
}

func tagCondition(q *queryArgs, tag string) string {
	return `EXISTS (
			SELECT 1 FROM snippets_tags st JOIN tags t ON t.id = st.tag_id
			WHERE st.snippet_id = s.id AND t.name = ` + q.arg(tag) + `)`
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultSnippetPageSize
	}
	if limit > maxSnippetPageSize {
		limit = maxSnippetPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (r *SnippetRepository) withTags(ctx context.Context, exec sqlx.ExtContext, snippets []model.SnippetMetadata) ([]model.SnippetMetadata, error) {
	if len(snippets) == 0 {
		return snippets, nil
	}

	ids := make([]int64, 0, len(snippets))
	for _, snippet := range snippets {
		ids = append(ids, snippet.ID)
	}
	tags, err := r.tagsFor(ctx, exec, ids)
	if err != nil {
		return nil, err
	}
	for i := range snippets {
		snippets[i].Tags = tags[snippets[i].ID]
	}

	return snippets, nil
}

func (r *SnippetRepository) tagsFor(ctx context.Context, exec sqlx.ExtContext, snippetIDs []int64) (map[int64][]model.Tag, error) {
	query := `
	SELECT st.snippet_id, t.id, t.name, t.created_at
	FROM snippets_tags st
	JOIN tags t ON t.id = st.tag_id
	WHERE st.snippet_id = ANY($1)
	ORDER BY st.snippet_id, st.position
	`

	var rows []struct {
		SnippetID int64 `db:"snippet_id"`
		model.Tag
	}
	if err := sqlx.SelectContext(ctx, exec, &rows, query, pq.Array(snippetIDs)); err != nil {
		return nil, util.LogError("[SnippetRepo] не удалось получить теги сниппета", err)
	}

	result := make(map[int64][]model.Tag, len(snippetIDs))
	for _, row := range rows {
		result[row.SnippetID] = append(result[row.SnippetID], row.Tag)
	}
	return result, nil
}

// Update : обновляет реляционные поля (название, язык, видимость)
func (r *SnippetRepository) Update(ctx context.Context, exec sqlx.ExtContext, snippet *model.SnippetMetadata) error {
	query := `
	UPDATE snippets
	SET title = $2, language = $3, is_private = $4, updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	err := exec.QueryRowxContext(ctx, query, snippet.ID, snippet.Title, snippet.Language, snippet.IsPrivate).
		Scan(&snippet.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrSnippetNotFound
		}
		if isUniqueViolation(err, uniqueTitleConstraint) {
			return model.ErrSnippetAlreadyExists
		}
		return util.LogError("[SnippetRepo] не удалось обновить сниппет", err)
	}

	return nil
}

// ReplaceTags : заменяет связи сниппета с тегами, сохраняя порядок
func (r *SnippetRepository) ReplaceTags(ctx context.Context, exec sqlx.ExtContext, snippetID int64, tags []model.Tag) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM snippets_tags WHERE snippet_id = $1`, snippetID); err != nil {
		return util.LogError("[SnippetRepo] не удалось удалить связи с тегами", err)
	}

	for position, tag := range tags {
		_, err := exec.ExecContext(ctx,
			`INSERT INTO snippets_tags (snippet_id, tag_id, position) VALUES ($1, $2, $3)`,
			snippetID, tag.ID, position)
		if err != nil {
			return util.LogError("[SnippetRepo] не удалось связать сниппет с тегом", err)
		}
	}

	return nil
}

// Delete : удаляет метаданные; связи с тегами удаляются каскадом, сами теги остаются
func (r *SnippetRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM snippets WHERE id = $1`, id)
	if err != nil {
		return util.LogError("[SnippetRepo] не удалось удалить сниппет", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[SnippetRepo] не удалось проверить удаление сниппета", err)
	}
	if rowsAffected == 0 {
		return model.ErrSnippetNotFound
	}

	return nil
}
