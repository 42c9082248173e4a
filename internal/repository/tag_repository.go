package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

type TagRepository struct{}

func NewTagRepository() *TagRepository {
	return &TagRepository{}
}

// FindByNames : существующие теги по уже нормализованным именам
func (r *TagRepository) FindByNames(ctx context.Context, exec sqlx.ExtContext, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, created_at FROM tags WHERE name = ANY($1)`

	var tags []model.Tag
	if err := sqlx.SelectContext(ctx, exec, &tags, query, pq.Array(names)); err != nil {
		return nil, util.LogError("[TagRepo] ошибка поиска тегов", err)
	}
	return tags, nil
}

// GetOrCreate : создаёт тег или возвращает существующий, если его успела вставить параллельная транзакция
func (r *TagRepository) GetOrCreate(ctx context.Context, exec sqlx.ExtContext, name string) (*model.Tag, error) {
	query := `
	INSERT INTO tags (name) VALUES ($1)
	ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	RETURNING id, name, created_at
	`

	tag := &model.Tag{}
	if err := sqlx.GetContext(ctx, exec, tag, query, name); err != nil {
		return nil, util.LogError("[TagRepo] ошибка создания тега", err)
	}
	return tag, nil
}

// DeleteUnused : удаляет теги, на которые не ссылается ни один сниппет
func (r *TagRepository) DeleteUnused(ctx context.Context, exec sqlx.ExtContext) (int64, error) {
	query := `
	DELETE FROM tags t
	WHERE NOT EXISTS (SELECT 1 FROM snippets_tags st WHERE st.tag_id = t.id)
	`

	result, err := exec.ExecContext(ctx, query)
	if err != nil {
		return 0, util.LogError("[TagRepo] ошибка удаления неиспользуемых тегов", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, util.LogError("[TagRepo] не удалось получить число удалённых тегов", err)
	}
	return rowsAffected, nil
}
