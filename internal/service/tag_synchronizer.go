package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/ports"
)

// NormalizeTagName : нижний регистр, без пробельных символов
func NormalizeTagName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// TagSynchronizer : находит или создаёт теги внутри уже открытой транзакции вызывающего.
// Сам никогда не коммитит
type TagSynchronizer struct {
	tags ports.TagRepository
}

func NewTagSynchronizer(tags ports.TagRepository) *TagSynchronizer {
	return &TagSynchronizer{tags: tags}
}

// Sync : возвращает теги в порядке входа. Имена, совпавшие после нормализации,
// сворачиваются в один тег на месте первого вхождения; пустые имена пропускаются
func (s *TagSynchronizer) Sync(ctx context.Context, exec sqlx.ExtContext, names []string) ([]model.Tag, error) {
	ordered := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := NormalizeTagName(raw)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}
	if len(ordered) == 0 {
		return []model.Tag{}, nil
	}

	existing, err := s.tags.FindByNames(ctx, exec, ordered)
	if err != nil {
		return nil, fmt.Errorf("[TagSynchronizer] ошибка поиска тегов: %w", err)
	}
	byName := make(map[string]model.Tag, len(existing))
	for _, tag := range existing {
		byName[tag.Name] = tag
	}

	result := make([]model.Tag, 0, len(ordered))
	for _, name := range ordered {
		tag, ok := byName[name]
		if !ok {
			created, err := s.tags.GetOrCreate(ctx, exec, name)
			if err != nil {
				return nil, fmt.Errorf("[TagSynchronizer] ошибка создания тега %q: %w", name, err)
			}
			tag = *created
		}
		result = append(result, tag)
	}

	return result, nil
}
