package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snippet-sharing-server/internal/metrics"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/util"
)

const defaultSearchLimit = 20

// SnippetService : метаданные в реляционной БД, содержимое в документном хранилище.
// Транзакция никогда не охватывает оба хранилища
type SnippetService struct {
	snippets ports.SnippetRepository
	tags     *TagSynchronizer
	docs     ports.DocumentStore
	tx       ports.Transactor
	logger   *zap.Logger
	metrics  metrics.Recorder
}

func NewSnippetService(
	snippets ports.SnippetRepository,
	tags *TagSynchronizer,
	docs ports.DocumentStore,
	tx ports.Transactor,
	logger *zap.Logger,
	recorder metrics.Recorder,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		tags:     tags,
		docs:     docs,
		tx:       tx,
		logger:   logger.Named("snippets"),
		metrics:  recorder,
	}
}

func validateSnippetFields(title, language *string) error {
	if title != nil && strings.TrimSpace(*title) == "" {
		return fmt.Errorf("%w: название не может быть пустым", model.ErrValidation)
	}
	if language != nil && !model.IsSupportedLanguage(*language) {
		return fmt.Errorf("%w: неподдерживаемый язык %q", model.ErrValidation, *language)
	}
	return nil
}

// validateSnippetUUID : строка, не являющаяся UUID, не может быть идентификатором сниппета
func validateSnippetUUID(snippetUUID string) error {
	if _, err := uuid.Parse(snippetUUID); err != nil {
		return model.ErrSnippetNotFound
	}
	return nil
}

// Create : сначала документ, затем одна транзакция с тегами и метаданными.
// Если транзакция не удалась, документ удаляется
func (s *SnippetService) Create(ctx context.Context, in model.CreateSnippetInput) (snippet *model.Snippet, err error) {
	if err := validateSnippetFields(&in.Title, &in.Language); err != nil {
		return nil, err
	}

	doc, err := s.docs.Create(ctx, in.Content, in.Description)
	if err != nil {
		return nil, fmt.Errorf("[SnippetService] ошибка сохранения документа: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			s.compensateCreate(ctx, doc.ID, err)
		}
	}()

	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[SnippetService] не удалось начать транзакцию", err)
	}
	defer rollback()

	tags, err := s.tags.Sync(ctx, exec, in.Tags)
	if err != nil {
		return nil, err
	}

	meta := &model.SnippetMetadata{
		UUID:       uuid.NewString(),
		Title:      in.Title,
		Language:   in.Language,
		IsPrivate:  in.IsPrivate,
		OwnerID:    in.OwnerID,
		DocumentID: doc.ID,
		Tags:       tags,
	}
	if err = s.snippets.Create(ctx, exec, meta); err != nil {
		return nil, err
	}
	if err = s.snippets.ReplaceTags(ctx, exec, meta.ID, tags); err != nil {
		return nil, err
	}

	if err = commit(); err != nil {
		return nil, util.LogError("[SnippetService] ошибка коммита сниппета", err)
	}
	committed = true

	s.logger.Info("сниппет создан", zap.String("uuid", meta.UUID), zap.Int64("owner_id", meta.OwnerID))
	return model.NewSnippet(meta, doc), nil
}

func (s *SnippetService) compensateCreate(ctx context.Context, documentID string, cause error) {
	if err := s.docs.Delete(context.WithoutCancel(ctx), documentID); err != nil {
		s.metrics.RecordCompensation(false)
		s.logger.Error("не удалось удалить документ после неудачного создания сниппета",
			zap.String("document_id", documentID),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordCompensation(true)
	s.logger.Warn("документ удалён после неудачного создания сниппета",
		zap.String("document_id", documentID),
		zap.NamedError("cause", cause),
	)
}

// Get : приватный сниппет доступен владельцу и администратору.
// Метаданные без документа не отдаются
func (s *SnippetService) Get(ctx context.Context, snippetUUID string, requester model.Requester) (*model.Snippet, error) {
	if err := validateSnippetUUID(snippetUUID); err != nil {
		return nil, err
	}

	meta, err := s.snippets.GetByUUID(ctx, s.tx.Conn(), snippetUUID)
	if err != nil {
		return nil, err
	}

	if meta.IsPrivate && !requester.CanAccess(meta.OwnerID) {
		return nil, model.ErrNoPermission
	}

	doc, err := s.loadDocument(ctx, meta, "get")
	if err != nil {
		return nil, err
	}

	return model.NewSnippet(meta, doc), nil
}

func (s *SnippetService) loadDocument(ctx context.Context, meta *model.SnippetMetadata, operation string) (*model.SnippetDocument, error) {
	doc, err := s.docs.GetByID(ctx, meta.DocumentID)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			s.metrics.RecordInconsistency(operation)
			s.logger.Error("у сниппета нет документа",
				zap.String("uuid", meta.UUID),
				zap.String("document_id", meta.DocumentID),
			)
			return nil, model.ErrSnippetNotFound
		}
		return nil, fmt.Errorf("[SnippetService] ошибка чтения документа: %w", err)
	}
	return doc, nil
}

// List : сниппеты без документа пропускаются
func (s *SnippetService) List(ctx context.Context, filter model.SnippetFilter, requester model.Requester) ([]model.Snippet, error) {
	if filter.Language != "" && !model.IsSupportedLanguage(filter.Language) {
		return nil, fmt.Errorf("%w: неподдерживаемый язык %q", model.ErrValidation, filter.Language)
	}
	if filter.Tag != "" {
		filter.Tag = NormalizeTagName(filter.Tag)
	}

	metas, err := s.snippets.List(ctx, s.tx.Conn(), filter, requester)
	if err != nil {
		return nil, err
	}

	return s.withDocuments(ctx, metas, "list")
}

// withDocuments : сниппеты без документа пропускаются
func (s *SnippetService) withDocuments(ctx context.Context, metas []model.SnippetMetadata, operation string) ([]model.Snippet, error) {
	result := make([]model.Snippet, 0, len(metas))
	for i := range metas {
		doc, err := s.loadDocument(ctx, &metas[i], operation)
		if err != nil {
			if errors.Is(err, model.ErrSnippetNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, *model.NewSnippet(&metas[i], doc))
	}

	return result, nil
}

// Update : реляционная часть коммитится первой, документ обновляется только после коммита.
// Ошибка обновления документа оставляет хранилища рассинхронизированными и возвращается как есть
func (s *SnippetService) Update(ctx context.Context, snippetUUID string, in model.UpdateSnippetInput, requester model.Requester) (*model.Snippet, error) {
	if err := validateSnippetUUID(snippetUUID); err != nil {
		return nil, err
	}
	if err := validateSnippetFields(in.Title, in.Language); err != nil {
		return nil, err
	}

	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[SnippetService] не удалось начать транзакцию", err)
	}
	defer rollback()

	meta, err := s.snippets.GetByUUID(ctx, exec, snippetUUID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(meta.OwnerID) {
		return nil, model.ErrNoPermission
	}

	if in.Title != nil {
		meta.Title = *in.Title
	}
	if in.Language != nil {
		meta.Language = *in.Language
	}
	if in.IsPrivate != nil {
		meta.IsPrivate = *in.IsPrivate
	}

	if in.Tags != nil {
		tags, err := s.tags.Sync(ctx, exec, *in.Tags)
		if err != nil {
			return nil, err
		}
		if err := s.snippets.ReplaceTags(ctx, exec, meta.ID, tags); err != nil {
			return nil, err
		}
		meta.Tags = tags
	}

	if err := s.snippets.Update(ctx, exec, meta); err != nil {
		return nil, err
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[SnippetService] ошибка коммита изменений сниппета", err)
	}

	if in.HasDocumentChanges() {
		if err := s.docs.Update(ctx, meta.DocumentID, in.Content, in.Description); err != nil {
			s.metrics.RecordInconsistency("update")
			s.logger.Error("метаданные обновлены, документ нет",
				zap.String("uuid", meta.UUID),
				zap.String("document_id", meta.DocumentID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("[SnippetService] ошибка обновления документа: %w", err)
		}
	}

	doc, err := s.loadDocument(ctx, meta, "update")
	if err != nil {
		return nil, err
	}

	return model.NewSnippet(meta, doc), nil
}

// Delete : метаданные удаляются в своей транзакции, затем документ.
// Если документ удалить не удалось, он остаётся мусором для фоновой очистки
func (s *SnippetService) Delete(ctx context.Context, snippetUUID string, requester model.Requester) error {
	if err := validateSnippetUUID(snippetUUID); err != nil {
		return err
	}

	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return util.LogError("[SnippetService] не удалось начать транзакцию", err)
	}
	defer rollback()

	meta, err := s.snippets.GetByUUID(ctx, exec, snippetUUID)
	if err != nil {
		return err
	}
	if !requester.CanAccess(meta.OwnerID) {
		return model.ErrNoPermission
	}

	if err := s.snippets.Delete(ctx, exec, meta.ID); err != nil {
		return err
	}

	if err := commit(); err != nil {
		return util.LogError("[SnippetService] ошибка коммита удаления сниппета", err)
	}

	if err := s.docs.Delete(ctx, meta.DocumentID); err != nil {
		s.metrics.RecordInconsistency("delete")
		s.logger.Error("метаданные удалены, документ нет",
			zap.String("uuid", meta.UUID),
			zap.String("document_id", meta.DocumentID),
			zap.Error(err),
		)
		return fmt.Errorf("[SnippetService] ошибка удаления документа: %w", err)
	}

	s.logger.Info("сниппет удалён", zap.String("uuid", meta.UUID))
	return nil
}

// AddFavorite : добавить в избранное можно только видимый запрашивающему сниппет
func (s *SnippetService) AddFavorite(ctx context.Context, snippetUUID string, requester model.Requester) error {
	if err := validateSnippetUUID(snippetUUID); err != nil {
		return err
	}

	meta, err := s.snippets.GetByUUID(ctx, s.tx.Conn(), snippetUUID)
	if err != nil {
		return err
	}
	if meta.IsPrivate && !requester.CanAccess(meta.OwnerID) {
		return model.ErrNoPermission
	}

	if err := s.snippets.AddFavorite(ctx, s.tx.Conn(), requester.UserID, meta.ID); err != nil {
		return err
	}

	s.logger.Info("сниппет добавлен в избранное", zap.String("uuid", meta.UUID), zap.Int64("user_id", requester.UserID))
	return nil
}

// RemoveFavorite : идемпотентно, отсутствие в избранном не ошибка. Неизвестный сниппет - model.ErrSnippetNotFound
func (s *SnippetService) RemoveFavorite(ctx context.Context, snippetUUID string, requester model.Requester) error {
	if err := validateSnippetUUID(snippetUUID); err != nil {
		return err
	}

	meta, err := s.snippets.GetByUUID(ctx, s.tx.Conn(), snippetUUID)
	if err != nil {
		return err
	}

	removed, err := s.snippets.RemoveFavorite(ctx, s.tx.Conn(), requester.UserID, meta.ID)
	if err != nil {
		return err
	}
	if removed {
		s.logger.Info("сниппет удалён из избранного", zap.String("uuid", meta.UUID), zap.Int64("user_id", requester.UserID))
	}
	return nil
}

func (s *SnippetService) ListFavorites(ctx context.Context, filter model.FavoritesFilter, requester model.Requester) ([]model.Snippet, error) {
	if filter.Language != "" && !model.IsSupportedLanguage(filter.Language) {
		return nil, fmt.Errorf("%w: неподдерживаемый язык %q", model.ErrValidation, filter.Language)
	}
	if !model.IsSupportedFavoritesSort(filter.SortBy) {
		return nil, fmt.Errorf("%w: неподдерживаемая сортировка %q", model.ErrValidation, filter.SortBy)
	}
	if filter.Tag != "" {
		filter.Tag = NormalizeTagName(filter.Tag)
	}

	metas, err := s.snippets.ListFavorites(ctx, s.tx.Conn(), filter, requester)
	if err != nil {
		return nil, err
	}

	return s.withDocuments(ctx, metas, "favorites")
}

// Search : поиск по подстроке названия среди видимых сниппетов, без обращения к документам
func (s *SnippetService) Search(ctx context.Context, title string, limit int, requester model.Requester) ([]model.SnippetSearchItem, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: пустой поисковый запрос", model.ErrValidation)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	return s.snippets.SearchByTitle(ctx, s.tx.Conn(), title, limit, requester)
}
