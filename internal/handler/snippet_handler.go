package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/model/requestresponse"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/security"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type SnippetHandler struct {
	snippets ports.SnippetService
}

func NewSnippetHandler(snippets ports.SnippetService) *SnippetHandler {
	return &SnippetHandler{snippets: snippets}
}

// CreateSnippet godoc
// @Summary Создание сниппета
// @Tags Snippets
// @Accept json
// @Produce json
// @Param body body requestresponse.CreateSnippetRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.SnippetResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Failure 401 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Router /api/snippets [post]
func (h *SnippetHandler) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	var req requestresponse.CreateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	snippet, err := h.snippets.Create(r.Context(), model.CreateSnippetInput{
		Title:       req.Title,
		Language:    req.Language,
		IsPrivate:   req.IsPrivate,
		Content:     req.Content,
		Description: req.Description,
		Tags:        req.Tags,
		OwnerID:     claims.UserID,
	})
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusCreated, requestresponse.SnippetResponse{Response: snippet})
}

// ListSnippets godoc
// @Summary Список сниппетов
// @Description Публичные сниппеты и собственные приватные. Фильтры: language, tag, owner; пагинация limit/offset
// @Tags Snippets
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SnippetListResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Router /api/snippets [get]
func (h *SnippetHandler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	filter, ok := parseSnippetFilter(r)
	if !ok {
		sendErrorResponse(w, http.StatusBadRequest, "некорректные параметры limit, offset или owner")
		return
	}

	snippets, err := h.snippets.List(r.Context(), filter, claims.Requester())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, requestresponse.SnippetListResponse{
		Response: snippets,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

func parseSnippetFilter(r *http.Request) (model.SnippetFilter, bool) {
	query := r.URL.Query()
	filter := model.SnippetFilter{
		Language: query.Get("language"),
		Tag:      query.Get("tag"),
		Limit:    defaultPageSize,
	}

	if value := query.Get("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 {
			return filter, false
		}
		filter.Limit = min(limit, maxPageSize)
	}
	if value := query.Get("offset"); value != "" {
		offset, err := strconv.Atoi(value)
		if err != nil || offset < 0 {
			return filter, false
		}
		filter.Offset = offset
	}
	if value := query.Get("owner"); value != "" {
		owner, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return filter, false
		}
		filter.OwnerID = owner
	}

	return filter, true
}

func (h *SnippetHandler) GetSnippet(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	snippet, err := h.snippets.Get(r.Context(), chi.URLParam(r, "uuid"), claims.Requester())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, requestresponse.SnippetResponse{Response: snippet})
}

// UpdateSnippet : частичное обновление, менять может владелец или администратор
func (h *SnippetHandler) UpdateSnippet(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	var req requestresponse.UpdateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	snippet, err := h.snippets.Update(r.Context(), chi.URLParam(r, "uuid"), req.ToInput(), claims.Requester())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, requestresponse.SnippetResponse{Response: snippet})
}

func (h *SnippetHandler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	if err := h.snippets.Delete(r.Context(), chi.URLParam(r, "uuid"), claims.Requester()); err != nil {
		sendServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddFavorite godoc
// @Summary Добавление сниппета в избранное
// @Tags Favorites
// @Accept json
// @Produce json
// @Param body body requestresponse.FavoriteRequest true "Тело запроса"
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 201 {object} requestresponse.StatusResponse
// @Failure 403 {object} requestresponse.ErrorResponse
// @Failure 404 {object} requestresponse.ErrorResponse
// @Failure 409 {object} requestresponse.ErrorResponse
// @Router /api/snippets/favorites [post]
func (h *SnippetHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	var req requestresponse.FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный JSON")
		return
	}

	if err := h.snippets.AddFavorite(r.Context(), req.UUID, claims.Requester()); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusCreated)
}

// RemoveFavorite : повторное удаление тоже 200
func (h *SnippetHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	if err := h.snippets.RemoveFavorite(r.Context(), chi.URLParam(r, "uuid"), claims.Requester()); err != nil {
		sendServiceError(w, err)
		return
	}

	sendStatus(w, http.StatusOK)
}

// ListFavorites godoc
// @Summary Избранные сниппеты
// @Description Фильтры: language, tag; sort_by: date_added, snippet_date, title; пагинация limit/offset
// @Tags Favorites
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.FavoritesListResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Router /api/snippets/favorites [get]
func (h *SnippetHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	page, ok := parseSnippetFilter(r)
	if !ok {
		sendErrorResponse(w, http.StatusBadRequest, "некорректные параметры limit или offset")
		return
	}
	filter := model.FavoritesFilter{
		Language: page.Language,
		Tag:      page.Tag,
		SortBy:   r.URL.Query().Get("sort_by"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if filter.SortBy == "" {
		filter.SortBy = model.FavoritesSortDateAdded
	}

	snippets, err := h.snippets.ListFavorites(r.Context(), filter, claims.Requester())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, requestresponse.FavoritesListResponse{
		Response: snippets,
		SortBy:   filter.SortBy,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// SearchSnippets godoc
// @Summary Поиск сниппетов по названию
// @Description Подстрока без учёта регистра среди видимых сниппетов, не больше limit результатов
// @Tags Snippets
// @Produce json
// @Param Authorization header string true "Bearer токен" default(Bearer <access_token>)
// @Success 200 {object} requestresponse.SearchResponse
// @Failure 400 {object} requestresponse.ErrorResponse
// @Router /api/snippets/search/{title} [get]
func (h *SnippetHandler) SearchSnippets(w http.ResponseWriter, r *http.Request) {
	claims, err := security.GetClaimsFromContext(r.Context())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	page, ok := parseSnippetFilter(r)
	if !ok {
		sendErrorResponse(w, http.StatusBadRequest, "некорректный параметр limit")
		return
	}

	title := chi.URLParam(r, "title")
	// chi матчит по RawPath, если он есть, и тогда параметр ещё закодирован
	if r.URL.RawPath != "" {
		if title, err = url.PathUnescape(title); err != nil {
			sendErrorResponse(w, http.StatusBadRequest, "некорректный поисковый запрос")
			return
		}
	}

	items, err := h.snippets.Search(r.Context(), title, page.Limit, claims.Requester())
	if err != nil {
		sendServiceError(w, err)
		return
	}

	sendJSON(w, http.StatusOK, requestresponse.SearchResponse{Response: items})
}
