package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/util"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// TokenType : какой секрет использовать для подписи и проверки
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const jtiLength = 32

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Requester : кто делает запрос, в терминах сервисов
func (c *Claims) Requester() model.Requester {
	return model.Requester{UserID: c.UserID, IsAdmin: c.IsAdmin}
}

// RevocationStore : то, что JWTService нужно от Redis
type RevocationStore interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	RegisterActive(ctx context.Context, jti string, userID int64, ttl time.Duration) error
}

type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	method        jwt.SigningMethod
	revocations   RevocationStore
	now           func() time.Time
}

func NewJWTService(cfg *config.JWTConfig, revocations RevocationStore) *JWTService {
	method := jwt.GetSigningMethod(cfg.SigningAlgorithm())
	if method == nil {
		method = jwt.SigningMethodHS256
	}

	return &JWTService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessLifetime(),
		refreshTTL:    cfg.RefreshLifetime(),
		method:        method,
		revocations:   revocations,
		now:           time.Now,
	}
}

func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueAccess : подписывает access-токен и регистрирует его jti в индексе живых токенов
func (s *JWTService) IssueAccess(ctx context.Context, user *model.User) (string, error) {
	token, claims, err := s.issue(user, s.accessSecret, s.accessTTL)
	if err != nil {
		return "", err
	}

	if err := s.revocations.RegisterActive(ctx, claims.ID, user.ID, s.accessTTL); err != nil {
		return "", util.LogError("[JWTService] не удалось зарегистрировать access токен", err)
	}

	return token, nil
}

// IssueRefresh : подписывает refresh-токен. Сохранение записи в БД - забота вызывающего
func (s *JWTService) IssueRefresh(user *model.User) (string, *Claims, error) {
	return s.issue(user, s.refreshSecret, s.refreshTTL)
}

func (s *JWTService) issue(user *model.User, secret []byte, ttl time.Duration) (string, *Claims, error) {
	jti, err := util.GenerateRandomToken(jtiLength)
	if err != nil {
		return "", nil, util.LogError("[JWTService] ошибка генерации jti", err)
	}

	now := s.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(secret)
	if err != nil {
		return "", nil, util.LogError("[JWTService] ошибка подписи токена", err)
	}

	return token, claims, nil
}

// Verify : проверяет подпись секретом нужного вида, срок действия, наличие jti и чёрный список.
// Чёрный список проверяется для обоих видов токенов
func (s *JWTService) Verify(ctx context.Context, tokenStr string, kind TokenType) (*Claims, error) {
	secret, _, err := s.keyFor(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: срок действия токена истёк", model.ErrAuthentication)
		}
		return nil, fmt.Errorf("%w: невалидный токен: %w", model.ErrAuthentication, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: невалидный токен", model.ErrAuthentication)
	}

	if claims.ID == "" {
		return nil, fmt.Errorf("%w: в токене нет jti", model.ErrAuthentication)
	}
	if claims.UserID == 0 {
		return nil, fmt.Errorf("%w: в токене нет user_id", model.ErrAuthentication)
	}

	blacklisted, err := s.revocations.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, util.LogError("[JWTService] не удалось проверить чёрный список", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: токен отозван", model.ErrAuthentication)
	}

	return claims, nil
}

// DecodeForRevocation : claims токена для занесения в чёрный список. Подпись проверяется, срок нет.
// Поддельный токен или токен без jti/exp даёт nil. exp ограничивается сверху now+TTL вида
func (s *JWTService) DecodeForRevocation(tokenStr string, kind TokenType) *Claims {
	secret, ttl, err := s.keyFor(kind)
	if err != nil {
		return nil
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	if limit := s.now().Add(ttl); claims.ExpiresAt.After(limit) {
		claims.ExpiresAt = jwt.NewNumericDate(limit)
	}
	return claims
}

func (s *JWTService) keyFor(kind TokenType) ([]byte, time.Duration, error) {
	switch kind {
	case AccessToken:
		return s.accessSecret, s.accessTTL, nil
	case RefreshToken:
		return s.refreshSecret, s.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("неизвестный вид токена %q", kind)
	}
}

func JWTMiddleware(jwtService *JWTService) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(handleAuthentication(jwtService, next))
	}
}

func handleAuthentication(jwtService *JWTService, next http.Handler) func(writer http.ResponseWriter, request *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		token, ok := BearerToken(request)
		if !ok {
			util.HandleError(writer, "не авторизован", http.StatusUnauthorized)
			return
		}

		claims, err := jwtService.Verify(request.Context(), token, AccessToken)
		if err != nil {
			if errors.Is(err, model.ErrAuthentication) {
				zap.L().Debug("access токен отклонён", zap.Error(err))
				util.HandleError(writer, "невалидный токен", http.StatusUnauthorized)
				return
			}
			util.HandleError(writer, "внутренняя ошибка сервера", http.StatusInternalServerError)
			return
		}

		req := request.WithContext(context.WithValue(request.Context(), UserContextKey, claims))
		next.ServeHTTP(writer, req)
	}
}

// BearerToken : токен из заголовка Authorization
func BearerToken(request *http.Request) (string, bool) {
	authorizationHeader := request.Header.Get("Authorization")
	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, "Bearer "))
	return token, token != ""
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, fmt.Errorf("%w: пользователь не авторизован", model.ErrAuthentication)
	}
	return claims, nil
}
