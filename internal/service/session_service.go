package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"snippet-sharing-server/internal/metrics"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/security"
	"snippet-sharing-server/internal/util"
)

const tokenTypeBearer = "bearer"

// SessionService : вход, обновление access-токена, выход и отзыв всех сессий пользователя
type SessionService struct {
	users         ports.UserRepository
	refreshTokens ports.ExpiringTokenRepository
	issuer        ports.TokenIssuer
	revocations   ports.RevocationStore
	tx            ports.Transactor
	logger        *zap.Logger
	metrics       metrics.Recorder
	now           func() time.Time
}

func NewSessionService(
	users ports.UserRepository,
	refreshTokens ports.ExpiringTokenRepository,
	issuer ports.TokenIssuer,
	revocations ports.RevocationStore,
	tx ports.Transactor,
	logger *zap.Logger,
	recorder metrics.Recorder,
) *SessionService {
	return &SessionService{
		users:         users,
		refreshTokens: refreshTokens,
		issuer:        issuer,
		revocations:   revocations,
		tx:            tx,
		logger:        logger.Named("session"),
		metrics:       recorder,
		now:           time.Now,
	}
}

// Login : login это email или username
func (s *SessionService) Login(ctx context.Context, login, password string) (*model.TokensPair, error) {
	user, err := s.users.FindByLogin(ctx, s.tx.Conn(), login)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.metrics.RecordLogin(metrics.LoginUserNotFound)
		} else {
			s.metrics.RecordLogin(metrics.LoginError)
		}
		return nil, err
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		s.metrics.RecordLogin(metrics.LoginInvalidPassword)
		return nil, model.ErrInvalidPassword
	}

	if !user.IsActive {
		s.metrics.RecordLogin(metrics.LoginNotActive)
		return nil, model.ErrUserNotActive
	}

	refreshToken, refreshClaims, err := s.issuer.IssueRefresh(user)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, fmt.Errorf("[SessionService] ошибка выпуска refresh токена: %w", err)
	}

	if err := s.saveRefreshToken(ctx, user.ID, refreshToken, refreshClaims.ExpiresAt.Time); err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccess(ctx, user)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginError)
		return nil, fmt.Errorf("[SessionService] ошибка выпуска access токена: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	s.logger.Info("пользователь вошёл", zap.Int64("user_id", user.ID))

	return &model.TokensPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenTypeBearer,
	}, nil
}

func (s *SessionService) saveRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return util.LogError("[SessionService] не удалось начать транзакцию", err)
	}
	defer rollback()

	if _, err := s.refreshTokens.Create(ctx, exec, userID, token, expiresAt); err != nil {
		return fmt.Errorf("[SessionService] ошибка сохранения refresh токена: %w", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[SessionService] ошибка коммита refresh токена", err)
	}
	return nil
}

// Refresh : выдаёт только новый access-токен, refresh-токен не ротируется.
// Токен должен быть валиден и всё ещё числиться в БД
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*model.TokensPair, error) {
	claims, err := s.issuer.Verify(ctx, refreshToken, security.RefreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.refreshTokens.GetByToken(ctx, s.tx.Conn(), refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return nil, fmt.Errorf("%w: refresh токен отозван", model.ErrAuthentication)
		}
		return nil, err
	}
	if record.IsExpired(s.now()) || record.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: refresh токен недействителен", model.ErrAuthentication)
	}

	user, err := s.users.FindByID(ctx, s.tx.Conn(), claims.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccess(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("[SessionService] ошибка выпуска access токена: %w", err)
	}

	return &model.TokensPair{AccessToken: accessToken, TokenType: tokenTypeBearer}, nil
}

// Logout : удаляет запись refresh-токена и заносит access-токен в чёрный список.
// Оба шага идемпотентны и выполняются независимо друг от друга
func (s *SessionService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	var errs []error

	if refreshToken != "" {
		if _, err := s.refreshTokens.Delete(ctx, s.tx.Conn(), refreshToken); err != nil {
			errs = append(errs, fmt.Errorf("[SessionService] ошибка удаления refresh токена: %w", err))
		}
	}

	if claims := s.issuer.DecodeForRevocation(accessToken, security.AccessToken); claims != nil {
		if err := s.revocations.Blacklist(ctx, claims.ID, claims.ExpiresAt.Unix()); err != nil {
			errs = append(errs, fmt.Errorf("[SessionService] ошибка отзыва access токена: %w", err))
		} else {
			s.metrics.RecordRevocations(1)
		}
	}

	return errors.Join(errs...)
}

// RevokeAll : отзывает все refresh-записи пользователя и все его живые access-токены.
// Занесение в чёрный список по каждому ключу best-effort: ошибка логируется и не прерывает обход
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) error {
	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return util.LogError("[SessionService] не удалось начать транзакцию", err)
	}
	defer rollback()

	records, err := s.refreshTokens.ListByUser(ctx, exec, userID)
	if err != nil {
		return fmt.Errorf("[SessionService] ошибка получения сессий: %w", err)
	}

	revoked := 0
	for _, record := range records {
		claims := s.issuer.DecodeForRevocation(record.Token, security.RefreshToken)
		if claims == nil {
			continue
		}
		if s.blacklistBestEffort(ctx, claims.ID, claims.ExpiresAt.Unix()) {
			revoked++
		}
	}

	if _, err := s.refreshTokens.DeleteByUser(ctx, exec, userID); err != nil {
		return fmt.Errorf("[SessionService] ошибка удаления сессий: %w", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[SessionService] ошибка коммита отзыва сессий", err)
	}

	active, err := s.revocations.ScanActiveForUser(ctx, userID)
	if err != nil {
		s.logger.Warn("обход индекса access токенов завершился с ошибкой",
			zap.Int64("user_id", userID),
			zap.Int("found", len(active)),
			zap.Error(err),
		)
	}
	for _, token := range active {
		if s.blacklistBestEffort(ctx, token.JTI, unixCeil(token.ExpiresAt)) {
			revoked++
		}
	}

	s.metrics.RecordRevocations(revoked)
	s.logger.Info("все сессии пользователя отозваны",
		zap.Int64("user_id", userID),
		zap.Int("refresh_records", len(records)),
		zap.Int("blacklisted", revoked),
	)
	return nil
}

func (s *SessionService) blacklistBestEffort(ctx context.Context, jti string, expiresAt int64) bool {
	if err := s.revocations.Blacklist(ctx, jti, expiresAt); err != nil {
		s.metrics.RecordBlacklistFailure()
		s.logger.Warn("не удалось занести токен в чёрный список", zap.String("jti", jti), zap.Error(err))
		return false
	}
	return true
}

// unixCeil : секунды Unix с округлением вверх, чтобы запись в чёрном списке не истекла раньше токена
func unixCeil(t time.Time) int64 {
	sec := t.Unix()
	if t.Nanosecond() > 0 {
		sec++
	}
	return sec
}
