package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"snippet-sharing-server/config"
	"snippet-sharing-server/internal/model"
	"snippet-sharing-server/internal/ports"
	"snippet-sharing-server/internal/security"
	"snippet-sharing-server/internal/util"
)

const (
	userTokenLength    = 64
	passwordSpecialSet = "@$!%*?&"
	minUsernameLength  = 3
	maxUsernameLength  = 40
	minPasswordLength  = 8
	maxPasswordLength  = 30
)

// SessionRevoker : то, что нужно UserService от сессий при сбросе пароля
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID int64) error
}

type UserService struct {
	users            ports.UserRepository
	activationTokens ports.ExpiringTokenRepository
	resetTokens      ports.ExpiringTokenRepository
	sessions         SessionRevoker
	notifier         ports.Notifier
	tx               ports.Transactor
	tokens           config.TokensConfig
	logger           *zap.Logger
	now              func() time.Time
}

func NewUserService(
	users ports.UserRepository,
	activationTokens ports.ExpiringTokenRepository,
	resetTokens ports.ExpiringTokenRepository,
	sessions SessionRevoker,
	notifier ports.Notifier,
	tx ports.Transactor,
	tokens config.TokensConfig,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:            users,
		activationTokens: activationTokens,
		resetTokens:      resetTokens,
		sessions:         sessions,
		notifier:         notifier,
		tx:               tx,
		tokens:           tokens,
		logger:           logger.Named("users"),
		now:              time.Now,
	}
}

// Register : создаёт неактивного пользователя и токен активации в одной транзакции
func (s *UserService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}
	if err := validateUsername(username); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	token, err := util.GenerateRandomToken(userTokenLength)
	if err != nil {
		return nil, err
	}

	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return nil, util.LogError("[UserService] не удалось начать транзакцию", err)
	}
	defer rollback()

	created, err := s.users.CreateUser(ctx, exec, &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.tokens.ActivationLifetime())
	if _, err := s.activationTokens.Create(ctx, exec, created.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("[UserService] ошибка сохранения токена активации: %w", err)
	}

	if err := commit(); err != nil {
		return nil, util.LogError("[UserService] ошибка коммита регистрации", err)
	}

	if err := s.notifier.NotifyActivation(ctx, created, token); err != nil {
		s.logger.Error("не удалось отправить токен активации", zap.Int64("user_id", created.ID), zap.Error(err))
	}

	s.logger.Info("пользователь зарегистрирован", zap.Int64("user_id", created.ID))
	return created, nil
}

// Activate : просроченный токен удаляется и возвращается model.ErrTokenExpired
func (s *UserService) Activate(ctx context.Context, token string) error {
	record, err := s.consumableToken(ctx, s.activationTokens, token)
	if err != nil {
		return err
	}

	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return util.LogError("[UserService] не удалось начать транзакцию", err)
	}
	defer rollback()

	if err := s.users.Activate(ctx, exec, record.UserID); err != nil {
		return err
	}
	if _, err := s.activationTokens.Delete(ctx, exec, token); err != nil {
		return fmt.Errorf("[UserService] ошибка удаления токена активации: %w", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[UserService] ошибка коммита активации", err)
	}

	s.logger.Info("пользователь активирован", zap.Int64("user_id", record.UserID))
	return nil
}

func (s *UserService) consumableToken(ctx context.Context, repo ports.ExpiringTokenRepository, token string) (*model.ExpiringToken, error) {
	record, err := repo.GetByToken(ctx, s.tx.Conn(), token)
	if err != nil {
		return nil, err
	}

	if record.IsExpired(s.now()) {
		if _, err := repo.Delete(ctx, s.tx.Conn(), token); err != nil {
			s.logger.Warn("не удалось удалить просроченный токен", zap.String("kind", string(repo.Kind())), zap.Error(err))
		}
		return nil, model.ErrTokenExpired
	}

	return record, nil
}

// RequestPasswordReset : для неизвестного или неактивного email ничего не делает и не сообщает об этом
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, s.tx.Conn(), strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	token, err := util.GenerateRandomToken(userTokenLength)
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.tokens.PasswordResetLifetime())
	if _, err := s.resetTokens.Create(ctx, s.tx.Conn(), user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("[UserService] ошибка сохранения токена сброса пароля: %w", err)
	}

	if err := s.notifier.NotifyPasswordReset(ctx, user, token); err != nil {
		return fmt.Errorf("[UserService] не удалось отправить токен сброса пароля: %w", err)
	}
	return nil
}

// ResetPassword : меняет пароль по токену и отзывает все сессии пользователя
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	record, err := s.consumableToken(ctx, s.resetTokens, token)
	if err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	exec, rollback, commit, err := s.tx.BeginTX(ctx)
	if err != nil {
		return util.LogError("[UserService] не удалось начать транзакцию", err)
	}
	defer rollback()

	if err := s.users.UpdatePassword(ctx, exec, record.UserID, hash); err != nil {
		return err
	}
	if _, err := s.resetTokens.Delete(ctx, exec, token); err != nil {
		return fmt.Errorf("[UserService] ошибка удаления токена сброса пароля: %w", err)
	}

	if err := commit(); err != nil {
		return util.LogError("[UserService] ошибка коммита сброса пароля", err)
	}

	if err := s.sessions.RevokeAll(ctx, record.UserID); err != nil {
		return fmt.Errorf("[UserService] пароль изменён, но сессии не отозваны: %w", err)
	}
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, s.tx.Conn(), userID)
	if err != nil {
		return err
	}

	if !security.CheckPassword(oldPassword, user.PasswordHash) {
		return model.ErrInvalidPassword
	}
	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	return s.users.UpdatePassword(ctx, s.tx.Conn(), userID, hash)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.FindByID(ctx, s.tx.Conn(), id)
}

// validateEmail : голый адрес по RFC 5322, без display name, домен с точкой
func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("некорректный email")
	}
	if at := strings.LastIndexByte(email, '@'); !strings.Contains(email[at+1:], ".") {
		return errors.New("некорректный email")
	}
	return nil
}

func validateUsername(username string) error {
	length := len([]rune(username))
	if length < minUsernameLength || length > maxUsernameLength {
		return fmt.Errorf("имя пользователя должно быть от %d до %d символов", minUsernameLength, maxUsernameLength)
	}

	for i, c := range username {
		if c > unicode.MaxASCII || (!unicode.IsLetter(c) && !unicode.IsDigit(c)) {
			return fmt.Errorf("имя пользователя должно содержать только латинские буквы и цифры")
		}
		if i == 0 && !unicode.IsLetter(c) {
			return fmt.Errorf("имя пользователя должно начинаться с буквы")
		}
	}

	return nil
}

func validatePassword(password string) error {
	length := len([]rune(password))
	if length < minPasswordLength || length > maxPasswordLength {
		return fmt.Errorf("пароль должен быть от %d до %d символов", minPasswordLength, maxPasswordLength)
	}

	var upperCount, digitCount, specialCount int

	for _, c := range password {
		switch {
		case unicode.IsSpace(c):
			return fmt.Errorf("пароль не должен содержать пробелов")
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsDigit(c):
			digitCount++
		case strings.ContainsRune(passwordSpecialSet, c):
			specialCount++
		}
	}

	if upperCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы одну заглавную букву")
	}
	if digitCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}
	if specialCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы один из символов %s", passwordSpecialSet)
	}

	return nil
}
