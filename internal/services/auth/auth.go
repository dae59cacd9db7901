// Package services отвечает за вход, обновление токенов, смену пароля
// и сброс пароля по одноразовому коду.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/school-crm/internal/lib/apperr"
	"github.com/magabrotheeeer/school-crm/internal/lib/jwt"
	"github.com/magabrotheeeer/school-crm/internal/lib/password"
	"github.com/magabrotheeeer/school-crm/internal/lib/sl"
	"github.com/magabrotheeeer/school-crm/internal/metrics"
	"github.com/magabrotheeeer/school-crm/internal/models"
	"github.com/magabrotheeeer/school-crm/internal/storage"
)

// Сообщения ответов.
const (
	PasswordChanged = "Password changed successfully!"
	OTPSent         = "OTP sent to your email."
	CodeConfirmed   = "Code confirmed successfully."
)

const (
	otpLength   = 4
	otpAttempts = 5
)

// Ошибки аутентификации.
var (
	ErrUserNotFound      = &apperr.Error{Kind: apperr.KindNotFound, Message: "User not found!"}
	ErrIncorrectPassword = &apperr.Error{Kind: apperr.KindAuthenticationFailed, Message: "Incorrect password!"}
	ErrUserArchived      = &apperr.Error{Kind: apperr.KindAuthenticationFailed, Message: "User is archived!"}
	ErrInvalidToken      = &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid or expired token"}
	ErrPasswordMismatch  = &apperr.Error{Kind: apperr.KindNotAcceptable, Message: "Password fields didn't match."}
	ErrEmailNotFound     = &apperr.Error{Kind: apperr.KindNotFound, Message: "User with this email does not exist."}
	ErrInvalidOTP        = &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid OTP."}
	ErrOTPExpired        = &apperr.Error{Kind: apperr.KindValidation, Message: "OTP has expired."}
)

// UserRepository описывает доступ к учётным записям.
type UserRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetPassword(ctx context.Context, id int64, hash string) error
}

// OTPRepository хранит одноразовые коды.
type OTPRepository interface {
	ReplaceOTP(ctx context.Context, userID int64, code string) (*models.OTP, error)
	GetOTPByCode(ctx context.Context, code string) (*models.OTP, error)
	DeleteOTP(ctx context.Context, id int64) error
	PurgeOTPs(ctx context.Context, before time.Time) (int64, error)
}

// Notifier ставит сообщение в очередь доставки.
type Notifier interface {
	Queue(ctx context.Context, msg models.Message) error
}

// Config — параметры одноразовых кодов.
type Config struct {
	OTPTTL     time.Duration
	OTPChannel models.Channel
}

// AuthService выпускает токены и управляет паролями.
type AuthService struct {
	users    UserRepository
	otps     OTPRepository
	notifier Notifier
	jwtMaker jwt.Maker
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, otps OTPRepository, notifier Notifier,
	jwtMaker jwt.Maker, cfg Config, log *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		otps:     otps,
		notifier: notifier,
		jwtMaker: jwtMaker,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Tokens — пара токенов пользователя.
type Tokens struct {
	UserID  int64  `json:"user_id"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Confirmation — ответ на подтверждение кода.
type Confirmation struct {
	Message string `json:"message"`
	Tokens
}

// Login проверяет пароль и выпускает пару токенов.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Tokens, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.PasswordHash == "" || password.CompareHash(user.PasswordHash, rawPassword) != nil {
		return nil, ErrIncorrectPassword
	}
	if user.IsArchive {
		return nil, ErrUserArchived
	}
	return s.issue(op, user)
}

// Refresh выпускает новый access‑токен по refresh‑токену.
func (s *AuthService) Refresh(_ context.Context, refresh string) (string, error) {
	const op = "services.auth.Refresh"
	claims, err := s.jwtMaker.ParseToken(refresh, jwt.Refresh)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, ErrInvalidToken.Message, err)
	}
	access, err := s.jwtMaker.GenerateToken(claims.UserID, claims.Email, claims.Role, jwt.Access)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return access, nil
}

// ChangePassword меняет пароль пользователя после проверки подтверждения.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, newPassword, confirm string) error {
	const op = "services.auth.ChangePassword"
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.SetPassword(ctx, userID, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ForgotPassword заменяет коды пользователя новым и ставит его в очередь.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.auth.ForgotPassword"
	log := s.log.With(slog.String("op", op))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	otp, err := s.newOTP(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Message{
		Channel: models.ChannelEmail,
		To:      user.Email,
		Subject: "Forgot Password OTP",
		Body:    fmt.Sprintf("Your OTP is: %s", otp.Code),
	}
	if s.cfg.OTPChannel == models.ChannelSMS {
		msg.Channel = models.ChannelSMS
		msg.To = user.Phone
		msg.Subject = ""
	}
	if err = s.notifier.Queue(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("otp queued", slog.Int64("user_id", user.ID), slog.String("channel", string(msg.Channel)))
	return nil
}

// newOTP создаёт уникальный код, повторяя попытку при совпадении.
func (s *AuthService) newOTP(ctx context.Context, userID int64) (*models.OTP, error) {
	var lastErr error
	for range otpAttempts {
		code, err := password.Digits(otpLength)
		if err != nil {
			return nil, err
		}
		otp, err := s.otps.ReplaceOTP(ctx, userID, code)
		if err == nil {
			return otp, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free otp code after %d attempts: %w", otpAttempts, lastErr)
}

// ConfirmCode проверяет код, удаляет его и выпускает пару токенов.
func (s *AuthService) ConfirmCode(ctx context.Context, code string) (*Confirmation, error) {
	const op = "services.auth.ConfirmCode"
	otp, err := s.otps.GetOTPByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.otps.DeleteOTP(ctx, otp.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if otp.Expired(s.now(), s.cfg.OTPTTL) {
		return nil, ErrOTPExpired
	}

	user, err := s.users.GetUser(ctx, otp.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tokens, err := s.issue(op, user)
	if err != nil {
		return nil, err
	}
	return &Confirmation{Message: CodeConfirmed, Tokens: *tokens}, nil
}

// PurgeExpired удаляет коды старше OTPTTL.
func (s *AuthService) PurgeExpired(ctx context.Context) {
	const op = "services.auth.PurgeExpired"
	log := s.log.With(slog.String("op", op))

	n, err := s.otps.PurgeOTPs(ctx, s.now().Add(-s.cfg.OTPTTL))
	if err != nil {
		log.Error("failed to purge expired otps", sl.Err(err))
		return
	}
	metrics.OTPPurged.Add(float64(n))
	if n > 0 {
		log.Info("expired otps purged", slog.Int64("count", n))
	}
}

// SchedulePurge регистрирует очистку кодов в планировщике c по расписанию spec.
func (s *AuthService) SchedulePurge(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() { s.PurgeExpired(ctx) })
	if err != nil {
		return 0, fmt.Errorf("services.auth.SchedulePurge: %w", err)
	}
	return id, nil
}

func (s *AuthService) issue(op string, user *models.User) (*Tokens, error) {
	access, refresh, err := s.jwtMaker.GeneratePair(user.ID, user.Email, user.DisplayRole())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Tokens{UserID: user.ID, Access: access, Refresh: refresh}, nil
}
