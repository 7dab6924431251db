// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"petserver/internal/feature/auth/domain/entity"
	"petserver/internal/platform/mail"
)

const (
	// PendingSessionToken はSignupがセッショントークンの代わりに返すプレースホルダーです。
	// クライアントはメールで届いたコードを確認して本物のトークンを取得します。
	PendingSessionToken = "waiting"

	codeMin  = 100000
	codeSpan = 900000

	defaultMailFrom    = "old dude"
	defaultMailSubject = "Pet-Server: Signup"

	signupMailText = `
Welcome to Pet-Server!
Please enter the following code to complete your signup:
%d
`
)

// ユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュ
// 未登録と登録済みのメールアドレスで処理時間が揃うようにbcrypt比較に使用する
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Upsert はpatchの空でないフィールドをpatch.Emailのユーザーにマージして永続化します。
	// ユーザーが存在しない場合は新規作成します。
	Upsert(ctx context.Context, patch *entity.User) error

	// Reset はすべてのユーザーを削除します。
	Reset(ctx context.Context) error
}

// PasswordHasher はパスワードのハッシュ化と検証を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// MailSender は登録確認コードのメールを送信します。
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// Option はauthUsecaseの設定を変更します。
type Option func(*authUsecase)

// WithPendingTTL は仮登録の有効期限を設定します。0の場合は期限切れになりません。
func WithPendingTTL(ttl time.Duration) Option {
	return func(u *authUsecase) { u.pendingTTL = ttl }
}

// WithMailIdentity は登録メールの差出人表示名と件名を設定します。
func WithMailIdentity(from, subject string) Option {
	return func(u *authUsecase) {
		if from != "" {
			u.mailFrom = from
		}
		if subject != "" {
			u.mailSubject = subject
		}
	}
}

// WithLogger はバックグラウンド処理の失敗を記録するロガーを設定します。
func WithLogger(l *slog.Logger) Option {
	return func(u *authUsecase) { u.logger = l }
}

// WithCodeGenerator は確認コードの生成関数を差し替えます。
func WithCodeGenerator(gen func() (int, error)) Option {
	return func(u *authUsecase) { u.newCode = gen }
}

// WithClock はtime.Nowを差し替えます。
func WithClock(now func() time.Time) Option {
	return func(u *authUsecase) { u.now = now }
}

// authUsecase は認証ビジネスロジックを実装します。
// signupMu はSignupの存在確認と仮登録の書き込みを不可分にします。
// deliveries は送信中のメールを追跡し、closing をキャンセルすると送信を中断します。
type authUsecase struct {
	users    UserRepository
	sessions SessionRepository
	pending  PendingSignupRepository
	hasher   PasswordHasher
	mailer   MailSender
	logger   *slog.Logger

	pendingTTL  time.Duration
	mailFrom    string
	mailSubject string

	newCode  func() (int, error)
	newToken func() string
	now      func() time.Time

	signupMu   sync.Mutex
	deliveries sync.WaitGroup
	closing    context.Context
	abort      context.CancelFunc
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(
	users UserRepository,
	sessions SessionRepository,
	pending PendingSignupRepository,
	hasher PasswordHasher,
	mailer MailSender,
	opts ...Option,
) *authUsecase {
	u := &authUsecase{
		users:       users,
		sessions:    sessions,
		pending:     pending,
		hasher:      hasher,
		mailer:      mailer,
		logger:      slog.Default(),
		mailFrom:    defaultMailFrom,
		mailSubject: defaultMailSubject,
		newCode:     generateCode,
		newToken:    uuid.NewString,
		now:         time.Now,
	}
	u.closing, u.abort = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// generateCode は[100000, 999999]の一様乱数のコードを返します。
func generateCode() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return 0, err
	}
	return codeMin + int(n.Int64()), nil
}

// Signup は二段階登録の第一段階を処理します。
// 仮登録を保存して確認コードをメール送信し、PendingSessionTokenを返します。
// メールはバックグラウンドで送信され、失敗はログに記録するだけです。
func (u *authUsecase) Signup(ctx context.Context, email, password string) (string, error) {
	exists, err := u.exists(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrUserAlreadyExists
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return "", err
	}
	code, err := u.newCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate signup code: %w", err)
	}

	u.signupMu.Lock()
	// ハッシュ化の間に別のリクエストが先に登録した可能性があるため再確認
	exists, err = u.exists(ctx, email)
	if err == nil && !exists {
		err = u.pending.Put(ctx, email, &entity.PendingSignup{
			Code:         code,
			PasswordHash: hashed,
			CreatedAt:    u.now(),
		})
	}
	u.signupMu.Unlock()

	if err != nil {
		return "", fmt.Errorf("failed to store pending signup: %w", err)
	}
	if exists {
		return "", ErrUserAlreadyExists
	}

	u.sendCode(ctx, email, code)
	return PendingSessionToken, nil
}

// exists はメールアドレスが登録済み、または有効な仮登録があるかを返します。
func (u *authUsecase) exists(ctx context.Context, email string) (bool, error) {
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}

	p, err := u.pending.Find(ctx, email)
	if errors.Is(err, ErrSignupNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up pending signup: %w", err)
	}
	return !p.IsExpiredAt(u.now(), u.pendingTTL), nil
}

func (u *authUsecase) sendCode(ctx context.Context, email string, code int) {
	msg := mail.Message{
		To:      email,
		From:    u.mailFrom,
		Subject: u.mailSubject,
		Text:    fmt.Sprintf(signupMailText, code),
	}
	// リクエスト終了後も送信を続けるが、Shutdownでは中断する
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(u.closing, cancel)

	u.deliveries.Add(1)
	go func() {
		defer u.deliveries.Done()
		defer cancel()
		defer stop()
		if err := u.mailer.Send(ctx, msg); err != nil {
			u.logger.WarnContext(ctx, "signup mail delivery failed", "email", email, "error", err)
		}
	}()
}

// Wait はバックグラウンドのメール送信がすべて終わるまで待機します。
func (u *authUsecase) Wait() {
	u.deliveries.Wait()
}

// Shutdown はctxが終了するまでバックグラウンドのメール送信を待機します。
// その時点で送信中のものはキャンセルされ、ctx.Err()を返します。
func (u *authUsecase) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		select {
		case <-done:
			return nil
		default:
		}
		u.abort()
		<-done
		return ctx.Err()
	}
}

// ConfirmSignup はメールで送ったコードを検証し、一致すればユーザーを登録してセッショントークンを発行します。
// コードが違う場合は仮登録を残すため、再試行できます。
func (u *authUsecase) ConfirmSignup(ctx context.Context, email string, code int) (string, error) {
	p, err := u.pending.Find(ctx, email)
	if errors.Is(err, ErrSignupNotFound) {
		return "", ErrSignupNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up pending signup: %w", err)
	}
	if p.IsExpiredAt(u.now(), u.pendingTTL) {
		return "", ErrSignupNotFound
	}
	if p.Code != code {
		return "", ErrInvalidCode
	}

	token := u.newToken()
	if err := u.sessions.Create(ctx, token, email); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	user := &entity.User{Email: email, PasswordHash: p.PasswordHash, SessionToken: token}
	if err := u.users.Upsert(ctx, user); err != nil {
		return "", fmt.Errorf("failed to save user: %w", err)
	}
	return token, nil
}

// Login は保存されたbcryptハッシュでパスワードを検証し、新しいセッショントークンを発行します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
// 発行済みのトークンは引き続き有効です。
func (u *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash := dummyPasswordHash
	if err == nil && user.PasswordHash != "" {
		passwordHash = user.PasswordHash
	}
	ok, verifyErr := u.hasher.Verify(passwordHash, password)

	if err != nil {
		return "", ErrUserNotFound
	}
	if verifyErr != nil {
		return "", verifyErr
	}
	if !ok || user.PasswordHash == "" {
		return "", ErrIncorrectPassword
	}

	token := u.newToken()
	if err := u.sessions.Create(ctx, token, email); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if err := u.users.Upsert(ctx, &entity.User{Email: email, SessionToken: token}); err != nil {
		return "", fmt.Errorf("failed to save user: %w", err)
	}
	return token, nil
}

// Logout はセッションを削除します。ユーザー情報は変更しません。
func (u *authUsecase) Logout(ctx context.Context, token string) error {
	err := u.sessions.Delete(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return ErrInvalidSession
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSessionUser はトークンからユーザーを解決します。
func (u *authUsecase) GetSessionUser(ctx context.Context, token string) (*entity.User, error) {
	email, err := u.sessions.FindEmail(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// UpdateUser はpatchをpatch.Emailのユーザーにマージします。メールアドレスが空の場合は何もしません。
func (u *authUsecase) UpdateUser(ctx context.Context, patch *entity.User) error {
	if patch == nil || patch.Email == "" {
		return nil
	}
	if err := u.users.Upsert(ctx, patch); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// Reset はユーザー、セッション、仮登録をストレージごと削除します。
func (u *authUsecase) Reset(ctx context.Context) error {
	return errors.Join(
		u.users.Reset(ctx),
		u.sessions.Reset(ctx),
		u.pending.Reset(ctx),
	)
}
