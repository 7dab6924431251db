// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"petserver/internal/feature/auth/domain/entity"
	"petserver/internal/feature/auth/transport/http/dto"
	"petserver/internal/feature/auth/usecase"
	"petserver/internal/platform/metrics"
	"petserver/internal/platform/sessionmw"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は確認コードをメール送信し、プレースホルダートークンを返します。
	Signup(ctx context.Context, email, password string) (string, error)
	// ConfirmSignup はコードを検証し、成功時にセッショントークンを返します。
	ConfirmSignup(ctx context.Context, email string, code int) (string, error)
	// Login はユーザーを認証し、成功時にセッショントークンを返します。
	Login(ctx context.Context, email, password string) (string, error)
	// Logout はセッションを削除します。
	Logout(ctx context.Context, token string) error
	// GetSessionUser はトークンからユーザーを解決します。
	GetSessionUser(ctx context.Context, token string) (*entity.User, error)
}

// メトリクスとログで使う操作ラベル
const (
	opSignup        = "signup"
	opConfirmSignup = "confirm_signup"
	opLogin         = "login"
	opLogout        = "logout"
)

type errorReply struct {
	status  int
	message string
}

// errorReplies はプロトコルエラーをHTTPステータスとメッセージに対応付けます。
// "User already exists" は既存クライアントとの互換性のため201を返します。
var errorReplies = map[error]errorReply{
	usecase.ErrUserAlreadyExists: {http.StatusCreated, "User already exists"},
	usecase.ErrSignupNotFound:    {http.StatusNotFound, "User does not exist"},
	usecase.ErrInvalidCode:       {http.StatusUnauthorized, "Invalid code"},
	usecase.ErrUserNotFound:      {http.StatusNotFound, "No user found"},
	usecase.ErrIncorrectPassword: {http.StatusUnauthorized, "Incorrect password"},
	usecase.ErrInvalidSession:    {http.StatusUnauthorized, "Invalid session"},
	usecase.ErrNoUser:            {http.StatusNotFound, "No user"},
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth    AuthUsecase
	metrics *metrics.AuthMetrics
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// m が nil の場合、メトリクスは記録されません。
func NewAuthHandler(auth AuthUsecase, m *metrics.AuthMetrics) *AuthHandler {
	return &AuthHandler{auth: auth, metrics: m}
}

// fail はerrに対応するレスポンスを返却します。
// 未知のエラーはログに記録して500を返却します。
func (h *AuthHandler) fail(c *gin.Context, op string, err error, attrs ...any) {
	for target, reply := range errorReplies {
		if errors.Is(err, target) {
			h.metrics.Observe(op, metrics.OutcomeRejected)
			slog.Warn(op+" rejected", append(attrs, "error", err, "remote_addr", c.ClientIP())...)
			c.JSON(reply.status, dto.ErrorRes{Error: reply.message})
			return
		}
	}
	h.metrics.Observe(op, metrics.OutcomeError)
	slog.Error(op+" failed", append(attrs, "error", err, "remote_addr", c.ClientIP())...)
	c.JSON(http.StatusInternalServerError, dto.ErrorRes{Error: "internal error"})
}

// badRequest はバインドに失敗したリクエストに400を返却します。
func (h *AuthHandler) badRequest(c *gin.Context, op string, err error) {
	h.metrics.Observe(op, metrics.OutcomeRejected)
	slog.Warn(op+" validation failed", "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid request"})
}

// Signup はユーザー登録の第一段階を処理します。
// - バリデーションエラー時は400を返却
// - 既存ユーザーの場合は201とエラー本文を返却
// - 成功時は200と "waiting" を返却
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, opSignup, err)
		return
	}
	token, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, opSignup, err, "email", req.Email)
		return
	}
	h.metrics.Observe(opSignup, metrics.OutcomeSuccess)
	slog.Info("signup code issued", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.SessionTokenRes{SessionToken: token})
}

// ConfirmSignup は確認コードを検証し、セッショントークンを返却します。
func (h *AuthHandler) ConfirmSignup(c *gin.Context) {
	var req dto.SignupCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, opConfirmSignup, err)
		return
	}
	token, err := h.auth.ConfirmSignup(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.fail(c, opConfirmSignup, err, "email", req.Email)
		return
	}
	h.metrics.Observe(opConfirmSignup, metrics.OutcomeSuccess)
	slog.Info("user signup successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.SessionTokenRes{SessionToken: token})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - 未登録は404、パスワード不一致は401を返却
// - 認証成功時はセッショントークン付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, opLogin, err)
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, opLogin, err, "email", req.Email)
		return
	}
	h.metrics.Observe(opLogin, metrics.OutcomeSuccess)
	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.SessionTokenRes{SessionToken: token})
}

// Logout はセッションを破棄します。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, opLogout, err)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), req.SessionToken); err != nil {
		h.fail(c, opLogout, err)
		return
	}
	h.metrics.Observe(opLogout, metrics.OutcomeSuccess)
	c.JSON(http.StatusOK, dto.ResultRes{Result: "ok"})
}

// User はsessionmw.SessionRequiredが解決したユーザーを返却します。
func (h *AuthHandler) User(c *gin.Context) {
	u, ok := sessionmw.UserFrom(c)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorRes{Error: "No user"})
		return
	}
	c.JSON(http.StatusOK, dto.UserRes{Email: u.Email, SessionToken: u.SessionToken})
}

// SessionRequired は有効なセッションが必要なルートを保護するミドルウェアを返します。
func (h *AuthHandler) SessionRequired() gin.HandlerFunc {
	return sessionmw.SessionRequired(h.auth, usecase.ErrNoUser)
}
