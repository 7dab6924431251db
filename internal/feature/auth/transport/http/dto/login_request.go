package dto

// LoginReq は/loginエンドポイントのリクエストボディを表します。
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LogoutReq は/logoutエンドポイントのリクエストボディを表します。
// 空のトークンも未知のセッションとしてユースケースで401を返すため、requiredは付けません。
type LogoutReq struct {
	SessionToken string `json:"sessionToken"`
}
