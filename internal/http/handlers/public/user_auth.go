package public

import (
	"time"

	"github.com/varuna-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func authPayload(user interface{}, token string, expiresAt time.Time) gin.H {
	return gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt.Unix(),
	}
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Register(req.Email, req.Password, req.FullName, req.Phone)
	if err != nil {
		respondWithMappedError(c, err, registerErrorRules, response.CodeInternal, "registration failed")
		return
	}

	response.Success(c, authPayload(user, token, expiresAt))
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	user, token, expiresAt, err := h.UserAuthService.Login(req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "login failed")
		return
	}

	response.Success(c, authPayload(user, token, expiresAt))
}

// GetCurrentUser 获取当前登录用户信息
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	user, err := h.UserAuthService.GetUserByID(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "user not found", nil)
		return
	}

	response.Success(c, user)
}
