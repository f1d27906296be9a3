package server

import (
	"errors"
	"net/http"
	"strings"

	"memberchat/internal/auth"
	"memberchat/internal/metrics"
	"memberchat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 把业务服务映射到 HTTP 端点。
type Handler struct {
	members  *service.MemberService
	messages *service.MessageService
}

func NewHandler(members *service.MemberService, messages *service.MessageService) *Handler {
	return &Handler{members: members, messages: messages}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register 注册新成员，返回 201 和首个 token。
func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Username) > 150 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 72 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	result, err := h.members.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username taken"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("register member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login 校验凭据并签发新 token，旧 token 作废。
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	result, err := h.members.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	metrics.LoginsTotal.Inc()
	c.JSON(http.StatusOK, result)
}

// Logout 清空当前成员的 token 并下线。
func (h *Handler) Logout(c *gin.Context) {
	member, ok := auth.CurrentMember(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.members.Logout(member.ID); err != nil {
		log.Error().Err(err).Uint("member_id", member.ID).Msg("logout member")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me 返回当前成员的公开视图，不做额外查询。
func (h *Handler) Me(c *gin.Context) {
	member, ok := auth.CurrentMember(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, service.MemberView(member))
}

// Online 返回全部在线成员。
func (h *Handler) Online(c *gin.Context) {
	members, err := h.members.Online()
	if err != nil {
		log.Error().Err(err).Msg("list online members")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}
	c.JSON(http.StatusOK, members)
}

// ListMessages 返回按时间升序的全部消息。
func (h *Handler) ListMessages(c *gin.Context) {
	msgs, err := h.messages.List()
	if err != nil {
		log.Error().Err(err).Msg("list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// CreateMessage 发布一条消息，归属到当前成员。
func (h *Handler) CreateMessage(c *gin.Context) {
	member, ok := auth.CurrentMember(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg, err := h.messages.Create(member, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) || errors.Is(err, service.ErrTextTooLong) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message text"})
			return
		}
		log.Error().Err(err).Uint("member_id", member.ID).Msg("create message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create message"})
		return
	}
	metrics.MessagesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, msg)
}
