package service

import (
	"errors"
	"time"

	"memberchat/internal/auth"
	"memberchat/internal/config"
	"memberchat/internal/models"

	"gorm.io/gorm"
)

// MemberService 封装成员注册、登录、登出与在线列表的业务逻辑。
type MemberService struct {
	db  *gorm.DB
	cfg config.Config
}

func NewMemberService(db *gorm.DB, cfg config.Config) *MemberService {
	return &MemberService{db: db, cfg: cfg}
}

// MemberDTO 是对外输出的成员数据，永远不包含密码哈希和 token。
type MemberDTO struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	IsOnline     bool      `json:"is_online"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// MemberView 把存储模型转成对外视图。
func MemberView(m models.Member) MemberDTO {
	return MemberDTO{
		ID:           m.ID,
		Username:     m.Username,
		IsOnline:     m.IsOnline,
		LastActivity: m.LastActivity,
		CreatedAt:    m.CreatedAt,
	}
}

// AuthResult 注册或登录成功后返回的数据。
type AuthResult struct {
	Token  string    `json:"token"`
	Member MemberDTO `json:"member"`
}

// Register 注册新成员并立即签发 token。用户名冲突返回 ErrUsernameTaken，不产生任何写入。
func (s *MemberService) Register(username, password string) (*AuthResult, error) {
	var count int64
	if err := s.db.Model(&models.Member{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	token, err := auth.IssueToken()
	if err != nil {
		return nil, err
	}
	member := models.Member{Username: username, PasswordHash: hash, Token: token}
	if err := s.db.Create(&member).Error; err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Member: MemberView(member)}, nil
}

// Login 校验用户名密码并签发新 token，旧 token 随之失效。
// 用户名不存在和密码错误返回同一个 ErrInvalidCredentials，避免用户名枚举。
func (s *MemberService) Login(username, password string) (*AuthResult, error) {
	var member models.Member
	if err := s.db.Where("username = ?", username).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(member.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	token, err := auth.IssueToken()
	if err != nil {
		return nil, err
	}
	// token 与 is_online 必须在同一条 UPDATE 里落库
	updates := map[string]interface{}{"token": token, "is_online": true}
	if err := s.db.Model(&member).Updates(updates).Error; err != nil {
		return nil, err
	}
	member.Token = token
	member.IsOnline = true
	return &AuthResult{Token: token, Member: MemberView(member)}, nil
}

// Logout 清空 token 并下线。
func (s *MemberService) Logout(memberID uint) error {
	updates := map[string]interface{}{"token": "", "is_online": false}
	return s.db.Model(&models.Member{}).Where("id = ?", memberID).Updates(updates).Error
}

// Online 返回当前在线的全部成员，顺序不做保证。
func (s *MemberService) Online() ([]MemberDTO, error) {
	var members []models.Member
	if err := s.db.Where("is_online = ?", true).Find(&members).Error; err != nil {
		return nil, err
	}
	out := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, MemberView(m))
	}
	return out, nil
}
