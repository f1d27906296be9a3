package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"memberchat/internal/models"

	"gorm.io/gorm"
)

// MaxTextLen 单条消息的最大字符数。
const MaxTextLen = 1000

// MessageService 封装共享消息流的业务逻辑。
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// MessageDTO 是对外输出的消息数据。
type MessageDTO struct {
	ID             uint      `json:"id"`
	SenderID       uint      `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// List 返回全部消息，按创建时间升序（同一时间按 id 升序）。
func (s *MessageService) List() ([]MessageDTO, error) {
	var msgs []models.Message
	if err := s.db.Order("created_at asc, id asc").Find(&msgs).Error; err != nil {
		return nil, err
	}

	usernames, err := s.resolveUsernames(msgs)
	if err != nil {
		return nil, err
	}

	out := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageDTO{
			ID:             m.ID,
			SenderID:       m.SenderID,
			SenderUsername: usernames[m.SenderID],
			Text:           m.Text,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out, nil
}

// Create 校验消息文本并归属到发送者，时间戳由创建时刻决定。
func (s *MessageService) Create(sender models.Member, text string) (*MessageDTO, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return nil, ErrTextTooLong
	}
	msg := models.Message{SenderID: sender.ID, Text: text}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &MessageDTO{
		ID:             msg.ID,
		SenderID:       sender.ID,
		SenderUsername: sender.Username,
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
	}, nil
}

// resolveUsernames 批量获取消息涉及的用户名。
func (s *MessageService) resolveUsernames(msgs []models.Message) (map[uint]string, error) {
	seen := make(map[uint]struct{}, len(msgs))
	senderIDs := make([]uint, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m.SenderID]; ok {
			continue
		}
		seen[m.SenderID] = struct{}{}
		senderIDs = append(senderIDs, m.SenderID)
	}

	usernames := make(map[uint]string, len(senderIDs))
	if len(senderIDs) > 0 {
		var members []models.Member
		if err := s.db.Select("id", "username").Where("id IN ?", senderIDs).Find(&members).Error; err != nil {
			return nil, err
		}
		for _, m := range members {
			usernames[m.ID] = m.Username
		}
	}
	return usernames, nil
}
