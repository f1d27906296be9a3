package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"memberchat/internal/metrics"
	"memberchat/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const memberKey = "member"

func HashPassword(pw string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(b), err
}

func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// IssueToken 生成 32 字节随机数的 URL-safe 不透明 token。
// token 本身不携带身份和过期时间，只作为存储层的查找键。
func IssueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RequireToken 校验 "Authorization: Token <value>" 请求头，解析成功后
// 以单条 UPDATE 刷新成员的 last_activity 和 is_online，并把成员写入上下文。
// 所有失败统一返回 401，具体原因只进日志和指标。
func RequireToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" {
			reject(c, "missing")
			return
		}
		parts := strings.Fields(authz)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "token") {
			reject(c, "malformed")
			return
		}
		var member models.Member
		err := db.Where("token = ? AND token <> ''", parts[1]).First(&member).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Error().Err(err).Msg("auth token lookup")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			reject(c, "unknown")
			return
		}
		now := time.Now()
		updates := map[string]interface{}{"last_activity": now, "is_online": true}
		if err := db.Model(&member).Updates(updates).Error; err != nil {
			log.Error().Err(err).Uint("member_id", member.ID).Msg("auth presence update")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		member.LastActivity = now
		member.IsOnline = true
		c.Set(memberKey, member)
		c.Next()
	}
}

func reject(c *gin.Context, reason string) {
	metrics.AuthFailuresTotal.WithLabelValues(reason).Inc()
	log.Debug().Str("reason", reason).Str("path", c.Request.URL.Path).Msg("auth rejected")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// CurrentMember 读取 RequireToken 写入上下文的当前成员。
func CurrentMember(c *gin.Context) (models.Member, bool) {
	if v, ok := c.Get(memberKey); ok {
		if m, ok2 := v.(models.Member); ok2 {
			return m, true
		}
	}
	return models.Member{}, false
}
