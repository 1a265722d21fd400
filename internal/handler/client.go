package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/spotlight-api/internal/domain"
	"github.com/prperemyshlev/spotlight-api/internal/utils"
)

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the socket address
func ClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := utils.NormalizeIP(first); ip != "" {
			return ip
		}
	}

	if realIP := utils.NormalizeIP(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}

	return utils.NormalizeIP(c.Request.RemoteAddr)
}

func clientInfo(c *gin.Context) domain.ClientInfo {
	return domain.ClientInfo{
		IPAddress: ClientIP(c),
		UserAgent: c.Request.UserAgent(),
	}
}
