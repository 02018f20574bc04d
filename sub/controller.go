package sub

import (
	"fmt"
	"html"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/web/service"
)

// Controller serves subscription bundles at /sub/:token.
type Controller struct {
	subService     SubService
	settingService service.SettingService
}

// NewController creates the subscription controller and registers its route.
func NewController(g *gin.RouterGroup) *Controller {
	c := &Controller{}
	g.GET("/sub/:token", c.getSub)
	return c
}

func (ctrl *Controller) getSub(c *gin.Context) {
	token := c.Param("token")

	bundle, err := ctrl.subService.GetBundle(token, ctrl.resolveAddress(c))
	if err != nil {
		logger.Debug("subscription bundle rejected:", err)
		c.Status(http.StatusNotFound)
		return
	}

	if isBrowser(c) {
		ctrl.renderStatusPage(c, bundle)
		return
	}

	c.Header("Subscription-Userinfo", bundle.UserInfo)
	c.Header("Profile-Update-Interval", "12")
	c.Header("Profile-Title", bundle.Subscription.Remark)
	c.String(http.StatusOK, bundle.Body)
}

// resolveAddress prefers the configured panel domain and falls back to the
// host the request arrived on.
func (ctrl *Controller) resolveAddress(c *gin.Context) string {
	settings, err := ctrl.settingService.GetSettings()
	if err == nil && settings.Domain != "" {
		return settings.Domain
	}
	host, _, err := net.SplitHostPort(c.Request.Host)
	if err != nil {
		return c.Request.Host
	}
	return host
}

// isBrowser reports whether the request looks like an interactive browser
// rather than a proxy client app fetching its profile.
func isBrowser(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

func (ctrl *Controller) renderStatusPage(c *gin.Context, bundle *Bundle) {
	// Remark and links are admin-supplied; escape them so they cannot
	// inject markup.
	remark := html.EscapeString(bundle.Subscription.Remark)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>")
	b.WriteString(remark)
	b.WriteString("</title></head><body><h1>")
	b.WriteString(remark)
	b.WriteString("</h1><p>")
	b.WriteString(html.EscapeString(bundle.UserInfo))
	b.WriteString("</p><ul>")
	for _, link := range bundle.Links {
		b.WriteString(fmt.Sprintf("<li><code>%s</code></li>", html.EscapeString(link)))
	}
	b.WriteString("</ul></body></html>")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}
