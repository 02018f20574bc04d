// Package controller provides the JSON HTTP handlers of the sx-ui panel.
package controller

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/util/common"
	"github.com/sorooshm/sx-ui/web/service"
)

type response struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Obj     any    `json:"obj,omitempty"`

	// Applied reports whether the config regenerate+apply that follows a
	// mutation succeeded; ApplyError carries the failure otherwise. The
	// entity change itself is committed either way.
	Applied    *bool  `json:"applied,omitempty"`
	ApplyError string `json:"applyError,omitempty"`
}

func jsonObj(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, response{Success: true, Obj: obj})
}

func jsonError(c *gin.Context, err error) {
	logger.Debug("request failed:", err)
	c.JSON(statusFor(err), response{Success: false, Msg: err.Error()})
}

func jsonBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response{Success: false, Msg: err.Error()})
}

// jsonApplied reports a committed mutation together with the outcome of the
// synthesis+apply step that followed it.
func jsonApplied(c *gin.Context, obj any, applyErr error) {
	applied := applyErr == nil
	resp := response{Success: true, Obj: obj, Applied: &applied}
	if applyErr != nil {
		resp.ApplyError = applyErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrStatsUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func paramId(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, common.NewErrorf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

// resolveAddress prefers the configured panel domain, falling back to the
// host the request arrived on, for building share links.
func resolveAddress(c *gin.Context, settingService *service.SettingService) string {
	settings, err := settingService.GetSettings()
	if err == nil && settings.Domain != "" {
		return settings.Domain
	}
	host, _, err := net.SplitHostPort(c.Request.Host)
	if err != nil {
		return c.Request.Host
	}
	return host
}
