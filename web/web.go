// Package web assembles the gin HTTP server and the cron scheduler of the
// sx-ui panel.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/sorooshm/sx-ui/config"
	"github.com/sorooshm/sx-ui/logger"
	"github.com/sorooshm/sx-ui/sub"
	"github.com/sorooshm/sx-ui/web/controller"
	"github.com/sorooshm/sx-ui/web/job"
	"github.com/sorooshm/sx-ui/web/service"
	"github.com/sorooshm/sx-ui/xray"
)

const trafficJobSpec = "@every 10s"

// Server is the panel HTTP server plus its background scheduler. Construct
// once at process start; owns the Xray service instances for its lifetime.
type Server struct {
	httpServer *http.Server
	cron       *cron.Cron

	settingService service.SettingService
	xrayService    *service.XrayService
	trafficService *service.TrafficService
	serverService  *service.ServerService
}

// NewServer wires the service graph around the given Xray process manager
// and stats API client.
func NewServer(proc *xray.ProcessManager, api *xray.API) *Server {
	xrayService := service.NewXrayService(proc)
	return &Server{
		cron:           cron.New(),
		xrayService:    xrayService,
		trafficService: service.NewTrafficService(api, xrayService),
		serverService:  service.NewServerService(proc),
	}
}

// Start listens on the configured panel port (with TLS when certificate
// material is configured) and starts the reconciliation scheduler. It
// blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	root := engine.Group("/")
	sub.NewController(root)

	api := engine.Group("/api/v1")
	controller.NewInboundController(api, s.xrayService)
	controller.NewSubscriptionController(api, s.xrayService)
	controller.NewSettingController(api)
	controller.NewServerController(api, s.serverService, s.trafficService, s.xrayService)

	if _, err := s.cron.AddJob(trafficJobSpec, job.NewTrafficJob(s.trafficService)); err != nil {
		return err
	}
	s.cron.Start()

	settings, err := s.settingService.GetSettings()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", settings.ListenPort),
		Handler: engine,
	}

	logger.Infof("%s %s listening on %s", config.GetName(), config.GetVersion(), s.httpServer.Addr)
	if settings.CertFile != "" && settings.KeyFile != "" {
		err = s.httpServer.ListenAndServeTLS(settings.CertFile, settings.KeyFile)
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the scheduler and listener down.
func (s *Server) Stop() error {
	s.cron.Stop()

	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
