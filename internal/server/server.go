package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tallyworks/tally/internal/alert"
	"github.com/tallyworks/tally/internal/billing"
	billingdomain "github.com/tallyworks/tally/internal/billing/domain"
	"github.com/tallyworks/tally/internal/config"
	"github.com/tallyworks/tally/internal/observability"
	obsmiddleware "github.com/tallyworks/tally/internal/observability/logger"
	obsmetrics "github.com/tallyworks/tally/internal/observability/metrics"
	obstracing "github.com/tallyworks/tally/internal/observability/tracing"
	"github.com/tallyworks/tally/internal/product"
	productdomain "github.com/tallyworks/tally/internal/product/domain"
	"github.com/tallyworks/tally/internal/providers/pdf"
	"github.com/tallyworks/tally/internal/report"
	reportdomain "github.com/tallyworks/tally/internal/report/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	alert.Module,
	pdf.Module,
	product.Module,
	billing.Module,
	report.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	productSvc productdomain.Service
	billingSvc billingdomain.Service
	reportSvc  reportdomain.Service
	pdfSvc     pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	ProductSvc productdomain.Service
	BillingSvc billingdomain.Service
	ReportSvc  reportdomain.Service
	PDFSvc     pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		productSvc: p.ProductSvc,
		billingSvc: p.BillingSvc,
		reportSvc:  p.ReportSvc,
		pdfSvc:     p.PDFSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", s.CreateProduct)
	api.GET("/products/:id", s.GetProductByID)
	api.PATCH("/products/:id", s.UpdateProduct)
	api.POST("/products/:id/restock", s.RestockProduct)
	api.DELETE("/products/:id", s.DeleteProduct)

	// -------- Bills --------
	api.GET("/bills", s.ListBills)
	api.POST("/bills", s.CreateBill)
	api.GET("/bills/:id", s.GetBillByID)
	api.PUT("/bills/:id/items", s.ReplaceBillItems)
	api.DELETE("/bills/:id", s.DeleteBill)
	api.GET("/bills/:id/receipt", s.GetBillReceipt)

	// -------- Reports --------
	api.GET("/reports/daily", s.GetDailyReport)
}
