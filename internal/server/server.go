package server

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"tripletex-bridge/internal/handler"
	"tripletex-bridge/internal/service"
)

type Server struct {
	echo           *echo.Echo
	invoiceHandler *handler.InvoiceHandler
}

func NewServer(invoiceService service.InvoiceService) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:           e,
		invoiceHandler: handler.NewInvoiceHandler(invoiceService),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.GET("/invoices", s.invoiceHandler.Generate)
	api.POST("/invoices/verify", s.invoiceHandler.Verify)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
