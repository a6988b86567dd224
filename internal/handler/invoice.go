package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"tripletex-bridge/internal/csvio"
	"tripletex-bridge/internal/dto"
	"tripletex-bridge/internal/invoice"
	"tripletex-bridge/internal/service"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Generate runs the reconciliation pipeline for the requested window and
// returns the lines plus any verification warnings as JSON.
//
// GET /api/invoices?from=2024-01-01&to=2024-01-31&start=1000&gateway=stripe:Stripe&gateway=vipps:Vipps
func (h *InvoiceHandler) Generate(c echo.Context) error {
	cfg, err := configFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lines, warnings, err := h.invoiceService.Generate(c.Request().Context(), cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := dto.GenerateResponse{
		Lines:    make([]dto.InvoiceLine, 0, len(lines)),
		Warnings: dto.WarningStrings(warnings),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.FromLine(l))
	}
	return c.JSON(http.StatusOK, resp)
}

// Verify checks an uploaded (possibly hand-edited) invoice CSV and returns
// the warnings. The file is the request body, semicolon separated.
//
// POST /api/invoices/verify?start=1000&gateway=stripe:Stripe
func (h *InvoiceHandler) Verify(c echo.Context) error {
	cfg, err := configFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lines, err := csvio.Read(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "parse invoice file: "+err.Error())
	}

	warnings := invoice.Verify(lines, cfg)
	return c.JSON(http.StatusOK, dto.VerifyResponse{
		Warnings: dto.WarningStrings(warnings),
	})
}

func configFromQuery(c echo.Context) (invoice.Config, error) {
	var cfg invoice.Config

	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return cfg, echo.NewHTTPError(http.StatusBadRequest, "invalid from date, use YYYY-MM-DD")
		}
		cfg.From = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return cfg, echo.NewHTTPError(http.StatusBadRequest, "invalid to date, use YYYY-MM-DD")
		}
		cfg.To = t
	}
	if v := c.QueryParam("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, echo.NewHTTPError(http.StatusBadRequest, "invalid start number")
		}
		cfg.StartNumber = n
	}
	gateways := c.QueryParams()["gateway"]
	if len(gateways) > 0 {
		cfg.GatewayLabels = make(map[string]string, len(gateways))
		for _, pair := range gateways {
			from, to, ok := strings.Cut(pair, ":")
			if !ok {
				return cfg, echo.NewHTTPError(http.StatusBadRequest, "gateway mapping must be <gateway>:<label>")
			}
			cfg.GatewayLabels[from] = to
		}
	}
	return cfg, nil
}
