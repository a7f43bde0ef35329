package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/rjrjensen/vending-machine/pkg/errors"
	"github.com/rjrjensen/vending-machine/pkg/logging"
	"github.com/rjrjensen/vending-machine/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	router := gin.New()
	Setup(router, DefaultConfig("middleware-test", logging.Discard()))
	return router
}

type moneyRequest struct {
	Cash string `json:"cash" binding:"required,money"`
}

type itemsRequest struct {
	Items []struct {
		Name  string `json:"name" binding:"required,item_name"`
		Price string `json:"price" binding:"required,money"`
	} `json:"items" binding:"required,dive"`
}

func TestMoneyValidation(t *testing.T) {
	tests := []struct {
		cash  string
		valid bool
	}{
		{"0", true},
		{"1", true},
		{"1.5", true},
		{"10.00", true},
		{"1.005", false},
		{"-0.01", false},
		{"abc", false},
		{"", false},
	}

	router := newRouter()
	router.POST("/vend", func(c *gin.Context) {
		var req moneyRequest
		if appErr := BindAndValidate(c, &req); appErr != nil {
			NewErrorResponder(c, logging.Discard()).RespondWithAppError(appErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for _, tt := range tests {
		t.Run(tt.cash, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/vend", strings.NewReader(`{"cash":"`+tt.cash+`"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if tt.valid {
				assert.Equal(t, http.StatusNoContent, rec.Code)
			} else {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), `"cash"`)
			}
		})
	}
}

func TestValidationErrorFormatterUsesJSONPaths(t *testing.T) {
	InitValidator()
	router := newRouter()

	var fields map[string]string
	router.POST("/restock", func(c *gin.Context) {
		var req itemsRequest
		err := c.ShouldBindJSON(&req)
		fields = ValidationErrorFormatter(err)
		c.Status(http.StatusBadRequest)
	})

	body := `{"items":[{"name":"ok","price":"1"},{"name":" ","price":"1.001"}]}`
	req := httptest.NewRequest(http.MethodPost, "/restock", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, map[string]string{
		"items[1].name":  "must be a non-blank name of at most 64 characters",
		"items[1].price": "must be a non-negative amount with at most two decimals",
	}, fields)
}

func TestErrorHandler(t *testing.T) {
	router := newRouter()
	router.GET("/app-error", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrSlotOutOfRange(11, 10))
	})
	router.GET("/plain-error", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app-error", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.CodeSlotOutOfRange)
	assert.Contains(t, rec.Body.String(), `"path":"/app-error"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain-error", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	router := newRouter()
	router.GET("/panic", func(c *gin.Context) {
		panic("slot ledger corrupted")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), apperrors.CodeInternalError)
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	router := newRouter()

	var requestID, correlationID, ctxCorrelation string
	router.GET("/ids", func(c *gin.Context) {
		requestID = GetRequestID(c)
		correlationID = GetCorrelationID(c)
		ctxCorrelation, _ = c.Request.Context().Value(logging.CorrelationIDKey).(string)
	})

	req := httptest.NewRequest(http.MethodGet, "/ids", nil)
	req.Header.Set(HeaderCorrelationID, "corr-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, requestID)
	assert.Equal(t, requestID, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "corr-1", correlationID)
	assert.Equal(t, "corr-1", ctxCorrelation)
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter()
	router.POST("/restock", func(c *gin.Context) {})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/restock", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("middleware-test"))
	router := gin.New()
	router.Use(MetricsMiddleware(m))
	router.GET("/slots/:slot", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/slots/1", "/slots/2", "/health", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("middleware-test", "GET", "/slots/:slot", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("middleware-test", "GET", "unmatched", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingMiddleware(DefaultTracingConfig("middleware-test")))

	var traceID string
	router.POST("/slots/:slot/vend", func(c *gin.Context) {
		traceID, _ = c.Request.Context().Value(logging.TraceIDKey).(string)
		c.Status(http.StatusServiceUnavailable)
	})
	router.GET("/health", func(c *gin.Context) {})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/slots/4/vend", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "POST /slots/:slot/vend", span.Name())
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
	assert.Equal(t, "Error", span.Status().Code.String())

	attrs := make(map[string]string)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "4", attrs["vending.slot"])
	assert.NotEmpty(t, attrs["request.id"])
}
