package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/apikit/apikit/internal/config"
	"github.com/apikit/apikit/internal/exception"
	"github.com/apikit/apikit/internal/middleware"
	apperrors "github.com/apikit/apikit/internal/pkg/errors"
	"github.com/apikit/apikit/internal/pkg/metrics"
)

func testConfig(stage string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			Env:             stage,
			Title:           "test",
			Version:         "1.0.0",
			Prefix:          "/api/v1",
			GracefulTimeout: time.Second,
		},
		Exception: config.ExceptionConfig{TraceHeader: exception.TraceIDHeader},
		Docs:      config.DocsConfig{Enabled: true, Prefix: "/api/v1"},
		Health:    config.HealthConfig{Path: "/healthz"},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func itemsRouter(r fiber.Router) {
	r.Get("/items/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return apperrors.HTTP(fiber.StatusNotFound, "item not found")
		}
		return c.JSON(fiber.Map{"id": c.Params("id")})
	})
	r.Get("/secure", middleware.RequireHeader("X-Api-Key"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	r.Get("/panic", func(c *fiber.Ctx) error {
		panic("kaboom")
	})
}

func do(t *testing.T, a *App, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.Fiber().Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestNew_Routes(t *testing.T) {
	a := New(Options{Config: testConfig("dev"), Routers: []Router{itemsRouter}})

	t.Run("routes are mounted under the prefix", func(t *testing.T) {
		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/items/7", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"id":"7"}`, string(body))
		assert.Len(t, resp.Header.Get(exception.TraceIDHeader), 32)
	})

	t.Run("health check", func(t *testing.T) {
		resp, body := do(t, a, httptest.NewRequest("GET", "/healthz", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", string(body))
	})

	t.Run("error docs", func(t *testing.T) {
		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/docs/errors", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var docs map[string]exception.DocResponse
		require.NoError(t, json.Unmarshal(body, &docs))
		assert.Contains(t, docs, "422")
	})

	t.Run("metrics", func(t *testing.T) {
		resp, body := do(t, a, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "apikit_http_requests_total")
	})
}

func TestNew_Errors(t *testing.T) {
	t.Run("header failure in dev", func(t *testing.T) {
		a := New(Options{Config: testConfig("dev"), Routers: []Router{itemsRouter}})
		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/secure", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"invalid request header","detail":"BadRequestHeaderError: missing X-Api-Key"}`, string(body))
		assert.Len(t, resp.Header.Get(exception.TraceIDHeader), 32)
	})

	t.Run("header failure in prod", func(t *testing.T) {
		a := New(Options{Config: testConfig("prod"), Routers: []Router{itemsRouter}})
		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/secure", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"invalid request header"}`, string(body))
	})

	t.Run("protocol exception", func(t *testing.T) {
		a := New(Options{Config: testConfig("prod"), Routers: []Router{itemsRouter}})
		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/items/0", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"item not found"}`, string(body))
	})

	t.Run("panic", func(t *testing.T) {
		a := New(Options{Config: testConfig("prod"), Routers: []Router{itemsRouter}})
		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/panic", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"internal server error"}`, string(body))
	})

	t.Run("error responses are counted", func(t *testing.T) {
		counter := metrics.ErrorResponses(apperrors.KindBadRequestHeader.Name(), http.StatusBadRequest)
		before := testutil.ToFloat64(counter)

		a := New(Options{Config: testConfig("prod"), Routers: []Router{itemsRouter}})
		do(t, a, httptest.NewRequest("GET", "/api/v1/secure", nil))

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
	})

	t.Run("custom trace header", func(t *testing.T) {
		cfg := testConfig("prod")
		cfg.Exception.TraceHeader = "X-Correlation-Id"
		a := New(Options{Config: cfg, Routers: []Router{itemsRouter}})

		req := httptest.NewRequest("GET", "/api/v1/secure", nil)
		req.Header.Set(middleware.TraceparentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
		resp, _ := do(t, a, req)

		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get("X-Correlation-Id"))
	})
}

func TestNew_Options(t *testing.T) {
	t.Run("custom registry and reporter", func(t *testing.T) {
		quota := apperrors.NewKind("QuotaExceeded", nil)
		reg := exception.BuildRegistry().With(exception.Entry{
			Kind: quota,
			Info: exception.NewErrorInfo(http.StatusTooManyRequests, "quota exceeded", exception.SeverityWarning),
		})

		var reported []int
		a := New(Options{
			Config:   testConfig("prod"),
			Registry: reg,
			Reporter: func(_ *fiber.Ctx, _ error, status int) { reported = append(reported, status) },
			Routers: []Router{func(r fiber.Router) {
				r.Get("/quota", func(c *fiber.Ctx) error { return apperrors.New(quota, "100 calls per minute") })
			}},
		})

		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/quota", nil))
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"quota exceeded"}`, string(body))
		assert.Equal(t, []int{http.StatusTooManyRequests}, reported)

		resp, _ = do(t, a, httptest.NewRequest("GET", "/api/v1/docs/errors/429", nil))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request timeout", func(t *testing.T) {
		cfg := testConfig("prod")
		cfg.Server.RequestTimeout = 10 * time.Millisecond
		a := New(Options{Config: cfg, Routers: []Router{func(r fiber.Router) {
			r.Get("/slow", func(c *fiber.Ctx) error {
				<-c.UserContext().Done()
				return c.UserContext().Err()
			})
		}}})

		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/slow", nil))
		assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"request timeout"}`, string(body))
	})

	t.Run("disabled endpoints", func(t *testing.T) {
		cfg := testConfig("prod")
		cfg.Docs.Enabled = false
		cfg.Metrics.Enabled = false
		a := New(Options{Config: cfg, Logger: zap.NewNop()})

		resp, _ := do(t, a, httptest.NewRequest("GET", "/api/v1/docs/errors", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp, _ = do(t, a, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("extra middleware runs inside the registrar", func(t *testing.T) {
		a := New(Options{
			Config:      testConfig("prod"),
			Middlewares: []fiber.Handler{middleware.RequireBearer()},
			Routers:     []Router{itemsRouter},
		})

		resp, body := do(t, a, httptest.NewRequest("GET", "/api/v1/items/7", nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.JSONEq(t, `{"msg":"invalid access token"}`, string(body))
	})
}

func TestHooks(t *testing.T) {
	t.Run("startup runs in order and stops at the first error", func(t *testing.T) {
		var calls []string
		boom := errors.New("boom")
		a := New(Options{
			Config: testConfig("dev"),
			Startup: []Hook{
				func(context.Context, *App) error { calls = append(calls, "a"); return nil },
				func(context.Context, *App) error { calls = append(calls, "b"); return boom },
				func(context.Context, *App) error { calls = append(calls, "c"); return nil },
			},
		})

		err := a.Start(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("shutdown runs every hook and joins errors", func(t *testing.T) {
		var calls []string
		boom := errors.New("boom")
		a := New(Options{
			Config: testConfig("dev"),
			Shutdown: []Hook{
				func(context.Context, *App) error { calls = append(calls, "a"); return boom },
				func(_ context.Context, a *App) error {
					calls = append(calls, "b")
					assert.NotNil(t, a.Registrar())
					return nil
				},
			},
		})

		err := a.Shutdown(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"a", "b"}, calls)
	})

	t.Run("run stops when the context is cancelled", func(t *testing.T) {
		stopped := make(chan struct{})
		a := New(Options{
			Config: testConfig("prod"),
			Shutdown: []Hook{func(context.Context, *App) error {
				close(stopped)
				return nil
			}},
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- a.Run(ctx) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return")
		}
		<-stopped
	})
}

func TestNew_ErrorHandler(t *testing.T) {
	a := New(Options{Config: testConfig("prod")})

	f := a.Fiber()
	c := f.AcquireCtx(&fasthttp.RequestCtx{})
	defer f.ReleaseCtx(c)

	require.NotNil(t, f.Config().ErrorHandler)
	require.NoError(t, f.Config().ErrorHandler(c, apperrors.BadRequestHeader("missing X-Api-Key")))

	assert.Equal(t, fiber.StatusBadRequest, c.Response().StatusCode())
	assert.JSONEq(t, `{"msg":"invalid request header"}`, string(c.Response().Body()))
	assert.NotEmpty(t, string(c.Response().Header.Peek(exception.TraceIDHeader)))
}
