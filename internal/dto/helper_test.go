package dto

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apikit/apikit/internal/exception"
)

type createItemRequest struct {
	Name  string `json:"name" validate:"required"`
	Price int    `json:"price" validate:"gt=0"`
}

type listItemsQuery struct {
	Limit int     `query:"limit" validate:"lte=100"`
	Score float64 `query:"score" validate:"gte=0"`
}

func newTestApp() *fiber.App {
	app := fiber.New()
	exception.Register(app, "dev")
	app.Post("/items", func(c *fiber.Ctx) error {
		var req createItemRequest
		if err := ParseAndValidate(c, &req); err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	})
	app.Get("/items", func(c *fiber.Ctx) error {
		var q listItemsQuery
		if err := ParseQueryAndValidate(c, &q); err != nil {
			return err
		}
		return c.JSON(q)
	})
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/items", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestParseAndValidate(t *testing.T) {
	app := newTestApp()

	t.Run("valid body", func(t *testing.T) {
		status, body := post(t, app, `{"name":"pen","price":3}`)
		assert.Equal(t, fiber.StatusCreated, status)
		assert.Equal(t, "pen", body["name"])
	})

	t.Run("invalid fields", func(t *testing.T) {
		status, body := post(t, app, `{"price":0}`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Equal(t, "bad request", body["msg"])

		detail, ok := body["detail"].([]any)
		require.True(t, ok)
		require.Len(t, detail, 2)

		first := detail[0].(map[string]any)
		assert.Equal(t, "required", first["type"])
		assert.Equal(t, []any{"body", "name"}, first["loc"])
		assert.Equal(t, "is required", first["msg"])
	})

	t.Run("malformed body", func(t *testing.T) {
		status, body := post(t, app, `{"name":`)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)

		detail := body["detail"].([]any)
		require.Len(t, detail, 1)
		assert.Equal(t, "body_invalid", detail[0].(map[string]any)["type"])
	})
}

func TestParseQueryAndValidate(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/items?limit=500", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/items?limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestParseQueryAndValidate_NonFiniteInput(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/items?score=NaN", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))

	detail, ok := body["detail"].([]any)
	require.True(t, ok)
	require.Len(t, detail, 1)
	field := detail[0].(map[string]any)
	assert.Equal(t, []any{"query", "score"}, field["loc"])
	assert.Equal(t, "NaN", field["input"])
}
