package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clientdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	type createEntryInput struct {
		ClientID string `json:"client_id" binding:"required,uuid"`
		Type     string `json:"type" binding:"required,oneof=income expense"`
	}

	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/entries", func(c *gin.Context) {
		var input createEntryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	post := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		req := httptest.NewRequest("POST", "/entries", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("reports each failed field under its json name", func(t *testing.T) {
		w := post(t, `{"client_id": "not-a-uuid", "type": "transfer"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		require.Len(t, resp.Error.Details, 2)

		fields := []string{resp.Error.Details[0].Field, resp.Error.Details[1].Field}
		assert.Contains(t, fields, "client_id")
		assert.Contains(t, fields, "type")
	})

	t.Run("valid input passes through", func(t *testing.T) {
		w := post(t, `{"client_id": "b9a5f1a0-18e7-4d38-9c9a-1f6d3b0a8a11", "type": "income"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type probe struct {
		Required string `binding:"required"`
		Email    string `binding:"email"`
		Min      string `binding:"min=5"`
		Max      string `binding:"max=3"`
		Len      string `binding:"len=5"`
		UUID     string `binding:"uuid"`
		OneOf    string `binding:"oneof=income expense"`
		URL      string `binding:"url"`
	}

	v := validator.New()
	v.SetTagName("binding")
	err := v.Struct(probe{
		Email: "invalid",
		Min:   "ab",
		Max:   "too long",
		Len:   "ab",
		UUID:  "invalid",
		OneOf: "transfer",
		URL:   "invalid",
	})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 3 characters",
		"Len":      "Must be exactly 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: income expense",
		"URL":      "Invalid URL format",
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	for _, e := range validationErrs {
		want, found := expected[e.Field()]
		require.True(t, found, "unexpected field %s", e.Field())
		assert.Equal(t, want, getValidationMessage(e))
	}
}
