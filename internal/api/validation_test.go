package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Role     string `validate:"oneof=business jobseeker"`
}

func TestValidationDetails(t *testing.T) {
	err := validator.New().Struct(signup{Email: "nope", Password: "short", Role: "admin"})
	require.Error(t, err)

	details := ValidationDetails(err)
	require.Len(t, details, 3)

	byField := map[string]FieldError{}
	for _, d := range details {
		byField[d.Field] = d
	}
	assert.Equal(t, "Email must be a valid email address", byField["Email"].Message)
	assert.Equal(t, "Password must be at least 8 characters", byField["Password"].Message)
	assert.Equal(t, "oneof", byField["Role"].Tag)
}

func TestValidationDetails_OtherErrors(t *testing.T) {
	assert.Nil(t, ValidationDetails(nil))
	assert.Nil(t, ValidationDetails(assert.AnError))
}

func TestRespondErrorIncludesValidationDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	verr := validator.New().Struct(signup{Email: "owner@example.com", Password: "longenough", Role: ""})
	RespondError(c, Wrap(CodeInvalidArgument, "Invalid registration data.", verr))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "Role", resp.Details[0].Field)
}
