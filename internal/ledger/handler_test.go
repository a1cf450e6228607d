package ledger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"centreconnect/internal/api"
	"centreconnect/internal/auth"
	"centreconnect/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(h *Handler, principal *auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if principal != nil {
			c.Set("principal", principal)
		}
		c.Next()
	})
	r.GET("/tokens/balance", h.GetBalance)
	r.GET("/tokens/transactions", h.ListTransactions)
	r.POST("/tokens/deduct", h.Deduct)
	r.GET("/tokens/packages", h.ListPackages)
	return r
}

var owner = &auth.Principal{UserID: "acc-1", Email: "owner@example.com"}

func TestGetBalanceHandler(t *testing.T) {
	repo := new(MockRepository)
	h := NewHandler(repo, NewReconciler(repo, nil), nil)
	repo.On("GetBalance", mock.Anything, "acc-1").Return(int64(350), nil)

	w := httptest.NewRecorder()
	newTestRouter(h, owner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tokens/balance", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tokenBalance":350}`, w.Body.String())
}

func TestGetBalanceHandler_Unauthenticated(t *testing.T) {
	repo := new(MockRepository)
	h := NewHandler(repo, NewReconciler(repo, nil), nil)

	w := httptest.NewRecorder()
	newTestRouter(h, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tokens/balance", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	repo.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
}

func TestListTransactionsHandler(t *testing.T) {
	repo := new(MockRepository)
	h := NewHandler(repo, NewReconciler(repo, nil), nil)
	repo.On("ListTransactions", mock.Anything, "acc-1", 10, 20).
		Return([]Transaction{{ID: 1, AccountID: "acc-1", Type: TypePurchase, Amount: 100, Status: StatusCompleted}}, nil)

	w := httptest.NewRecorder()
	newTestRouter(h, owner).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tokens/transactions?limit=10&offset=20", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var txs []Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, int64(100), txs[0].Amount)
}

func postDeduct(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tokens/deduct", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDeductHandler(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		repoErr  error
		wantCode int
		wantAPI  api.Code
	}{
		{"success", `{"tokensToDeduct":5,"seekerId":"seeker-9"}`, nil, http.StatusOK, ""},
		{"missing seeker", `{"tokensToDeduct":5}`, nil, http.StatusBadRequest, api.CodeInvalidArgument},
		{"negative amount", `{"tokensToDeduct":-1,"seekerId":"seeker-9"}`, nil, http.StatusBadRequest, api.CodeInvalidArgument},
		{"insufficient", `{"tokensToDeduct":5,"seekerId":"seeker-9"}`, ErrInsufficientTokens, http.StatusPreconditionFailed, api.CodeFailedPrecondition},
		{"no account", `{"tokensToDeduct":5,"seekerId":"seeker-9"}`, ErrAccountNotFound, http.StatusNotFound, api.CodeNotFound},
		{"db down", `{"tokensToDeduct":5,"seekerId":"seeker-9"}`, assert.AnError, http.StatusInternalServerError, api.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			h := NewHandler(repo, NewReconciler(repo, nil), nil)

			d := Deduction{AccountID: "acc-1", Tokens: 5, SeekerID: "seeker-9"}
			if tt.repoErr != nil {
				repo.On("Deduct", mock.Anything, d).Return(nil, tt.repoErr)
			} else {
				repo.On("Deduct", mock.Anything, d).Return(&DeductResult{Balance: 95}, nil)
			}

			w := postDeduct(t, newTestRouter(h, owner), tt.body)
			assert.Equal(t, tt.wantCode, w.Code)

			if tt.wantAPI != "" {
				var resp api.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, string(tt.wantAPI), resp.Code)
				assert.NotContains(t, resp.Error, assert.AnError.Error())
			} else {
				var resp DeductResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.True(t, resp.Success)
				assert.Equal(t, int64(95), resp.TokenBalance)
			}
		})
	}
}

func TestListPackagesHandler(t *testing.T) {
	packages := []config.TokenPackage{{Name: "Starter Package", PriceID: "price_A", Tokens: 100, Cost: "$50.00 AUD"}}
	h := NewHandler(new(MockRepository), nil, packages)

	w := httptest.NewRecorder()
	newTestRouter(h, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tokens/packages", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"Starter Package","priceId":"price_A","tokens":100,"cost":"$50.00 AUD"}]`, w.Body.String())
}
