package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/howlrs/pos-qr-go/internal/models"
)

func listParams(page int) models.ListParams {
	return models.ListParams{Page: page}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil},
		{name: "network", err: networkError(errors.New("dial")), want: true},
		{name: "server error", err: &APIError{Code: "HTTP_503", Status: 503}, want: true},
		{name: "not found", err: &APIError{Code: "HTTP_404", Status: 404}},
		{name: "bad request", err: &APIError{Code: "HTTP_400", Status: 400}},
		{name: "wrapped server error", err: fmt.Errorf("load: %w", &APIError{Status: 502}), want: true},
		{name: "caller cancel", err: networkError(context.Canceled)},
		{name: "plain error", err: errors.New("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "ネットワークエラーが発生しました。接続を確認してください。", UserMessage(networkError(nil)))
	assert.Equal(t, "要求されたリソースが見つかりません。", UserMessage(&APIError{Code: "HTTP_404"}))
	assert.Equal(t, "在庫切れです", UserMessage(&APIError{Code: "OUT_OF_STOCK", Message: "在庫切れです"}))
	assert.Equal(t, "予期しないエラーが発生しました。", UserMessage(&APIError{Code: "HTTP_418"}))
	assert.Equal(t, "cart is empty", UserMessage(errors.New("cart is empty")))
}

func TestUserMessageByStatus(t *testing.T) {
	const retryLater = "サーバーエラーが発生しました。しばらく後に再試行してください。"
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{"bad gateway", &APIError{Code: "HTTP_502", Status: 502, Message: "Request failed with status 502"}, retryLater},
		{"unavailable", &APIError{Code: "HTTP_503", Status: 503, Message: "Request failed with status 503"}, retryLater},
		{"gateway timeout", &APIError{Code: "HTTP_504", Status: 504}, retryLater},
		{"server code on 500", &APIError{Code: "INTERNAL_ERROR", Status: 500, Message: "boom"}, retryLater},
		{"server code on 404", &APIError{Code: "NOT_FOUND", Status: 404, Message: "session not found"}, "要求されたリソースが見つかりません。"},
		{"server code on 401", &APIError{Code: "UNAUTHORIZED", Status: 401, Message: "Invalid or expired token"}, "認証が必要です。再度ログインしてください。"},
		{"server code on 403", &APIError{Code: "FORBIDDEN", Status: 403, Message: "Forbidden"}, "この操作を実行する権限がありません。"},
		{"conflict keeps server text", &APIError{Code: "CONFLICT", Status: 409, Message: "item is unavailable"}, "item is unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestAPIErrorFormat(t *testing.T) {
	err := &APIError{Code: "HTTP_404", Message: "session not found", Status: 404}
	assert.Equal(t, "HTTP_404: session not found", err.Error())
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", err)))
	assert.Equal(t, 0, StatusOf(errors.New("x")))
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "/order/session/S1", SessionPath("S1"))
	assert.Equal(t, "/order/session/S1/menu", MenuPath("S1"))
	assert.Equal(t, "/order/session/S1/cart", CartPath("S1"))
	assert.Equal(t, "/order/session/S1/cart/items/ci-9", CartItemPath("S1", "ci-9"))
	assert.Equal(t, "/order/session/S1/place", PlaceOrderPath("S1"))
	assert.Equal(t, "/order/session/S1/history", HistoryPath("S1"))
	assert.Equal(t, "/order/session/a%2Fb", SessionPath("a/b"))
	assert.Equal(t, "/store/seats/7/qr/regenerate", SeatQRRegeneratePath("7"))
	assert.Equal(t, "/admin/stores/3/stats", StoreStatsPath("3"))
	assert.Equal(t, "/auth/admin/login", LoginPath(models.RoleAdmin))
	assert.Equal(t, "/auth/store/login", LoginPath(models.RoleStore))
}

func TestListQuery(t *testing.T) {
	active := false
	q := ListQuery(models.ListParams{Page: 2, Limit: 20, Search: "渋谷", IsActive: &active, Status: "occupied"})

	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "渋谷", q.Get("search"))
	assert.Equal(t, "false", q.Get("isActive"))
	assert.Equal(t, "occupied", q.Get("status"))
	assert.Empty(t, ListQuery(models.ListParams{}))
}
