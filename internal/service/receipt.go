package service

import (
	"fmt"
	"strings"

	"github.com/howlrs/pos-qr-go/internal/models"
)

const receiptRule = "==============================="

// GenerateReceiptText renders a plain-text receipt for a placed order
func GenerateReceiptText(order *models.Order, store *models.StoreRef) string {
	var sb strings.Builder

	// Header
	sb.WriteString(receiptRule + "\n")
	if store != nil && store.Name != "" {
		sb.WriteString(center(store.Name) + "\n")
	}
	sb.WriteString(center("ご注文明細") + "\n")
	sb.WriteString(receiptRule + "\n\n")

	// Order info
	sb.WriteString(fmt.Sprintf("注文番号: %s\n", order.OrderNumber))
	sb.WriteString(fmt.Sprintf("日時: %s\n", order.PlacedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("状態: %s\n", order.Status.Label()))
	sb.WriteString("\n")

	// Items
	sb.WriteString("-------------------------------\n")
	for _, item := range order.Items {
		sb.WriteString(fmt.Sprintf("%dx %s\n", item.Quantity, item.Name()))
		if item.SpecialInstructions != "" {
			sb.WriteString(fmt.Sprintf("  * %s\n", item.SpecialInstructions))
		}
		sb.WriteString(fmt.Sprintf("  %s\n", models.FormatYen(item.TotalPrice)))
	}
	if order.SpecialInstructions != "" {
		sb.WriteString(fmt.Sprintf("\n備考: %s\n", order.SpecialInstructions))
	}

	// Totals
	sb.WriteString("-------------------------------\n")
	sb.WriteString(fmt.Sprintf("合計: %s\n", models.FormatYen(order.TotalAmount)))
	sb.WriteString("\n")

	sb.WriteString(receiptRule + "\n")
	sb.WriteString(center("ありがとうございました") + "\n")
	sb.WriteString(receiptRule + "\n")

	return sb.String()
}

// center pads s to the receipt width, counting runes
func center(s string) string {
	pad := (len(receiptRule) - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
