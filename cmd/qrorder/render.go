package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/howlrs/pos-qr-go/internal/models"
	"github.com/howlrs/pos-qr-go/internal/service"
)

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func printMenu(out io.Writer, menu *models.Menu, categoryID, query string) {
	tw := table(out)
	for _, c := range menu.BrowseCategories() {
		if categoryID != "" && categoryID != models.AllCategories && c.ID != categoryID {
			continue
		}
		items := menu.Filter(c.ID, query)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(tw, "[%s] %s\t\t\t\n", c.ID, c.Name)
		for _, it := range items {
			avail := ""
			if !it.IsAvailable {
				avail = "売り切れ"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", it.ID, it.Name, models.FormatYen(it.Price), avail)
		}
	}
	tw.Flush()
}

func printCart(out io.Writer, cart *models.Cart) {
	if cart.IsEmpty() {
		fmt.Fprintln(out, "Cart is empty")
		return
	}
	tw := table(out)
	fmt.Fprintln(tw, "LINE\tITEM\tQTY\tPRICE\tNOTE")
	for _, it := range cart.Items {
		name := it.MenuItemID
		if it.MenuItem != nil {
			name = it.MenuItem.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.ID, name, it.Quantity, models.FormatYen(it.TotalPrice), it.SpecialInstructions)
	}
	tw.Flush()
	fmt.Fprintf(out, "Total: %d items, %s\n", cart.TotalItems, models.FormatYen(cart.TotalAmount))
}

func printSession(out io.Writer, s *models.OrderSession, now time.Time) {
	fmt.Fprintf(out, "%s / %s (%s)\n", s.Store.Name, s.Seat.Name, s.Seat.Number)
	if s.Usable(now) {
		fmt.Fprintf(out, "Session %s open for %s\n", s.ID, s.Remaining(now).Round(time.Minute))
	} else {
		fmt.Fprintf(out, "Session %s is %s\n", s.ID, s.Status)
	}
}

func printOrders(out io.Writer, orders []models.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet")
		return
	}
	tw := table(out)
	fmt.Fprintln(tw, "NUMBER\tSTATUS\tITEMS\tTOTAL\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", o.OrderNumber, o.Status.Label(), len(o.Items),
			models.FormatYen(o.TotalAmount), o.PlacedAt.Local().Format("15:04"))
	}
	tw.Flush()
}

const progressWidth = 20

func printProgress(out io.Writer, p service.Progress) {
	filled := int(p.Percent / 100 * progressWidth)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", progressWidth-filled)
	fmt.Fprintf(out, "%s [%s] %3.0f%% (estimated, %s elapsed)\n",
		p.Status.Label(), bar, p.Percent, p.Elapsed.Truncate(time.Second))
}
