package rounds

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// WriteLedgerCSV writes the ledger to path, one row per round.
func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

// EncodeLedgerCSV writes the ledger with a header row to w.
func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"day",
		"flow_movements",
		"scheduled_movements",
		"amount_submitted",
		"orders_received",
		"orders_unresolved",
		"orders_fulfilled",
		"orders_open",
		"reservations",
		"new_orders",
		"penalties",
		"delta_cost",
		"delta_co2",
		"total_cost",
		"total_co2",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Day),
			strconv.Itoa(r.FlowMovements),
			strconv.Itoa(r.ScheduledMovements),
			strconv.FormatInt(r.AmountSubmitted, 10),
			strconv.Itoa(r.OrdersReceived),
			strconv.Itoa(r.OrdersUnresolved),
			strconv.Itoa(r.OrdersFulfilled),
			strconv.Itoa(r.OrdersOpen),
			strconv.Itoa(r.Reservations),
			strconv.Itoa(r.NewOrders),
			strconv.Itoa(r.Penalties),
			fmtFloat(r.DeltaCost),
			fmtFloat(r.DeltaCO2),
			fmtFloat(r.TotalCost),
			fmtFloat(r.TotalCO2),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
