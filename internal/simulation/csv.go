package simulation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"prosumer-sim/internal/model"
)

// WriteLedgerCSV writes the ledger to a new file at path.
func WriteLedgerCSV(path string, ticks []TickRecord, initialCharge float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLedger(f, ticks, initialCharge)
}

// WriteLedger writes one CSV row per recorded tick. initialCharge is the
// relative battery charge before the first tick; the action column labels
// each tick by the change in relative charge.
func WriteLedger(out io.Writer, ticks []TickRecord, initialCharge float64) error {
	w := csv.NewWriter(out)

	header := []string{
		"tick",
		"datetime",
		"price",
		"action",
		"energy_produced_mwh",
		"energy_consumed_mwh",
		"battery_start",
		"battery_end",
		"scheduled_buy_mwh",
		"scheduled_sell_mwh",
		"unscheduled_buy_mwh",
		"unscheduled_sell_mwh",
		"wallet_balance",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	prev := initialCharge
	for _, r := range ticks {
		row := []string{
			strconv.Itoa(r.Tick),
			fmtTime(r.Time),
			fmtFloat(r.Price),
			string(model.ActionFromChargeDelta(r.Battery - prev)),
			fmtFloat(r.Produced),
			fmtFloat(r.Consumed),
			fmtFloat(prev),
			fmtFloat(r.Battery),
			fmtTx(r.ScheduledBuy),
			fmtTx(r.ScheduledSell),
			fmtTx(&r.UnscheduledBuy),
			fmtTx(&r.UnscheduledSell),
			fmtMoney(r.WalletBalance),
		}
		if err := w.Write(row); err != nil {
			return err
		}
		prev = r.Battery
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// fmtMoney rounds half away from zero to whole cents.
func fmtMoney(x float64) string {
	return strconv.FormatFloat(model.Cost(x).Round(2).Float(), 'f', 2, 64)
}

// fmtTx leaves the cell empty for trades that did not happen.
func fmtTx(tx *model.Transaction) string {
	if tx == nil || !tx.OK {
		return ""
	}
	return fmtFloat(tx.Amount)
}
