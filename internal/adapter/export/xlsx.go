package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/iho/splitsync/internal/usecase"
)

// ContentType is the MIME type of the workbook WriteGroupReport produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetSummary     = "Summary"
	SheetExpenses    = "Expenses"
	SheetSettlements = "Settlements"
	SheetDebts       = "Debts"
	SheetSettleUp    = "Settle up"
)

// Filename returns the download name for a group's report.
func Filename(report *usecase.GroupReport) string {
	return fmt.Sprintf("%s_%s.xlsx", report.Group.ID, report.GeneratedAt.Format("20060102"))
}

type sheetWriter struct {
	f        *excelize.File
	amountID int
	headerID int
	err      error
}

func (w *sheetWriter) set(sheet string, col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	if d, ok := value.(decimal.Decimal); ok {
		value = d.InexactFloat64()
		if w.err = w.f.SetCellStyle(sheet, cell, cell, w.amountID); w.err != nil {
			return
		}
	}
	w.err = w.f.SetCellValue(sheet, cell, value)
}

func (w *sheetWriter) table(sheet string, headers []string, widths []float64, rows [][]any) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(sheet); err != nil {
		w.err = err
		return
	}
	for i, h := range headers {
		w.set(sheet, i+1, 1, h)
	}
	if w.err == nil && len(headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		w.err = w.f.SetCellStyle(sheet, "A1", last, w.headerID)
	}
	for r, row := range rows {
		for c, v := range row {
			w.set(sheet, c+1, r+2, v)
		}
	}
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		w.err = w.f.SetColWidth(sheet, col, col, width)
	}
}

// WriteGroupReport renders report as an XLSX workbook with one sheet per
// section and writes it to out.
func WriteGroupReport(out io.Writer, report *usecase.GroupReport) error {
	f := excelize.NewFile()
	defer f.Close()

	amountID, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}
	headerID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	w := &sheetWriter{f: f, amountID: amountID, headerID: headerID}

	names := make(map[string]string, len(report.Members))
	for _, m := range report.Members {
		names[m.UserID] = m.Name
	}
	name := func(userID string) string {
		if n, ok := names[userID]; ok && n != "" {
			return n
		}
		return userID
	}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	w.set(SheetSummary, 1, 1, "Group")
	w.set(SheetSummary, 2, 1, report.Group.Name)
	w.set(SheetSummary, 1, 2, "Generated")
	w.set(SheetSummary, 2, 2, report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	w.set(SheetSummary, 1, 4, "Member")
	w.set(SheetSummary, 2, 4, "Email")
	w.set(SheetSummary, 3, 4, "Balance")
	balances := make(map[string]decimal.Decimal, len(report.Balances))
	for _, b := range report.Balances {
		balances[b.UserID] = b.Balance
	}
	for i, m := range report.Members {
		w.set(SheetSummary, 1, i+5, name(m.UserID))
		w.set(SheetSummary, 2, i+5, m.Email)
		w.set(SheetSummary, 3, i+5, balances[m.UserID])
	}

	expenses := make([][]any, 0, len(report.Expenses))
	for _, e := range report.Expenses {
		expenses = append(expenses, []any{e.ExpenseDate.Format("2006-01-02"), e.Description, name(e.PayerID), e.Amount})
	}
	w.table(SheetExpenses, []string{"Date", "Description", "Paid by", "Amount"}, []float64{12, 32, 18, 12}, expenses)

	settlements := make([][]any, 0, len(report.Settlements))
	for _, s := range report.Settlements {
		settlements = append(settlements, []any{s.CreatedAt.Format("2006-01-02"), name(s.PayerID), name(s.PayeeID), s.Amount, string(s.Status)})
	}
	w.table(SheetSettlements, []string{"Date", "From", "To", "Amount", "Status"}, []float64{12, 18, 18, 12, 12}, settlements)

	debts := make([][]any, 0, len(report.Debts))
	for _, d := range report.Debts {
		debts = append(debts, []any{name(d.DebtorID), name(d.CreditorID), d.Amount})
	}
	w.table(SheetDebts, []string{"Debtor", "Creditor", "Amount"}, []float64{18, 18, 12}, debts)

	transfers := make([][]any, 0, len(report.Simplified))
	for _, t := range report.Simplified {
		transfers = append(transfers, []any{name(t.FromUserID), name(t.ToUserID), t.Amount})
	}
	w.table(SheetSettleUp, []string{"From", "To", "Amount"}, []float64{18, 18, 12}, transfers)

	if w.err != nil {
		return fmt.Errorf("build report workbook: %w", w.err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write report workbook: %w", err)
	}
	return nil
}
