package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kedai-dimesem/storefront/internal/reporting"
)

const reportSheet = "Laporan"

// headerRow is the row holding the column titles; data starts below it.
const headerRow = 5

// ReportXLSX renders r as a single-sheet workbook.
func (x *Renderer) ReportXLSX(r reporting.Report) ([]byte, error) {
	return ReportXLSX(r)
}

// ReportXLSX renders r as a single-sheet workbook.
func ReportXLSX(r reporting.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	if err != nil {
		return nil, err
	}
	boldMoney, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 3})
	if err != nil {
		return nil, err
	}

	set := func(cell string, v any) {
		if err == nil {
			err = f.SetCellValue(reportSheet, cell, v)
		}
	}
	set("A1", "KEDAI DIMESEM - LAPORAN")
	set("A2", fmt.Sprintf("Jenis: %s | Periode: %s", strings.ToUpper(string(r.Type)), strings.ToUpper(string(r.Period))))
	set("A3", "Dicetak pada: "+timestamp(r.GeneratedAt))
	for i, title := range []string{"KODE/ID", "KETERANGAN", "TANGGAL", "TOTAL"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, title)
	}
	row := headerRow
	for _, item := range r.Rows {
		row++
		set(fmt.Sprintf("A%d", row), item.Label)
		set(fmt.Sprintf("B%d", row), item.Description)
		set(fmt.Sprintf("C%d", row), tanggalPtr(item.Date))
		set(fmt.Sprintf("D%d", row), item.Amount.InexactFloat64())
	}
	totalRow := row + 1
	set(fmt.Sprintf("C%d", totalRow), "TOTAL KESELURUHAN")
	set(fmt.Sprintf("D%d", totalRow), r.GrandTotal.InexactFloat64())
	if err != nil {
		return nil, err
	}

	styles := []struct {
		from, to string
		style    int
	}{
		{"A1", "A1", bold},
		{fmt.Sprintf("A%d", headerRow), fmt.Sprintf("D%d", headerRow), bold},
		{fmt.Sprintf("D%d", headerRow+1), fmt.Sprintf("D%d", totalRow-1), money},
		{fmt.Sprintf("C%d", totalRow), fmt.Sprintf("D%d", totalRow), boldMoney},
	}
	for _, s := range styles {
		if err := f.SetCellStyle(reportSheet, s.from, s.to, s.style); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(reportSheet, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(reportSheet, "B", "D", 22); err != nil {
		return nil, err
	}
	if err := f.SetPanes(reportSheet, &excelize.Panes{Freeze: true, Split: true, YSplit: headerRow, TopLeftCell: fmt.Sprintf("A%d", headerRow+1), ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
