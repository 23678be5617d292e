package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/deskagent/internal/model"
)

const SheetName = "Campaigns"

var statusFill = map[string]string{
	model.StatusDraft:     "D9D9D9", // Gray
	model.StatusPending:   "FFFF00", // Yellow
	model.StatusActive:    "C6EFCE", // Green
	model.StatusCompleted: "B4C6E7", // Light blue
}

var columnWidths = map[string]float64{
	model.ColCampaignID:       12,
	model.ColName:             20,
	model.ColTitle:            30,
	model.ColSuggestedTitle:   30,
	model.ColPresentationText: 50,
	model.ColCleanText:        50,
	model.ColWhatsAppMessage:  50,
	model.ColWhydonateURL:     40,
	model.ColStatus:           12,
}

// Workbook renders campaigns into a single-sheet workbook with a styled
// header row and rows coloured by status.
func Workbook(campaigns []*model.Campaign) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	statusStyles := make(map[string]int, len(statusFill))
	for status, color := range statusFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			f.Close()
			return nil, err
		}
		statusStyles[status] = id
	}

	if err := writeCells(f, headerStyle, statusStyles, campaigns); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeCells(f *excelize.File, headerStyle int, statusStyles map[string]int, campaigns []*model.Campaign) error {
	for i, col := range model.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, col); err != nil {
			return err
		}

		letter, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width, ok := columnWidths[col]
		if !ok {
			width = 18
		}
		if err := f.SetColWidth(SheetName, letter, letter, width); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(model.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for r, c := range campaigns {
		rowNum := r + 2
		for i, col := range model.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
			if err != nil {
				return err
			}
			var value any = c.Get(col)
			if col == model.ColTargetAmount {
				value = c.TargetAmount
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("campaign %s column %s: %w", c.ID, col, err)
			}
		}
		if style, ok := statusStyles[c.Status]; ok {
			if err := f.SetCellStyle(SheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("%s%d", lastCol, rowNum), style); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToFile writes the workbook into dir as campaigns_<unix>.xlsx and returns
// the path.
func ToFile(campaigns []*model.Campaign, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := Workbook(campaigns)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, fmt.Sprintf("campaigns_%d.xlsx", now.Unix()))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return path, nil
}
