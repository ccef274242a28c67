package fields

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Felder"

var xlsxHeader = []any{
	"Name", "Typ", "Status", "Fläche (ha)", "Kapazität", "Grasart",
	"Wasserquelle", "Zaun", "Breite", "Länge", "Notizen",
}

// ExportXLSX writes fields as a single sheet workbook.
func ExportXLSX(w io.Writer, list []Field) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &xlsxHeader); err != nil {
		return err
	}

	for i := range list {
		fd := &list[i]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		row := []any{
			fd.Name, fd.FieldType, fd.Status, optional(fd.AreaHectares), optional(fd.CapacityAnimals),
			fd.GrassType, fd.WaterSource, fd.FenceCondition,
			optional(fd.Latitude), optional(fd.Longitude), fd.Notes,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
