// Package excel loads labelled numeric matrices from xlsx or CSV files into
// the dense representation used by the preservation engine.
package excel

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"netpres/domain/network"
	"netpres/internal/errors"
)

// MatrixReader reads a labelled matrix: first row holds column labels,
// first column holds row labels, everything else is numeric. Empty cells
// become the missing sentinel.
type MatrixReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewMatrixReader creates a reader for an xlsx or CSV file, keyed on the
// file extension.
func NewMatrixReader(filePath string) *MatrixReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &MatrixReader{filePath: filePath, fileType: fileType}
}

// Read parses the file (sheet is ignored for CSV) into a dense matrix plus
// row and column labels.
func (r *MatrixReader) Read(sheet string) (*mat.Dense, []string, []string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, nil, nil, errors.DatasetLoad("file not found: " + r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows(sheet)
	}
	if err != nil {
		return nil, nil, nil, err
	}
	return parseLabelledMatrix(rows, r.filePath)
}

func (r *MatrixReader) readExcelRows(sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open xlsx file %s", r.filePath)
	}
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %s of %s", sheet, r.filePath)
	}
	return rows, nil
}

func (r *MatrixReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open CSV file %s", r.filePath)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read CSV file %s", r.filePath)
	}
	return rows, nil
}

func parseLabelledMatrix(rows [][]string, origin string) (*mat.Dense, []string, []string, error) {
	if len(rows) < 2 || len(rows[0]) < 2 {
		return nil, nil, nil, errors.DatasetLoad("matrix file must have a label row, a label column, and at least one value: " + origin)
	}

	colNames := make([]string, len(rows[0])-1)
	copy(colNames, rows[0][1:])

	rowNames := make([]string, 0, len(rows)-1)
	m := mat.NewDense(len(rows)-1, len(colNames), nil)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			return nil, nil, nil, errors.DatasetLoad("empty row in matrix file: " + origin)
		}
		rowNames = append(rowNames, row[0])
		for j := 0; j < len(colNames); j++ {
			m.Set(i, j, parseCell(row, j+1))
		}
	}
	return m, rowNames, colNames, nil
}

func parseCell(row []string, col int) float64 {
	if col >= len(row) {
		return network.Missing()
	}
	cell := strings.TrimSpace(row[col])
	if cell == "" || strings.EqualFold(cell, "NA") || strings.EqualFold(cell, "NaN") {
		return network.Missing()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return network.Missing()
	}
	return v
}
