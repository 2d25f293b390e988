package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// ImportFormat represents the file format for import and export
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

const batchSheetName = "Batches"

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// BatchImportTemplate returns the template for import batches
func BatchImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "batches",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "importDate", Description: "Date the stock was received", Required: true, Type: "date (YYYY-MM-DD)", Example: "2024-03-01"},
			{Name: "quantity", Description: "Units received", Required: true, Type: "integer > 0", Example: "25"},
			{Name: "costPrice", Description: "Unit cost of this batch", Required: true, Type: "decimal > 0", Example: "12.50"},
		},
		SampleData: []map[string]string{
			{"importDate": "2024-03-01", "quantity": "25", "costPrice": "12.50"},
			{"importDate": "2024-03-15", "quantity": "10", "costPrice": "13.00"},
		},
	}
}

type ImportHandler struct {
	inventory *services.InventoryService
	logger    *logrus.Entry
}

func NewImportHandler(inventory *services.InventoryService, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		inventory: inventory,
		logger:    logger.WithField("component", "handlers.import"),
	}
}

// GetBatchImportTemplate returns the batch import template
// GET /api/v1/batches/import/template?format=json|csv|xlsx
func (h *ImportHandler) GetBatchImportTemplate(c *gin.Context) {
	template := BatchImportTemplate()

	switch ImportFormat(c.DefaultQuery("format", "json")) {
	case ImportFormatCSV:
		rows := make([][]string, 0, len(template.SampleData))
		for _, sample := range template.SampleData {
			rows = append(rows, sampleRow(template, sample))
		}
		writeCSV(c, "batches_import_template.csv", columnNames(template), rows)
	case ImportFormatXLSX:
		rows := make([][]interface{}, 0, len(template.SampleData))
		for _, sample := range template.SampleData {
			row := make([]interface{}, 0, len(template.Columns))
			for _, v := range sampleRow(template, sample) {
				row = append(row, v)
			}
			rows = append(rows, row)
		}
		h.writeXLSX(c, "batches_import_template.xlsx", template.Columns, rows)
	default:
		respondOK(c, template)
	}
}

// ImportBatches imports batches of a variant from a CSV or Excel file.
// Nothing is recorded unless every row is valid.
// POST /api/v1/variants/:id/batches/import
func (h *ImportHandler) ImportBatches(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	variantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, models.Error{
			Code: "FILE_REQUIRED", Message: "Please upload a CSV or Excel file", Field: "file",
		})
		return
	}
	defer file.Close()

	validateOnly, _ := strconv.ParseBool(c.DefaultPostForm("validateOnly", "false"))

	rows, err := parseFile(file, header.Filename)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.Error{Code: "PARSE_ERROR", Message: err.Error(), Field: "file"})
		return
	}
	if len(rows) == 0 {
		respondError(c, http.StatusBadRequest, models.Error{Code: "EMPTY_FILE", Message: "The file contains no data rows", Field: "file"})
		return
	}

	importRows := make([]services.BatchImportRow, 0, len(rows))
	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])
		importRows = append(importRows, services.BatchImportRow{
			Row:        rowNum,
			ImportDate: row["importdate"],
			Quantity:   row["quantity"],
			CostPrice:  row["costprice"],
		})
	}

	result, err := h.inventory.ImportBatches(requestContext(c), tenant, variantID, importRows, validateOnly)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	if result.FailedCount > 0 {
		c.JSON(http.StatusUnprocessableEntity, models.SuccessResponse{
			Success: false,
			Data:    result,
			Message: fmt.Sprintf("%d of %d rows are invalid; nothing was imported", result.FailedCount, result.TotalRows),
		})
		return
	}
	message := fmt.Sprintf("Imported %d batches", result.SuccessCount)
	if validateOnly {
		message = fmt.Sprintf("%d rows are valid", result.SuccessCount)
	}
	respondMessage(c, result, message)
}

// ExportBatches downloads the ledger of a variant
// GET /api/v1/variants/:id/batches/export?format=csv|xlsx
func (h *ImportHandler) ExportBatches(c *gin.Context) {
	tenant, ok := tenantID(c)
	if !ok {
		return
	}
	variantID, ok := pathID(c, "id")
	if !ok {
		return
	}

	batches, err := h.inventory.ListBatches(c.Request.Context(), tenant, variantID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	columns := BatchImportTemplate().Columns
	filename := fmt.Sprintf("batches_%s", variantID)
	switch ImportFormat(c.DefaultQuery("format", "csv")) {
	case ImportFormatXLSX:
		rows := make([][]interface{}, 0, len(batches))
		for _, b := range batches {
			cost, _ := b.CostPrice.Float64()
			rows = append(rows, []interface{}{b.ImportDate.Format(models.ImportDateLayout), b.Quantity, cost})
		}
		h.writeXLSX(c, filename+".xlsx", columns, rows)
	case ImportFormatCSV:
		rows := make([][]string, 0, len(batches))
		for _, b := range batches {
			rows = append(rows, []string{
				b.ImportDate.Format(models.ImportDateLayout),
				strconv.Itoa(b.Quantity),
				b.CostPrice.StringFixed(2),
			})
		}
		writeCSV(c, filename+".csv", columnNames(BatchImportTemplate()), rows)
	default:
		respondError(c, http.StatusBadRequest, models.Error{
			Code: services.CodeValidation, Message: "Format must be csv or xlsx", Field: "format",
		})
	}
}

func columnNames(template ImportTemplate) []string {
	names := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		names[i] = col.Name
	}
	return names
}

func sampleRow(template ImportTemplate, sample map[string]string) []string {
	row := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		row[i] = sample[col.Name]
	}
	return row
}

func writeCSV(c *gin.Context, filename string, headers []string, rows [][]string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(headers)
	for _, row := range rows {
		writer.Write(row)
	}
}

func (h *ImportHandler) writeXLSX(c *gin.Context, filename string, columns []ImportTemplateColumn, rows [][]interface{}) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", batchSheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(batchSheetName, cell, col.Name)
		f.SetCellStyle(batchSheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(batchSheetName, colName, colName, 18)
	}

	for rowIdx, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		if err := f.SetSheetRow(batchSheetName, cell, &row); err != nil {
			h.logger.WithError(err).Warn("Failed to write spreadsheet row")
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write spreadsheet")
	}
}

func parseFile(file io.Reader, filename string) ([]map[string]string, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return parseCSV(file)
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return parseXLSX(file)
	}
	return nil, fmt.Errorf("only CSV and XLSX files are supported")
}

// normalizeHeader lowercases a header and strips the required-column marker
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.TrimSuffix(h, " *")
	return strings.TrimPrefix(h, "\ufeff")
}

func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = normalizeHeader(headers[i])
	}

	var rows []map[string]string
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}
		lineNum++

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		if isBlankRow(row) {
			continue
		}
		row["_row"] = strconv.Itoa(lineNum)
		rows = append(rows, row)
	}

	return rows, nil
}

func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) == 0 {
		return nil, fmt.Errorf("file must have a header row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = normalizeHeader(headers[i])
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		if isBlankRow(row) {
			continue
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}

func isBlankRow(row map[string]string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
