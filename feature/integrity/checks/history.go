package checks

import (
	"fmt"
	"reflect"
	"strings"

	"module-loader/core/database"
	"module-loader/core/kvstore"

	"gorm.io/gorm"
)

// SchemaReport strictly types the result of a history table check.
type SchemaReport struct {
	Table          string   `json:"table"`
	Matched        bool     `json:"matched"`
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
	Errors         []string `json:"errors"`
}

// CheckHistorySchema verifies the key/value table using kvstore.Entry as
// the source of truth.
func CheckHistorySchema(db *gorm.DB, table string) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if strings.TrimSpace(table) == "" {
		table = kvstore.DefaultTable
	}

	report := &SchemaReport{
		Table:          table,
		Matched:        true,
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Status:         "ok",
		Errors:         []string{},
	}

	actualCols, err := database.GetTableColumns(db, table)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
		report.Matched = false
		report.Status = "error"
		return report, nil
	}
	if len(actualCols) == 0 {
		report.Errors = append(report.Errors, fmt.Sprintf("Table %s does not exist", table))
		report.Matched = false
		report.Status = "error"
		return report, nil
	}

	actualMap := make(map[string]database.ColumnInfo)
	for _, col := range actualCols {
		actualMap[col.Field] = col
	}

	val := reflect.TypeOf(kvstore.Entry{})
	for i := 0; i < val.NumField(); i++ {
		gormTag := val.Field(i).Tag.Get("gorm")
		colName := parseGormColumn(gormTag)
		if colName == "" {
			continue
		}

		actCol, exists := actualMap[colName]
		if !exists {
			report.MissingColumns = append(report.MissingColumns, colName)
			continue
		}
		if hasGormFlag(gormTag, "primaryKey") && !actCol.IsPrimary() {
			report.TypeMismatches = append(report.TypeMismatches, fmt.Sprintf("%s: expected primary key", colName))
		}
		// Only columns with an explicit type are compared.
		if expType := strings.ToLower(parseGormType(gormTag)); expType != "" && !strings.Contains(actCol.Type, expType) {
			report.TypeMismatches = append(report.TypeMismatches,
				fmt.Sprintf("%s: expected %s, got %s", colName, expType, actCol.Type))
		}
	}

	if len(report.MissingColumns) > 0 || len(report.TypeMismatches) > 0 {
		report.Matched = false
		report.Status = "error"
	}
	return report, nil
}

// Helpers to parse simple GORM tags
func parseGormColumn(tag string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, "column:") {
			return strings.TrimPrefix(p, "column:")
		}
	}
	return ""
}

func parseGormType(tag string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, "type:") {
			return strings.TrimPrefix(p, "type:")
		}
	}
	return ""
}

func hasGormFlag(tag, flag string) bool {
	for _, p := range strings.Split(tag, ";") {
		if strings.EqualFold(p, flag) {
			return true
		}
	}
	return false
}
