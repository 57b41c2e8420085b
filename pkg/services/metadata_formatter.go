package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ydh4481/llm-ddp/pkg/models"
)

// FormatMetadata renders cataloged columns as the "Meta Info" block of the
// generator prompt:
//
//	Table: shop.orders
//	Description: 주문
//	- id (int): 주문 ID [PK]
//	- customer_id (int) [FK → customers.id]
//
// Tables keep first-appearance order and columns are ordered by column_seq.
func FormatMetadata(columns []models.ColumnWithTable) string {
	type tableBlock struct {
		header  string
		columns []models.ColumnWithTable
	}

	var order []string
	blocks := make(map[string]*tableBlock)

	for _, col := range columns {
		schema := col.SchemaName
		if schema == "" {
			schema = "default"
		}
		fullName := schema + "." + col.TableName

		block, ok := blocks[fullName]
		if !ok {
			block = &tableBlock{}
			blocks[fullName] = block
			order = append(order, fullName)
		}
		block.header = fmt.Sprintf("Table: %s\nDescription: %s", fullName, col.TableDescription)
		block.columns = append(block.columns, col)
	}

	var lines []string
	for _, name := range order {
		block := blocks[name]
		sort.SliceStable(block.columns, func(i, j int) bool {
			return block.columns[i].ColumnSeq < block.columns[j].ColumnSeq
		})

		lines = append(lines, block.header)
		for _, col := range block.columns {
			lines = append(lines, formatColumnLine(col.Column))
		}
		lines = append(lines, "")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func formatColumnLine(col models.Column) string {
	line := fmt.Sprintf("- %s (%s)", col.Name, col.DataType)
	if col.Description != "" {
		line += ": " + col.Description
	}

	var tags []string
	if col.IsPrimaryKey {
		tags = append(tags, "PK")
	}
	if col.IsForeignKey && col.ForeignKeyTable != nil && col.ForeignKeyColumn != nil &&
		*col.ForeignKeyTable != "" && *col.ForeignKeyColumn != "" {
		tags = append(tags, fmt.Sprintf("FK → %s.%s", *col.ForeignKeyTable, *col.ForeignKeyColumn))
	}
	if len(tags) > 0 {
		line += " [" + strings.Join(tags, " | ") + "]"
	}
	return line
}
