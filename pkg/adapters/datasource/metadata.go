package datasource

import "github.com/ydh4481/llm-ddp/pkg/models"

// GroupByTable folds column facts into tables in first-appearance order.
// Column order within a table follows the input.
func GroupByTable(facts []ColumnFact) []TableFacts {
	var tables []TableFacts
	index := make(map[[2]string]int)

	for _, f := range facts {
		key := [2]string{f.SchemaName, f.TableName}
		i, ok := index[key]
		if !ok {
			i = len(tables)
			index[key] = i
			tables = append(tables, TableFacts{
				SchemaName:       f.SchemaName,
				TableName:        f.TableName,
				TableDescription: f.TableDescription,
			})
		}
		tables[i].Columns = append(tables[i].Columns, f)
	}
	return tables
}

// ToTableMetadata converts grouped facts into the catalog import shape.
func ToTableMetadata(tables []TableFacts) []models.TableMetadata {
	out := make([]models.TableMetadata, 0, len(tables))
	for _, t := range tables {
		tm := models.TableMetadata{
			SchemaName:       t.SchemaName,
			TableName:        t.TableName,
			TableDescription: t.TableDescription,
			Columns:          make([]models.ColumnInput, 0, len(t.Columns)),
		}
		for _, c := range t.Columns {
			tm.Columns = append(tm.Columns, models.ColumnInput{
				Name:             c.ColumnName,
				Description:      c.ColumnDescription,
				DataType:         c.DataType,
				DefaultValue:     c.DefaultValue,
				ColumnSeq:        c.OrdinalPosition,
				IsNullable:       c.IsNullable,
				IsUnique:         c.IsUnique,
				IsPrimaryKey:     c.IsPrimaryKey,
				IsForeignKey:     c.IsForeignKey,
				ForeignKeyTable:  c.ForeignKeyTable,
				ForeignKeyColumn: c.ForeignKeyColumn,
			})
		}
		out = append(out, tm)
	}
	return out
}
