package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ydh4481/llm-ddp/pkg/models"
)

func strPtr(s string) *string { return &s }

func col(schema, table, tableDesc, name, dataType, desc string, seq int) models.ColumnWithTable {
	return models.ColumnWithTable{
		Column: models.Column{
			Name:        name,
			DataType:    dataType,
			Description: desc,
			ColumnSeq:   seq,
		},
		SchemaName:       schema,
		TableName:        table,
		TableDescription: tableDesc,
	}
}

func TestFormatMetadata_OrdersColumnsBySeq(t *testing.T) {
	pk := col("shop", "orders", "주문", "id", "int", "주문 ID", 1)
	pk.IsPrimaryKey = true
	fk := col("shop", "orders", "주문", "customer_id", "int", "", 2)
	fk.IsForeignKey = true
	fk.ForeignKeyTable = strPtr("customers")
	fk.ForeignKeyColumn = strPtr("id")
	amount := col("shop", "orders", "주문", "amount", "decimal(10,2)", "주문 금액", 3)

	want := "Table: shop.orders\n" +
		"Description: 주문\n" +
		"- id (int): 주문 ID [PK]\n" +
		"- customer_id (int) [FK → customers.id]\n" +
		"- amount (decimal(10,2)): 주문 금액"

	assert.Equal(t, want, FormatMetadata([]models.ColumnWithTable{amount, pk, fk}))
	assert.Equal(t, want, FormatMetadata([]models.ColumnWithTable{fk, amount, pk}))
}

func TestFormatMetadata_TablesInFirstAppearanceOrder(t *testing.T) {
	got := FormatMetadata([]models.ColumnWithTable{
		col("shop", "orders", "주문", "id", "int", "", 1),
		col("", "customers", "고객", "id", "int", "", 1),
		col("shop", "orders", "주문", "total", "int", "", 2),
	})

	want := "Table: shop.orders\nDescription: 주문\n- id (int)\n- total (int)\n\n" +
		"Table: default.customers\nDescription: 고객\n- id (int)"
	assert.Equal(t, want, got)
}

func TestFormatMetadata_FKTagNeedsBothTargets(t *testing.T) {
	c := col("shop", "orders", "", "customer_id", "int", "", 1)
	c.IsForeignKey = true
	c.ForeignKeyTable = strPtr("customers")

	assert.Equal(t, "- customer_id (int)", formatColumnLine(c.Column))

	c.IsPrimaryKey = true
	c.ForeignKeyColumn = strPtr("id")
	assert.Equal(t, "- customer_id (int) [PK | FK → customers.id]", formatColumnLine(c.Column))
}

func TestFormatMetadata_Empty(t *testing.T) {
	assert.Equal(t, "", FormatMetadata(nil))
}
