//go:build integration

package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/testhelpers"
)

func openShop(t *testing.T) *Adapter {
	t.Helper()
	target := testhelpers.GetTargetDB(t)

	a, err := Open(context.Background(), target.Descriptor, datasource.Options{
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
		Logger:         zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestIntegration_IntrospectShop(t *testing.T) {
	a := openShop(t)
	ctx := context.Background()

	require.NoError(t, a.TestConnection(ctx))

	schemas, err := a.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Contains(t, schemas, "shop")
	assert.NotContains(t, schemas, "mysql")

	facts, err := a.IntrospectColumns(ctx, []string{"shop"})
	require.NoError(t, err)

	tables := datasource.GroupByTable(facts)
	require.Len(t, tables, 2)
	assert.Equal(t, "customers", tables[0].TableName)
	assert.Equal(t, "orders", tables[1].TableName)
	assert.Equal(t, "주문", tables[1].TableDescription)

	var customerID datasource.ColumnFact
	for _, c := range tables[1].Columns {
		if c.ColumnName == "customer_id" {
			customerID = c
		}
	}
	assert.True(t, customerID.IsForeignKey)
	require.NotNil(t, customerID.ForeignKeyTable)
	assert.Equal(t, "customers", *customerID.ForeignKeyTable)

	// One row per column even with a foreign key constraint present.
	assert.Len(t, tables[1].Columns, 4)
}

func TestIntegration_ExecuteSum(t *testing.T) {
	a := openShop(t)

	result, err := a.Execute(context.Background(),
		"SELECT SUM(amount) AS total FROM orders WHERE order_date BETWEEN '2023-01-01' AND '2023-12-31'")
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount)
	assert.Equal(t, []string{"total"}, result.Columns)
	assert.Equal(t, "150000", result.Rows[0][0])
}
