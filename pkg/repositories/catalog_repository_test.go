//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/testhelpers"
)

type catalogTestContext struct {
	t          *testing.T
	catalog    *testhelpers.CatalogDB
	databases  DatabaseRepository
	repo       CatalogRepository
	databaseID int64
}

func setupCatalogTest(t *testing.T) *catalogTestContext {
	t.Helper()

	catalog := testhelpers.GetCatalogDB(t)
	catalog.Reset(t)

	tc := &catalogTestContext{
		t:         t,
		catalog:   catalog,
		databases: NewDatabaseRepository(catalog.DB),
		repo:      NewCatalogRepository(catalog.DB),
	}

	db := &models.Database{EngName: "shop", KorName: "쇼핑몰"}
	require.NoError(t, tc.databases.Create(context.Background(), db, "sealed"))
	tc.databaseID = db.ID
	return tc
}

func strPtr(s string) *string { return &s }

func TestCatalogRepository_UpsertTablesFirstWriteWins(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	first, err := tc.repo.UpsertTables(ctx, tc.databaseID, []models.TableInput{
		{SchemaName: "shop", Name: "orders", Description: "주문"},
	})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := tc.repo.UpsertTables(ctx, tc.databaseID, []models.TableInput{
		{SchemaName: "shop", Name: "orders", Description: "changed"},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "주문", second[0].Description)

	tables, err := tc.repo.ListTables(ctx, tc.databaseID)
	require.NoError(t, err)
	assert.Len(t, tables, 1)
}

func TestCatalogRepository_UpsertColumnsKeepsDescription(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	table, _, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{{Name: "amount", Description: "주문 금액", DataType: "int", ColumnSeq: 1}})
	require.NoError(t, err)

	cols, err := tc.repo.UpsertColumns(ctx, table.ID, []models.ColumnInput{
		{Name: "amount", Description: "changed", DataType: "bigint", ColumnSeq: 1},
	})
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "주문 금액", cols[0].Description)
	assert.Equal(t, "bigint", cols[0].DataType, "structural fields follow the latest import")

	all, err := tc.repo.ListColumns(ctx, table.ID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCatalogRepository_ListColumnsWithTableOrdering(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	orders, _, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders", Description: "주문"},
		[]models.ColumnInput{
			{Name: "order_date", DataType: "date", ColumnSeq: 3},
			{Name: "id", DataType: "int", ColumnSeq: 1, IsPrimaryKey: true},
			{Name: "customer_id", DataType: "int", ColumnSeq: 2, IsForeignKey: true,
				ForeignKeyTable: strPtr("customers"), ForeignKeyColumn: strPtr("id")},
		})
	require.NoError(t, err)

	customers, _, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "customers"},
		[]models.ColumnInput{{Name: "id", DataType: "int", ColumnSeq: 1}})
	require.NoError(t, err)

	all, err := tc.repo.ListColumnsWithTable(ctx, tc.databaseID, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)

	var names []string
	for _, c := range all {
		names = append(names, c.TableName+"."+c.Name)
	}
	assert.Equal(t, []string{"customers.id", "orders.id", "orders.customer_id", "orders.order_date"}, names)
	assert.Equal(t, "customers", *all[2].ForeignKeyTable)

	filtered, err := tc.repo.ListColumnsWithTable(ctx, tc.databaseID, []int64{orders.ID})
	require.NoError(t, err)
	assert.Len(t, filtered, 3)

	byIDs, err := tc.repo.ListTablesByIDs(ctx, tc.databaseID, []int64{customers.ID, 999999})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, "customers", byIDs[0].Name)
}

func TestCatalogRepository_ResyncWithShiftedOrdinals(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	table, _, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{
			{Name: "a", Description: "first", DataType: "int", ColumnSeq: 1},
			{Name: "b", DataType: "int", ColumnSeq: 2},
			{Name: "c", DataType: "int", ColumnSeq: 3},
		})
	require.NoError(t, err)

	// d was added in the middle of the live table.
	_, cols, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{
			{Name: "a", Description: "changed", DataType: "int", ColumnSeq: 1},
			{Name: "d", DataType: "text", ColumnSeq: 2},
			{Name: "b", DataType: "int", ColumnSeq: 3},
			{Name: "c", DataType: "int", ColumnSeq: 4},
		})
	require.NoError(t, err)
	require.Len(t, cols, 4)

	all, err := tc.repo.ListColumns(ctx, table.ID)
	require.NoError(t, err)
	require.Len(t, all, 4)

	got := map[string]int{}
	var order []string
	for _, c := range all {
		got[c.Name] = c.ColumnSeq
		order = append(order, c.Name)
	}
	assert.Equal(t, map[string]int{"a": 1, "d": 2, "b": 3, "c": 4}, got)
	assert.Equal(t, []string{"a", "d", "b", "c"}, order)
	assert.Equal(t, "first", all[0].Description)
}

func TestCatalogRepository_ResyncReleasesStalePositions(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	table, _, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{
			{Name: "a", ColumnSeq: 1},
			{Name: "b", ColumnSeq: 2},
			{Name: "c", ColumnSeq: 3},
		})
	require.NoError(t, err)

	// b was dropped from the live table; c moved up to its position.
	_, _, err = tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{
			{Name: "a", ColumnSeq: 1},
			{Name: "c", ColumnSeq: 2},
		})
	require.NoError(t, err)

	all, err := tc.repo.ListColumns(ctx, table.ID)
	require.NoError(t, err)
	got := map[string]int{}
	for _, c := range all {
		got[c.Name] = c.ColumnSeq
	}
	assert.Equal(t, map[string]int{"a": 1, "b": -1, "c": 2}, got)
}

func TestCatalogRepository_DuplicateColumnSeqConflicts(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	_, _, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{
			{Name: "a", ColumnSeq: 1},
			{Name: "b", ColumnSeq: 1},
		})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Nothing from the failed transaction is committed.
	tables, err := tc.repo.ListTables(ctx, tc.databaseID)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestCatalogRepository_TableAndColumnEdits(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	table, cols, err := tc.repo.UpsertTableWithColumns(ctx, tc.databaseID,
		models.TableInput{SchemaName: "shop", Name: "orders"},
		[]models.ColumnInput{{Name: "amount", DataType: "int", ColumnSeq: 1}})
	require.NoError(t, err)

	table.Description = "주문 내역"
	require.NoError(t, tc.repo.UpdateTable(ctx, table))
	got, err := tc.repo.GetTable(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, "주문 내역", got.Description)

	col := cols[0]
	col.Description = "금액"
	require.NoError(t, tc.repo.UpdateColumn(ctx, col))
	gotCol, err := tc.repo.GetColumn(ctx, col.ID)
	require.NoError(t, err)
	assert.Equal(t, "금액", gotCol.Description)

	require.NoError(t, tc.repo.DeleteColumn(ctx, col.ID))
	_, err = tc.repo.GetColumn(ctx, col.ID)
	assert.ErrorIs(t, err, apperrors.ErrColumnNotFound)

	require.NoError(t, tc.repo.DeleteTable(ctx, table.ID))
	_, err = tc.repo.GetTable(ctx, table.ID)
	assert.ErrorIs(t, err, apperrors.ErrTableNotFound)
	assert.ErrorIs(t, tc.repo.DeleteTable(ctx, table.ID), apperrors.ErrNotFound)
}

func TestCatalogRepository_UnknownDatabase(t *testing.T) {
	tc := setupCatalogTest(t)

	_, err := tc.repo.UpsertTables(context.Background(), tc.databaseID+1000, []models.TableInput{{Name: "orders"}})
	assert.ErrorIs(t, err, apperrors.ErrDatabaseNotFound)
}
