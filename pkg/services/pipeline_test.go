package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource/mysql"
	"github.com/ydh4481/llm-ddp/pkg/audit"
	"github.com/ydh4481/llm-ddp/pkg/llm"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/retry"
)

// TestPipeline_QuestionToSummary drives a question through selection,
// generation, execution against a scripted MySQL connection and summary.
func TestPipeline_QuestionToSummary(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	const generatedQuery = "SELECT SUM(total_amount) AS total FROM shop.orders WHERE order_date BETWEEN '2023-01-01' AND '2023-12-31';"
	const executedQuery = "SELECT SUM(total_amount) AS total FROM shop.orders WHERE order_date BETWEEN '2023-01-01' AND '2023-12-31'"
	mock.ExpectQuery(executedQuery).WillReturnRows(
		sqlmock.NewRows([]string{"total"}).AddRow([]byte("1250000.00")))
	mock.ExpectClose()

	factory := &mockAdapterFactory{
		OpenFunc: func(ctx context.Context, engine, descriptor string) (datasource.Connection, error) {
			cfg, err := mysql.ParseDescriptor(descriptor)
			if err != nil {
				return nil, err
			}
			return mysql.WrapDB(cfg, db, datasource.Options{Logger: logger}), nil
		},
	}

	databaseRepo := newMockDatabaseRepository()
	catalogRepo := newMockCatalogRepository()
	sessions := newMockSessionRepository()
	executions := &mockExecutionLogRepository{}

	dbs := newTestDatabaseService(t, databaseRepo, factory)
	catalog := NewCatalogService(catalogRepo, dbs, factory, logger)

	shop, err := dbs.Create(ctx, &models.Database{EngName: "shop", KorName: "쇼핑몰", ConnectionInfo: shopDescriptor}, false)
	require.NoError(t, err)

	fkTable, fkColumn := "users", "user_id"
	_, err = catalog.Import(ctx, shop.ID, []models.TableMetadata{
		{
			SchemaName: "shop", TableName: "users", TableDescription: "회원",
			Columns: []models.ColumnInput{{Name: "user_id", DataType: "int", ColumnSeq: 1, IsPrimaryKey: true}},
		},
		{
			SchemaName: "shop", TableName: "orders", TableDescription: "주문",
			Columns: []models.ColumnInput{
				{Name: "order_id", DataType: "int", Description: "주문 ID", ColumnSeq: 1, IsPrimaryKey: true},
				{Name: "user_id", DataType: "int", Description: "주문 회원", ColumnSeq: 2,
					IsForeignKey: true, ForeignKeyTable: &fkTable, ForeignKeyColumn: &fkColumn},
				{Name: "total_amount", DataType: "decimal(12,2)", Description: "주문 금액", ColumnSeq: 3},
				{Name: "order_date", DataType: "date", Description: "주문일", ColumnSeq: 4},
			},
		},
	})
	require.NoError(t, err)

	tables, err := catalog.ListTables(ctx, shop.ID)
	require.NoError(t, err)
	var ordersID int64
	for _, tbl := range tables {
		if tbl.Name == "orders" {
			ordersID = tbl.ID
		}
	}
	require.NotZero(t, ordersID)

	record := func(agent string, inner llm.LLMClient) llm.LLMClient {
		return llm.NewRecordingClient(inner, sessions, llm.RecordingConfig{Agent: agent, Retry: retry.DefaultConfig().WithMaxRetries(0)}, logger)
	}
	selectorLLM := llm.NewStaticMockLLMClient("```json\n{\"relevant_tables\": ["+itoa(ordersID)+"]}\n```", "")
	generatorLLM := llm.NewStaticMockLLMClient(`{"query": "`+generatedQuery+`", "result": "SUCCESS"}`, "")
	summarizerLLM := llm.NewStaticMockLLMClient(`{"summary": "2023년 주문 총액은 1,250,000원입니다.", "chart": {"type": "bar", "x_axis": "total", "y_axis": "total"}}`, "")

	metadata := NewMetadataService(databaseRepo, catalogRepo, NewTableSelector(record(models.AgentTableSelector, selectorLLM), logger), logger)
	auditor := audit.NewSecurityAuditor(logger)
	generation := NewSQLGenerationService(metadata, NewQueryGenerator(record(models.AgentQueryGenerator, generatorLLM), nil, logger), auditor, logger)
	execution := NewQueryExecutionService(dbs, sessions, executions, NewResultSummarizer(record(models.AgentResultSummarizer, summarizerLLM), logger), auditor, logger)

	generated, err := generation.Generate(ctx, shop.ID, "2023년 주문 총액은?")
	require.NoError(t, err)
	require.True(t, generated.OK())
	require.NotEmpty(t, generated.SessionID)
	assert.Equal(t, generatedQuery, generated.Query)

	session, err := sessions.GetByID(ctx, generated.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.AgentQueryGenerator, session.Agent)
	assert.Equal(t, "2023년 주문 총액은?", session.Question)
	stored := ParseGenerationContent(session.ResponseContent)
	require.True(t, stored.OK())
	assert.Equal(t, generatedQuery, stored.Query)

	result, err := execution.Execute(ctx, shop.ID, generated.SessionID, true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowCount)
	assert.Equal(t, []string{"total"}, result.Columns)
	assert.Equal(t, [][]any{{"1250000.00"}}, result.Rows)
	assert.Equal(t, "2023년 주문 총액은 1,250,000원입니다.", result.Summary)
	require.NotNil(t, result.Chart)
	assert.Equal(t, []string{"total"}, []string(result.Chart.XAxis))

	logs := executions.all()
	require.Len(t, logs, 1)
	assert.Equal(t, generated.Query, logs[0].Query)
	assert.Equal(t, generated.SessionID, *logs[0].LLMLogID)

	assert.Contains(t, selectorLLM.Prompts[0], "orders: (주문)")
	assert.Contains(t, generatorLLM.Prompts[0], "Table: shop.orders")
	assert.Contains(t, generatorLLM.Prompts[0], "- order_id (int): 주문 ID [PK]")
	assert.Contains(t, generatorLLM.Prompts[0], "- user_id (int): 주문 회원 [FK → users.user_id]")
	assert.NotContains(t, generatorLLM.Prompts[0], "Table: shop.users")
	require.NoError(t, mock.ExpectationsWereMet())
}
