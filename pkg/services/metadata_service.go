package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/repositories"
)

// errNoCatalogedTables is returned when a database has nothing to select from.
var errNoCatalogedTables = fmt.Errorf("%w: no tables found for the given database", apperrors.ErrNoRelevantTables)

// MetadataService renders the catalog of a database for prompts and views.
type MetadataService interface {
	// FormattedMetadata renders every cataloged column of a database.
	FormattedMetadata(ctx context.Context, databaseID int64) (string, error)

	// FilteredMetadata lets the table selector pick tables for the question
	// and renders only their columns. An empty selection is ErrNoRelevantTables.
	FilteredMetadata(ctx context.Context, databaseID int64, question string) (string, error)

	// GroupedMetadata returns every table with its columns, ordered by column_seq.
	GroupedMetadata(ctx context.Context, databaseID int64) ([]*TableDetail, error)
}

type metadataService struct {
	databases repositories.DatabaseRepository
	catalog   repositories.CatalogRepository
	selector  TableSelector
	logger    *zap.Logger
}

// NewMetadataService creates a new metadata service with dependencies.
func NewMetadataService(
	databases repositories.DatabaseRepository,
	catalog repositories.CatalogRepository,
	selector TableSelector,
	logger *zap.Logger,
) MetadataService {
	return &metadataService{
		databases: databases,
		catalog:   catalog,
		selector:  selector,
		logger:    logger.Named("metadata-service"),
	}
}

func (s *metadataService) FormattedMetadata(ctx context.Context, databaseID int64) (string, error) {
	if _, _, err := s.databases.Get(ctx, databaseID); err != nil {
		return "", err
	}

	columns, err := s.catalog.ListColumnsWithTable(ctx, databaseID, nil)
	if err != nil {
		return "", err
	}
	return FormatMetadata(columns), nil
}

func (s *metadataService) FilteredMetadata(ctx context.Context, databaseID int64, question string) (string, error) {
	if _, _, err := s.databases.Get(ctx, databaseID); err != nil {
		return "", err
	}

	tables, err := s.catalog.ListTables(ctx, databaseID)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		return "", errNoCatalogedTables
	}

	summaries := make([]models.TableSummary, len(tables))
	for i, t := range tables {
		summaries[i] = models.TableSummary{ID: t.ID, Name: t.Name, Description: t.Description}
	}

	selected, err := s.selector.Select(ctx, question, summaries)
	if err != nil {
		return "", err
	}
	if len(selected) == 0 {
		return "", fmt.Errorf("%w: no relevant tables found by LLM", apperrors.ErrNoRelevantTables)
	}

	columns, err := s.catalog.ListColumnsWithTable(ctx, databaseID, selected)
	if err != nil {
		return "", err
	}

	s.logger.Debug("Filtered metadata",
		zap.Int64("database_id", databaseID),
		zap.Int("tables", len(selected)),
		zap.Int("columns", len(columns)))
	return FormatMetadata(columns), nil
}

func (s *metadataService) GroupedMetadata(ctx context.Context, databaseID int64) ([]*TableDetail, error) {
	if _, _, err := s.databases.Get(ctx, databaseID); err != nil {
		return nil, err
	}

	tables, err := s.catalog.ListTables(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	columns, err := s.catalog.ListColumnsWithTable(ctx, databaseID, nil)
	if err != nil {
		return nil, err
	}

	byTable := make(map[int64][]*models.Column, len(tables))
	for i := range columns {
		c := columns[i].Column
		byTable[c.TableID] = append(byTable[c.TableID], &c)
	}

	grouped := make([]*TableDetail, 0, len(tables))
	for _, t := range tables {
		cols := byTable[t.ID]
		if cols == nil {
			cols = []*models.Column{}
		}
		grouped = append(grouped, &TableDetail{Table: t, Columns: cols})
	}
	return grouped, nil
}

var _ MetadataService = (*metadataService)(nil)
