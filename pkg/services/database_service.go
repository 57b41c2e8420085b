package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/adapters/datasource"
	"github.com/ydh4481/llm-ddp/pkg/apperrors"
	"github.com/ydh4481/llm-ddp/pkg/crypto"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/repositories"
)

// Connection check messages returned to API callers.
const (
	MsgNoConnectionInfo  = "No connection info provided"
	MsgInvalidJSON       = "Invalid JSON format in connection_info"
	MsgConnectFailed     = "Failed to connect to the database"
	MsgConnectSuccessful = "Connection successful"
)

// ConnectionCheck is the outcome of a connectivity probe.
type ConnectionCheck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DatabaseService manages registered target databases. Connection
// descriptors are sealed before they reach the repository.
type DatabaseService interface {
	// Create registers a database. When probe is set the descriptor must connect.
	Create(ctx context.Context, db *models.Database, probe bool) (*models.Database, error)

	// Get returns the database with its decrypted connection info.
	Get(ctx context.Context, id int64) (*models.Database, error)

	List(ctx context.Context) ([]*models.Database, error)

	// Update overwrites names and description. A non-empty ConnectionInfo
	// replaces the stored descriptor.
	Update(ctx context.Context, db *models.Database, probe bool) (*models.Database, error)

	Delete(ctx context.Context, id int64) error

	// CheckConnection probes a descriptor without storing it.
	CheckConnection(ctx context.Context, engine, descriptor string) *ConnectionCheck

	// Connect opens a scoped connection to a stored database. The caller must Close it.
	Connect(ctx context.Context, id int64) (datasource.Connection, *models.Database, error)
}

type databaseService struct {
	repo    repositories.DatabaseRepository
	cipher  *crypto.DescriptorCipher
	factory datasource.AdapterFactory
	logger  *zap.Logger
}

// NewDatabaseService creates a new database service with dependencies.
func NewDatabaseService(
	repo repositories.DatabaseRepository,
	cipher *crypto.DescriptorCipher,
	factory datasource.AdapterFactory,
	logger *zap.Logger,
) DatabaseService {
	return &databaseService{
		repo:    repo,
		cipher:  cipher,
		factory: factory,
		logger:  logger.Named("database-service"),
	}
}

func (s *databaseService) Create(ctx context.Context, db *models.Database, probe bool) (*models.Database, error) {
	if strings.TrimSpace(db.EngName) == "" {
		return nil, fmt.Errorf("%w: eng_name is required", apperrors.ErrInvalidInput)
	}
	if db.Engine == "" {
		db.Engine = models.DefaultEngine
	}

	sealed, err := s.prepareDescriptor(ctx, db.Engine, db.ConnectionInfo, probe)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, db, sealed); err != nil {
		return nil, err
	}

	s.logger.Info("Registered database",
		zap.Int64("id", db.ID),
		zap.String("eng_name", db.EngName),
		zap.String("engine", db.Engine))
	return db, nil
}

// prepareDescriptor validates, optionally probes and seals a descriptor.
func (s *databaseService) prepareDescriptor(ctx context.Context, engine, descriptor string, probe bool) (string, error) {
	if err := s.factory.Validate(engine, descriptor); err != nil {
		return "", err
	}
	if probe {
		if err := s.factory.Probe(ctx, engine, descriptor); err != nil {
			return "", err
		}
	}
	sealed, err := s.cipher.Seal(descriptor)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt connection info: %w", err)
	}
	return sealed, nil
}

func (s *databaseService) Get(ctx context.Context, id int64) (*models.Database, error) {
	db, sealed, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	descriptor, err := s.cipher.Open(sealed)
	if err != nil {
		s.logger.Error("Failed to decrypt connection info",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("%w: database %d", apperrors.ErrCredentialsKeyMismatch, id)
	}
	db.ConnectionInfo = descriptor
	return db, nil
}

func (s *databaseService) List(ctx context.Context) ([]*models.Database, error) {
	return s.repo.List(ctx)
}

func (s *databaseService) Update(ctx context.Context, db *models.Database, probe bool) (*models.Database, error) {
	if strings.TrimSpace(db.EngName) == "" {
		return nil, fmt.Errorf("%w: eng_name is required", apperrors.ErrInvalidInput)
	}

	var sealed string
	if db.ConnectionInfo != "" {
		existing, _, err := s.repo.Get(ctx, db.ID)
		if err != nil {
			return nil, err
		}
		sealed, err = s.prepareDescriptor(ctx, existing.Engine, db.ConnectionInfo, probe)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, db, sealed); err != nil {
		return nil, err
	}

	s.logger.Info("Updated database",
		zap.Int64("id", db.ID),
		zap.Bool("descriptor_replaced", sealed != ""))
	return db, nil
}

func (s *databaseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted database", zap.Int64("id", id))
	return nil
}

func (s *databaseService) CheckConnection(ctx context.Context, engine, descriptor string) *ConnectionCheck {
	if strings.TrimSpace(descriptor) == "" {
		return &ConnectionCheck{Message: MsgNoConnectionInfo}
	}
	if !json.Valid([]byte(descriptor)) {
		return &ConnectionCheck{Message: MsgInvalidJSON}
	}
	if engine == "" {
		engine = models.DefaultEngine
	}

	if err := s.factory.Probe(ctx, engine, descriptor); err != nil {
		s.logger.Info("Connection probe failed", zap.Error(err))
		if errors.Is(err, apperrors.ErrConnectionFailed) {
			return &ConnectionCheck{Message: MsgConnectFailed}
		}
		return &ConnectionCheck{Message: "Connection failed: " + err.Error()}
	}
	return &ConnectionCheck{Success: true, Message: MsgConnectSuccessful}
}

func (s *databaseService) Connect(ctx context.Context, id int64) (datasource.Connection, *models.Database, error) {
	db, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	conn, err := s.factory.Open(ctx, db.Engine, db.ConnectionInfo)
	if err != nil {
		if errors.Is(err, apperrors.ErrConnectionFailed) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrConnectionFailed, err)
	}
	return conn, db, nil
}

var _ DatabaseService = (*databaseService)(nil)
