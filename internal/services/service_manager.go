package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/training-assessment-service/internal/cache"
	"github.com/SAP-F-2025/training-assessment-service/internal/events"
	"github.com/SAP-F-2025/training-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/training-assessment-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Workflow WorkflowConfig
	Report   ReportConfig
}

// DefaultServiceManagerConfig uses the 70% weak-module and 60% at-risk
// thresholds
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		Workflow: WorkflowConfig{WeakModuleThreshold: 70},
		Report:   ReportConfig{AtRiskThreshold: 60},
	}
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	publisher events.EventPublisher
	config    ServiceManagerConfig

	// Service instances
	gradingService   GradingService
	workflowService  WorkflowService
	attemptService   AttemptService
	dashboardService DashboardService
	studentService   StudentService
	reportService    ReportService
	exportService    ExportService
	trainingEvents   TrainingEventHandler

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(
	db *gorm.DB,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	config ServiceManagerConfig,
) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		publisher: publisher,
		config:    config,
	}
}

// Initialize wires every service in dependency order
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.gradingService = NewGradingService(sm.db, sm.repo, sm.logger)
	sm.workflowService = NewWorkflowService(sm.repo, sm.db, sm.logger, sm.validator, sm.cache, sm.gradingService, sm.publisher, sm.config.Workflow)
	sm.attemptService = NewAttemptService(sm.repo, sm.db, sm.logger, sm.validator, sm.cache, sm.workflowService, sm.gradingService, sm.publisher)
	sm.dashboardService = NewDashboardService(sm.repo, sm.db, sm.logger, sm.validator, sm.cache, sm.workflowService, sm.config.Report)
	sm.studentService = NewStudentService(sm.repo, sm.db, sm.logger, sm.workflowService)
	sm.reportService = NewReportService(sm.repo, sm.db, sm.logger, sm.validator, sm.cache, sm.config.Report)
	sm.exportService = NewExportService(sm.reportService, sm.logger)
	sm.trainingEvents = NewTrainingEventHandler(sm.workflowService, sm.validator, sm.logger)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.gradingService
}

func (sm *serviceManager) Workflow() WorkflowService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.workflowService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.attemptService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dashboardService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.studentService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.reportService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.exportService
}

func (sm *serviceManager) TrainingEvents() TrainingEventHandler {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.trainingEvents
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
