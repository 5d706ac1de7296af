// Package di provides dependency injection container for managing service lifecycle and dependencies.
package di

import (
	"context"
	"sync"

	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
	"civicfeedback/internal/serviceinterfaces"
	"civicfeedback/internal/services"
	"civicfeedback/internal/slot"
	"civicfeedback/internal/store"
	contextutils "civicfeedback/internal/utils"
)

// Service names registered by Initialize
const (
	ServiceIdentity  = "identity"
	ServiceFeedback  = "feedback"
	ServiceAnalytics = "analytics"
	ServiceEmail     = "email"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetIdentityService() (serviceinterfaces.IdentityServiceInterface, error)
	GetFeedbackService() (serviceinterfaces.FeedbackServiceInterface, error)
	GetAnalyticsService() (serviceinterfaces.AnalyticsServiceInterface, error)
	GetEmailService() (serviceinterfaces.EmailService, error)
	GetStore() *store.Store
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	EnsureAdminUser(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	slot          slot.Slot
	store         *store.Store
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

var _ ServiceContainerInterface = (*ServiceContainer)(nil)

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// NewServiceContainerWithSlot creates a container that persists through an existing slot
// instead of opening the configured backend.
func NewServiceContainerWithSlot(cfg *config.Config, logger *observability.Logger, s slot.Slot) *ServiceContainer {
	sc := NewServiceContainer(cfg, logger)
	sc.slot = s
	return sc
}

// Initialize opens the durable slot, loads the record store and wires the services
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.slot == nil {
		s, err := slot.New(ctx, sc.cfg, sc.logger)
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to open %s store backend", sc.cfg.Store.Backend)
		}
		sc.slot = s
	}

	st, err := store.New(sc.slot, sc.logger, store.Options{
		IDStrategy: sc.cfg.Store.IDStrategy,
		BcryptCost: sc.cfg.Auth.BcryptCost,
	})
	if err != nil {
		_ = sc.slot.Close()
		return contextutils.WrapErrorf(err, "failed to create record store")
	}
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return st.Close()
	})

	if err := st.Load(ctx); err != nil {
		_ = sc.cleanup(ctx)
		return contextutils.WrapErrorf(err, "failed to load records")
	}
	sc.store = st

	sc.initializeServices()

	sc.logger.Info(ctx, "Service container initialized", map[string]interface{}{
		"backend":     st.Backend(),
		"id_strategy": sc.cfg.Store.IDStrategy,
	})
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices() {
	metrics := observability.NewDomainMetrics()

	emailService := services.CreateEmailService(sc.cfg, sc.logger)
	sc.services[ServiceEmail] = emailService

	sc.services[ServiceIdentity] = services.NewIdentityService(sc.store, sc.cfg, sc.logger, metrics)
	sc.services[ServiceFeedback] = services.NewFeedbackService(sc.store, emailService, sc.cfg.Feedback, sc.logger, metrics)
	sc.services[ServiceAnalytics] = services.NewAnalyticsService(sc.store)
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetIdentityService returns the identity service
func (sc *ServiceContainer) GetIdentityService() (serviceinterfaces.IdentityServiceInterface, error) {
	return GetServiceAs[serviceinterfaces.IdentityServiceInterface](sc, ServiceIdentity)
}

// GetFeedbackService returns the feedback service
func (sc *ServiceContainer) GetFeedbackService() (serviceinterfaces.FeedbackServiceInterface, error) {
	return GetServiceAs[serviceinterfaces.FeedbackServiceInterface](sc, ServiceFeedback)
}

// GetAnalyticsService returns the analytics service
func (sc *ServiceContainer) GetAnalyticsService() (serviceinterfaces.AnalyticsServiceInterface, error) {
	return GetServiceAs[serviceinterfaces.AnalyticsServiceInterface](sc, ServiceAnalytics)
}

// GetEmailService returns the email service
func (sc *ServiceContainer) GetEmailService() (serviceinterfaces.EmailService, error) {
	return GetServiceAs[serviceinterfaces.EmailService](sc, ServiceEmail)
}

// GetStore returns the record store, nil before Initialize
func (sc *ServiceContainer) GetStore() *store.Store {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.store
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// EnsureAdminUser creates the configured admin account if it does not exist yet
func (sc *ServiceContainer) EnsureAdminUser(ctx context.Context) error {
	identityService, err := sc.GetIdentityService()
	if err != nil {
		return err
	}
	return identityService.EnsureAdminUser(ctx, sc.cfg.Server.AdminEmail, sc.cfg.Server.AdminPassword)
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup runs the shutdown functions in reverse order of registration
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			sc.logger.Error(ctx, "Shutdown step failed", err)
			errs = append(errs, err)
		}
	}
	sc.shutdownFuncs = nil

	if len(errs) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errs)
	}
	return nil
}
