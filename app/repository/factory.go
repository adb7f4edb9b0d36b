package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetAllowedDomainRepository returns the allowed-domain repository instance
func (f *Factory) GetAllowedDomainRepository() AllowedDomainRepository {
	return f.GetRepositories().AllowedDomain
}

// GetCloneRepository returns the clone repository instance
func (f *Factory) GetCloneRepository() CloneRepository {
	return f.GetRepositories().Clone
}

// GetSubscriptionRepository returns the subscription repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetCloneActionRepository returns the clone-action repository instance
func (f *Factory) GetCloneActionRepository() CloneActionRepository {
	return f.GetRepositories().CloneAction
}

// GetScriptTokenRepository returns the script-token repository instance
func (f *Factory) GetScriptTokenRepository() ScriptTokenRepository {
	return f.GetRepositories().ScriptToken
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
