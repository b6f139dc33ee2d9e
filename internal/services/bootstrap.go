package services

import "fmt"

// InitializeServices registers and initializes the full service set in
// dependency order: configuration first, so every file-backed service can
// resolve the storage directory during its own Initialize.
func InitializeServices() error {
	registry := GetGlobalRegistry()

	ordered := []Service{
		NewConfigurationService(),
		NewProfileService(),
		NewMemoryService(),
		NewMissionService(),
		NewPromptService(),
		NewChatService(),
		NewResearchService(),
		NewSyncService(),
	}

	for _, service := range ordered {
		if registry.HasService(service.Name()) {
			continue
		}
		if err := registry.RegisterService(service); err != nil {
			return err
		}
	}

	for _, service := range ordered {
		resolved, err := registry.GetService(service.Name())
		if err != nil {
			return err
		}
		if err := resolved.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize service %s: %w", service.Name(), err)
		}
	}
	return nil
}
