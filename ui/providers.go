package ui

import (
	"fmt"
	"time"

	"light-chat/auth"
	"light-chat/llm"
	"light-chat/utils"
)

// NewProviderFromConfig builds the completion provider. With remote set the
// gateway is used instead of talking to a model vendor directly.
func NewProviderFromConfig(config *utils.Config, remote bool, logger *utils.Logger) (llm.Provider, error) {
	if remote {
		provider, err := llm.NewRemoteProvider(llm.Config{
			BaseURL:  config.Server.GatewayURL,
			ProxyURL: config.ProxyURL(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gateway provider: %w", err)
		}
		logger.Info("Using gateway at %s", config.Server.GatewayURL)
		return provider, nil
	}

	name, providerConfig, err := config.Provider("")
	if err != nil {
		return nil, err
	}

	displayName := providerConfig.DisplayName
	if displayName == "" {
		displayName = name
	}
	kind := providerConfig.Kind
	if kind == "" {
		kind = name
	}

	provider, err := llm.NewProvider(kind, llm.Config{
		ProviderName: displayName,
		APIKey:       providerConfig.APIKey,
		BaseURL:      providerConfig.BaseURL,
		Model:        providerConfig.DefaultModel,
		Models:       providerConfig.Models,
		Timeout:      providerConfig.Timeout,
		MaxTokens:    providerConfig.MaxTokens,
		Temperature:  providerConfig.Temperature,
		ProxyURL:     config.ProxyURL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s provider: %w", name, err)
	}
	if err := provider.ValidateConfig(); err != nil {
		// not fatal; the first completion will fail and be logged
		logger.Warn("Provider %s is not fully configured: %v", name, err)
	}
	logger.Info("%s provider initialized successfully", name)
	return provider, nil
}

// NewAuthenticatorFromConfig checks credentials locally, or against the gateway when remote is set
func NewAuthenticatorFromConfig(config *utils.Config, remote bool, logger *utils.Logger) auth.Authenticator {
	if remote {
		return auth.NewRemote(config.Server.GatewayURL, 30*time.Second)
	}
	return auth.NewStatic(config.Auth.AdminEmail, config.Auth.AdminPassword, logger)
}
