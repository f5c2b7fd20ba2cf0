// Package mocks provides mock implementations of the ports used by the session flow.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAuthAPI(ctrl)
//	api.EXPECT().Login(gomock.Any(), gomock.Any()).Return(result, nil)
package mocks

// Generate mock for AuthAPI interface from internal/ports package.
// This creates MockAuthAPI with methods for all AuthAPI interface methods:
// SetAuthHeader, AuthHeader, Login, Register, Profile
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/target/profile-portal/internal/ports AuthAPI

// Generate mock for TokenStore interface from internal/ports package.
// This creates MockTokenStore with methods for all TokenStore interface methods:
// Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/target/profile-portal/internal/ports TokenStore
