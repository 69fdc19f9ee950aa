// Package mocks provides gomock implementations of the repository ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	visits := mocks.NewMockVisitRepository(ctrl)
//	visits.EXPECT().Latest(gomock.Any(), int64(7)).Return(nil, nil)
package mocks

// Generate mock for VisitRepository interface from internal/ports package.
// Methods: Create, GetByID, Latest, Close, UpdateNotes, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=visit_repository_mock.go github.com/dewv/nlc-visits/internal/ports VisitRepository
