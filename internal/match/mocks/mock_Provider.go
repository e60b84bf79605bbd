// Package mocks provides test doubles for the match record provider.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/cart-monitor/internal/model"
)

// MockProvider is a mock type for the Provider interface.
type MockProvider struct {
	mock.Mock
}

// Dates provides a mock function with given fields: ctx
func (_m *MockProvider) Dates(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Dates")
	}

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]string, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) []string); ok {
		r0 = rf(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]string)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Load provides a mock function with given fields: ctx, src, date
func (_m *MockProvider) Load(ctx context.Context, src model.Source, date string) (*model.RecordSet, error) {
	ret := _m.Called(ctx, src, date)

	if len(ret) == 0 {
		panic("no return value specified for Load")
	}

	var r0 *model.RecordSet
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Source, string) (*model.RecordSet, error)); ok {
		return rf(ctx, src, date)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.Source, string) *model.RecordSet); ok {
		r0 = rf(ctx, src, date)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.RecordSet)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.Source, string) error); ok {
		r1 = rf(ctx, src, date)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockProvider creates a new instance of MockProvider.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	mock := &MockProvider{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
