// Package mocks provides testify mocks for the adapter interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"a11yfix.dev/pkg/a11yfix/internal/adapter"
)

// MockOracle is a mock type for the adapter.Oracle interface.
type MockOracle struct {
	mock.Mock
}

// MockOracle_Expecter wraps the mock with typed expectation builders.
type MockOracle_Expecter struct {
	mock *mock.Mock
}

// EXPECT returns the typed expectation builder.
func (_m *MockOracle) EXPECT() *MockOracle_Expecter {
	return &MockOracle_Expecter{mock: &_m.Mock}
}

// Generate provides a mock function with given fields: ctx, req.
func (_m *MockOracle) Generate(ctx context.Context, req adapter.OracleRequest) (string, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Generate")
	}

	if rf, ok := ret.Get(0).(func(context.Context, adapter.OracleRequest) (string, error)); ok {
		return rf(ctx, req)
	}

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, adapter.OracleRequest) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(string)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, adapter.OracleRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// MockOracle_Generate_Call is a typed *mock.Call for Generate.
type MockOracle_Generate_Call struct {
	*mock.Call
}

// Generate is a helper method to define mock.On call.
func (_e *MockOracle_Expecter) Generate(ctx interface{}, req interface{}) *MockOracle_Generate_Call {
	return &MockOracle_Generate_Call{Call: _e.mock.On("Generate", ctx, req)}
}

// Run sets a handler invoked with the call's arguments.
func (_c *MockOracle_Generate_Call) Run(run func(ctx context.Context, req adapter.OracleRequest)) *MockOracle_Generate_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(adapter.OracleRequest))
	})

	return _c
}

// Return sets the values returned by Generate.
func (_c *MockOracle_Generate_Call) Return(reply string, err error) *MockOracle_Generate_Call {
	_c.Call.Return(reply, err)
	return _c
}

// RunAndReturn computes Generate's return values from its arguments.
func (_c *MockOracle_Generate_Call) RunAndReturn(run func(context.Context, adapter.OracleRequest) (string, error)) *MockOracle_Generate_Call {
	_c.Call.Return(run)
	return _c
}

// Name provides a mock function with no fields.
func (_m *MockOracle) Name() string {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Name")
	}

	if rf, ok := ret.Get(0).(func() string); ok {
		return rf()
	}

	return ret.Get(0).(string)
}

// MockOracle_Name_Call is a typed *mock.Call for Name.
type MockOracle_Name_Call struct {
	*mock.Call
}

// Name is a helper method to define mock.On call.
func (_e *MockOracle_Expecter) Name() *MockOracle_Name_Call {
	return &MockOracle_Name_Call{Call: _e.mock.On("Name")}
}

// Return sets the value returned by Name.
func (_c *MockOracle_Name_Call) Return(name string) *MockOracle_Name_Call {
	_c.Call.Return(name)
	return _c
}

// NewMockOracle creates a MockOracle that asserts its expectations on cleanup.
func NewMockOracle(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOracle {
	m := &MockOracle{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
