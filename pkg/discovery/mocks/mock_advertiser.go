package mocks

import (
	"context"

	"github.com/motorlink/motorlink-go/pkg/discovery"
	mock "github.com/stretchr/testify/mock"
)

// NewMockAdvertiser creates a new instance of MockAdvertiser. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockAdvertiser(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAdvertiser {
	mock := &MockAdvertiser{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

// MockAdvertiser is an autogenerated mock type for the Advertiser type
type MockAdvertiser struct {
	mock.Mock
}

type MockAdvertiser_Expecter struct {
	mock *mock.Mock
}

func (_m *MockAdvertiser) EXPECT() *MockAdvertiser_Expecter {
	return &MockAdvertiser_Expecter{mock: &_m.Mock}
}

// Advertise provides a mock function for the type MockAdvertiser
func (_mock *MockAdvertiser) Advertise(ctx context.Context, info *discovery.WorkerInfo) error {
	ret := _mock.Called(ctx, info)

	if len(ret) == 0 {
		panic("no return value specified for Advertise")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, *discovery.WorkerInfo) error); ok {
		r0 = returnFunc(ctx, info)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockAdvertiser_Advertise_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Advertise'
type MockAdvertiser_Advertise_Call struct {
	*mock.Call
}

// Advertise is a helper method to define mock.On call
//   - ctx context.Context
//   - info *discovery.WorkerInfo
func (_e *MockAdvertiser_Expecter) Advertise(ctx interface{}, info interface{}) *MockAdvertiser_Advertise_Call {
	return &MockAdvertiser_Advertise_Call{Call: _e.mock.On("Advertise", ctx, info)}
}

func (_c *MockAdvertiser_Advertise_Call) Run(run func(ctx context.Context, info *discovery.WorkerInfo)) *MockAdvertiser_Advertise_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 *discovery.WorkerInfo
		if args[1] != nil {
			arg1 = args[1].(*discovery.WorkerInfo)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockAdvertiser_Advertise_Call) Return(err error) *MockAdvertiser_Advertise_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockAdvertiser_Advertise_Call) RunAndReturn(run func(ctx context.Context, info *discovery.WorkerInfo) error) *MockAdvertiser_Advertise_Call {
	_c.Call.Return(run)
	return _c
}

// Stop provides a mock function for the type MockAdvertiser
func (_mock *MockAdvertiser) Stop() error {
	ret := _mock.Called()

	if len(ret) == 0 {
		panic("no return value specified for Stop")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func() error); ok {
		r0 = returnFunc()
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockAdvertiser_Stop_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Stop'
type MockAdvertiser_Stop_Call struct {
	*mock.Call
}

// Stop is a helper method to define mock.On call
func (_e *MockAdvertiser_Expecter) Stop() *MockAdvertiser_Stop_Call {
	return &MockAdvertiser_Stop_Call{Call: _e.mock.On("Stop")}
}

func (_c *MockAdvertiser_Stop_Call) Run(run func()) *MockAdvertiser_Stop_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run()
	})
	return _c
}

func (_c *MockAdvertiser_Stop_Call) Return(err error) *MockAdvertiser_Stop_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockAdvertiser_Stop_Call) RunAndReturn(run func() error) *MockAdvertiser_Stop_Call {
	_c.Call.Return(run)
	return _c
}
