package mocks

import (
	"context"

	"github.com/motorlink/motorlink-go/pkg/device"
	"github.com/motorlink/motorlink-go/pkg/resource"
	mock "github.com/stretchr/testify/mock"
)

// NewMockController creates a new instance of MockController. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockController(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockController {
	mock := &MockController{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

// MockController is an autogenerated mock type for the Controller type
type MockController struct {
	mock.Mock
}

type MockController_Expecter struct {
	mock *mock.Mock
}

func (_m *MockController) EXPECT() *MockController_Expecter {
	return &MockController_Expecter{mock: &_m.Mock}
}

// Connect provides a mock function for the type MockController
func (_mock *MockController) Connect(ctx context.Context, id resource.DeviceID) (*device.Info, error) {
	ret := _mock.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Connect")
	}

	var r0 *device.Info
	var r1 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) (*device.Info, error)); ok {
		return returnFunc(ctx, id)
	}
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) *device.Info); ok {
		r0 = returnFunc(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*device.Info)
		}
	}
	if returnFunc, ok := ret.Get(1).(func(context.Context, resource.DeviceID) error); ok {
		r1 = returnFunc(ctx, id)
	} else {
		r1 = ret.Error(1)
	}
	return r0, r1
}

// MockController_Connect_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Connect'
type MockController_Connect_Call struct {
	*mock.Call
}

// Connect is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
func (_e *MockController_Expecter) Connect(ctx interface{}, id interface{}) *MockController_Connect_Call {
	return &MockController_Connect_Call{Call: _e.mock.On("Connect", ctx, id)}
}

func (_c *MockController_Connect_Call) Run(run func(ctx context.Context, id resource.DeviceID)) *MockController_Connect_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockController_Connect_Call) Return(info *device.Info, err error) *MockController_Connect_Call {
	_c.Call.Return(info, err)
	return _c
}

func (_c *MockController_Connect_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID) (*device.Info, error)) *MockController_Connect_Call {
	_c.Call.Return(run)
	return _c
}

// Disconnect provides a mock function for the type MockController
func (_mock *MockController) Disconnect(ctx context.Context, id resource.DeviceID) error {
	ret := _mock.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Disconnect")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) error); ok {
		r0 = returnFunc(ctx, id)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_Disconnect_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Disconnect'
type MockController_Disconnect_Call struct {
	*mock.Call
}

// Disconnect is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
func (_e *MockController_Expecter) Disconnect(ctx interface{}, id interface{}) *MockController_Disconnect_Call {
	return &MockController_Disconnect_Call{Call: _e.mock.On("Disconnect", ctx, id)}
}

func (_c *MockController_Disconnect_Call) Run(run func(ctx context.Context, id resource.DeviceID)) *MockController_Disconnect_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockController_Disconnect_Call) Return(err error) *MockController_Disconnect_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_Disconnect_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID) error) *MockController_Disconnect_Call {
	_c.Call.Return(run)
	return _c
}

// Ping provides a mock function for the type MockController
func (_mock *MockController) Ping(ctx context.Context, id resource.DeviceID) error {
	ret := _mock.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for Ping")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) error); ok {
		r0 = returnFunc(ctx, id)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_Ping_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Ping'
type MockController_Ping_Call struct {
	*mock.Call
}

// Ping is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
func (_e *MockController_Expecter) Ping(ctx interface{}, id interface{}) *MockController_Ping_Call {
	return &MockController_Ping_Call{Call: _e.mock.On("Ping", ctx, id)}
}

func (_c *MockController_Ping_Call) Run(run func(ctx context.Context, id resource.DeviceID)) *MockController_Ping_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockController_Ping_Call) Return(err error) *MockController_Ping_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_Ping_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID) error) *MockController_Ping_Call {
	_c.Call.Return(run)
	return _c
}

// SetParameter provides a mock function for the type MockController
func (_mock *MockController) SetParameter(ctx context.Context, id resource.DeviceID, key device.ParameterKey, value float64) error {
	ret := _mock.Called(ctx, id, key, value)

	if len(ret) == 0 {
		panic("no return value specified for SetParameter")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID, device.ParameterKey, float64) error); ok {
		r0 = returnFunc(ctx, id, key, value)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_SetParameter_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'SetParameter'
type MockController_SetParameter_Call struct {
	*mock.Call
}

// SetParameter is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
//   - key device.ParameterKey
//   - value float64
func (_e *MockController_Expecter) SetParameter(ctx interface{}, id interface{}, key interface{}, value interface{}) *MockController_SetParameter_Call {
	return &MockController_SetParameter_Call{Call: _e.mock.On("SetParameter", ctx, id, key, value)}
}

func (_c *MockController_SetParameter_Call) Run(run func(ctx context.Context, id resource.DeviceID, key device.ParameterKey, value float64)) *MockController_SetParameter_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		var arg2 device.ParameterKey
		if args[2] != nil {
			arg2 = args[2].(device.ParameterKey)
		}
		var arg3 float64
		if args[3] != nil {
			arg3 = args[3].(float64)
		}
		run(arg0, arg1, arg2, arg3)
	})
	return _c
}

func (_c *MockController_SetParameter_Call) Return(err error) *MockController_SetParameter_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_SetParameter_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID, key device.ParameterKey, value float64) error) *MockController_SetParameter_Call {
	_c.Call.Return(run)
	return _c
}

// GetParameter provides a mock function for the type MockController
func (_mock *MockController) GetParameter(ctx context.Context, id resource.DeviceID, key device.ParameterKey) (float64, error) {
	ret := _mock.Called(ctx, id, key)

	if len(ret) == 0 {
		panic("no return value specified for GetParameter")
	}

	var r0 float64
	var r1 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID, device.ParameterKey) (float64, error)); ok {
		return returnFunc(ctx, id, key)
	}
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID, device.ParameterKey) float64); ok {
		r0 = returnFunc(ctx, id, key)
	} else {
		r0 = ret.Get(0).(float64)
	}
	if returnFunc, ok := ret.Get(1).(func(context.Context, resource.DeviceID, device.ParameterKey) error); ok {
		r1 = returnFunc(ctx, id, key)
	} else {
		r1 = ret.Error(1)
	}
	return r0, r1
}

// MockController_GetParameter_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'GetParameter'
type MockController_GetParameter_Call struct {
	*mock.Call
}

// GetParameter is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
//   - key device.ParameterKey
func (_e *MockController_Expecter) GetParameter(ctx interface{}, id interface{}, key interface{}) *MockController_GetParameter_Call {
	return &MockController_GetParameter_Call{Call: _e.mock.On("GetParameter", ctx, id, key)}
}

func (_c *MockController_GetParameter_Call) Run(run func(ctx context.Context, id resource.DeviceID, key device.ParameterKey)) *MockController_GetParameter_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		var arg2 device.ParameterKey
		if args[2] != nil {
			arg2 = args[2].(device.ParameterKey)
		}
		run(arg0, arg1, arg2)
	})
	return _c
}

func (_c *MockController_GetParameter_Call) Return(value float64, err error) *MockController_GetParameter_Call {
	_c.Call.Return(value, err)
	return _c
}

func (_c *MockController_GetParameter_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID, key device.ParameterKey) (float64, error)) *MockController_GetParameter_Call {
	_c.Call.Return(run)
	return _c
}

// Setpoint provides a mock function for the type MockController
func (_mock *MockController) Setpoint(ctx context.Context, id resource.DeviceID, value float64) error {
	ret := _mock.Called(ctx, id, value)

	if len(ret) == 0 {
		panic("no return value specified for Setpoint")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID, float64) error); ok {
		r0 = returnFunc(ctx, id, value)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_Setpoint_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Setpoint'
type MockController_Setpoint_Call struct {
	*mock.Call
}

// Setpoint is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
//   - value float64
func (_e *MockController_Expecter) Setpoint(ctx interface{}, id interface{}, value interface{}) *MockController_Setpoint_Call {
	return &MockController_Setpoint_Call{Call: _e.mock.On("Setpoint", ctx, id, value)}
}

func (_c *MockController_Setpoint_Call) Run(run func(ctx context.Context, id resource.DeviceID, value float64)) *MockController_Setpoint_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		var arg2 float64
		if args[2] != nil {
			arg2 = args[2].(float64)
		}
		run(arg0, arg1, arg2)
	})
	return _c
}

func (_c *MockController_Setpoint_Call) Return(err error) *MockController_Setpoint_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_Setpoint_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID, value float64) error) *MockController_Setpoint_Call {
	_c.Call.Return(run)
	return _c
}

// BurnFlash provides a mock function for the type MockController
func (_mock *MockController) BurnFlash(ctx context.Context, id resource.DeviceID) error {
	ret := _mock.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for BurnFlash")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) error); ok {
		r0 = returnFunc(ctx, id)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_BurnFlash_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'BurnFlash'
type MockController_BurnFlash_Call struct {
	*mock.Call
}

// BurnFlash is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
func (_e *MockController_Expecter) BurnFlash(ctx interface{}, id interface{}) *MockController_BurnFlash_Call {
	return &MockController_BurnFlash_Call{Call: _e.mock.On("BurnFlash", ctx, id)}
}

func (_c *MockController_BurnFlash_Call) Run(run func(ctx context.Context, id resource.DeviceID)) *MockController_BurnFlash_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockController_BurnFlash_Call) Return(err error) *MockController_BurnFlash_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_BurnFlash_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID) error) *MockController_BurnFlash_Call {
	_c.Call.Return(run)
	return _c
}

// FactoryReset provides a mock function for the type MockController
func (_mock *MockController) FactoryReset(ctx context.Context, id resource.DeviceID) error {
	ret := _mock.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for FactoryReset")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) error); ok {
		r0 = returnFunc(ctx, id)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_FactoryReset_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'FactoryReset'
type MockController_FactoryReset_Call struct {
	*mock.Call
}

// FactoryReset is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
func (_e *MockController_Expecter) FactoryReset(ctx interface{}, id interface{}) *MockController_FactoryReset_Call {
	return &MockController_FactoryReset_Call{Call: _e.mock.On("FactoryReset", ctx, id)}
}

func (_c *MockController_FactoryReset_Call) Run(run func(ctx context.Context, id resource.DeviceID)) *MockController_FactoryReset_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockController_FactoryReset_Call) Return(err error) *MockController_FactoryReset_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_FactoryReset_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID) error) *MockController_FactoryReset_Call {
	_c.Call.Return(run)
	return _c
}

// IDAssignment provides a mock function for the type MockController
func (_mock *MockController) IDAssignment(ctx context.Context, id resource.DeviceID, newID resource.DeviceID) error {
	ret := _mock.Called(ctx, id, newID)

	if len(ret) == 0 {
		panic("no return value specified for IDAssignment")
	}

	var r0 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID, resource.DeviceID) error); ok {
		r0 = returnFunc(ctx, id, newID)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockController_IDAssignment_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'IDAssignment'
type MockController_IDAssignment_Call struct {
	*mock.Call
}

// IDAssignment is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
//   - newID resource.DeviceID
func (_e *MockController_Expecter) IDAssignment(ctx interface{}, id interface{}, newID interface{}) *MockController_IDAssignment_Call {
	return &MockController_IDAssignment_Call{Call: _e.mock.On("IDAssignment", ctx, id, newID)}
}

func (_c *MockController_IDAssignment_Call) Run(run func(ctx context.Context, id resource.DeviceID, newID resource.DeviceID)) *MockController_IDAssignment_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		var arg2 resource.DeviceID
		if args[2] != nil {
			arg2 = args[2].(resource.DeviceID)
		}
		run(arg0, arg1, arg2)
	})
	return _c
}

func (_c *MockController_IDAssignment_Call) Return(err error) *MockController_IDAssignment_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockController_IDAssignment_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID, newID resource.DeviceID) error) *MockController_IDAssignment_Call {
	_c.Call.Return(run)
	return _c
}

// TelemetryList provides a mock function for the type MockController
func (_mock *MockController) TelemetryList(ctx context.Context, id resource.DeviceID) ([]device.SignalInfo, error) {
	ret := _mock.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for TelemetryList")
	}

	var r0 []device.SignalInfo
	var r1 error
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) ([]device.SignalInfo, error)); ok {
		return returnFunc(ctx, id)
	}
	if returnFunc, ok := ret.Get(0).(func(context.Context, resource.DeviceID) []device.SignalInfo); ok {
		r0 = returnFunc(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]device.SignalInfo)
		}
	}
	if returnFunc, ok := ret.Get(1).(func(context.Context, resource.DeviceID) error); ok {
		r1 = returnFunc(ctx, id)
	} else {
		r1 = ret.Error(1)
	}
	return r0, r1
}

// MockController_TelemetryList_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'TelemetryList'
type MockController_TelemetryList_Call struct {
	*mock.Call
}

// TelemetryList is a helper method to define mock.On call
//   - ctx context.Context
//   - id resource.DeviceID
func (_e *MockController_Expecter) TelemetryList(ctx interface{}, id interface{}) *MockController_TelemetryList_Call {
	return &MockController_TelemetryList_Call{Call: _e.mock.On("TelemetryList", ctx, id)}
}

func (_c *MockController_TelemetryList_Call) Run(run func(ctx context.Context, id resource.DeviceID)) *MockController_TelemetryList_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		var arg1 resource.DeviceID
		if args[1] != nil {
			arg1 = args[1].(resource.DeviceID)
		}
		run(arg0, arg1)
	})
	return _c
}

func (_c *MockController_TelemetryList_Call) Return(signalInfos []device.SignalInfo, err error) *MockController_TelemetryList_Call {
	_c.Call.Return(signalInfos, err)
	return _c
}

func (_c *MockController_TelemetryList_Call) RunAndReturn(run func(ctx context.Context, id resource.DeviceID) ([]device.SignalInfo, error)) *MockController_TelemetryList_Call {
	_c.Call.Return(run)
	return _c
}

// OpenTelemetry provides a mock function for the type MockController
func (_mock *MockController) OpenTelemetry(ctx context.Context) (resource.Stream, error) {
	ret := _mock.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for OpenTelemetry")
	}

	var r0 resource.Stream
	var r1 error
	if returnFunc, ok := ret.Get(0).(func(context.Context) (resource.Stream, error)); ok {
		return returnFunc(ctx)
	}
	if returnFunc, ok := ret.Get(0).(func(context.Context) resource.Stream); ok {
		r0 = returnFunc(ctx)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(resource.Stream)
		}
	}
	if returnFunc, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = returnFunc(ctx)
	} else {
		r1 = ret.Error(1)
	}
	return r0, r1
}

// MockController_OpenTelemetry_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'OpenTelemetry'
type MockController_OpenTelemetry_Call struct {
	*mock.Call
}

// OpenTelemetry is a helper method to define mock.On call
//   - ctx context.Context
func (_e *MockController_Expecter) OpenTelemetry(ctx interface{}) *MockController_OpenTelemetry_Call {
	return &MockController_OpenTelemetry_Call{Call: _e.mock.On("OpenTelemetry", ctx)}
}

func (_c *MockController_OpenTelemetry_Call) Run(run func(ctx context.Context)) *MockController_OpenTelemetry_Call {
	_c.Call.Run(func(args mock.Arguments) {
		var arg0 context.Context
		if args[0] != nil {
			arg0 = args[0].(context.Context)
		}
		run(arg0)
	})
	return _c
}

func (_c *MockController_OpenTelemetry_Call) Return(stream resource.Stream, err error) *MockController_OpenTelemetry_Call {
	_c.Call.Return(stream, err)
	return _c
}

func (_c *MockController_OpenTelemetry_Call) RunAndReturn(run func(ctx context.Context) (resource.Stream, error)) *MockController_OpenTelemetry_Call {
	_c.Call.Return(run)
	return _c
}
