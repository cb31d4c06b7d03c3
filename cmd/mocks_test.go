package cmd

import (
	"context"
	"sync/atomic"
)

type MockReconciler struct {
	RunFunc func(ctx context.Context) error
}

func (m *MockReconciler) Run(ctx context.Context) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

type MockBus struct {
	ConnectFunc func() error
	closed      atomic.Bool
}

func (m *MockBus) Connect() error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc()
	}
	return nil
}

func (m *MockBus) Close() {
	m.closed.Store(true)
}

type MockHubSync struct {
	StartFunc func(ctx context.Context) error
	started   atomic.Bool
}

func (m *MockHubSync) Start(ctx context.Context) error {
	m.started.Store(true)
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

type MockHub struct {
	CloseFunc func() error
	closed    atomic.Bool
}

func (m *MockHub) Close() error {
	m.closed.Store(true)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

type MockServer struct {
	RunFunc func(ctx context.Context) error
}

func (m *MockServer) Run(ctx context.Context) error {
	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	<-ctx.Done()
	return nil
}
