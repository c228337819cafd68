package mocks

import "github.com/stretchr/testify/mock"

// MockMoveEngine is a mock implementation of tree.MoveEngine
type MockMoveEngine struct {
	mock.Mock
}

func (m *MockMoveEngine) Reset() {
	m.Called()
}

func (m *MockMoveEngine) ApplyMove(san string) bool {
	args := m.Called(san)
	return args.Bool(0)
}

func (m *MockMoveEngine) PositionID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockMoveEngine) Ply() int {
	args := m.Called()
	return args.Int(0)
}
