package web

import (
	"io"

	"github.com/stretchr/testify/mock"
)

type MockPageRenderer struct {
	mock.Mock
}

func (m *MockPageRenderer) Render(w io.Writer, page string, data *PageData) error {
	args := m.Called(page, data)
	return args.Error(0)
}
