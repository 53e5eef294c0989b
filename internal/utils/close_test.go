package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/sitepulse/internal/logger"
)

type fakeCloser struct {
	err    error
	closed bool
}

func (f *fakeCloser) Close() error {
	f.closed = true
	return f.err
}

func TestClose(t *testing.T) {
	c := &fakeCloser{err: errors.New("boom")}
	Close(c)
	assert.True(t, c.closed)
}

func TestCloseLogged(t *testing.T) {
	ok := &fakeCloser{}
	CloseLogged(ok, logger.Nop(), "ok")
	assert.True(t, ok.closed)

	failing := &fakeCloser{err: errors.New("boom")}
	CloseLogged(failing, logger.Nop(), "failing")
	assert.True(t, failing.closed)
}
