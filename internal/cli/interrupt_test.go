package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	handler := NewInterruptHandler(nil, "Import", "")
	assert.NotNil(t, handler.writer)
	assert.False(t, handler.WasInterrupted())
}

func TestInterruptCancelsContext(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "Patterns learned so far are kept.")

	ctx := handler.HandleInterrupts(context.Background())
	defer handler.Stop()

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be canceled initially")
	default:
	}

	handler.interrupt()
	<-ctx.Done()

	assert.True(t, handler.WasInterrupted())
	assert.Contains(t, output.String(), "Import interrupted!")
	assert.Contains(t, output.String(), "Patterns learned so far are kept.")
}

func TestInterruptMessageShownOnce(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "")
	_ = handler.HandleInterrupts(context.Background())
	defer handler.Stop()

	handler.interrupt()
	handler.interrupt()

	assert.Equal(t, 1, strings.Count(output.String(), "Import interrupted!"))
	assert.Contains(t, output.String(), "See you later!")
}

func TestStopWithoutInterrupt(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output, "Import", "")
	ctx := handler.HandleInterrupts(context.Background())

	handler.Stop()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}
