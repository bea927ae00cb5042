package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	testCases := []struct {
		from, to OrderStatus
		expected bool
	}{
		{OrderActive, OrderUsed, true},
		{OrderActive, OrderCancelled, true},
		{OrderUsed, OrderCompleted, true},
		{OrderActive, OrderCompleted, false},
		{OrderUsed, OrderCancelled, false},
		{OrderCancelled, OrderActive, false},
		{OrderCancelled, OrderUsed, false},
		{OrderCompleted, OrderActive, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.expected, CanTransition(tc.from, tc.to))
		})
	}
}

func TestOrderLegacyFlags(t *testing.T) {
	testCases := []struct {
		status          OrderStatus
		used, cancelled bool
		blocks          bool
	}{
		{OrderActive, false, false, true},
		{OrderUsed, true, false, true},
		{OrderCancelled, false, true, false},
		{OrderCompleted, true, true, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			o := &Order{Status: tc.status}
			assert.Equal(t, tc.used, o.IsUsed())
			assert.Equal(t, tc.cancelled, o.IsCancel())
			assert.Equal(t, tc.blocks, tc.status.Blocks())
		})
	}
}
