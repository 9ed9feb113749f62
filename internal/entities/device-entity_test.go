package entities

import (
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
)

func TestDevice_IsDepreciated(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	fresh := Device{PurchaseDate: null.TimeFrom(now.AddDate(-2, 0, 0))}
	assert.False(t, fresh.IsDepreciated(5, now))

	old := Device{PurchaseDate: null.TimeFrom(now.AddDate(-6, 0, 0))}
	assert.True(t, old.IsDepreciated(5, now))

	// Ровно на границе срок еще не исчерпан.
	edge := Device{PurchaseDate: null.TimeFrom(now.AddDate(-5, 0, 0))}
	assert.False(t, edge.IsDepreciated(5, now))

	// Без даты покупки амортизация не считается.
	unknown := Device{}
	assert.False(t, unknown.IsDepreciated(5, now))
}

func TestAssignment_IsActive(t *testing.T) {
	active := Assignment{}
	assert.True(t, active.IsActive())

	closed := Assignment{ReturnedAt: null.TimeFrom(time.Now())}
	assert.False(t, closed.IsActive())
}
