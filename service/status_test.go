package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BehnamMohamadi/mini-shop-sub000/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to models.BasketStatus
		want     bool
	}{
		{models.BasketStatusOpen, models.BasketStatusPending, true},
		{models.BasketStatusPending, models.BasketStatusOpen, true},
		{models.BasketStatusPending, models.BasketStatusFinished, true},
		{models.BasketStatusOpen, models.BasketStatusFinished, false},
		{models.BasketStatusOpen, models.BasketStatusOpen, false},
		{models.BasketStatusPending, models.BasketStatusPending, false},
		{models.BasketStatusFinished, models.BasketStatusOpen, false},
		{models.BasketStatusFinished, models.BasketStatusPending, false},
		{models.BasketStatusFinished, models.BasketStatusFinished, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"open", "pending", "finished"} {
		status, ok := ParseStatus(valid)
		assert.True(t, ok)
		assert.Equal(t, models.BasketStatus(valid), status)
	}

	_, ok := ParseStatus("shipped")
	assert.False(t, ok)
	_, ok = ParseStatus("")
	assert.False(t, ok)
}
