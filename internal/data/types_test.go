package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPutOptionMid(t *testing.T) {
	p := PutOption{Bid: 2.00, Ask: 2.20}
	assert.InDelta(t, 2.10, p.Mid(), 1e-9)

	// One-sided quotes still yield a mid.
	assert.InDelta(t, 1.00, PutOption{Bid: 2.00, Ask: 0}.Mid(), 1e-9)
	assert.Zero(t, PutOption{}.Mid())
}

func TestPutOptionSpreadRatio(t *testing.T) {
	p := PutOption{Bid: 2.00, Ask: 2.20}
	assert.InDelta(t, 0.20/2.10, p.SpreadRatio(), 1e-9)

	// No mid means the ratio is undefined; callers treat it as zero.
	assert.Zero(t, PutOption{}.SpreadRatio())
}

func TestQuoteNextEarningsOptional(t *testing.T) {
	var q Quote
	assert.Nil(t, q.NextEarnings)

	d := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	q.NextEarnings = &d
	assert.True(t, q.NextEarnings.Equal(d))
}
