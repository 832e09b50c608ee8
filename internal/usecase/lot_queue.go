package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
)

// lotQueue is a FIFO of purchase lots. Popped lots are released by advancing
// head, so each lot is pushed and popped once.
type lotQueue struct {
	lots []domain.PurchaseLot
	head int
}

func (q *lotQueue) push(l domain.PurchaseLot) {
	q.lots = append(q.lots, l)
}

func (q *lotQueue) empty() bool {
	return q.head >= len(q.lots)
}

func (q *lotQueue) front() domain.PurchaseLot {
	return q.lots[q.head]
}

func (q *lotQueue) replaceFront(l domain.PurchaseLot) {
	q.lots[q.head] = l
}

func (q *lotQueue) popFront() {
	q.lots[q.head] = domain.PurchaseLot{}
	q.head++
}

func (q *lotQueue) len() int {
	return len(q.lots) - q.head
}

// totals sums amount and cost over the queued lots.
func (q *lotQueue) totals() (amount, cost decimal.Decimal) {
	amount, cost = decimal.Zero, decimal.Zero
	for _, l := range q.lots[q.head:] {
		amount = amount.Add(l.Amount().Amount())
		cost = cost.Add(l.Cost().Amount())
	}
	return amount, cost
}
