// Package ledger classifies wallet transfers by direction and
// aggregates them into weekly and monthly income/spending buckets.
package ledger

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"pal/internal/domain"
)

// Bucket accumulates one period's totals.
type Bucket struct {
	Income   float64 `json:"income"`
	Spending float64 `json:"spending"`
}

// Summary holds the full aggregation. Weekly keys are the ISO date of
// the Monday starting each week; monthly keys are "YYYY-MM".
type Summary struct {
	Weekly  map[string]Bucket `json:"weekly"`
	Monthly map[string]Bucket `json:"monthly"`
	Totals  Bucket            `json:"totals"`
}

// KPIs are the headline figures over the latest buckets.
type KPIs struct {
	WeeklyIncome   float64 `json:"weeklyIncome"`
	WeeklySpending float64 `json:"weeklySpending"`
	MonthlyNet     float64 `json:"monthlyNet"`
}

// Aggregate reduces the transaction list against the wallet address.
// Transfers to the address count as income, transfers from it as
// spending; anything else is dropped. Week bucketing uses UTC and
// Monday-start weeks.
func Aggregate(txs []domain.Transaction, address string) Summary {
	s := Summary{Weekly: map[string]Bucket{}, Monthly: map[string]Bucket{}}
	me := strings.ToLower(address)
	for _, tx := range txs {
		income := strings.ToLower(tx.To) == me
		spending := strings.ToLower(tx.From) == me
		if !income && !spending {
			continue
		}
		d := time.Unix(tx.Timestamp, 0).UTC()
		offset := (int(d.Weekday()) + 6) % 7
		weekKey := d.AddDate(0, 0, -offset).Format("2006-01-02")
		monthKey := d.Format("2006-01")
		amount := weiToEth(tx.Value)

		wb := s.Weekly[weekKey]
		mb := s.Monthly[monthKey]
		if income {
			wb.Income += amount
			mb.Income += amount
			s.Totals.Income += amount
		} else {
			wb.Spending += amount
			mb.Spending += amount
			s.Totals.Spending += amount
		}
		s.Weekly[weekKey] = wb
		s.Monthly[monthKey] = mb
	}
	return s
}

// KPIs derives the headline figures from the most recent week and
// month present in the summary.
func (s Summary) KPIs() KPIs {
	var k KPIs
	if week, ok := latestKey(s.Weekly); ok {
		k.WeeklyIncome = s.Weekly[week].Income
		k.WeeklySpending = s.Weekly[week].Spending
	}
	if month, ok := latestKey(s.Monthly); ok {
		k.MonthlyNet = s.Monthly[month].Income - s.Monthly[month].Spending
	}
	return k
}

func latestKey(buckets map[string]Bucket) (string, bool) {
	if len(buckets) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys[len(keys)-1], true
}

// Scenario is one what-if projection over the current KPIs.
type Scenario struct {
	Title   string  `json:"title"`
	Impact  float64 `json:"impact"`
	Summary string  `json:"summary"`
	Action  string  `json:"action"`
}

// WhatIfScenarios projects three fixed levers against the latest KPIs.
func WhatIfScenarios(k KPIs) []Scenario {
	income := k.WeeklyIncome * 4
	spend := k.WeeklySpending * 4
	return []Scenario{
		{
			Title:   "Increase pricing by 5%",
			Impact:  round2(income * 0.05),
			Summary: "Raises revenue assuming demand holds; review price elasticity.",
			Action:  "Pilot price increase on top SKUs for 2 weeks.",
		},
		{
			Title:   "Cut low-ROI marketing 10%",
			Impact:  round2(spend * 0.10),
			Summary: "Reduces spend; reallocate to high-ROI channels.",
			Action:  "Pause poor campaigns, double down on top performers.",
		},
		{
			Title:   "Accelerate collections",
			Impact:  round2(k.MonthlyNet * 0.08),
			Summary: "Improves cash flow; lowers working capital needs.",
			Action:  "Send reminders; offer 2%/10 Net 30 early payment terms.",
		},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// weiToEth parses a decimal wei string. Unparseable values count as
// zero rather than failing the whole aggregation.
func weiToEth(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return v / 1e18
}

// SampleTransactions synthesizes sixty days of alternating transfers
// around the address, used when no explorer data is available. Every
// third day is incoming.
func SampleTransactions(address string, now time.Time) []domain.Transaction {
	if address == "" {
		address = "0xYourAddress"
	}
	const other = "0xOther"
	txs := make([]domain.Transaction, 0, 60)
	for i := 1; i <= 60; i++ {
		ts := now.AddDate(0, 0, -i).Unix()
		incoming := i%3 == 0
		var amount float64
		if incoming {
			amount = 0.02 + float64(i%5)*0.005
		} else {
			amount = 0.015 + float64(i%4)*0.004
		}
		tx := domain.Transaction{
			Timestamp: ts,
			Value:     strconv.FormatInt(int64(math.Round(amount*1e18)), 10),
		}
		if incoming {
			tx.From, tx.To = other, address
		} else {
			tx.From, tx.To = address, other
		}
		txs = append(txs, tx)
	}
	return txs
}
