package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"tenzinsgym/pos/internal/domain"
	"tenzinsgym/pos/internal/repository"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Period is the dashboard window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod accepts day, month or year in any case; empty means day.
func ParsePeriod(v string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodMonth, PeriodYear:
		return p, nil
	}
	return "", invalidf("unknown period %q, use day, month or year", v)
}

// Bucket is one point of a time series.
type Bucket struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TopTrainer is the trainer with the most assignments in the window.
type TopTrainer struct {
	Name        string  `json:"name"`
	Assignments int     `json:"assignments"`
	Revenue     float64 `json:"revenue"`
}

// Dashboard is the owner's overview of a period.
type Dashboard struct {
	Period              Period                          `json:"period"`
	From                time.Time                       `json:"from"`
	To                  time.Time                       `json:"to"`
	Transactions        int                             `json:"transactions"`
	Revenue             float64                         `json:"revenue"`
	UnpaidCount         int                             `json:"unpaidCount"`
	UnpaidAmount        float64                         `json:"unpaidAmount"`
	MeanTicket          float64                         `json:"meanTicket"`
	MedianTicket        float64                         `json:"medianTicket"`
	RevenueSeries       []Bucket                        `json:"revenueSeries"`
	RevenueByService    map[domain.ServiceName]float64  `json:"revenueByService"`
	PaymentMethods      map[string]int                  `json:"paymentMethods"`
	MembershipByPlan    map[string]int                  `json:"membershipByCategory"`
	TopTrainer          *TopTrainer                     `json:"topTrainer,omitempty"`
	MemberStatus        map[domain.MembershipStatus]int `json:"memberStatus"`
	NewMembersByMonth   []Bucket                        `json:"newMembersByMonth"`
	NewMembersThisMonth int                             `json:"newMembersThisMonth"`
}

// periodBounds returns the window containing now and the bucket labels.
func periodBounds(p Period, now time.Time) (start, end time.Time, labels []string, bucketOf func(time.Time) int) {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case PeriodYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0).Add(-time.Second)
		for i := 0; i < 12; i++ {
			labels = append(labels, start.AddDate(0, i, 0).Format("Jan 2006"))
		}
		bucketOf = func(t time.Time) int { return int(t.In(loc).Month()) - 1 }
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0).Add(-time.Second)
		for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
			labels = append(labels, day.Format("Jan 02"))
		}
		bucketOf = func(t time.Time) int { return t.In(loc).Day() - 1 }
	default:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1).Add(-time.Second)
		for h := 0; h < 24; h++ {
			labels = append(labels, start.Add(time.Duration(h)*time.Hour).Format("15:04"))
		}
		bucketOf = func(t time.Time) int { return t.In(loc).Hour() }
	}
	return start, end, labels, bucketOf
}

func (s *reportService) Dashboard(ctx context.Context, period Period) (*Dashboard, error) {
	now := s.clock.Now().In(s.loc)
	start, end, labels, bucketOf := periodBounds(period, now)

	var (
		sales   []domain.Sale
		members []domain.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.saleRepo.ListRange(gctx, start, end, repository.SaleFilter{})
		return errors.Wrap(err, "load sales")
	})
	g.Go(func() error {
		var err error
		members, err = s.memberRepo.List(gctx)
		return errors.Wrap(err, "load members")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Period:           period,
		From:             start,
		To:               end,
		RevenueByService: map[domain.ServiceName]float64{},
		PaymentMethods:   map[string]int{},
		MembershipByPlan: map[string]int{},
		MemberStatus:     map[domain.MembershipStatus]int{},
	}

	series := make([]decimal.Decimal, len(labels))
	byService := map[domain.ServiceName]decimal.Decimal{}
	revenue, unpaid := decimal.Zero, decimal.Zero
	tickets := make([]float64, 0, len(sales))
	trainers := map[string]*TopTrainer{}

	for _, sale := range sales {
		amount := decimal.NewFromFloat(sale.AmountPaid)
		if sale.PaymentStatus != domain.PaymentPaid {
			dash.UnpaidCount++
			unpaid = unpaid.Add(amount)
			continue
		}
		dash.Transactions++
		revenue = revenue.Add(amount)
		tickets = append(tickets, sale.AmountPaid)
		if i := bucketOf(sale.TimeOfPurchase); i >= 0 && i < len(series) {
			series[i] = series[i].Add(amount)
		}
		byService[sale.Service] = byService[sale.Service].Add(amount)
		dash.PaymentMethods[sale.PaymentMethod]++

		switch p := sale.Payload.(type) {
		case domain.MembershipPayload:
			dash.MembershipByPlan[sale.Category]++
		case domain.TrainerPayload:
			t := trainers[p.TrainerName]
			if t == nil {
				t = &TopTrainer{Name: p.TrainerName}
				trainers[p.TrainerName] = t
			}
			t.Assignments++
			t.Revenue = decimal.NewFromFloat(t.Revenue).Add(amount).InexactFloat64()
		}
	}

	dash.Revenue = revenue.Round(2).InexactFloat64()
	dash.UnpaidAmount = unpaid.Round(2).InexactFloat64()
	for svc, v := range byService {
		dash.RevenueByService[svc] = v.Round(2).InexactFloat64()
	}
	dash.RevenueSeries = make([]Bucket, len(labels))
	for i, l := range labels {
		dash.RevenueSeries[i] = Bucket{Label: l, Value: series[i].Round(2).InexactFloat64()}
	}
	if len(tickets) > 0 {
		if mean, err := stats.Mean(tickets); err == nil {
			dash.MeanTicket = decimal.NewFromFloat(mean).Round(2).InexactFloat64()
		}
		if median, err := stats.Median(tickets); err == nil {
			dash.MedianTicket = decimal.NewFromFloat(median).Round(2).InexactFloat64()
		}
	}
	dash.TopTrainer = topTrainer(trainers)

	s.memberStats(dash, members, now)
	return dash, nil
}

// topTrainer picks the most assigned trainer, then the highest revenue,
// then the name.
func topTrainer(trainers map[string]*TopTrainer) *TopTrainer {
	list := make([]*TopTrainer, 0, len(trainers))
	for _, t := range trainers {
		list = append(list, t)
	}
	if len(list) == 0 {
		return nil
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Assignments != b.Assignments {
			return a.Assignments > b.Assignments
		}
		if a.Revenue != b.Revenue {
			return a.Revenue > b.Revenue
		}
		return a.Name < b.Name
	})
	return list[0]
}

// memberStats fills the member counters: derived status counts and joins per
// month over the trailing twelve months.
func (s *reportService) memberStats(dash *Dashboard, members []domain.Member, now time.Time) {
	loc := now.Location()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	first := thisMonth.AddDate(0, -11, 0)

	joins := make([]int, 12)
	for _, m := range members {
		lc := m.Lifecycle(now, s.windowDays)
		dash.MemberStatus[lc.MembershipStatus]++

		j := m.JoinDate.In(loc)
		if j.Before(first) || j.After(now) {
			continue
		}
		idx := (j.Year()-first.Year())*12 + int(j.Month()) - int(first.Month())
		if idx >= 0 && idx < 12 {
			joins[idx]++
		}
	}
	dash.NewMembersByMonth = make([]Bucket, 12)
	for i := range joins {
		dash.NewMembersByMonth[i] = Bucket{
			Label: first.AddDate(0, i, 0).Format("Jan 2006"),
			Value: float64(joins[i]),
		}
	}
	dash.NewMembersThisMonth = joins[11]
}
