package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/globalagency/payments/internal/models"
	"github.com/globalagency/payments/pkg/types"
)

type StatisticType string

const (
	// Daily counts and collected volume
	StatisticTypeDailyPaymentCount StatisticType = "daily_payment_count"
	StatisticTypeDailyVolume       StatisticType = "daily_volume"
	StatisticTypeTotalCollected    StatisticType = "total_collected"

	// Breakdowns over the whole payment table
	StatisticTypeStatusBreakdown  StatisticType = "status_breakdown"
	StatisticTypeGatewayBreakdown StatisticType = "gateway_breakdown"
)

// Filter fields with special handling in the WHERE clause.
type PaymentStatisticFilterType string

const (
	PaymentStatisticFilterTypeIsSuccessful PaymentStatisticFilterType = "is_successful"
	PaymentStatisticFilterTypeGateway      PaymentStatisticFilterType = "gateway"
	PaymentStatisticFilterTypeMethod       PaymentStatisticFilterType = "method"
)

var filterTypes = []PaymentStatisticFilterType{
	PaymentStatisticFilterTypeIsSuccessful,
	PaymentStatisticFilterTypeGateway,
	PaymentStatisticFilterTypeMethod,
}

var validFilters = map[PaymentStatisticFilterType][]StatisticType{
	PaymentStatisticFilterTypeIsSuccessful: {StatisticTypeDailyPaymentCount, StatisticTypeDailyVolume},
	PaymentStatisticFilterTypeGateway:      {StatisticTypeDailyPaymentCount, StatisticTypeDailyVolume, StatisticTypeStatusBreakdown},
	PaymentStatisticFilterTypeMethod:       {StatisticTypeDailyPaymentCount, StatisticTypeDailyVolume, StatisticTypeStatusBreakdown},
}

type PaymentStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type PaymentStatisticRequest struct {
	Filters   []*types.CommonFilter       `json:"filters"`
	DataItems []*PaymentStatisticDataItem `json:"data_items"`
}

func (f *PaymentStatisticRequest) GetFilters(statisticType StatisticType) *PaymentStatisticRequest {
	if f == nil || len(f.Filters) == 0 {
		return f
	}
	var result PaymentStatisticRequest
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[PaymentStatisticFilterType(filter.Field)]; ok {
			if lo.Contains(statisticTypes, statisticType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return &result
}

// Build composes a WHERE clause from the provided filters, with custom
// handling for is_successful which lives in a boolean column.
func (f *PaymentStatisticRequest) Build(builder clause.Builder) {
	if f == nil || len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		switch filter.Field {
		case string(PaymentStatisticFilterTypeIsSuccessful):
			if len(filter.Values) > 0 && fmt.Sprint(filter.Values[0]) == "true" {
				builder.WriteString("is_successful = true")
			} else {
				builder.WriteString("is_successful = false")
			}
		default:
			filter.Build(builder)
		}
	}
}

type PaymentStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type PaymentStatisticResponse struct {
	DataItems map[StatisticType][]PaymentStatisticResponseDataItem `json:"data_items"`
}

// Service answers back-office statistics queries over the payment table.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyPaymentCount(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Payment{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyPaymentCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyVolume(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Payment{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount) as value").
		Where("is_successful = ?", true).
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyVolume)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getTotalCollected reports the running total of settled money per currency,
// one row per day since the first payment.
func (s *Service) getTotalCollected(ctx context.Context, _ *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date
    FROM payment WHERE is_successful = true
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM payment WHERE is_successful = true
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
collected_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(p.amount), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN payment p
      ON TO_CHAR(p.created_at, 'YYYY-MM-DD') = dc.date
     AND p.currency = dc.label
     AND p.is_successful = true
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM collected_date d
LEFT JOIN collected_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatusBreakdown(ctx context.Context, request *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Payment{}).TableName()).
		Select("status AS label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeStatusBreakdown)}}).
		Group("status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getGatewayBreakdown(ctx context.Context, _ *PaymentStatisticRequest) ([]PaymentStatisticResponseDataItem, error) {
	var results []PaymentStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Payment{}).TableName()).
		Select("gateway AS label, count(*) as value").
		Group("gateway").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getPaymentStatistic(ctx context.Context, request *PaymentStatisticRequest, dataItem *PaymentStatisticDataItem) ([]PaymentStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyPaymentCount:
		return s.getDailyPaymentCount(ctx, request)
	case StatisticTypeDailyVolume:
		return s.getDailyVolume(ctx, request)
	case StatisticTypeTotalCollected:
		return s.getTotalCollected(ctx, request)
	case StatisticTypeStatusBreakdown:
		return s.getStatusBreakdown(ctx, request)
	case StatisticTypeGatewayBreakdown:
		return s.getGatewayBreakdown(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

func (s *Service) GetPaymentStatistic(ctx context.Context, request *PaymentStatisticRequest) (*PaymentStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []PaymentStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *PaymentStatisticDataItem) {
			defer wg.Done()
			// check filter applicability
			for _, filter := range request.Filters {
				ft := PaymentStatisticFilterType(filter.Field)
				if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], di.ID) {
					resChan <- &lo.Entry[StatisticType, []PaymentStatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getPaymentStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []PaymentStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]PaymentStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &PaymentStatisticResponse{DataItems: results}, nil
}
