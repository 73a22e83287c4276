package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ramp_metrics/internal/feature/volumes/domain/entity"
	"ramp_metrics/internal/feature/volumes/usecase"
)

type volumeSQL struct {
	db *gorm.DB
}

var (
	_ usecase.VolumeSource = (*volumeSQL)(nil)
	_ usecase.VolumeWriter = (*volumeSQL)(nil)
)

// NewVolumeRepository はロールアップテーブルを読み書きするリポジトリを返します。
// PostgreSQL と SQLite の両方で動くSQLだけを使います。
func NewVolumeRepository(db *gorm.DB) *volumeSQL {
	return &volumeSQL{db: db}
}

// VolumeModel は1日・1チェーンあたりのランプ取引額です。day は YYYY-MM-DD の文字列で保持します。
type VolumeModel struct {
	ID    uint   `gorm:"primaryKey"`
	Day   string `gorm:"size:10;not null;uniqueIndex:ramp_volume_day_chain,priority:1"`
	Chain string `gorm:"size:64;not null;default:'';uniqueIndex:ramp_volume_day_chain,priority:2"`

	BuyUSD   decimal.Decimal `gorm:"column:buy_usd;type:numeric(38,8);not null;default:0"`
	SellUSD  decimal.Decimal `gorm:"column:sell_usd;type:numeric(38,8);not null;default:0"`
	TotalUSD decimal.Decimal `gorm:"column:total_usd;type:numeric(38,8);not null;default:0"`

	UpdatedAt time.Time
}

func (VolumeModel) TableName() string {
	return "ramp_volumes"
}

type dailyAggregate struct {
	Day      string `gorm:"column:day"`
	Chain    string `gorm:"column:chain"`
	BuyUSD   string `gorm:"column:buy_usd"`
	SellUSD  string `gorm:"column:sell_usd"`
	TotalUSD string `gorm:"column:total_usd"`
}

type monthlyAggregate struct {
	Month    string `gorm:"column:month"`
	BuyUSD   string `gorm:"column:buy_usd"`
	SellUSD  string `gorm:"column:sell_usd"`
	TotalUSD string `gorm:"column:total_usd"`
}

func toModel(r entity.VolumeRow) VolumeModel {
	return VolumeModel{
		Day:      entity.FormatDay(r.Day),
		Chain:    r.Chain,
		BuyUSD:   r.Buy,
		SellUSD:  r.Sell,
		TotalUSD: r.Total,
	}
}

// FetchDailyRows は [start, end] の日次行を (day, chain) ごとに集計して返します。
func (r *volumeSQL) FetchDailyRows(ctx context.Context, start, end time.Time) ([]entity.RawDailyRow, error) {
	var aggs []dailyAggregate
	err := r.db.WithContext(ctx).
		Model(&VolumeModel{}).
		Select("day, chain, SUM(buy_usd) AS buy_usd, SUM(sell_usd) AS sell_usd, SUM(total_usd) AS total_usd").
		Where("day BETWEEN ? AND ?", entity.FormatDay(start), entity.FormatDay(end)).
		Group("day, chain").
		Order("day, chain").
		Scan(&aggs).Error
	if err != nil {
		return nil, describeDBError("query daily volumes", err)
	}

	out := make([]entity.RawDailyRow, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, entity.RawDailyRow{
			Day:   a.Day,
			Chain: a.Chain,
			Buy:   a.BuyUSD,
			Sell:  a.SellUSD,
			Total: a.TotalUSD,
		})
	}
	return out, nil
}

// FetchMonthlyRows は year の月次行を返します。活動のない月は含みません。
// SQLite は numeric 列を REAL で保持し SUM で誤差が出るため、月ごとの合計は Go 側で計算します。
func (r *volumeSQL) FetchMonthlyRows(ctx context.Context, year int) ([]entity.RawMonthlyRow, error) {
	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if r.db.Dialector.Name() == "sqlite" {
		return r.sumMonthlyRows(ctx, first, last)
	}

	var aggs []monthlyAggregate
	err := r.db.WithContext(ctx).
		Model(&VolumeModel{}).
		Select("substr(day, 1, 7) AS month, SUM(buy_usd) AS buy_usd, SUM(sell_usd) AS sell_usd, SUM(total_usd) AS total_usd").
		Where("day BETWEEN ? AND ?", entity.FormatDay(first), entity.FormatDay(last)).
		Group("substr(day, 1, 7)").
		Order("month").
		Scan(&aggs).Error
	if err != nil {
		return nil, describeDBError("query monthly volumes", err)
	}

	out := make([]entity.RawMonthlyRow, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, entity.RawMonthlyRow{
			Month: a.Month,
			Buy:   a.BuyUSD,
			Sell:  a.SellUSD,
			Total: a.TotalUSD,
		})
	}
	return out, nil
}

// sumMonthlyRows は [first, last] の行を読み、月ごとに decimal で合計します。
func (r *volumeSQL) sumMonthlyRows(ctx context.Context, first, last time.Time) ([]entity.RawMonthlyRow, error) {
	var rows []dailyAggregate
	err := r.db.WithContext(ctx).
		Model(&VolumeModel{}).
		Select("day, chain, buy_usd, sell_usd, total_usd").
		Where("day BETWEEN ? AND ?", entity.FormatDay(first), entity.FormatDay(last)).
		Order("day").
		Scan(&rows).Error
	if err != nil {
		return nil, describeDBError("query monthly volumes", err)
	}

	type sums struct{ buy, sell, total decimal.Decimal }
	var months []string
	byMonth := map[string]*sums{}
	for _, row := range rows {
		if len(row.Day) < 7 {
			return nil, fmt.Errorf("query monthly volumes: malformed day %q", row.Day)
		}
		month := row.Day[:7]
		acc, ok := byMonth[month]
		if !ok {
			acc = &sums{}
			byMonth[month] = acc
			months = append(months, month)
		}
		for _, f := range []struct {
			dst *decimal.Decimal
			raw string
		}{{&acc.buy, row.BuyUSD}, {&acc.sell, row.SellUSD}, {&acc.total, row.TotalUSD}} {
			v, err := decimal.NewFromString(f.raw)
			if err != nil {
				return nil, fmt.Errorf("query monthly volumes: day %s: %w", row.Day, err)
			}
			*f.dst = f.dst.Add(v)
		}
	}

	out := make([]entity.RawMonthlyRow, 0, len(months))
	for _, m := range months {
		acc := byMonth[m]
		out = append(out, entity.RawMonthlyRow{
			Month: m,
			Buy:   acc.buy.String(),
			Sell:  acc.sell.String(),
			Total: acc.total.String(),
		})
	}
	return out, nil
}

// UpsertRows は (day, chain) が重複する行を上書きして一括で書き込みます。
func (r *volumeSQL) UpsertRows(ctx context.Context, rows []entity.VolumeRow) error {
	if len(rows) == 0 {
		return nil
	}
	ms := make([]VolumeModel, 0, len(rows))
	for _, row := range rows {
		ms = append(ms, toModel(row))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "chain"}},
		DoUpdates: clause.AssignmentColumns([]string{"buy_usd", "sell_usd", "total_usd", "updated_at"}),
	}).CreateInBatches(&ms, 500).Error
	if err != nil {
		return describeDBError("upsert volumes", err)
	}
	return nil
}

// describeDBError は PostgreSQL のエラーなら SQLSTATE を付けてログに残します。
func describeDBError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		slog.Error("database error", "op", op, "sqlstate", pgErr.Code, "detail", pgErr.Detail)
		return fmt.Errorf("%s: sqlstate %s: %w", op, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
