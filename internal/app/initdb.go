package app

import (
	"context"

	"github.com/orangeboy/storefront/internal/domain"
	"go.uber.org/zap"
)

func strp(s string) *string { return &s }

// demoProducts is the starter catalog used when seed_demo is enabled.
var demoProducts = []domain.ProductPayload{
	{Name: "김치", Price: 5000, Category: strp(domain.CategoryFood), Description: strp("직접 담근 배추김치")},
	{Name: "떡볶이", Price: 4500, Category: strp(domain.CategoryFood), Description: strp("매콤달콤한 국물 떡볶이")},
	{Name: "약과", Price: 3000, Category: strp(domain.CategorySnack), Description: strp("꿀을 넣은 전통 과자")},
	{Name: "유자차", Price: 4000, Category: strp(domain.CategoryTea), Description: strp("국산 유자로 만든 차")},
	{Name: "오미자 주스", Price: 3500, Category: strp(domain.CategoryJuice)},
}

// checkProducts seeds the demo catalog into an empty relational store, or into
// the fallback store when nothing durable is configured.
func (a *Application) checkProducts() {
	locale := a.languages.Default()
	switch {
	case a.repo != nil:
		ctx := context.Background()
		n, err := a.repo.CountProducts(ctx)
		if err != nil {
			zap.L().Error("failed to count products", zap.Error(err))
			return
		}
		if n > 0 {
			return
		}
		for i := range demoProducts {
			p := demoProducts[i]
			p.Locale = locale
			if _, err := a.repo.CreateProduct(ctx, &p); err != nil {
				zap.L().Error("failed to seed product", zap.String("name", p.Name), zap.Error(err))
				return
			}
		}
		zap.L().Info("initialized demo products", zap.Int("count", len(demoProducts)), zap.String("store", "database"))
	case a.catalog.BackendName() == "":
		if a.store.Len() > 0 {
			return
		}
		for i := range demoProducts {
			p := demoProducts[i]
			p.Locale = locale
			a.store.AppendProduct(&p)
		}
		zap.L().Info("initialized demo products", zap.Int("count", len(demoProducts)), zap.String("store", "fallback"))
	default:
		zap.L().Info("demo seeding skipped for CMS backend")
	}
}
