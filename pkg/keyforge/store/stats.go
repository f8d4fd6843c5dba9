package store

import (
	"gorm.io/gorm"

	"github.com/thomasvn/keyforge/pkg/keyforge/models"
)

// UsageStat is one day's verification count
type UsageStat struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// KeyDistribution is the raw key count per type
type KeyDistribution struct {
	Free int64 `json:"free"`
	Vip  int64 `json:"vip"`
}

// DashboardStats is the admin dashboard rollup. Field names follow the
// admin console's wire contract.
type DashboardStats struct {
	TotalKeys       int64           `json:"totalKeys"`
	ActiveKeys      int64           `json:"activeKeys"`
	VipUsers        int64           `json:"vipUsers"`
	APIRequests     int64           `json:"apiRequests"`
	KeyDistribution KeyDistribution `json:"keyDistribution"`
	UsageStats      []UsageStat     `json:"usageStats"`
}

// Stats recomputes the dashboard rollup from scratch on every call.
//
// ActiveKeys checks expires_at directly rather than trusting the status
// column, so it stays correct for keys that expired but have not been
// swept yet. VipUsers is the raw count of VIP key rows, not distinct owners,
// mirroring the admin console's original meaning.
func (s *Store) Stats() (*DashboardStats, error) {
	now := s.now()
	stats := &DashboardStats{}

	keys := func() *gorm.DB { return s.db.Model(&models.Key{}) }

	if err := keys().Count(&stats.TotalKeys).Error; err != nil {
		return nil, err
	}
	err := keys().
		Where("status = ? AND (expires_at IS NULL OR expires_at > ?)",
			models.KeyStatusActive, now).
		Count(&stats.ActiveKeys).Error
	if err != nil {
		return nil, err
	}
	if err := keys().Where("type = ?", models.KeyTypeVip).Count(&stats.VipUsers).Error; err != nil {
		return nil, err
	}
	if err := keys().Where("type = ?", models.KeyTypeFree).Count(&stats.KeyDistribution.Free).Error; err != nil {
		return nil, err
	}
	stats.KeyDistribution.Vip = stats.VipUsers

	weekAgo := now.AddDate(0, 0, -7)
	var recent []models.UsageLog
	if err := s.db.Where("timestamp >= ?", weekAgo).Find(&recent).Error; err != nil {
		return nil, err
	}
	stats.APIRequests = int64(len(recent))

	// One bucket per day for the trailing week, oldest first, zero days kept
	byDay := make(map[string]int64, 7)
	for i := 6; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		byDay[date] = 0
		stats.UsageStats = append(stats.UsageStats, UsageStat{Date: date})
	}
	for _, log := range recent {
		date := log.Timestamp.Format("2006-01-02")
		if _, ok := byDay[date]; ok {
			byDay[date]++
		}
	}
	for i := range stats.UsageStats {
		stats.UsageStats[i].Count = byDay[stats.UsageStats[i].Date]
	}

	return stats, nil
}
