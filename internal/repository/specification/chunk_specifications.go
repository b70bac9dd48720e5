package specification

import "gorm.io/gorm"

// BySourceCategories restricts to a set of corpus categories.
type BySourceCategories struct {
	Categories []string
}

func (s BySourceCategories) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Categories) == 0 {
		return db
	}
	return db.Where("source_category IN ?", s.Categories)
}

// ByIntent filters query logs by their resolved intent.
type ByIntent struct {
	Intent string
}

func (s ByIntent) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("intent = ?", s.Intent)
}
