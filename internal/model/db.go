package model

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Document{},
		&DocumentPermission{},
		&WorkspaceMembership{},
		&Teamspace{},
		&TeamspaceMembership{},
		&Snapshot{},
		&Step{},
		&PublishedDocument{},
	)
}
