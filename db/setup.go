package db

import (
	"github.com/monocle-dev/taskboard/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDatabase(dsn string, debug bool) error {
	var err error

	DB, err = Open(postgres.Open(dsn), debug)

	if err != nil {
		return err
	}

	return nil
}

// Open is split out so tests can run the same setup against another dialector.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
}

func MigrateDatabase(conn *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Task{},
		&models.BoardShare{},
		&models.TaskVisibility{},
		&models.TaskBoardMember{},
	}

	return conn.AutoMigrate(models...)
}
