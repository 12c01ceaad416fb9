package config

import (
	"fmt"
	model "scorehub/repository"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var enumQueries = []string{
	`CREATE TYPE archery.session_status AS ENUM ('Preliminary', 'Final', 'Confirmed', 'Rejected')`,
	`CREATE TYPE archery.arrow_value AS ENUM ('M', '1', '2', '3', '4', '5', '6', '7', '8', '9', '10', 'X')`,
}

func DatabaseConnection() *gorm.DB {
	cfg := Env()
	db, err := InitDB(cfg.DatabaseHost, cfg.DatabasePort, cfg.PostgresUser, cfg.PostgresPassword, cfg.DatabaseName)
	if err != nil {
		panic(err)
	}
	return db
}

func InitDB(host string, port string, user string, password string, dbName string) (*gorm.DB, error) {
	logMode := logger.Silent
	if IsDevelopment() {
		logMode = logger.Warn
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", host, port, user, password, dbName)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "archery.",
			SingularTable: false,
		},
		Logger: logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}
	x := db.Exec(`CREATE SCHEMA IF NOT EXISTS archery`)
	if x.Error != nil {
		return nil, x.Error
	}
	for _, query := range enumQueries {
		x := db.Exec(query)
		if x.Error != nil {
			if strings.Contains(x.Error.Error(), "already exists") {
				continue
			}
			return nil, x.Error
		}
	}

	err = db.AutoMigrate(
		&model.Gender{},
		&model.Division{},
		&model.AgeClass{},
		&model.Category{},
		&model.Member{},
		&model.Round{},
		&model.RoundRange{},
		&model.Session{},
		&model.End{},
		&model.Arrow{},
		&model.SessionAudit{},
		&model.Competition{},
		&model.CompetitionEntry{},
		&model.Championship{},
	)

	if err != nil {
		return nil, err
	}
	return db, nil
}
