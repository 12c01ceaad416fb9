package repository

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
)

var db *gorm.DB
var enumQueries = []string{
	`CREATE TYPE archery.session_status AS ENUM ('Preliminary', 'Final', 'Confirmed', 'Rejected')`,
	`CREATE TYPE archery.arrow_value AS ENUM ('M', '1', '2', '3', '4', '5', '6', '7', '8', '9', '10', 'X')`,
}

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	// uses pool to try to connect to Docker
	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	// pulls an image, creates a container based on it and runs it
	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600) // Tell docker to hard kill the container in 10 minutes
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=archery",
		resource.GetPort("5432/tcp"))

	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "archery.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS archery`)
		for _, query := range enumQueries {
			x := db.Exec(query)
			if x.Error != nil {
				if strings.Contains(x.Error.Error(), "already exists") {
					continue
				}
			}
		}
		return db.AutoMigrate(
			&Gender{},
			&Division{},
			&AgeClass{},
			&Category{},
			&Member{},
			&Round{},
			&RoundRange{},
			&Session{},
			&End{},
			&Arrow{},
			&SessionAudit{},
			&Competition{},
			&CompetitionEntry{},
			&Championship{},
		)

	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	// as of go1.15 testing.M returns the exit code of m.Run(), so it is safe to use defer here
	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}

	}()
	m.Run()
}

func TearDown() {
	db.Exec("DELETE FROM archery.session_audits")
	db.Exec("DELETE FROM archery.competition_entries")
	db.Exec("DELETE FROM archery.competitions")
	db.Exec("DELETE FROM archery.arrows")
	db.Exec("DELETE FROM archery.ends")
	db.Exec("DELETE FROM archery.sessions")
	db.Exec("DELETE FROM archery.round_ranges")
	db.Exec("DELETE FROM archery.rounds")
	db.Exec("DELETE FROM archery.members")
	db.Exec("DELETE FROM archery.divisions")
	db.Exec("DELETE FROM archery.genders")
}

type fixture struct {
	member   *Member
	recorder *Member
	round    *Round
}

func SetUp() *fixture {
	gender := &Gender{Code: "F", Name: "Female"}
	if err := db.Create(gender).Error; err != nil {
		log.Fatalf("Error creating gender: %v", err)
	}
	division := &Division{BowTypeCode: "R", Name: "Recurve", IsActive: true}
	if err := db.Create(division).Error; err != nil {
		log.Fatalf("Error creating division: %v", err)
	}
	avNumber := "VIC001"
	member := &Member{
		FullName:   "archer1",
		BirthYear:  1990,
		GenderId:   gender.Id,
		DivisionId: &division.Id,
		AvNumber:   &avNumber,
	}
	recorder := &Member{
		FullName:   "recorder1",
		BirthYear:  1970,
		GenderId:   gender.Id,
		IsRecorder: true,
	}
	if err := db.Create([]*Member{member, recorder}).Error; err != nil {
		log.Fatalf("Error creating members: %v", err)
	}
	round := &Round{
		RoundName: "Melbourne",
		Ranges: []*RoundRange{
			{SeqNo: 1, DistanceM: 60, FaceSizeCm: 122, EndsPerRange: 5, ArrowsPerEnd: 6},
			{SeqNo: 2, DistanceM: 50, FaceSizeCm: 122, EndsPerRange: 5, ArrowsPerEnd: 6},
		},
	}
	if err := db.Create(round).Error; err != nil {
		log.Fatalf("Error creating round: %v", err)
	}
	return &fixture{member: member, recorder: recorder, round: round}
}

func TestSaveEndKeepsArrowsOrdered(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionRepository := NewSessionRepository(db)

	session, err := sessionRepository.Save(&Session{
		MemberId:  f.member.Id,
		RoundId:   f.round.Id,
		ShootDate: time.Now(),
		Status:    StatusPreliminary,
	})
	assert.Nil(t, err)

	end := &End{
		SessionId:    session.Id,
		RoundRangeId: f.round.Ranges[0].Id,
		EndNo:        1,
	}
	for i, value := range []ArrowValue{"X", "10", "9", "9", "8", "M"} {
		end.Arrows = append(end.Arrows, &Arrow{ArrowNo: i + 1, Value: value})
	}
	_, err = sessionRepository.SaveEnd(end)
	assert.Nil(t, err)

	loaded, err := sessionRepository.GetSessionById(session.Id)
	assert.Nil(t, err)
	assert.Len(t, loaded.Ends, 1)
	assert.Len(t, loaded.Ends[0].Arrows, 6)
	for i, arrow := range loaded.Ends[0].Arrows {
		assert.Equal(t, i+1, arrow.ArrowNo)
	}
	assert.Equal(t, ArrowValue("X"), loaded.Ends[0].Arrows[0].Value)
}

func TestUpdateStatusWritesAuditRow(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionRepository := NewSessionRepository(db)

	session, err := sessionRepository.Save(&Session{
		MemberId:  f.member.Id,
		RoundId:   f.round.Id,
		ShootDate: time.Now(),
		Status:    StatusPreliminary,
	})
	assert.Nil(t, err)

	err = sessionRepository.UpdateStatus(session.Id, StatusPreliminary, StatusFinal, f.recorder.Id)
	assert.Nil(t, err)

	loaded, err := sessionRepository.GetSessionById(session.Id)
	assert.Nil(t, err)
	assert.Equal(t, StatusFinal, loaded.Status)

	trail, err := sessionRepository.GetAuditTrail(session.Id)
	assert.Nil(t, err)
	assert.Len(t, trail, 1)
	assert.Equal(t, StatusPreliminary, trail[0].OldStatus)
	assert.Equal(t, StatusFinal, trail[0].NewStatus)
	assert.Equal(t, f.recorder.Id, trail[0].ChangedById)
}

func TestUpdateStatusRefusesStaleTransition(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionRepository := NewSessionRepository(db)

	session, err := sessionRepository.Save(&Session{
		MemberId:  f.member.Id,
		RoundId:   f.round.Id,
		ShootDate: time.Now(),
		Status:    StatusFinal,
	})
	assert.Nil(t, err)

	// the expected status no longer matches, so nothing may change
	err = sessionRepository.UpdateStatus(session.Id, StatusPreliminary, StatusConfirmed, f.recorder.Id)
	assert.NotNil(t, err)

	loaded, err := sessionRepository.GetSessionById(session.Id)
	assert.Nil(t, err)
	assert.Equal(t, StatusFinal, loaded.Status)

	trail, err := sessionRepository.GetAuditTrail(session.Id)
	assert.Nil(t, err)
	assert.Len(t, trail, 0)
}

func TestGetConfirmedSessionsFiltersRoundAndWindow(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionRepository := NewSessionRepository(db)

	otherRound := &Round{
		RoundName: "Short Melbourne",
		Ranges: []*RoundRange{
			{SeqNo: 1, DistanceM: 30, FaceSizeCm: 80, EndsPerRange: 5, ArrowsPerEnd: 6},
		},
	}
	assert.Nil(t, db.Create(otherRound).Error)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	inWindow := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	sessions := []*Session{
		{MemberId: f.member.Id, RoundId: f.round.Id, ShootDate: inWindow, Status: StatusConfirmed},
		{MemberId: f.member.Id, RoundId: f.round.Id, ShootDate: inWindow, Status: StatusPreliminary},
		{MemberId: f.member.Id, RoundId: f.round.Id, ShootDate: outOfWindow, Status: StatusConfirmed},
		{MemberId: f.member.Id, RoundId: otherRound.Id, ShootDate: inWindow, Status: StatusConfirmed},
	}
	assert.Nil(t, db.Create(sessions).Error)

	confirmed, err := sessionRepository.GetConfirmedSessions([]int{f.round.Id}, from, to)
	assert.Nil(t, err)
	assert.Len(t, confirmed, 1)
	assert.Equal(t, sessions[0].Id, confirmed[0].Id)
}

func TestCompetitionEntryUniquePerSession(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionRepository := NewSessionRepository(db)
	competitionRepository := NewCompetitionRepository(db)

	ageClass := &AgeClass{Code: "Open", PolicyYear: 2025, MinBirthYear: 1956, MaxBirthYear: 2011}
	assert.Nil(t, db.Create(ageClass).Error)
	category := &Category{
		PolicyYear: 2025,
		AgeClassId: ageClass.Id,
		GenderId:   f.member.GenderId,
		DivisionId: *f.member.DivisionId,
	}
	assert.Nil(t, db.Create(category).Error)

	competition, err := competitionRepository.Save(&Competition{
		Name:      "Club Open",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.Nil(t, err)

	session, err := sessionRepository.Save(&Session{
		MemberId:  f.member.Id,
		RoundId:   f.round.Id,
		ShootDate: competition.StartDate,
		Status:    StatusConfirmed,
	})
	assert.Nil(t, err)

	_, err = competitionRepository.SaveEntry(&CompetitionEntry{
		CompetitionId: competition.Id,
		SessionId:     session.Id,
		CategoryId:    category.Id,
	})
	assert.Nil(t, err)

	_, err = competitionRepository.SaveEntry(&CompetitionEntry{
		CompetitionId: competition.Id,
		SessionId:     session.Id,
		CategoryId:    category.Id,
	})
	assert.NotNil(t, err)

	entry, err := competitionRepository.GetEntryBySessionId(session.Id)
	assert.Nil(t, err)
	assert.Equal(t, competition.Id, entry.CompetitionId)
}
