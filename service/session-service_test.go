package service

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"scorehub/app_error"
	"scorehub/repository"

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
			&repository.Gender{},
			&repository.Division{},
			&repository.AgeClass{},
			&repository.Category{},
			&repository.Member{},
			&repository.Round{},
			&repository.RoundRange{},
			&repository.Session{},
			&repository.End{},
			&repository.Arrow{},
			&repository.SessionAudit{},
			&repository.Competition{},
			&repository.CompetitionEntry{},
			&repository.Championship{},
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
	member   *repository.Member
	recorder *repository.Member
	round    *repository.Round
}

func SetUp() *fixture {
	gender := &repository.Gender{Code: "F", Name: "Female"}
	if err := db.Create(gender).Error; err != nil {
		log.Fatalf("Error creating gender: %v", err)
	}
	division := &repository.Division{BowTypeCode: "R", Name: "Recurve", IsActive: true}
	if err := db.Create(division).Error; err != nil {
		log.Fatalf("Error creating division: %v", err)
	}
	member := &repository.Member{
		FullName:   "archer1",
		BirthYear:  1990,
		GenderId:   gender.Id,
		DivisionId: &division.Id,
	}
	recorder := &repository.Member{
		FullName:   "recorder1",
		BirthYear:  1970,
		GenderId:   gender.Id,
		IsRecorder: true,
	}
	if err := db.Create([]*repository.Member{member, recorder}).Error; err != nil {
		log.Fatalf("Error creating members: %v", err)
	}
	round := &repository.Round{
		RoundName: "Melbourne",
		Ranges: []*repository.RoundRange{
			{SeqNo: 1, DistanceM: 60, FaceSizeCm: 122, EndsPerRange: 5, ArrowsPerEnd: 6},
		},
	}
	if err := db.Create(round).Error; err != nil {
		log.Fatalf("Error creating round: %v", err)
	}
	return &fixture{member: member, recorder: recorder, round: round}
}

func (f *fixture) createSession(status repository.SessionStatus) *repository.Session {
	session := &repository.Session{
		MemberId:  f.member.Id,
		RoundId:   f.round.Id,
		ShootDate: time.Now(),
		Status:    status,
	}
	if err := db.Create(session).Error; err != nil {
		log.Fatalf("Error creating session: %v", err)
	}
	return session
}

func TestTransitionRules(t *testing.T) {
	allowed := map[repository.SessionStatus][]repository.SessionStatus{
		repository.StatusPreliminary: {repository.StatusFinal, repository.StatusConfirmed, repository.StatusRejected},
		repository.StatusFinal:       {repository.StatusConfirmed, repository.StatusRejected},
		// Confirmed and Rejected are terminal
		repository.StatusConfirmed: {},
		repository.StatusRejected:  {},
	}
	statuses := []repository.SessionStatus{
		repository.StatusPreliminary,
		repository.StatusFinal,
		repository.StatusConfirmed,
		repository.StatusRejected,
	}
	for from, legal := range allowed {
		for _, to := range statuses {
			expected := false
			for _, status := range legal {
				if status == to {
					expected = true
				}
			}
			assert.Equal(t, expected, transitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestChangeStatusAppliesLegalTransitions(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionService := NewSessionService(db)
	session := f.createSession(repository.StatusPreliminary)

	assert.Nil(t, sessionService.ChangeStatus(session.Id, repository.StatusFinal, f.recorder.Id))
	assert.Nil(t, sessionService.ChangeStatus(session.Id, repository.StatusConfirmed, f.recorder.Id))

	loaded, err := sessionService.GetSessionById(session.Id)
	assert.Nil(t, err)
	assert.Equal(t, repository.StatusConfirmed, loaded.Status)

	trail, err := sessionService.GetAuditTrail(session.Id)
	assert.Nil(t, err)
	assert.Len(t, trail, 2)
}

func TestChangeStatusRefusesLeavingTerminalStates(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionService := NewSessionService(db)

	for _, terminal := range []repository.SessionStatus{repository.StatusConfirmed, repository.StatusRejected} {
		session := f.createSession(terminal)
		for _, to := range []repository.SessionStatus{repository.StatusPreliminary, repository.StatusFinal, repository.StatusConfirmed, repository.StatusRejected} {
			err := sessionService.ChangeStatus(session.Id, to, f.recorder.Id)
			assert.NotNil(t, err)
			assert.Equal(t, 409, app_error.HTTPStatus(err, 500))
		}
		loaded, err := sessionService.GetSessionById(session.Id)
		assert.Nil(t, err)
		assert.Equal(t, terminal, loaded.Status)

		trail, err := sessionService.GetAuditTrail(session.Id)
		assert.Nil(t, err)
		assert.Len(t, trail, 0)
	}
}

func TestChangeStatusRefusesRegression(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionService := NewSessionService(db)
	session := f.createSession(repository.StatusFinal)

	err := sessionService.ChangeStatus(session.Id, repository.StatusPreliminary, f.recorder.Id)
	assert.NotNil(t, err)
	assert.Equal(t, 409, app_error.HTTPStatus(err, 500))

	loaded, err := sessionService.GetSessionById(session.Id)
	assert.Nil(t, err)
	assert.Equal(t, repository.StatusFinal, loaded.Status)
}

func TestChangeStatusRequiresRecorder(t *testing.T) {
	f := SetUp()
	defer TearDown()
	sessionService := NewSessionService(db)
	session := f.createSession(repository.StatusPreliminary)

	err := sessionService.ChangeStatus(session.Id, repository.StatusFinal, f.member.Id)
	assert.NotNil(t, err)
	assert.Equal(t, 403, app_error.HTTPStatus(err, 500))

	loaded, err := sessionService.GetSessionById(session.Id)
	assert.Nil(t, err)
	assert.Equal(t, repository.StatusPreliminary, loaded.Status)
}
