package service

import (
	"time"

	"gorm.io/gorm"
)

// PersonalBest is a member's best confirmed total on one round.
type PersonalBest struct {
	RoundId    int
	RoundName  string
	TotalScore int
	XCount     int
	ShootDate  time.Time
}

// ClubRecord is the best confirmed total per category on one round.
type ClubRecord struct {
	FullName     string
	AgeClassCode string
	GenderCode   string
	BowTypeCode  string
	TotalScore   int
	XCount       int
	ShootDate    time.Time
}

type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

const sessionTotalsQuery = `
	SELECT
		s.id AS session_id,
		s.member_id,
		s.round_id,
		s.shoot_date,
		COALESCE(SUM(CASE
			WHEN a.value = 'X' THEN 10
			WHEN a.value = 'M' THEN 0
			ELSE (a.value::text)::int
		END), 0) AS total_score,
		COUNT(*) FILTER (WHERE a.value = 'X') AS x_count
	FROM
		archery.sessions s
	JOIN
		archery.ends e ON e.session_id = s.id
	JOIN
		archery.arrows a ON a.end_id = e.id
	WHERE
		s.status = 'Confirmed'
	GROUP BY
		s.id, s.member_id, s.round_id, s.shoot_date
`

// GetPersonalBests returns the member's best confirmed total per round,
// highest first.
func (s *RecordService) GetPersonalBests(memberId int) ([]*PersonalBest, error) {
	query := `
	WITH session_totals AS (` + sessionTotalsQuery + `)
	SELECT DISTINCT ON (st.round_id)
		st.round_id,
		r.round_name,
		st.total_score,
		st.x_count,
		st.shoot_date
	FROM
		session_totals st
	JOIN
		archery.rounds r ON r.id = st.round_id
	WHERE
		st.member_id = @memberId
	ORDER BY
		st.round_id, st.total_score DESC, st.x_count DESC, st.shoot_date ASC
	`
	personalBests := make([]*PersonalBest, 0)
	err := s.db.Raw(query, map[string]interface{}{"memberId": memberId}).Scan(&personalBests).Error
	if err != nil {
		return nil, err
	}
	return personalBests, nil
}

// GetClubRecords returns the standing record per category for one round. Ties
// on score and x-count go to the earliest shoot date.
func (s *RecordService) GetClubRecords(roundId int, policyYear int) ([]*ClubRecord, error) {
	query := `
	WITH session_totals AS (` + sessionTotalsQuery + `),
	ranked AS (
		SELECT
			st.session_id,
			st.total_score,
			st.x_count,
			st.shoot_date,
			m.full_name,
			ac.code AS age_class_code,
			g.code AS gender_code,
			d.bow_type_code,
			ROW_NUMBER() OVER (
				PARTITION BY ac.code, d.bow_type_code, g.code
				ORDER BY st.total_score DESC, st.x_count DESC, st.shoot_date ASC, st.session_id ASC
			) AS rn
		FROM
			session_totals st
		JOIN
			archery.members m ON m.id = st.member_id
		JOIN
			archery.genders g ON g.id = m.gender_id
		JOIN
			archery.divisions d ON d.id = m.division_id
		JOIN
			archery.age_classes ac ON m.birth_year BETWEEN ac.min_birth_year AND ac.max_birth_year
			AND ac.policy_year = @policyYear
		WHERE
			st.round_id = @roundId
	)
	SELECT
		full_name,
		age_class_code,
		gender_code,
		bow_type_code,
		total_score,
		x_count,
		shoot_date
	FROM
		ranked
	WHERE
		rn = 1
	ORDER BY
		bow_type_code, gender_code, age_class_code
	`
	records := make([]*ClubRecord, 0)
	err := s.db.Raw(query, map[string]interface{}{"roundId": roundId, "policyYear": policyYear}).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
