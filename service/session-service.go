package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"scorehub/app_error"
	"scorehub/config"
	"scorehub/metrics"
	"scorehub/repository"
	"scorehub/scoring"
	"scorehub/utils"
	"time"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

// Transitions a recorder may apply. Preliminary and Final are both pending
// states; Confirmed and Rejected are terminal.
var allowedTransitions = map[repository.SessionStatus][]repository.SessionStatus{
	repository.StatusPreliminary: {repository.StatusFinal, repository.StatusConfirmed, repository.StatusRejected},
	repository.StatusFinal:       {repository.StatusConfirmed, repository.StatusRejected},
}

type SessionEvent struct {
	SessionId int    `json:"session_id"`
	MemberId  int    `json:"member_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedAt string `json:"changed_at"`
}

type SessionService struct {
	sessionRepository     *repository.SessionRepository
	memberRepository      *repository.MemberRepository
	roundRepository       *repository.RoundRepository
	competitionRepository *repository.CompetitionRepository

	writer *kafka.Writer
}

func NewSessionService(db *gorm.DB) *SessionService {
	service := &SessionService{
		sessionRepository:     repository.NewSessionRepository(db),
		memberRepository:      repository.NewMemberRepository(db),
		roundRepository:       repository.NewRoundRepository(db),
		competitionRepository: repository.NewCompetitionRepository(db),
	}
	writer, err := config.GetWriter(config.Env().PolicyYear)
	if err != nil {
		log.Printf("session events disabled: %v", err)
	} else {
		service.writer = writer
	}
	return service
}

func (s *SessionService) CreateSession(memberId int, roundId int, shootDate time.Time) (*repository.Session, error) {
	member, err := s.memberRepository.GetMemberById(memberId)
	if err != nil {
		return nil, err
	}
	if member.IsRecorder {
		return nil, app_error.New(fmt.Errorf("recorders do not shoot scoring sessions"), 400)
	}
	if _, err := s.roundRepository.GetRoundById(roundId); err != nil {
		return nil, err
	}
	session := &repository.Session{
		MemberId:  memberId,
		RoundId:   roundId,
		ShootDate: shootDate,
		Status:    repository.StatusPreliminary,
	}
	session, err = s.sessionRepository.Save(session)
	if err != nil {
		return nil, err
	}
	metrics.SessionsCreatedCounter.Inc()
	return session, nil
}

func (s *SessionService) GetSessionById(sessionId int, preloads ...string) (*repository.Session, error) {
	return s.sessionRepository.GetSessionById(sessionId, preloads...)
}

func (s *SessionService) GetSessionsForMember(memberId int) ([]*repository.Session, error) {
	return s.sessionRepository.GetSessionsForMember(memberId)
}

func (s *SessionService) GetPendingSessions() ([]*repository.Session, error) {
	return s.sessionRepository.GetPendingSessions()
}

// RecordEnd appends the next end for a range to a pending session. The arrow
// sequence must match the range's configured arrow count exactly; end numbers
// stay contiguous per range.
func (s *SessionService) RecordEnd(sessionId int, roundRangeId int, values []repository.ArrowValue) (*repository.End, error) {
	session, err := s.sessionRepository.GetSessionById(sessionId, "Round", "Round.Ranges")
	if err != nil {
		return nil, err
	}
	if session.Status != repository.StatusPreliminary {
		return nil, fmt.Errorf("session %d is %s, arrows can only be added while it is Preliminary", sessionId, session.Status)
	}
	roundRange := rangeById(session.Round, roundRangeId)
	if roundRange == nil {
		return nil, fmt.Errorf("range %d is not part of round %q", roundRangeId, session.Round.RoundName)
	}
	if err := scoring.ValidateArrows(values, roundRange.ArrowsPerEnd); err != nil {
		return nil, err
	}
	endsInRange := 0
	for _, end := range session.Ends {
		if end.RoundRangeId == roundRangeId {
			endsInRange++
		}
	}
	if endsInRange >= roundRange.EndsPerRange {
		return nil, fmt.Errorf("range %d already has all %d ends recorded", roundRangeId, roundRange.EndsPerRange)
	}
	end := &repository.End{
		SessionId:    sessionId,
		RoundRangeId: roundRangeId,
		EndNo:        endsInRange + 1,
	}
	for i, value := range values {
		end.Arrows = append(end.Arrows, &repository.Arrow{ArrowNo: i + 1, Value: value})
	}
	end, err = s.sessionRepository.SaveEnd(end)
	if err != nil {
		return nil, err
	}
	metrics.EndsRecordedCounter.Inc()
	return end, nil
}

// AmendEnd lets a recorder overwrite the arrows of an existing end, e.g. when
// fixing an entry mistake during approval.
func (s *SessionService) AmendEnd(sessionId int, endId int, values []repository.ArrowValue) (*repository.End, error) {
	session, err := s.sessionRepository.GetSessionById(sessionId, "Round", "Round.Ranges")
	if err != nil {
		return nil, err
	}
	if err := s.checkLock(session); err != nil {
		return nil, err
	}
	end, err := s.sessionRepository.GetEndById(endId)
	if err != nil {
		return nil, err
	}
	if end.SessionId != sessionId {
		return nil, fmt.Errorf("end %d does not belong to session %d", endId, sessionId)
	}
	roundRange := rangeById(session.Round, end.RoundRangeId)
	if roundRange == nil {
		return nil, fmt.Errorf("range %d is not part of round %q", end.RoundRangeId, session.Round.RoundName)
	}
	if err := scoring.ValidateArrows(values, roundRange.ArrowsPerEnd); err != nil {
		return nil, err
	}
	for i, arrow := range end.Arrows {
		arrow.Value = values[i]
	}
	if err := s.sessionRepository.UpdateArrows(end.Arrows); err != nil {
		return nil, err
	}
	return end, nil
}

func (s *SessionService) GetSessionScore(sessionId int) (*scoring.SessionScore, error) {
	session, err := s.sessionRepository.GetSessionById(sessionId, "Round", "Round.Ranges")
	if err != nil {
		return nil, err
	}
	score := scoring.AggregateSession(session)
	return &score, nil
}

// ChangeStatus applies a recorder transition, writes the audit row and
// publishes the event for downstream consumers.
func (s *SessionService) ChangeStatus(sessionId int, newStatus repository.SessionStatus, recorderId int) error {
	recorder, err := s.memberRepository.GetMemberById(recorderId)
	if err != nil {
		return err
	}
	if !recorder.IsRecorder {
		return app_error.New(fmt.Errorf("member %d is not a recorder", recorderId), 403)
	}
	session, err := s.sessionRepository.GetSessionById(sessionId)
	if err != nil {
		return err
	}
	if err := s.checkLock(session); err != nil {
		return err
	}
	if !transitionAllowed(session.Status, newStatus) {
		return app_error.New(fmt.Errorf("session %d cannot go from %s to %s", sessionId, session.Status, newStatus), 409)
	}
	if err := s.sessionRepository.UpdateStatus(sessionId, session.Status, newStatus, recorderId); err != nil {
		return err
	}
	metrics.StatusTransitionCounter.WithLabelValues(newStatus).Inc()
	s.publishEvent(SessionEvent{
		SessionId: sessionId,
		MemberId:  session.MemberId,
		OldStatus: session.Status,
		NewStatus: newStatus,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// BulkChangeStatus applies one transition to many sessions, skipping the ones
// that refuse it and reporting them back.
func (s *SessionService) BulkChangeStatus(sessionIds []int, newStatus repository.SessionStatus, recorderId int) map[int]error {
	failures := make(map[int]error)
	for _, sessionId := range sessionIds {
		if err := s.ChangeStatus(sessionId, newStatus, recorderId); err != nil {
			failures[sessionId] = err
		}
	}
	return failures
}

func (s *SessionService) GetAuditTrail(sessionId int) ([]*repository.SessionAudit, error) {
	return s.sessionRepository.GetAuditTrail(sessionId)
}

// checkLock refuses edits to Final/Confirmed sessions entered into a
// competition whose end date has passed.
func (s *SessionService) checkLock(session *repository.Session) error {
	if !config.Env().LockAfterCompetition {
		return nil
	}
	if session.Status != repository.StatusFinal && session.Status != repository.StatusConfirmed {
		return nil
	}
	entry, err := s.competitionRepository.GetEntryBySessionId(session.Id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	competition, err := s.competitionRepository.GetCompetitionById(entry.CompetitionId)
	if err != nil {
		return err
	}
	if time.Now().After(competition.EndDate) {
		return app_error.New(fmt.Errorf("session %d is locked: competition %q ended on %s",
			session.Id, competition.Name, competition.EndDate.Format("2006-01-02")), 409)
	}
	return nil
}

func (s *SessionService) publishEvent(event SessionEvent) {
	if s.writer == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("session-%d", event.SessionId)),
		Value: payload,
	})
	if err != nil {
		metrics.SessionEventPublishErrors.Inc()
		log.Printf("failed to publish session event for session %d: %v", event.SessionId, err)
	}
}

func transitionAllowed(from repository.SessionStatus, to repository.SessionStatus) bool {
	return utils.Contains(allowedTransitions[from], to)
}

func rangeById(round *repository.Round, roundRangeId int) *repository.RoundRange {
	if round == nil {
		return nil
	}
	for _, roundRange := range round.Ranges {
		if roundRange.Id == roundRangeId {
			return roundRange
		}
	}
	return nil
}
