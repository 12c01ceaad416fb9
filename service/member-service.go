package service

import (
	"fmt"
	"math/rand"
	"scorehub/app_error"
	"scorehub/config"
	"scorehub/repository"

	"gorm.io/gorm"
)

type MemberService struct {
	memberRepository   *repository.MemberRepository
	categoryRepository *repository.CategoryRepository
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{
		memberRepository:   repository.NewMemberRepository(db),
		categoryRepository: repository.NewCategoryRepository(db),
	}
}

func (s *MemberService) GetAllMembers() ([]*repository.Member, error) {
	return s.memberRepository.FindAll("Gender", "Division")
}

func (s *MemberService) GetMemberById(memberId int) (*repository.Member, error) {
	return s.memberRepository.GetMemberById(memberId, "Gender", "Division")
}

func (s *MemberService) GetMemberByAvNumber(avNumber string) (*repository.Member, error) {
	return s.memberRepository.GetMemberByAvNumber(avNumber)
}

// CreateMember registers a member. Competitors get a club number assigned if
// they do not carry one yet; recorders must have neither division nor club
// number.
func (s *MemberService) CreateMember(member *repository.Member) (*repository.Member, error) {
	if err := s.validate(member); err != nil {
		return nil, err
	}
	if !member.IsRecorder && member.AvNumber == nil {
		avNumber, err := s.generateAvNumber()
		if err != nil {
			return nil, err
		}
		member.AvNumber = &avNumber
	}
	return s.memberRepository.Save(member)
}

func (s *MemberService) UpdateMember(memberId int, update *repository.Member) (*repository.Member, error) {
	member, err := s.memberRepository.GetMemberById(memberId)
	if err != nil {
		return nil, err
	}
	if update.FullName != "" {
		member.FullName = update.FullName
	}
	if update.BirthYear != 0 {
		member.BirthYear = update.BirthYear
	}
	if update.GenderId != 0 {
		member.GenderId = update.GenderId
	}
	if update.DivisionId != nil {
		member.DivisionId = update.DivisionId
	}
	if err := s.validate(member); err != nil {
		return nil, err
	}
	return s.memberRepository.Save(member)
}

// validate enforces the registry invariant at the write boundary instead of
// relying on sentinel values in the division column.
func (s *MemberService) validate(member *repository.Member) error {
	if member.IsRecorder {
		if member.DivisionId != nil {
			return app_error.New(fmt.Errorf("recorders do not have a division"), 400)
		}
		if member.AvNumber != nil {
			return app_error.New(fmt.Errorf("recorders do not have a club number"), 400)
		}
		return nil
	}
	if member.DivisionId == nil {
		return app_error.New(fmt.Errorf("competing members must have a division"), 400)
	}
	return nil
}

func (s *MemberService) generateAvNumber() (string, error) {
	prefix := config.Env().ClubNumberPrefix
	for range 100 {
		avNumber := fmt.Sprintf("%s%03d", prefix, rand.Intn(1000))
		exists, err := s.memberRepository.AvNumberExists(avNumber)
		if err != nil {
			return "", err
		}
		if !exists {
			return avNumber, nil
		}
	}
	return "", app_error.New(fmt.Errorf("could not find a free club number with prefix %s", prefix), 409)
}
