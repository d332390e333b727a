package services

import (
	"context"
	"time"

	"github.com/contactsbook/apiserver/types"
)

// upcomingBirthdayWindow is the number of days ahead (inclusive)
// covered by the birthday query.
const upcomingBirthdayWindow = 7

// ContactRepository defines persistence operations for contacts.
type ContactRepository interface {
	GetByID(ctx context.Context, ownerID, id int) (types.Contact, error)
	GetByEmail(ctx context.Context, ownerID int, email string) (types.Contact, error)
	List(ctx context.Context, ownerID, offset, limit int) ([]types.Contact, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Contact, error)
	Search(ctx context.Context, ownerID int, query string) ([]types.Contact, error)
	ListAll(ctx context.Context, offset, limit int) ([]types.Contact, error)
	Create(ctx context.Context, contact types.Contact) (types.Contact, error)
	Update(ctx context.Context, contact types.Contact) (types.Contact, error)
	UpdateField(ctx context.Context, ownerID, id int, field, value string) (types.Contact, error)
	Delete(ctx context.Context, ownerID, id int) (types.Contact, error)
}

// ContactService encapsulates contact use-cases.
type ContactService struct {
	repo ContactRepository
}

func NewContactService(repo ContactRepository) *ContactService {
	return &ContactService{repo: repo}
}

func (s *ContactService) Get(ctx context.Context, ownerID, id int) (types.Contact, error) {
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *ContactService) GetByEmail(ctx context.Context, ownerID int, email string) (types.Contact, error) {
	return s.repo.GetByEmail(ctx, ownerID, email)
}

func (s *ContactService) List(ctx context.Context, ownerID, offset, limit int) ([]types.Contact, error) {
	return s.repo.List(ctx, ownerID, offset, limit)
}

func (s *ContactService) Search(ctx context.Context, ownerID int, query string) ([]types.Contact, error) {
	return s.repo.Search(ctx, ownerID, query)
}

func (s *ContactService) ListAll(ctx context.Context, offset, limit int) ([]types.Contact, error) {
	return s.repo.ListAll(ctx, offset, limit)
}

func (s *ContactService) Create(ctx context.Context, contact types.Contact) (types.Contact, error) {
	return s.repo.Create(ctx, contact)
}

func (s *ContactService) Update(ctx context.Context, contact types.Contact) (types.Contact, error) {
	return s.repo.Update(ctx, contact)
}

func (s *ContactService) UpdateField(ctx context.Context, ownerID, id int, field, value string) (types.Contact, error) {
	return s.repo.UpdateField(ctx, ownerID, id, field, value)
}

func (s *ContactService) Delete(ctx context.Context, ownerID, id int) (types.Contact, error) {
	return s.repo.Delete(ctx, ownerID, id)
}

// UpcomingBirthdays returns the owner's contacts whose next birthday
// falls within the next seven days, today included.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerID int) ([]types.Contact, error) {
	contacts, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(time.Now())
	upcoming := make([]types.Contact, 0)
	for _, contact := range contacts {
		if birthdayWithin(contact.BirthDate.Time, today, upcomingBirthdayWindow) {
			upcoming = append(upcoming, contact)
		}
	}
	return upcoming, nil
}

// birthdayWithin reports whether the next occurrence of the birth date
// falls within the given number of days from today, inclusive.
func birthdayWithin(birth, today time.Time, days int) bool {
	next := nextBirthday(birth, today)
	return !next.After(today.AddDate(0, 0, days))
}

// nextBirthday shifts the birth date's year component to the first
// occurrence on or after today. Feb 29 birthdays fall on Feb 28 in
// non-leap years.
func nextBirthday(birth, today time.Time) time.Time {
	next := birthdayInYear(birth, today.Year(), today.Location())
	if next.Before(today) {
		next = birthdayInYear(birth, today.Year()+1, today.Location())
	}
	return next
}

func birthdayInYear(birth time.Time, year int, loc *time.Location) time.Time {
	month, day := birth.Month(), birth.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
