package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unievents/internal/app/models"
	"github.com/yigit/unievents/internal/pkg/apperrors"
	"github.com/yigit/unievents/internal/pkg/cache"
)

// memDB is an in-memory stand-in for the postgres schema. The per-table
// fakes below share it so that cross-table effects (waitlist promotion,
// volunteer hours) behave like the real repositories.
type memDB struct {
	mu     sync.Mutex
	nextID int64

	users         map[int64]*models.User
	tokens        map[string]fakeToken
	events        map[int64]*models.Event
	registrations []*models.Registration
	attendances   []*models.Attendance
	certificates  []*models.Certificate
	clubs         map[int64]*models.Club
	members       []*models.ClubMember
	buses         map[int64]*models.Bus
	reservations  []*models.BusReservation
	notifications []*models.Notification
	feedback      []*models.Feedback
	contacts      map[int64]*models.Contact
}

type fakeToken struct {
	userID  int64
	expiry  time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*models.User{},
		tokens:   map[string]fakeToken{},
		events:   map[int64]*models.Event{},
		clubs:    map[int64]*models.Club{},
		buses:    map[int64]*models.Bus{},
		contacts: map[int64]*models.Contact{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

// addUser stores a confirmed, active student unless the caller overrides fields
func (db *memDB) addUser(u *models.User) *models.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u.ID = db.id()
	if u.UserType == "" {
		u.UserType = models.UserTypeStudent
	}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addEvent(e *models.Event) *models.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	e.ID = db.id()
	db.events[e.ID] = e
	return e
}

func (db *memDB) addClub(c *models.Club) *models.Club {
	db.mu.Lock()
	defer db.mu.Unlock()
	c.ID = db.id()
	db.clubs[c.ID] = c
	return c
}

func (db *memDB) notificationsFor(userID int64) []*models.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*models.Notification
	for _, n := range db.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func page[T any](items []T, offset, limit uint64) []T {
	if offset >= uint64(len(items)) {
		return []T{}
	}
	end := offset + limit
	if limit == 0 || end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[offset:end]
}

// users

type fakeUserRepo struct{ *memDB }

func (r fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = r.id()
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r fakeUserRepo) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	r.users[user.ID] = copyUser(user)
	return nil
}

func (r fakeUserRepo) modify(id int64, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r fakeUserRepo) UpdatePassword(_ context.Context, userID int64, hash string) error {
	return r.modify(userID, func(u *models.User) { u.PasswordHash = hash })
}

func (r fakeUserRepo) ConfirmEmail(_ context.Context, userID int64) error {
	return r.modify(userID, func(u *models.User) { u.EmailConfirmed = true })
}

func (r fakeUserRepo) SetTwoFactor(_ context.Context, userID int64, enabled bool) error {
	return r.modify(userID, func(u *models.User) { u.TwoFactorEnabled = enabled })
}

func (r fakeUserRepo) SetUserType(_ context.Context, userID int64, userType models.UserType) error {
	return r.modify(userID, func(u *models.User) { u.UserType = userType })
}

func (r fakeUserRepo) UpdateLastLogin(_ context.Context, userID int64, at time.Time) error {
	return r.modify(userID, func(u *models.User) { u.LastLoginAt = &at })
}

func (r fakeUserRepo) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r fakeUserRepo) List(_ context.Context, filter models.UserFilter, offset, limit uint64) ([]*models.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if filter.UserType != "" && u.UserType != filter.UserType {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.FullName()+" "+u.Email), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, offset, limit), int64(len(out)), nil
}

func (r fakeUserRepo) ListActiveIDs(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for id, u := range r.users {
		if u.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r fakeUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// refresh tokens

type fakeTokenRepo struct{ *memDB }

func (r fakeTokenRepo) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = fakeToken{userID: userID, expiry: expiry}
	return nil
}

func (r fakeTokenRepo) RotateToken(_ context.Context, oldToken, newToken string, expiry time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[oldToken]
	if !ok {
		return 0, apperrors.ErrTokenNotFound
	}
	if t.revoked {
		return 0, apperrors.ErrTokenRevoked
	}
	t.revoked = true
	r.tokens[oldToken] = t
	r.tokens[newToken] = fakeToken{userID: t.userID, expiry: expiry}
	return t.userID, nil
}

func (r fakeTokenRepo) RevokeToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	r.tokens[token] = t
	return nil
}

func (r fakeTokenRepo) RevokeAllUserTokens(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.userID == userID {
			t.revoked = true
			r.tokens[k] = t
		}
	}
	return nil
}

func (r fakeTokenRepo) activeCount(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.userID == userID && !t.revoked {
			n++
		}
	}
	return n
}

// events

type fakeEventRepo struct{ *memDB }

func (r fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.id()
	r.events[event.ID] = copyEvent(event)
	return nil
}

func (r fakeEventRepo) GetByID(_ context.Context, id int64) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return copyEvent(e), nil
}

func (r fakeEventRepo) GetBySecret(_ context.Context, secret string) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Secret != "" && e.Secret == secret {
			return copyEvent(e), nil
		}
	}
	return nil, apperrors.ErrEventNotFound
}

func (r fakeEventRepo) Update(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return apperrors.ErrEventNotFound
	}
	r.events[event.ID] = copyEvent(event)
	return nil
}

func (r fakeEventRepo) modify(id int64, fn func(e *models.Event)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return apperrors.ErrEventNotFound
	}
	fn(e)
	return nil
}

func (r fakeEventRepo) Approve(_ context.Context, id int64) error {
	return r.modify(id, func(e *models.Event) { e.IsApproved = true })
}

func (r fakeEventRepo) SetImageURL(_ context.Context, id int64, url string) error {
	return r.modify(id, func(e *models.Event) { e.ImageURL = &url })
}

func (r fakeEventRepo) SetSecret(_ context.Context, id int64, secret string) error {
	return r.modify(id, func(e *models.Event) { e.Secret = secret })
}

func (r fakeEventRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return apperrors.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r fakeEventRepo) sorted(keep func(e *models.Event) bool, asc bool) []*models.Event {
	var out []*models.Event
	for _, e := range r.events {
		if keep(e) {
			out = append(out, copyEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].EventDate.After(out[j].EventDate)
	})
	return out
}

func (r fakeEventRepo) List(_ context.Context, filter models.EventFilter, offset, limit uint64) ([]*models.Event, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(e *models.Event) bool {
		if filter.OnlyApproved && !e.IsApproved {
			return false
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			return false
		}
		q := strings.ToLower(filter.Search)
		return q == "" || strings.Contains(strings.ToLower(e.Title+" "+e.Description), q)
	}, false)
	return page(out, offset, limit), int64(len(out)), nil
}

func (r fakeEventRepo) ListUpcoming(_ context.Context, now time.Time, limit uint64) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(e *models.Event) bool { return e.IsApproved && !e.EventDate.Before(now) }, true)
	return page(out, 0, limit), nil
}

func (r fakeEventRepo) ListUpcomingForUser(_ context.Context, userID int64, now time.Time, limit uint64) ([]*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	registered := map[int64]bool{}
	for _, reg := range r.registrations {
		if reg.UserID == userID && reg.Status != models.RegistrationCancelled {
			registered[reg.EventID] = true
		}
	}
	out := r.sorted(func(e *models.Event) bool { return registered[e.ID] && !e.EventDate.Before(now) }, true)
	return page(out, 0, limit), nil
}

func (r fakeEventRepo) Stats(_ context.Context, eventID int64) (*models.EventStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &models.EventStats{}
	for _, reg := range r.registrations {
		if reg.EventID != eventID {
			continue
		}
		switch reg.Status {
		case models.RegistrationConfirmed:
			s.ConfirmedCount++
		case models.RegistrationWaitlist:
			s.WaitlistCount++
		}
	}
	sum := 0
	for _, f := range r.feedback {
		if f.EventID == eventID {
			s.FeedbackCount++
			sum += f.Rating
		}
	}
	if s.FeedbackCount > 0 {
		s.AverageRating = models.Round2(float64(sum) / float64(s.FeedbackCount))
	}
	return s, nil
}

func (r fakeEventRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.events)), nil
}

// registrations

type fakeRegistrationRepo struct{ *memDB }

func (r fakeRegistrationRepo) activeLocked(eventID, userID int64) *models.Registration {
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.UserID == userID && reg.Status != models.RegistrationCancelled {
			return reg
		}
	}
	return nil
}

func (r fakeRegistrationRepo) Register(_ context.Context, eventID, userID int64, guestCount int, now time.Time) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[eventID]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if r.activeLocked(eventID, userID) != nil {
		return nil, apperrors.ErrAlreadyRegistered
	}
	confirmed := 0
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Status == models.RegistrationConfirmed {
			confirmed++
		}
	}
	reg := &models.Registration{
		ID:               r.id(),
		EventID:          eventID,
		UserID:           userID,
		RegistrationDate: now,
		Status:           models.DecideRegistrationStatus(confirmed, event.MaxCapacity),
		GuestCount:       guestCount,
	}
	r.registrations = append(r.registrations, reg)
	c := *reg
	return &c, nil
}

func (r fakeRegistrationRepo) Cancel(_ context.Context, regID, userID int64) (*models.Registration, *models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var target *models.Registration
	for _, reg := range r.registrations {
		if reg.ID == regID && reg.UserID == userID {
			target = reg
		}
	}
	if target == nil {
		return nil, nil, apperrors.ErrRegistrationNotFound
	}
	if target.Status == models.RegistrationCancelled {
		return nil, nil, apperrors.ErrRegistrationCancelled
	}
	wasConfirmed := target.Status == models.RegistrationConfirmed
	target.Status = models.RegistrationCancelled
	cancelled := *target

	if !wasConfirmed {
		return &cancelled, nil, nil
	}
	for _, reg := range r.registrations {
		if reg.EventID == target.EventID && reg.Status == models.RegistrationWaitlist {
			reg.Status = models.RegistrationConfirmed
			promoted := *reg
			return &cancelled, &promoted, nil
		}
	}
	return &cancelled, nil, nil
}

func (r fakeRegistrationRepo) GetByID(_ context.Context, id int64) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.registrations {
		if reg.ID == id {
			c := *reg
			return &c, nil
		}
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r fakeRegistrationRepo) GetActive(_ context.Context, eventID, userID int64) (*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg := r.activeLocked(eventID, userID); reg != nil {
		c := *reg
		return &c, nil
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r fakeRegistrationRepo) ListByUser(_ context.Context, userID int64) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Registration, 0)
	for _, reg := range r.registrations {
		if reg.UserID == userID {
			c := *reg
			if e, ok := r.events[reg.EventID]; ok {
				c.Event = copyEvent(e)
			}
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r fakeRegistrationRepo) ListByEvent(_ context.Context, eventID int64) ([]*models.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Registration, 0)
	for _, reg := range r.registrations {
		if reg.EventID == eventID {
			c := *reg
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r fakeRegistrationRepo) ListActiveUserIDs(_ context.Context, eventID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, reg := range r.registrations {
		if reg.EventID == eventID && reg.Status != models.RegistrationCancelled {
			ids = append(ids, reg.UserID)
		}
	}
	return ids, nil
}

func (r fakeRegistrationRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.registrations)), nil
}

// attendance

type fakeAttendanceRepo struct{ *memDB }

func (r fakeAttendanceRepo) find(eventID, userID int64) *models.Attendance {
	for _, a := range r.attendances {
		if a.EventID == eventID && a.UserID == userID {
			return a
		}
	}
	return nil
}

func (r fakeAttendanceRepo) Get(_ context.Context, eventID, userID int64) (*models.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a := r.find(eventID, userID); a != nil {
		c := *a
		return &c, nil
	}
	return nil, apperrors.ErrAttendanceNotFound
}

func (r fakeAttendanceRepo) CheckIn(_ context.Context, eventID, userID int64, qrCode string, now time.Time) (*models.Attendance, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.find(eventID, userID)
	if a != nil && a.IsPresent {
		c := *a
		return &c, false, nil
	}
	if a == nil {
		a = &models.Attendance{ID: r.id(), EventID: eventID, UserID: userID}
		r.attendances = append(r.attendances, a)
	}
	a.IsPresent = true
	a.CheckInTime = now
	a.QRCode = qrCode
	c := *a
	return &c, true, nil
}

func (r fakeAttendanceRepo) Mark(_ context.Context, eventID, userID int64, isPresent bool, qrCode string, now time.Time) (*models.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.find(eventID, userID)
	if a == nil {
		a = &models.Attendance{ID: r.id(), EventID: eventID, UserID: userID, QRCode: qrCode}
		r.attendances = append(r.attendances, a)
	}
	a.IsPresent = isPresent
	a.CheckInTime = now
	c := *a
	return &c, nil
}

func (r fakeAttendanceRepo) ListByEvent(_ context.Context, eventID int64) ([]*models.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Attendance, 0)
	for _, a := range r.attendances {
		if a.EventID == eventID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r fakeAttendanceRepo) ListByUser(_ context.Context, userID int64) ([]*models.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Attendance, 0)
	for _, a := range r.attendances {
		if a.UserID == userID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r fakeAttendanceRepo) ListPresentWithoutCertificate(_ context.Context, eventID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, a := range r.attendances {
		if a.EventID != eventID || !a.IsPresent {
			continue
		}
		has := false
		for _, c := range r.certificates {
			if c.EventID == eventID && c.UserID == a.UserID {
				has = true
			}
		}
		if !has {
			ids = append(ids, a.UserID)
		}
	}
	return ids, nil
}

func (r fakeAttendanceRepo) CountPresentByUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.attendances {
		if a.UserID == userID && a.IsPresent {
			n++
		}
	}
	return n, nil
}

// certificates

type fakeCertificateRepo struct{ *memDB }

func (r fakeCertificateRepo) Issue(_ context.Context, cert *models.Certificate, volunteerHours int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certificates {
		if c.EventID == cert.EventID && c.UserID == cert.UserID {
			return apperrors.ErrCertificateExists
		}
	}
	cert.ID = r.id()
	cert.CertificateURL = models.CertificateDownloadURL(cert.ID)
	c := *cert
	r.certificates = append(r.certificates, &c)
	if u, ok := r.users[cert.UserID]; ok {
		u.TotalVolunteerHours += volunteerHours
	}
	return nil
}

func (r fakeCertificateRepo) GetByID(_ context.Context, id int64) (*models.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certificates {
		if c.ID == id {
			cp := *c
			if e, ok := r.events[c.EventID]; ok {
				cp.Event = copyEvent(e)
			}
			if u, ok := r.users[c.UserID]; ok {
				cp.User = copyUser(u)
			}
			return &cp, nil
		}
	}
	return nil, apperrors.ErrCertificateNotFound
}

func (r fakeCertificateRepo) MarkDownloaded(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.certificates {
		if c.ID == id {
			c.IsDownloaded = true
			return nil
		}
	}
	return apperrors.ErrCertificateNotFound
}

func (r fakeCertificateRepo) list(keep func(c *models.Certificate) bool) []*models.Certificate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Certificate, 0)
	for _, c := range r.certificates {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (r fakeCertificateRepo) ListByUser(_ context.Context, userID int64) ([]*models.Certificate, error) {
	return r.list(func(c *models.Certificate) bool { return c.UserID == userID }), nil
}

func (r fakeCertificateRepo) ListByEvent(_ context.Context, eventID int64) ([]*models.Certificate, error) {
	return r.list(func(c *models.Certificate) bool { return c.EventID == eventID }), nil
}

// clubs

type fakeClubRepo struct{ *memDB }

func (r fakeClubRepo) Create(_ context.Context, club *models.Club) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	club.ID = r.id()
	c := *club
	r.clubs[club.ID] = &c
	return nil
}

func (r fakeClubRepo) GetByID(_ context.Context, id int64) (*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clubs[id]
	if !ok {
		return nil, apperrors.ErrClubNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeClubRepo) List(_ context.Context, activeOnly bool) ([]*models.Club, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Club, 0)
	for _, c := range r.clubs {
		if activeOnly && !c.IsActive {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClubName < out[j].ClubName })
	return out, nil
}

func (r fakeClubRepo) Update(_ context.Context, club *models.Club) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clubs[club.ID]; !ok {
		return apperrors.ErrClubNotFound
	}
	c := *club
	r.clubs[club.ID] = &c
	return nil
}

func (r fakeClubRepo) SetLogoURL(_ context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clubs[id]
	if !ok {
		return apperrors.ErrClubNotFound
	}
	c.LogoURL = &url
	return nil
}

func (r fakeClubRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clubs[id]; !ok {
		return apperrors.ErrClubNotFound
	}
	delete(r.clubs, id)
	kept := r.members[:0]
	for _, m := range r.members {
		if m.ClubID != id {
			kept = append(kept, m)
		}
	}
	r.members = kept
	return nil
}

func (r fakeClubRepo) findMember(keep func(m *models.ClubMember) bool) *models.ClubMember {
	for _, m := range r.members {
		if keep(m) {
			return m
		}
	}
	return nil
}

func (r fakeClubRepo) GetMembership(_ context.Context, clubID, userID int64) (*models.ClubMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(func(m *models.ClubMember) bool { return m.ClubID == clubID && m.UserID == userID })
	if m == nil {
		return nil, apperrors.ErrClubMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeClubRepo) GetMemberByID(_ context.Context, id int64) (*models.ClubMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(func(m *models.ClubMember) bool { return m.ID == id })
	if m == nil {
		return nil, apperrors.ErrClubMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeClubRepo) CreateMember(_ context.Context, member *models.ClubMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findMember(func(m *models.ClubMember) bool { return m.ClubID == member.ClubID && m.UserID == member.UserID }) != nil {
		return apperrors.ErrClubMembershipExists
	}
	member.ID = r.id()
	cp := *member
	r.members = append(r.members, &cp)
	return nil
}

func (r fakeClubRepo) ResetToPending(_ context.Context, id int64, joinDate time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(func(m *models.ClubMember) bool { return m.ID == id })
	if m == nil {
		return apperrors.ErrClubMembershipNotFound
	}
	m.Status = models.MembershipPending
	m.JoinDate = joinDate
	return nil
}

func (r fakeClubRepo) SetMemberStatus(_ context.Context, id int64, status models.MembershipStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.findMember(func(m *models.ClubMember) bool { return m.ID == id })
	if m == nil {
		return apperrors.ErrClubMembershipNotFound
	}
	if m.Status != models.MembershipPending {
		return apperrors.ErrClubMembershipNotPending
	}
	m.Status = status
	return nil
}

func (r fakeClubRepo) DeleteMember(_ context.Context, clubID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members {
		if m.ClubID == clubID && m.UserID == userID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrClubMembershipNotFound
}

func (r fakeClubRepo) ListMembers(_ context.Context, clubID int64, status *models.MembershipStatus) ([]*models.ClubMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ClubMember, 0)
	for _, m := range r.members {
		if m.ClubID == clubID && (status == nil || m.Status == *status) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeClubRepo) ListMembershipsByUser(_ context.Context, userID int64) ([]*models.ClubMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.ClubMember, 0)
	for _, m := range r.members {
		if m.UserID == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// buses

type fakeBusRepo struct{ *memDB }

func (r fakeBusRepo) Create(_ context.Context, bus *models.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[bus.EventID]; !ok {
		return apperrors.ErrEventNotFound
	}
	bus.ID = r.id()
	b := *bus
	r.buses[bus.ID] = &b
	return nil
}

func (r fakeBusRepo) GetByID(_ context.Context, id int64) (*models.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buses[id]
	if !ok {
		return nil, apperrors.ErrBusNotFound
	}
	cp := *b
	return &cp, nil
}

func (r fakeBusRepo) Update(_ context.Context, bus *models.Bus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.buses[bus.ID]
	if !ok {
		return apperrors.ErrBusNotFound
	}
	if bus.Capacity < stored.CurrentPassengers {
		return apperrors.ErrCapacityBelowLoad
	}
	b := *bus
	b.CurrentPassengers = stored.CurrentPassengers
	r.buses[bus.ID] = &b
	return nil
}

func (r fakeBusRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.buses[id]; !ok {
		return apperrors.ErrBusNotFound
	}
	delete(r.buses, id)
	return nil
}

func (r fakeBusRepo) ListByEvent(_ context.Context, eventID int64) ([]*models.Bus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Bus, 0)
	for _, b := range r.buses {
		if b.EventID == eventID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeBusRepo) Reserve(_ context.Context, busID, userID int64, passengerCount int, now time.Time) (*models.BusReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buses[busID]
	if !ok {
		return nil, apperrors.ErrBusNotFound
	}
	for _, res := range r.reservations {
		if res.BusID == busID && res.UserID == userID && res.Status == models.ReservationConfirmed {
			return nil, apperrors.ErrAlreadyReserved
		}
	}
	if b.CurrentPassengers+passengerCount > b.Capacity {
		return nil, apperrors.ErrBusFull
	}
	b.CurrentPassengers += passengerCount
	res := &models.BusReservation{
		ID:              r.id(),
		BusID:           busID,
		UserID:          userID,
		ReservationDate: now,
		PassengerCount:  passengerCount,
		Status:          models.ReservationConfirmed,
	}
	r.reservations = append(r.reservations, res)
	cp := *res
	return &cp, nil
}

func (r fakeBusRepo) CancelReservation(_ context.Context, reservationID, userID int64) (*models.BusReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.reservations {
		if res.ID == reservationID && res.UserID == userID && res.Status == models.ReservationConfirmed {
			res.Status = models.ReservationCancelled
			if b, ok := r.buses[res.BusID]; ok {
				b.CurrentPassengers -= res.PassengerCount
			}
			cp := *res
			return &cp, nil
		}
	}
	return nil, apperrors.ErrReservationNotFound
}

func (r fakeBusRepo) ListReservationsByUser(_ context.Context, userID int64) ([]*models.BusReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.BusReservation, 0)
	for _, res := range r.reservations {
		if res.UserID == userID && res.Status == models.ReservationConfirmed {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeBusRepo) ListReservationsByBus(_ context.Context, busID int64) ([]*models.BusReservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.BusReservation, 0)
	for _, res := range r.reservations {
		if res.BusID == busID {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

// notifications

type fakeNotificationRepo struct{ *memDB }

func (r fakeNotificationRepo) CreateMany(_ context.Context, batch []*models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range batch {
		n.ID = r.id()
		cp := *n
		r.notifications = append(r.notifications, &cp)
	}
	return nil
}

func (r fakeNotificationRepo) find(id, userID int64) *models.Notification {
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			return n
		}
	}
	return nil
}

func (r fakeNotificationRepo) GetByID(_ context.Context, id, userID int64) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := r.find(id, userID); n != nil {
		cp := *n
		return &cp, nil
	}
	return nil, apperrors.ErrNotificationNotFound
}

func (r fakeNotificationRepo) ListByUser(_ context.Context, userID int64, offset, limit uint64) ([]*models.Notification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if n := r.notifications[i]; n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (r fakeNotificationRepo) CountUnread(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r fakeNotificationRepo) MarkRead(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.find(id, userID)
	if n == nil {
		return apperrors.ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (r fakeNotificationRepo) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (r fakeNotificationRepo) Delete(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotificationNotFound
}

// feedback

type fakeFeedbackRepo struct{ *memDB }

func (r fakeFeedbackRepo) Create(_ context.Context, f *models.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.feedback {
		if existing.EventID == f.EventID && existing.UserID == f.UserID {
			return apperrors.ErrFeedbackExists
		}
	}
	f.ID = r.id()
	cp := *f
	r.feedback = append(r.feedback, &cp)
	return nil
}

func (r fakeFeedbackRepo) Exists(_ context.Context, eventID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.feedback {
		if f.EventID == eventID && f.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeFeedbackRepo) List(_ context.Context, offset, limit uint64) ([]*models.Feedback, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Feedback, 0, len(r.feedback))
	for i := len(r.feedback) - 1; i >= 0; i-- {
		cp := *r.feedback[i]
		out = append(out, &cp)
	}
	return page(out, offset, limit), int64(len(out)), nil
}

func (r fakeFeedbackRepo) ListByEvent(_ context.Context, eventID int64) ([]*models.Feedback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Feedback, 0)
	for _, f := range r.feedback {
		if f.EventID == eventID {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeFeedbackRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.feedback {
		if f.ID == id {
			r.feedback = append(r.feedback[:i], r.feedback[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrFeedbackNotFound
}

// contacts

type fakeContactRepo struct{ *memDB }

func (r fakeContactRepo) Create(_ context.Context, c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r fakeContactRepo) GetByID(_ context.Context, id int64) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, apperrors.ErrContactNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeContactRepo) List(_ context.Context, resolved *bool, offset, limit uint64) ([]*models.Contact, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Contact, 0)
	for _, c := range r.contacts {
		if resolved == nil || c.IsResolved == *resolved {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, offset, limit), int64(len(out)), nil
}

func (r fakeContactRepo) Respond(_ context.Context, id int64, response string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return apperrors.ErrContactNotFound
	}
	c.AdminResponse = &response
	c.ResponseDate = &at
	c.IsResolved = true
	return nil
}

func (r fakeContactRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[id]; !ok {
		return apperrors.ErrContactNotFound
	}
	delete(r.contacts, id)
	return nil
}

// reports

type fakeReportRepo struct {
	*memDB
	statsCalls int
}

func (r *fakeReportRepo) SystemStatistics(_ context.Context, now time.Time) (*models.SystemStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsCalls++
	s := &models.SystemStatistics{
		TotalEvents:        int64(len(r.events)),
		TotalUsers:         int64(len(r.users)),
		TotalRegistrations: int64(len(r.registrations)),
		TotalCertificates:  int64(len(r.certificates)),
		TotalFeedback:      int64(len(r.feedback)),
	}
	for _, e := range r.events {
		if e.EventDate.Before(now) {
			s.PastEvents++
		} else {
			s.UpcomingEvents++
		}
	}
	for _, a := range r.attendances {
		if a.IsPresent {
			s.TotalAttendance++
		}
	}
	s.AttendanceRate = models.Percentage(int(s.TotalAttendance), int(s.TotalRegistrations))
	return s, nil
}

func (r *fakeReportRepo) EventCounts(_ context.Context, report *models.EventReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := report.Event.ID
	for _, reg := range r.registrations {
		if reg.EventID != id {
			continue
		}
		report.TotalRegistrations++
		switch reg.Status {
		case models.RegistrationConfirmed:
			report.ConfirmedRegistrations++
		case models.RegistrationWaitlist:
			report.WaitlistRegistrations++
		}
	}
	for _, a := range r.attendances {
		if a.EventID == id && a.IsPresent {
			report.PresentAttendance++
		}
	}
	report.AttendanceRate = models.Percentage(report.PresentAttendance, report.TotalRegistrations)
	report.VolunteerHours = report.Event.VolunteerHours
	return nil
}

func (r *fakeReportRepo) UserRows(_ context.Context) ([]*models.UserReportRow, error) {
	return []*models.UserReportRow{}, nil
}

func (r *fakeReportRepo) EventRows(_ context.Context) ([]*models.EventReportRow, error) {
	return []*models.EventReportRow{}, nil
}

// collaborators

type sentMail struct {
	kind string
	to   string
	code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(kind, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, code: code})
	return nil
}

func (m *fakeMailer) SendEmailVerificationCode(_ context.Context, to, _, code string) error {
	return m.record("verify", to, code)
}

func (m *fakeMailer) Send2FACode(_ context.Context, to, _, code string) error {
	return m.record("2fa", to, code)
}

func (m *fakeMailer) SendPasswordResetCode(_ context.Context, to, _, code string) error {
	return m.record("reset", to, code)
}

func (m *fakeMailer) SendPasswordChangeCode(_ context.Context, to, _, code string) error {
	return m.record("change", to, code)
}

func (m *fakeMailer) SendRegistrationConfirmation(_ context.Context, to, _, _ string, _ time.Time, _ string) error {
	return m.record("registration", to, "")
}

func (m *fakeMailer) SendCertificateIssued(_ context.Context, to, _, _, number, _ string) error {
	return m.record("certificate", to, number)
}

// lastCode returns the most recent code mailed with kind
func (m *fakeMailer) lastCode(kind string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i].code
		}
	}
	return ""
}

func (m *fakeMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

type fakePusher struct {
	mu     sync.Mutex
	pushed []*models.Notification
}

func (p *fakePusher) PushNotification(n *models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, n)
}

type fakeSMS struct {
	enabled bool
	err     error
	sent    []string
	bodies  []string
}

func (f *fakeSMS) Enabled() bool { return f.enabled }

func (f *fakeSMS) Send(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to)
	f.bodies = append(f.bodies, body)
	return nil
}

var errMailDown = errors.New("mail server down")

// testEnv wires every service to the same in-memory state
type testEnv struct {
	db     *memDB
	cache  *cache.Store
	mailer *fakeMailer
	pusher *fakePusher
	now    time.Time

	users         fakeUserRepo
	tokens        fakeTokenRepo
	events        fakeEventRepo
	registrations fakeRegistrationRepo
	attendance    fakeAttendanceRepo
	certificates  fakeCertificateRepo
	clubs         fakeClubRepo
	buses         fakeBusRepo
	notifRepo     fakeNotificationRepo
	feedbackRepo  fakeFeedbackRepo
	contactRepo   fakeContactRepo
	reportRepo    *fakeReportRepo

	otp           OTPService
	notifications NotificationService
}

func newTestEnv() *testEnv {
	db := newMemDB()
	env := &testEnv{
		db:            db,
		cache:         cache.New(time.Hour, time.Minute),
		mailer:        &fakeMailer{},
		pusher:        &fakePusher{},
		now:           time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC),
		users:         fakeUserRepo{db},
		tokens:        fakeTokenRepo{db},
		events:        fakeEventRepo{db},
		registrations: fakeRegistrationRepo{db},
		attendance:    fakeAttendanceRepo{db},
		certificates:  fakeCertificateRepo{db},
		clubs:         fakeClubRepo{db},
		buses:         fakeBusRepo{db},
		notifRepo:     fakeNotificationRepo{db},
		feedbackRepo:  fakeFeedbackRepo{db},
		contactRepo:   fakeContactRepo{db},
		reportRepo:    &fakeReportRepo{memDB: db},
	}
	env.otp = NewOTPService(env.cache, time.Minute, zerolog.Nop())
	ns := NewNotificationService(env.notifRepo, env.users, env.events, env.registrations, env.pusher, env.cache, zerolog.Nop())
	ns.(*notificationServiceImpl).now = env.clock
	env.notifications = ns
	return env
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) student(email string) *models.User {
	return e.db.addUser(&models.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       "Student",
		EmailConfirmed: true,
		IsActive:       true,
		UserType:       models.UserTypeStudent,
	})
}

func (e *testEnv) admin(email string) *models.User {
	return e.db.addUser(&models.User{
		Email:          email,
		FirstName:      "Test",
		LastName:       "Admin",
		EmailConfirmed: true,
		IsActive:       true,
		UserType:       models.UserTypeAdmin,
	})
}

// event stores an approved event starting at offset from the env clock
func (e *testEnv) event(offset time.Duration, capacity, hours int) *models.Event {
	return e.db.addEvent(&models.Event{
		Title:          "Campus Cleanup",
		Description:    "Bring gloves",
		EventDate:      e.now.Add(offset),
		Venue:          "Main Hall",
		IsApproved:     true,
		MaxCapacity:    capacity,
		EventType:      models.EventTypeVolunteer,
		VolunteerHours: hours,
		Secret:         models.NewEventSecret(),
	})
}

func (e *testEnv) registrationService() *registrationServiceImpl {
	s := NewRegistrationService(e.registrations, e.events, e.users, e.notifications, e.mailer, e.cache, zerolog.Nop()).(*registrationServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) attendanceService() *attendanceServiceImpl {
	s := NewAttendanceService(e.attendance, e.events, e.registrations, e.users, e.notifications, e.cache, zerolog.Nop()).(*attendanceServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) certificateService() *certificateServiceImpl {
	s := NewCertificateService(e.certificates, e.attendance, e.events, e.users, e.notifications, e.mailer, e.cache, zerolog.Nop()).(*certificateServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) clubService() *clubServiceImpl {
	s := NewClubService(e.clubs, e.users, e.notifications, nil, e.cache, zerolog.Nop()).(*clubServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) busService() *busServiceImpl {
	s := NewBusService(e.buses, e.events, e.notifications, zerolog.Nop()).(*busServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) feedbackService() *feedbackServiceImpl {
	s := NewFeedbackService(e.feedbackRepo, e.attendance, e.events, e.cache, zerolog.Nop()).(*feedbackServiceImpl)
	s.now = e.clock
	return s
}

func (e *testEnv) dashboardService() *dashboardServiceImpl {
	s := NewDashboardService(e.users, e.events, e.registrations, e.attendance, e.certificates, e.clubs, e.notifRepo, e.cache, zerolog.Nop()).(*dashboardServiceImpl)
	s.now = e.clock
	return s
}
