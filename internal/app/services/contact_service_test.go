package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unievents/internal/app/models/dto"
	"github.com/yigit/unievents/internal/pkg/apperrors"
)

func (e *testEnv) contactService() *contactServiceImpl {
	s := NewContactService(e.contactRepo, zerolog.Nop()).(*contactServiceImpl)
	s.now = e.clock
	return s
}

func validContact() *dto.ContactRequest {
	general := "<em>General</em>"
	return &dto.ContactRequest{
		FullName:    "Ada Lovelace",
		Email:       "ada@uni.edu",
		Phone:       "+905551112233",
		Subject:     "Parking <script>alert(1)</script>",
		Message:     "<p>Where can visitors park?</p>",
		InquiryType: &general,
	}
}

func TestContactSubmit_StripsMarkup(t *testing.T) {
	env := newTestEnv()
	svc := env.contactService()

	c, err := svc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	assert.Equal(t, "Parking", c.Subject)
	assert.Equal(t, "Where can visitors park?", c.Message)
	require.NotNil(t, c.InquiryType)
	assert.Equal(t, "General", *c.InquiryType)
	assert.False(t, c.IsResolved)
	assert.Equal(t, env.now, c.SubmittedDate)

	req := validContact()
	req.FullName = "<b></b>"
	_, err = svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestContactRespond_Resolves(t *testing.T) {
	env := newTestEnv()
	svc := env.contactService()
	ctx := context.Background()

	open, err := svc.Submit(ctx, validContact())
	require.NoError(t, err)
	other, err := svc.Submit(ctx, validContact())
	require.NoError(t, err)

	_, err = svc.Respond(ctx, open.ID, "   ")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	answered, err := svc.Respond(ctx, open.ID, "Use lot <b>B</b>")
	require.NoError(t, err)
	assert.True(t, answered.IsResolved)
	require.NotNil(t, answered.AdminResponse)
	assert.Equal(t, "Use lot B", *answered.AdminResponse)
	require.NotNil(t, answered.ResponseDate)

	_, err = svc.Respond(ctx, 9999, "hello")
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)

	unresolved := false
	list, err := svc.List(ctx, &unresolved, 1, 10)
	require.NoError(t, err)
	require.Len(t, list.Contacts, 1)
	assert.Equal(t, other.ID, list.Contacts[0].ID)

	require.NoError(t, svc.Delete(ctx, other.ID))
	_, err = svc.Get(ctx, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrContactNotFound)
}
