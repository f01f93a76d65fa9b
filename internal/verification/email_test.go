package verification

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/walidkhelifa/consulink/internal/models"
	"github.com/walidkhelifa/consulink/pkg/mail"
)

type recordingMailer struct {
	messages []mail.Message
	err      error
}

func (m *recordingMailer) Send(ctx context.Context, message mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, message)
	return nil
}

var codePattern = regexp.MustCompile(`[0-9]{6}`)

func extractCode(t *testing.T, body string) string {
	t.Helper()
	code := codePattern.FindString(body)
	require.NotEmpty(t, code, "message body should carry a 6-digit code")
	return code
}

func openEmailTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.EmailCode{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func TestEmailChannelSendStoresOnlyHash(t *testing.T) {
	db := openEmailTestDB(t)
	mailer := &recordingMailer{}
	channel, err := NewEmailChannel(db, mailer)
	require.NoError(t, err)

	ref, err := channel.Send(context.Background(), "amina@example.org")
	require.NoError(t, err)
	require.Empty(t, ref)

	require.Len(t, mailer.messages, 1)
	require.Equal(t, []string{"amina@example.org"}, mailer.messages[0].To)
	code := extractCode(t, mailer.messages[0].Body)

	var record models.EmailCode
	require.NoError(t, db.Take(&record, "identifier = ?", "amina@example.org").Error)
	require.NotEqual(t, code, record.CodeHash)
	require.Len(t, record.CodeHash, 64)
	require.NotContains(t, record.CodeHash, code)
}

func TestEmailChannelVerify(t *testing.T) {
	db := openEmailTestDB(t)
	mailer := &recordingMailer{}
	channel, err := NewEmailChannel(db, mailer)
	require.NoError(t, err)

	_, err = channel.Send(context.Background(), "amina@example.org")
	require.NoError(t, err)
	code := extractCode(t, mailer.messages[0].Body)

	ok, err := channel.Verify(context.Background(), "amina@example.org", "000000")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = channel.Verify(context.Background(), "amina@example.org", code)
	require.NoError(t, err)
	require.True(t, ok)

	// The stored code is deleted on success.
	ok, err = channel.Verify(context.Background(), "amina@example.org", code)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmailChannelVerifyExpired(t *testing.T) {
	db := openEmailTestDB(t)
	mailer := &recordingMailer{}
	current := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	channel, err := NewEmailChannel(db, mailer,
		WithEmailCodeTTL(15*time.Minute),
		WithEmailClock(func() time.Time { return current }),
	)
	require.NoError(t, err)

	_, err = channel.Send(context.Background(), "amina@example.org")
	require.NoError(t, err)
	code := extractCode(t, mailer.messages[0].Body)

	current = current.Add(16 * time.Minute)

	ok, err := channel.Verify(context.Background(), "amina@example.org", code)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEmailChannelResendReplacesCode(t *testing.T) {
	db := openEmailTestDB(t)
	mailer := &recordingMailer{}
	channel, err := NewEmailChannel(db, mailer)
	require.NoError(t, err)

	_, err = channel.Send(context.Background(), "amina@example.org")
	require.NoError(t, err)
	_, err = channel.Send(context.Background(), "amina@example.org")
	require.NoError(t, err)

	require.Len(t, mailer.messages, 2)
	first := extractCode(t, mailer.messages[0].Body)
	second := extractCode(t, mailer.messages[1].Body)

	var count int64
	require.NoError(t, db.Model(&models.EmailCode{}).
		Where("identifier = ?", "amina@example.org").Count(&count).Error)
	require.EqualValues(t, 1, count)

	// Only the latest code verifies; the superseded one is dead even if the
	// pair happens to collide numerically.
	if first != second {
		ok, verifyErr := channel.Verify(context.Background(), "amina@example.org", first)
		require.NoError(t, verifyErr)
		require.False(t, ok)
	}

	ok, err := channel.Verify(context.Background(), "amina@example.org", second)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEmailChannelToleratesDisabledSMTP(t *testing.T) {
	db := openEmailTestDB(t)
	mailer := &recordingMailer{err: mail.ErrSMTPDisabled}
	channel, err := NewEmailChannel(db, mailer)
	require.NoError(t, err)

	_, err = channel.Send(context.Background(), "amina@example.org")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.EmailCode{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
