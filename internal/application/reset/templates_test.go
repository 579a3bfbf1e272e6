package reset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuildResetLink(t *testing.T) {
	assert.Equal(t,
		"https://app.example.com/reset-password?token=tok123",
		BuildResetLink("https://app.example.com", "tok123"))
}

func TestBuildResetLink_ReservedCharactersAreNotEncoded(t *testing.T) {
	link := BuildResetLink("https://app.example.com", "a/b?c=d&e#f g+h")
	assert.Equal(t, "https://app.example.com/reset-password?token=a/b?c=d&e#f g+h", link)
}

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage("no-reply@example.com", "a@b.com", "https://app.example.com", "tok123")
	require.NoError(t, err)

	assert.Equal(t, "no-reply@example.com", msg.From)
	assert.Equal(t, "a@b.com", msg.To)
	assert.Equal(t, "Password Reset Request for Weather App", msg.Subject)

	assert.Contains(t, msg.HTMLBody, `href="https://app.example.com/reset-password?token=tok123"`)
	assert.Contains(t, msg.HTMLBody, "This link will expire in 1 hour.")
	assert.Contains(t, msg.TextBody, "https://app.example.com/reset-password?token=tok123")
	assert.Contains(t, msg.TextBody, "This link will expire in 1 hour.")
	assert.NotContains(t, msg.TextBody, "<")
}

func testLinkEmbeddedVerbatim(t *rapid.T) {
	base := rapid.StringMatching(`https://[a-z]{1,12}\.example\.com(/[a-z]{1,8})?`).Draw(t, "base")
	token := rapid.StringMatching(`[A-Za-z0-9._~:/?#\[\]@!$&'()*+,;=%-]{1,64}`).Draw(t, "token")

	msg, err := BuildMessage("from@example.com", "to@example.com", base, token)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := base + "/reset-password?token=" + token
	if !strings.Contains(msg.HTMLBody, want) {
		t.Fatalf("html body does not contain %q", want)
	}
	if !strings.Contains(msg.TextBody, want) {
		t.Fatalf("text body does not contain %q", want)
	}
}

func TestBuildMessage_LinkEmbeddedVerbatim(t *testing.T) {
	rapid.Check(t, testLinkEmbeddedVerbatim)
}
