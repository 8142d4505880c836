package smtpsender

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodies(t *testing.T) {
	text := textBody("Uno", "AB12")
	require.Contains(t, text, "Hello Uno,")
	require.Contains(t, text, "AB12")

	html := htmlBody("Uno", "AB12")
	require.Contains(t, html, "<strong>AB12</strong>")
	require.Contains(t, html, "Hello Uno,")
}

func TestBodies_NoName(t *testing.T) {
	require.Contains(t, textBody("", "AB12"), "Hello,")
	require.Contains(t, htmlBody("  ", "AB12"), "Hello,")
}

func TestHTMLBody_EscapesInput(t *testing.T) {
	html := htmlBody("<script>", "AB12")
	require.NotContains(t, html, "<script>")
}

func TestSendVerificationCode_EmptyRecipient(t *testing.T) {
	s := NewSender("localhost", 2525, "from@example.com", "", "")
	err := s.SendVerificationCode(context.Background(), "", "Uno", "AB12")
	require.Error(t, err)
}
