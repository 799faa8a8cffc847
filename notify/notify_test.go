package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cardaverse-ai/cardaverse-customcard/config"
	"github.com/cardaverse-ai/cardaverse-customcard/core"
)

func testNotification() core.Notification {
	return core.Notification{
		Recipient:    "jo@example.com",
		Subject:      "Your Custom Cards Are Ready - Order #1001",
		CustomerName: "Jo",
		OrderNumber:  "1001",
		Items: []core.DownloadItem{
			{Title: "Birthday Card", Quantity: 2, DownloadURL: "https://files.test/a.pdf?token=x&y=1"},
			{Title: "Thank <You> Card", Quantity: 1, DownloadURL: "https://files.test/b.pdf"},
		},
	}
}

func TestRender(t *testing.T) {
	html, text, err := Render(testNotification())
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}

	for _, want := range []string{"Hi Jo,", "Order #1001", "Quantity: 2", "Birthday Card", "valid for 30 days"} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
	if !strings.Contains(html, "Thank &lt;You&gt; Card") {
		t.Error("HTML body should escape titles")
	}
	if !strings.Contains(html, `href="https://files.test/a.pdf?token=x&amp;y=1"`) {
		t.Error("HTML body should contain the escaped download link")
	}

	for _, want := range []string{
		"Hi Jo,",
		"Thank you for your order #1001!",
		"Birthday Card (Quantity: 2)",
		"Download: https://files.test/a.pdf?token=x&y=1",
		"Thank <You> Card (Quantity: 1)",
		SupportAddress,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text body missing %q", want)
		}
	}
}

type fakeSender struct {
	from       string
	recipients []string
	msg        []byte
	err        error
}

func (f *fakeSender) Send(reversePath string, recipients []string, msg []byte) error {
	f.from, f.recipients, f.msg = reversePath, recipients, msg
	return f.err
}

func TestSMTPNotifier_Send(t *testing.T) {
	sender := &fakeSender{}
	n := &smtpNotifier{sender: sender, from: "orders@cards.test"}

	if err := n.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if sender.from != "orders@cards.test" {
		t.Errorf("Reverse path = %q", sender.from)
	}
	if len(sender.recipients) != 1 || sender.recipients[0] != "jo@example.com" {
		t.Errorf("Recipients = %v", sender.recipients)
	}
	msg := string(sender.msg)
	if !strings.Contains(msg, "Subject: Your Custom Cards Are Ready - Order #1001") {
		t.Error("Message is missing the subject")
	}
	if !strings.Contains(msg, "text/html") || !strings.Contains(msg, "text/plain") {
		t.Error("Message should carry both HTML and text parts")
	}
}

func TestSMTPNotifier_Error(t *testing.T) {
	n := &smtpNotifier{sender: &fakeSender{err: errors.New("relay refused")}, from: "orders@cards.test"}
	if err := n.Send(context.Background(), testNotification()); err == nil || !strings.Contains(err.Error(), "relay refused") {
		t.Errorf("Expected relay error, got %v", err)
	}
}

func TestResendNotifier_Send(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/emails") {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer re_test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		json.NewDecoder(r.Body).Decode(&payload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"email_123"}`))
	}))
	defer srv.Close()

	n := NewResend("re_test", "orders@cards.test")
	base, _ := url.Parse(srv.URL + "/")
	n.client.BaseURL = base

	if err := n.Send(context.Background(), testNotification()); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if payload["from"] != "orders@cards.test" || payload["subject"] != "Your Custom Cards Are Ready - Order #1001" {
		t.Errorf("Unexpected payload: %v", payload)
	}
	to, _ := payload["to"].([]any)
	if len(to) != 1 || to[0] != "jo@example.com" {
		t.Errorf("to = %v", payload["to"])
	}
	if html, _ := payload["html"].(string); !strings.Contains(html, "Birthday Card") {
		t.Error("HTML body not sent")
	}
}

func TestGetNotifier(t *testing.T) {
	if _, err := GetNotifier(config.EmailConfig{Notifier: "resend"}); err == nil {
		t.Error("resend without API key should fail")
	}
	if _, err := GetNotifier(config.EmailConfig{Notifier: "smtp"}); err == nil {
		t.Error("smtp without address should fail")
	}

	n, err := GetNotifier(config.EmailConfig{})
	if err != nil {
		t.Fatalf("GetNotifier() failed: %v", err)
	}
	if err := n.Send(context.Background(), testNotification()); err != nil {
		t.Errorf("Log notifier Send() failed: %v", err)
	}
}
