package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convo-ai/convo_ai/internal/notification"
)

type recordingNotifier struct {
	messages []notification.Message
}

func (r *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	r.messages = append(r.messages, m)
	return nil
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (Intent, error) {
	return Intent{}, errors.Join(ErrClassifierUnavailable, errors.New("connection refused"))
}

func TestServiceReply(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewService(NewKeywordClassifier(nil), notifier)

	reply, err := svc.Reply(context.Background(), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "greet", reply.Intent)
	assert.Equal(t, "Intent recognized: greet", reply.Response)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, notification.KindChatMessage, notifier.messages[0].Kind)
	assert.Equal(t, "greet", notifier.messages[0].Properties["intent"])
}

func TestServiceReplyUnknown(t *testing.T) {
	svc := NewService(NewKeywordClassifier(nil), nil)

	reply, err := svc.Reply(context.Background(), "qwerty")
	require.NoError(t, err)
	assert.Equal(t, UnknownIntent, reply.Intent)
	assert.Equal(t, "Intent recognized: Unknown", reply.Response)
}

func TestServiceReplyEmpty(t *testing.T) {
	svc := NewService(NewKeywordClassifier(nil), nil)

	_, err := svc.Reply(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func chat(t *testing.T, app *fiber.App, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestHandlerChat(t *testing.T) {
	app := fiber.New()
	app.Post("/chat", NewHandler(NewService(NewKeywordClassifier(nil), nil)).Chat)

	status, body := chat(t, app, `{"message":"what is my balance"}`)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "check_balance", body["intent"])
	assert.Equal(t, "Intent recognized: check_balance", body["response"])
	assert.Contains(t, body, "confidence")

	status, _ = chat(t, app, `{"message":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = chat(t, app, `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestHandlerChatClassifierDown(t *testing.T) {
	app := fiber.New()
	app.Post("/chat", NewHandler(NewService(failingClassifier{}, nil)).Chat)

	status, _ := chat(t, app, `{"message":"hello"}`)
	assert.Equal(t, fiber.StatusBadGateway, status)
}
