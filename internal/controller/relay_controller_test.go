package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"care-relay-be/internal/dto"
	"care-relay-be/internal/pkg/logger"
	"care-relay-be/internal/pkg/serverutils"
	"care-relay-be/internal/repository/memory"
	"care-relay-be/internal/service"
	"care-relay-be/internal/websocket"
	"care-relay-be/pkg/pairing"
	"care-relay-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct{}

func (stubAgent) Reply(context.Context, string, []store.Turn) (string, error) {
	return "stub reply", nil
}

type failingAgent struct{ err error }

func (a failingAgent) Reply(context.Context, string, []store.Turn) (string, error) {
	return "", a.err
}

func setupApp(t *testing.T) (*fiber.App, service.IRelayService) {
	t.Helper()
	return setupAppWithAgent(t, stubAgent{})
}

func setupAppWithAgent(t *testing.T, agent service.IAgentService) (*fiber.App, service.IRelayService) {
	t.Helper()
	table, err := pairing.New(map[string]string{"patient1": "expert1"}, []string{"patient4"})
	require.NoError(t, err)

	svc := service.NewRelayService(
		websocket.NewHub(logger.NewNopLogger()),
		table,
		memory.NewConversationRepository(),
		agent,
		nil,
		logger.NewNopLogger(),
	)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewRelayController(svc).RegisterRoutes(app.Group("/api"))
	return app, svc
}

func multipartUpload(t *testing.T, fields map[string]string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("file", "note.txt")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadNote(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		file       []byte
		wantStatus int
	}{
		{"success", map[string]string{"patient_id": "patient1"}, []byte("Discharged after appendectomy."), 200},
		{"unpaired patient still stored", map[string]string{"patient_id": "walk-in"}, []byte("note"), 200},
		{"missing patient_id", map[string]string{}, []byte("note"), 400},
		{"missing file", map[string]string{"patient_id": "patient1"}, nil, 400},
		{"invalid utf-8", map[string]string{"patient_id": "patient1"}, []byte{0xc3, 0x28}, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, svc := setupApp(t)
			body, contentType := multipartUpload(t, tt.fields, tt.file)

			req := httptest.NewRequest("POST", "/api/upload-note", body)
			req.Header.Set("Content-Type", contentType)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus != 200 {
				var errRes serverutils.BaseResponse[any]
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&errRes))
				assert.False(t, errRes.Success)
				if id, ok := tt.fields["patient_id"]; ok {
					_, stored := svc.Conversation(id)
					assert.False(t, stored, "failed upload must not store anything")
				}
				return
			}

			var res serverutils.BaseResponse[dto.UploadNoteResponse]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
			assert.True(t, res.Success)
			assert.Equal(t, tt.fields["patient_id"], res.Data.PatientID)
			assert.Equal(t, len(tt.file), res.Data.Bytes)
			assert.False(t, res.Data.DeliveredToExpert)

			conv, ok := svc.Conversation(tt.fields["patient_id"])
			require.True(t, ok)
			assert.Equal(t, string(tt.file), conv.Document)
		})
	}
}

func TestGetConversation(t *testing.T) {
	app, svc := setupApp(t)
	_, err := svc.UploadDocument(context.Background(), "patient1", "Rest.")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/patients/patient1/conversation", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var res serverutils.BaseResponse[dto.ConversationResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "patient1", res.Data.PatientID)
	assert.Equal(t, "Rest.", res.Data.Document)
	assert.Empty(t, res.Data.History)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/patients/nobody/conversation", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var res serverutils.BaseResponse[dto.HealthResponse]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "ok", res.Data.Status)
	assert.Equal(t, 1, res.Data.Pairs)
	assert.Equal(t, 1, res.Data.AgentRouted)
}

func TestChat(t *testing.T) {
	tests := []struct {
		name       string
		agent      service.IAgentService
		body       string
		wantStatus int
		wantReply  string
		wantMsg    string
	}{
		{"agent-routed patient", stubAgent{}, `{"patient_id":"patient4","message":"Can I drive?"}`, 200, "stub reply", ""},
		{"paired patient", stubAgent{}, `{"patient_id":"patient1","message":"hi"}`, 403, "", "not routed to the agent"},
		{"missing message", stubAgent{}, `{"patient_id":"patient4"}`, 400, "", "Message"},
		{"malformed body", stubAgent{}, `{"patient_id":`, 400, "", ""},
		{"agent failure", failingAgent{errors.New("model offline")}, `{"patient_id":"patient4","message":"hi"}`, 502, "", "Error: model offline"},
		{"agent timeout", failingAgent{service.ErrAgentTimeout}, `{"patient_id":"patient4","message":"hi"}`, 504, "", "Error: agent timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, svc := setupAppWithAgent(t, tt.agent)

			req := httptest.NewRequest("POST", "/api/chat", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus != 200 {
				var errRes serverutils.BaseResponse[any]
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&errRes))
				assert.False(t, errRes.Success)
				assert.Contains(t, errRes.Message, tt.wantMsg)
				return
			}

			var res serverutils.BaseResponse[dto.ChatResponse]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
			assert.True(t, res.Success)
			assert.Equal(t, tt.wantReply, res.Data.Response)

			conv, ok := svc.Conversation("patient4")
			require.True(t, ok)
			assert.Len(t, conv.History, 2)
		})
	}
}
