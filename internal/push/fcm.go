package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	fcmScope    = "https://www.googleapis.com/auth/firebase.messaging"
	fcmEndpoint = "https://fcm.googleapis.com/v1/projects/%s/messages:send"
)

// FCM sends through the HTTP v1 API.
type FCM struct {
	client *http.Client
	url    string
}

// NewFCM builds a sender from service-account JSON. When credentialsJSON is
// empty it is read from credentialsFile.
func NewFCM(ctx context.Context, projectID string, credentialsJSON []byte, credentialsFile string) (*FCM, error) {
	if len(credentialsJSON) == 0 && credentialsFile != "" {
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account: %w", err)
		}
		credentialsJSON = b
	}
	if len(credentialsJSON) == 0 || projectID == "" {
		return nil, ErrDisabled
	}
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	// The token source outlives the setup context.
	client := oauth2.NewClient(context.WithoutCancel(ctx), creds.TokenSource)
	return NewFCMWithClient(client, fmt.Sprintf(fcmEndpoint, projectID)), nil
}

// NewFCMWithClient uses an already-authorised client against url.
func NewFCMWithClient(client *http.Client, url string) *FCM {
	return &FCM{client: client, url: url}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data"`
}

func (f *FCM) SendToken(ctx context.Context, token string, m Message) Result {
	data := m.Data
	if data == nil {
		data = map[string]string{}
	}
	payload, err := json.Marshal(map[string]fcmMessage{"message": {
		Token:        token,
		Notification: fcmNotification{Title: m.Title, Body: m.Body},
		Data:         data,
	}})
	if err != nil {
		return Result{Token: token, Status: 0, Body: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(payload))
	if err != nil {
		return Result{Token: token, Body: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.WarnContext(ctx, "fcm request failed", "err", err)
		return Result{Token: token, Body: err.Error()}
	}
	defer resp.Body.Close()

	var body any
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(raw) > 0 && json.Unmarshal(raw, &body) != nil {
		body = string(raw)
	}
	if resp.StatusCode >= 300 {
		slog.WarnContext(ctx, "fcm rejected message", "status", resp.StatusCode)
	}
	return Result{Token: token, Status: resp.StatusCode, Body: body}
}
