package main

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"

	"care-relay-be/internal/constant"

	"github.com/fasthttp/websocket"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newChatCmd(baseURL *string) *cobra.Command {
	var role, id string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Connect as a patient or expert and chat over stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != "patient" && role != "expert" {
				return fmt.Errorf("role must be patient or expert, got %q", role)
			}
			wsURL, err := websocketURL(*baseURL, role, id)
			if err != nil {
				return err
			}
			return runChat(wsURL)
		},
	}
	cmd.Flags().StringVar(&role, "role", "patient", "patient or expert")
	cmd.Flags().StringVar(&id, "id", "", "participant identifier")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func websocketURL(base, role, id string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws/" + role
	u.RawQuery = url.Values{"user_id": {id}}.Encode()
	return u.String(), nil
}

func runChat(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()
	color.Cyan("Connected to %s (Ctrl+D to quit)", wsURL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				color.Yellow("Connection closed: %v", err)
				return
			}
			printFrame(string(data))
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func printFrame(text string) {
	switch {
	case strings.HasPrefix(text, "[Discharge Note"):
		color.Magenta("%s", text)
	case strings.HasPrefix(text, "Error: "),
		text == constant.NoticeUnrecognized,
		text == constant.NoticeNoExpert,
		text == constant.NoticeNoPatient:
		color.Red("%s", text)
	default:
		color.Green("< %s", text)
	}
}
